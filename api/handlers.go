package api

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"mindmap_backend/core"
	"mindmap_backend/db"
	"mindmap_backend/pipeline"

	"go.uber.org/zap"
)

// Info is the body of GET /.
type Info struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Info{
		Message: "PDF Mind Map Generator API",
		Version: s.config.Version,
		Endpoints: map[string]string{
			"/pdf/topics":  "POST - Upload PDF and get detected topics",
			"/pdf/mindmap": "POST - Upload PDF with topic and generate mind map",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w) {
		return
	}
	defer s.end()

	if err := s.parseForm(w, r); err != nil {
		writeError(w, s.logger, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	path, err := s.saveUpload(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	defer s.deps.Store.Remove(path)

	result, err := s.deps.Pipelines.PDFToTopics(r.Context(), path)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if result.Topics == nil {
		result.Topics = []string{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMindmap(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w) {
		return
	}
	defer s.end()

	if err := s.parseForm(w, r); err != nil {
		writeError(w, s.logger, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	// The topic is checked before the file.
	topic, err := ValidateTopic(r.FormValue("topic"), s.config.MaxTopicLength)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	path, err := s.saveUpload(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	defer s.deps.Store.Remove(path)

	result, err := s.deps.Pipelines.TopicToMindmap(r.Context(), path, topic)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// maxHistoryLimit caps GET /history?limit=.
const maxHistoryLimit = 100

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, s.logger, core.NewError(core.KindNotFound, "Run history is disabled"))
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, s.logger, core.NewError(core.KindInvalidRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	runs, err := s.deps.History.RecentRuns(r.Context(), limit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if runs == nil {
		runs = []db.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, s.logger, core.NewError(core.KindNotFound, "Run history is disabled"))
		return
	}
	stats, err := s.deps.History.Stats(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// begin registers a pipeline request with the tracker, replying 503 when
// the server is draining.
func (s *Server) begin(w http.ResponseWriter) bool {
	if s.deps.Tracker == nil {
		return true
	}
	if !s.deps.Tracker.Start() {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Unavailable",
			Message: "Server is shutting down",
		})
		return false
	}
	return true
}

func (s *Server) end() {
	if s.deps.Tracker != nil {
		s.deps.Tracker.Done()
	}
}

// parseForm reads the multipart body, bounded by MaxFileSize plus overhead.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxFileSize+multipartOverhead)
	err := r.ParseMultipartForm(32 << 20)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ValidateUpload("", max(r.ContentLength, s.config.MaxFileSize+1), s.config.MaxFileSize)
	}
	return core.WrapError(core.KindInvalidRequest, err, "Invalid multipart form")
}

// saveUpload validates the "file" part and copies it into the temp store.
func (s *Server) saveUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", core.NewError(core.KindInvalidRequest, "A PDF file must be uploaded in the \"file\" field")
	}
	defer file.Close()

	if err := ValidateUpload(header.Filename, header.Size, s.config.MaxFileSize); err != nil {
		return "", err
	}
	return s.store(r.Context(), file, header)
}

func (s *Server) store(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	path, err := s.deps.Store.Save(file, header.Filename)
	if err != nil {
		s.logger.Error("failed to store upload",
			zap.String("file_name", header.Filename),
			zap.Error(err))
		return "", core.WrapError(core.KindInternal, err, "Failed to store uploaded file")
	}
	s.logger.Debug("upload stored",
		zap.String("file_name", header.Filename),
		zap.Int64("size", header.Size),
		zap.String("request_id", pipeline.CorrelationID(ctx)))
	return path, nil
}
