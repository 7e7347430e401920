package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"mindmap_backend/db"
	"mindmap_backend/mindmap"
	"mindmap_backend/tempfiles"

	"go.uber.org/zap/zaptest"
)

// fakePipelines records calls and returns canned results.
type fakePipelines struct {
	topics      mindmap.TopicsResult
	mindmap     mindmap.MindMapResult
	err         error
	gotPath     string
	gotTopic    string
	fileExisted bool
	calls       int
}

func (f *fakePipelines) PDFToTopics(ctx context.Context, path string) (mindmap.TopicsResult, error) {
	f.record(path, "")
	return f.topics, f.err
}

func (f *fakePipelines) TopicToMindmap(ctx context.Context, path, topic string) (mindmap.MindMapResult, error) {
	f.record(path, topic)
	return f.mindmap, f.err
}

func (f *fakePipelines) record(path, topic string) {
	f.calls++
	f.gotPath = path
	f.gotTopic = topic
	_, err := os.Stat(path)
	f.fileExisted = err == nil
}

type fakeHistory struct {
	runs     []db.RunRecord
	stats    db.RunStats
	gotLimit int
}

func (h *fakeHistory) RecentRuns(ctx context.Context, limit int) ([]db.RunRecord, error) {
	h.gotLimit = limit
	return h.runs, nil
}

func (h *fakeHistory) Stats(ctx context.Context) (db.RunStats, error) {
	return h.stats, nil
}

func newTestServer(t *testing.T, config Config, deps Deps) *Server {
	t.Helper()
	if deps.Store == nil {
		deps.Store = tempfiles.NewStore(t.TempDir(), time.Minute, zaptest.NewLogger(t))
	}
	if deps.Logger == nil {
		deps.Logger = zaptest.NewLogger(t)
	}
	s, err := NewServer(config, deps)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

// uploadRequest builds a multipart POST. An empty fileName omits the file part.
func uploadRequest(t *testing.T, target, fileName string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}
