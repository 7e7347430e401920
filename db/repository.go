package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mindmap_backend/pipeline"
)

// timeLayout is how created_at is stored; it sorts and compares the same
// way as SQLite's datetime() output.
const timeLayout = "2006-01-02 15:04:05"

// RunRecord is one row of pipeline_runs.
type RunRecord struct {
	ID            int64     `json:"id" yaml:"id"`
	CorrelationID string    `json:"correlation_id,omitempty" yaml:"correlation_id,omitempty"`
	Pipeline      string    `json:"pipeline" yaml:"pipeline"`
	FileName      string    `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Topic         string    `json:"topic,omitempty" yaml:"topic,omitempty"`
	Status        string    `json:"status" yaml:"status"`
	ErrorKind     string    `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	TopicCount    int       `json:"topic_count" yaml:"topic_count"`
	NodeCount     int       `json:"node_count" yaml:"node_count"`
	DurationMS    int64     `json:"duration_ms" yaml:"duration_ms"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// RecordFromRun converts a finished pipeline run into a row.
func RecordFromRun(run pipeline.Run) RunRecord {
	created := run.StartedAt
	if created.IsZero() {
		created = time.Now()
	}
	return RunRecord{
		CorrelationID: run.CorrelationID,
		Pipeline:      run.Pipeline,
		FileName:      run.FileName,
		Topic:         run.Topic,
		Status:        run.Status,
		ErrorKind:     run.ErrorKind,
		ErrorMessage:  run.ErrorMessage,
		TopicCount:    run.TopicCount,
		NodeCount:     run.NodeCount,
		DurationMS:    run.Duration.Milliseconds(),
		CreatedAt:     created,
	}
}

// RunStats aggregates pipeline_runs.
type RunStats struct {
	Total         int64            `json:"total" yaml:"total"`
	Succeeded     int64            `json:"succeeded" yaml:"succeeded"`
	Failed        int64            `json:"failed" yaml:"failed"`
	AvgDurationMS float64          `json:"avg_duration_ms" yaml:"avg_duration_ms"`
	ByErrorKind   map[string]int64 `json:"by_error_kind" yaml:"by_error_kind"`
}

// Repository reads and writes pipeline_runs. When async writes are enabled,
// InsertRun queues the row and falls back to a direct insert if the queue
// is full.
type Repository struct {
	db          *Database
	asyncWriter *AsyncWriter
}

// NewRepository creates a Repository with synchronous writes.
func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

// EnableAsync starts a background writer for InsertRun and returns it so the
// caller can stop it on shutdown.
func (r *Repository) EnableAsync(config AsyncWriterConfig) *AsyncWriter {
	writer := NewAsyncWriterWithConfig(r.asyncWriteHandler(), config)
	writer.Start()
	r.asyncWriter = writer
	return writer
}

const insertRunQuery = `
	INSERT INTO pipeline_runs (
		correlation_id, pipeline, file_name, topic, status,
		error_kind, error_message, topic_count, node_count,
		duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertRunArgs(record RunRecord) []any {
	return []any{
		nullString(record.CorrelationID),
		record.Pipeline,
		nullString(record.FileName),
		nullString(record.Topic),
		record.Status,
		nullString(record.ErrorKind),
		nullString(record.ErrorMessage),
		record.TopicCount,
		record.NodeCount,
		record.DurationMS,
		record.CreatedAt.UTC().Format(timeLayout),
	}
}

// InsertRun stores record and returns its id, or 0 when the write was queued.
func (r *Repository) InsertRun(ctx context.Context, record RunRecord) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if r.asyncWriter != nil && r.asyncWriter.IsStarted() {
		if r.asyncWriter.Write(record) {
			return 0, nil
		}
	}

	result, err := r.db.exec(ctx, insertRunQuery, insertRunArgs(record)...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert pipeline run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

func (r *Repository) asyncWriteHandler() WriteHandler {
	return func(op WriteOperation) error {
		record, ok := op.Data.(RunRecord)
		if !ok {
			return fmt.Errorf("invalid operation type: expected RunRecord, got %T", op.Data)
		}
		if _, err := r.db.exec(context.Background(), insertRunQuery, insertRunArgs(record)...); err != nil {
			return fmt.Errorf("failed to insert pipeline run: %w", err)
		}
		return nil
	}
}

const selectRunColumns = `
	SELECT id, correlation_id, pipeline, file_name, topic, status,
	       error_kind, error_message, topic_count, node_count,
	       duration_ms, created_at
	FROM pipeline_runs`

// RecentRuns returns up to limit runs, newest first.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.queryRuns(ctx, selectRunColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// RunsByCorrelationID returns every run recorded for a request id.
func (r *Repository) RunsByCorrelationID(ctx context.Context, correlationID string) ([]RunRecord, error) {
	return r.queryRuns(ctx, selectRunColumns+` WHERE correlation_id = ? ORDER BY id`, correlationID)
}

func (r *Repository) queryRuns(ctx context.Context, query string, args ...any) ([]RunRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var records []RunRecord
	err := r.db.query(ctx, func(rows *sql.Rows) error {
		for rows.Next() {
			record, err := scanRun(rows)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	}, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline runs: %w", err)
	}
	return records, nil
}

func scanRun(rows *sql.Rows) (RunRecord, error) {
	var (
		record                         RunRecord
		correlationID, fileName, topic sql.NullString
		errorKind, errorMessage        sql.NullString
		createdAt                      string
	)
	err := rows.Scan(
		&record.ID,
		&correlationID,
		&record.Pipeline,
		&fileName,
		&topic,
		&record.Status,
		&errorKind,
		&errorMessage,
		&record.TopicCount,
		&record.NodeCount,
		&record.DurationMS,
		&createdAt,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to scan pipeline run: %w", err)
	}

	record.CorrelationID = correlationID.String
	record.FileName = fileName.String
	record.Topic = topic.String
	record.ErrorKind = errorKind.String
	record.ErrorMessage = errorMessage.String
	if t, err := time.ParseInLocation(timeLayout, createdAt, time.UTC); err == nil {
		record.CreatedAt = t
	}
	return record, nil
}

// CountRuns returns the number of stored runs.
func (r *Repository) CountRuns(ctx context.Context) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}
	var count int64
	if err := r.db.queryRow(ctx, []any{&count}, "SELECT COUNT(*) FROM pipeline_runs"); err != nil {
		return 0, fmt.Errorf("failed to count pipeline runs: %w", err)
	}
	return count, nil
}

// Stats aggregates all stored runs.
func (r *Repository) Stats(ctx context.Context) (RunStats, error) {
	if r.db == nil {
		return RunStats{}, fmt.Errorf("database connection is nil")
	}

	stats := RunStats{ByErrorKind: make(map[string]int64)}
	var avg sql.NullFloat64
	err := r.db.queryRow(ctx, []any{&stats.Total, &stats.Succeeded, &stats.Failed, &avg}, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       AVG(duration_ms)
		FROM pipeline_runs`, pipeline.StatusSucceeded, pipeline.StatusFailed)
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to aggregate pipeline runs: %w", err)
	}
	stats.AvgDurationMS = avg.Float64

	err = r.db.query(ctx, func(rows *sql.Rows) error {
		for rows.Next() {
			var kind string
			var count int64
			if err := rows.Scan(&kind, &count); err != nil {
				return err
			}
			stats.ByErrorKind[kind] = count
		}
		return nil
	}, `SELECT error_kind, COUNT(*) FROM pipeline_runs
		WHERE error_kind IS NOT NULL GROUP BY error_kind`)
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to count error kinds: %w", err)
	}

	return stats, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) any {
	if s == "" {
		return sql.NullString{}
	}
	return s
}
