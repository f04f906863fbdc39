package logger

import (
	"database/sql"
	"encoding/json"
	"os"
	"sync"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/txpipe/balius/balerr"
)

// Silent drops every log line. Useful for tests and workers that write
// their own telemetry through other means.
type Silent struct{}

func (Silent) Log(string, Level, string, string) {}

// Tracing forwards to a logrus.Logger, matching the teacher's own
// logging stack (core/system_health_logging.go uses logrus directly).
type Tracing struct {
	log *logrus.Logger
}

func NewTracing(log *logrus.Logger) *Tracing { return &Tracing{log: log} }

func (t *Tracing) Log(workerID string, level Level, context, message string) {
	entry := t.log.WithFields(logrus.Fields{"worker": workerID, "context": context})
	switch level {
	case LevelTrace, LevelDebug:
		entry.Debug(message)
	case LevelInfo:
		entry.Info(message)
	case LevelWarn:
		entry.Warn(message)
	case LevelError, LevelCritical:
		entry.Error(message)
	}
}

// File writes one JSON line per log call, grounded on
// core/system_health_logging.go's JSON-formatted file logger.
type File struct {
	mu   sync.Mutex
	file *os.File
}

func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, balerr.IO(err)
	}
	return &File{file: f}, nil
}

func (f *File) Close() error { return f.file.Close() }

func (f *File) Log(workerID string, level Level, context, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	line, err := json.Marshal(struct {
		Worker  string `json:"worker"`
		Level   string `json:"level"`
		Context string `json:"context"`
		Message string `json:"message"`
	}{workerID, level.String(), context, message})
	if err != nil {
		return
	}
	f.file.Write(append(line, '\n'))
}

// SQL writes log lines into a `balius_logs` table, grounded on
// original_source/balius-runtime/src/logging/postgres.rs.
type SQL struct {
	db *sql.DB
}

func OpenSQL(dataSourceName string) (*SQL, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, balerr.IO(err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS balius_logs (
			id SERIAL PRIMARY KEY,
			worker_id TEXT NOT NULL,
			level TEXT NOT NULL,
			context TEXT NOT NULL,
			message TEXT NOT NULL,
			logged_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		db.Close()
		return nil, balerr.IO(err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Close() error { return s.db.Close() }

func (s *SQL) Log(workerID string, level Level, context, message string) {
	s.db.Exec(
		`INSERT INTO balius_logs (worker_id, level, context, message) VALUES ($1, $2, $3, $4)`,
		workerID, level.String(), context, message,
	)
}
