package kv

import (
	"database/sql"
	"strings"

	// PostgreSQL driver, registered for database/sql under "postgres".
	_ "github.com/lib/pq"

	"github.com/txpipe/balius/balerr"
)

// SQL is a Provider backed by a single `balius_kv` table, for operators
// who want worker state in the same Postgres instance their other
// infrastructure already uses.
type SQL struct {
	db *sql.DB
}

// OpenSQL opens a Postgres connection and ensures the backing table
// exists.
func OpenSQL(dataSourceName string) (*SQL, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, balerr.KV(err.Error())
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS balius_kv (
			worker_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value BYTEA NOT NULL,
			PRIMARY KEY (worker_id, key)
		)`); err != nil {
		db.Close()
		return nil, balerr.KV(err.Error())
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Close() error { return s.db.Close() }

func (s *SQL) GetValue(workerID, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(
		`SELECT value FROM balius_kv WHERE worker_id = $1 AND key = $2`,
		workerID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, balerr.KVNotFound(key)
	}
	if err != nil {
		return nil, balerr.KV(err.Error())
	}
	return value, nil
}

func (s *SQL) SetValue(workerID, key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO balius_kv (worker_id, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (worker_id, key) DO UPDATE SET value = EXCLUDED.value`,
		workerID, key, value,
	)
	if err != nil {
		return balerr.KV(err.Error())
	}
	return nil
}

func (s *SQL) ListValues(workerID, prefix string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT key FROM balius_kv WHERE worker_id = $1 AND key LIKE $2 ORDER BY key`,
		workerID, escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, balerr.KV(err.Error())
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, balerr.KV(err.Error())
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
