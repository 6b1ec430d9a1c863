package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"bompick/internal"
	"bompick/internal/session"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS line_items (
  sessionId TEXT NOT NULL,
  id INTEGER NOT NULL,
  fieldsJson TEXT NOT NULL,
  refDesJson TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  conflictsJson TEXT NOT NULL,
  selectedCandidateId TEXT,
  PRIMARY KEY(sessionId, id),
  FOREIGN KEY(sessionId) REFERENCES sessions(id)
);

CREATE TABLE IF NOT EXISTS candidates (
  sessionId TEXT NOT NULL,
  lineItemId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  candidateId TEXT NOT NULL,
  candidateJson TEXT NOT NULL,
  PRIMARY KEY(sessionId, lineItemId, position),
  FOREIGN KEY(sessionId) REFERENCES sessions(id)
);
CREATE INDEX IF NOT EXISTS idx_candidates_line ON candidates(sessionId, lineItemId);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveSession snapshots the whole session: line items, candidate lists
// and selections replace the previous state in one transaction.
func (d *DB) SaveSession(s *session.Session) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Reopening a name replaces the previous run under it.
	var stale string
	err = tx.QueryRow(`SELECT id FROM sessions WHERE name = ? AND id != ?`, s.Name, s.ID).Scan(&stale)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if stale != "" {
		for _, q := range []string{
			`DELETE FROM candidates WHERE sessionId = ?`,
			`DELETE FROM line_items WHERE sessionId = ?`,
			`DELETE FROM sessions WHERE id = ?`,
		} {
			if _, err := tx.Exec(q, stale); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(`
INSERT INTO sessions (id, name) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET updatedAt=CURRENT_TIMESTAMP`, s.ID, s.Name); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM line_items WHERE sessionId = ?`, s.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM candidates WHERE sessionId = ?`, s.ID); err != nil {
		return err
	}

	itemStmt, err := tx.Prepare(`
INSERT INTO line_items (sessionId, id, fieldsJson, refDesJson, quantity, conflictsJson, selectedCandidateId)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer itemStmt.Close()

	candStmt, err := tx.Prepare(`
INSERT INTO candidates (sessionId, lineItemId, position, candidateId, candidateJson)
VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer candStmt.Close()

	for _, item := range s.Items {
		fieldsJSON, err := json.Marshal(item.Fields)
		if err != nil {
			return err
		}
		refDesJSON, _ := json.Marshal(item.RefDes)
		conflictsJSON, _ := json.Marshal(item.Conflicts)
		if _, err := itemStmt.Exec(s.ID, item.ID, string(fieldsJSON), string(refDesJSON),
			item.Quantity, string(conflictsJSON), item.SelectedCandidateID); err != nil {
			return err
		}

		for pos, c := range s.Candidates(item.ID) {
			candJSON, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if _, err := candStmt.Exec(s.ID, item.ID, pos, c.ID, string(candJSON)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// LoadSession restores a session by name.
func (d *DB) LoadSession(name string) (*session.Session, error) {
	var id string
	err := d.conn.QueryRow(`SELECT id FROM sessions WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no session named %q", name)
	}
	if err != nil {
		return nil, err
	}

	items, err := d.loadLineItems(id)
	if err != nil {
		return nil, err
	}
	candidates, err := d.loadCandidates(id)
	if err != nil {
		return nil, err
	}

	return session.Restore(id, name, items, candidates), nil
}

func (d *DB) loadLineItems(sessionID string) ([]internal.LineItem, error) {
	rows, err := d.conn.Query(`
SELECT id, fieldsJson, refDesJson, quantity, conflictsJson, selectedCandidateId
FROM line_items WHERE sessionId = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []internal.LineItem
	for rows.Next() {
		var item internal.LineItem
		var fieldsJSON, refDesJSON, conflictsJSON string
		var selected sql.NullString
		if err := rows.Scan(&item.ID, &fieldsJSON, &refDesJSON, &item.Quantity, &conflictsJSON, &selected); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &item.Fields); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(refDesJSON), &item.RefDes)
		_ = json.Unmarshal([]byte(conflictsJSON), &item.Conflicts)
		if selected.Valid {
			v := selected.String
			item.SelectedCandidateID = &v
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (d *DB) loadCandidates(sessionID string) (map[int][]internal.Candidate, error) {
	rows, err := d.conn.Query(`
SELECT lineItemId, candidateJson
FROM candidates WHERE sessionId = ? ORDER BY lineItemId, position`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int][]internal.Candidate{}
	for rows.Next() {
		var lineItemID int
		var candJSON string
		if err := rows.Scan(&lineItemID, &candJSON); err != nil {
			return nil, err
		}
		var c internal.Candidate
		if err := json.Unmarshal([]byte(candJSON), &c); err != nil {
			return nil, err
		}
		out[lineItemID] = append(out[lineItemID], c)
	}
	return out, rows.Err()
}

// ListSessions returns session names, most recently updated first.
func (d *DB) ListSessions() ([]string, error) {
	rows, err := d.conn.Query(`SELECT name FROM sessions ORDER BY updatedAt DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteSession removes a session and all dependent rows.
func (d *DB) DeleteSession(name string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRow(`SELECT id FROM sessions WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM candidates WHERE sessionId = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM line_items WHERE sessionId = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
