package store

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// Init opens the SQLite database and creates the schema.
func Init(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS sessions (
        id TEXT PRIMARY KEY,
        subject TEXT,
        mode TEXT,
        started_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS window_predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        window_idx INTEGER NOT NULL,
        risk_prob REAL NOT NULL,
        label INTEGER NOT NULL,
        created_at DATETIME NOT NULL,
        UNIQUE(session_id, window_idx)
    );
    CREATE TABLE IF NOT EXISTS validation_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        dataset TEXT NOT NULL,
        threshold REAL NOT NULL,
        windows INTEGER NOT NULL,
        accuracy REAL,
        precision REAL,
        recall REAL,
        f1 REAL,
        run_at DATETIME NOT NULL
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// CreateSession registers a session if it does not exist yet. Repeated
// calls keep the original start time.
func CreateSession(id, subject, mode string) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if id == "" {
		return errors.New("session id required")
	}
	_, err := database.Exec(`
        INSERT OR IGNORE INTO sessions (id, subject, mode, started_at)
        VALUES (?, ?, ?, ?)`,
		id, subject, mode, time.Now().UTC())
	return err
}

// SessionExists reports whether a session has been registered.
func SessionExists(id string) (bool, error) {
	if database == nil {
		return false, errors.New("database not initialized")
	}
	var count int
	err := database.QueryRow(`SELECT COUNT(1) FROM sessions WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type WindowPrediction struct {
	SessionID string    `json:"session_id"`
	WindowIdx int       `json:"window_idx"`
	RiskProb  float64   `json:"risk_prob"`
	Label     int       `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveWindowPredictions stores one classified session segment. Windows
// are keyed by (session, index) so reclassifying a session replaces the
// stored rows.
func SaveWindowPredictions(sessionID string, startIdx int, risks []float64, labels []int) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if sessionID == "" {
		return errors.New("session id required")
	}
	if len(risks) != len(labels) {
		return errors.New("risks/labels length mismatch")
	}
	if len(risks) == 0 {
		return nil
	}

	stmt, err := database.Prepare(`
        INSERT OR REPLACE INTO window_predictions (
            session_id, window_idx, risk_prob, label, created_at
        ) VALUES (?, ?, ?, ?, ?)
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, risk := range risks {
		if _, err := stmt.Exec(sessionID, startIdx+i, risk, labels[i], now); err != nil {
			return err
		}
	}
	return nil
}

// QuerySessionPredictions returns a session's windows in order. A
// non-positive limit returns everything.
func QuerySessionPredictions(sessionID string, limit int) ([]WindowPrediction, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := database.Query(`
        SELECT session_id, window_idx, risk_prob, label, created_at
        FROM window_predictions
        WHERE session_id = ?
        ORDER BY window_idx ASC
        LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]WindowPrediction, 0)
	for rows.Next() {
		var p WindowPrediction
		if err := rows.Scan(&p.SessionID, &p.WindowIdx, &p.RiskProb, &p.Label, &p.CreatedAt); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

type ValidationRun struct {
	Dataset   string    `json:"dataset"`
	Threshold float64   `json:"threshold"`
	Windows   int       `json:"windows"`
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1"`
	RunAt     time.Time `json:"run_at"`
}

// SaveValidationRun appends one evaluation record.
func SaveValidationRun(run ValidationRun) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if run.RunAt.IsZero() {
		run.RunAt = time.Now().UTC()
	}
	_, err := database.Exec(`
        INSERT INTO validation_runs (
            dataset, threshold, windows, accuracy, precision, recall, f1, run_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Dataset, run.Threshold, run.Windows, run.Accuracy, run.Precision, run.Recall, run.F1, run.RunAt)
	return err
}

// LoadValidationRuns returns the most recent evaluation records.
func LoadValidationRuns(limit int) ([]ValidationRun, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := database.Query(`
        SELECT dataset, threshold, windows, accuracy, precision, recall, f1, run_at
        FROM validation_runs
        ORDER BY run_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]ValidationRun, 0)
	for rows.Next() {
		var run ValidationRun
		if err := rows.Scan(&run.Dataset, &run.Threshold, &run.Windows, &run.Accuracy, &run.Precision, &run.Recall, &run.F1, &run.RunAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
