package examprep

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store persists students and their completed tests. The generation
// pipeline itself never writes here; the web server hands finished sets to
// the store on the student's behalf.
type Store struct {
	db *sql.DB
}

// StudentRecord is a stored user account
type StudentRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AnsweredQuestion is a question together with the student's answer
type AnsweredQuestion struct {
	Question
	UserAnswer string `json:"userAnswer"`
	IsCorrect  bool   `json:"isCorrect"`
}

// TestRecord is a completed test
type TestRecord struct {
	ID        string             `json:"id"`
	StudentID string             `json:"studentId"`
	Title     string             `json:"title"`
	Subject   string             `json:"subject"`
	Questions []AnsweredQuestion `json:"questions"`
	Score     float64            `json:"score"`
	Total     float64            `json:"total"`
	CreatedAt time.Time          `json:"createdAt"`
}

// DashboardStats summarizes a student's test history
type DashboardStats struct {
	TotalTests     int        `json:"totalTests"`
	AveragePercent int        `json:"averagePercent"`
	BestPercent    int        `json:"bestPercent"`
	LastTakenAt    *time.Time `json:"lastTakenAt"`
}

// OpenStore opens (and pings) the sqlite database at the given path
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTables creates the schema if it does not exist
func (s *Store) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'student',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tests (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			title TEXT NOT NULL,
			subject TEXT,
			questions TEXT NOT NULL,
			score REAL NOT NULL DEFAULT 0,
			total REAL NOT NULL DEFAULT 5,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (student_id) REFERENCES students(id)
		)`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// CreateStudent stores a new account and returns it with an assigned ID
func (s *Store) CreateStudent(name, email, passwordHash, role string) (*StudentRecord, error) {
	if role == "" {
		role = "student"
	}
	rec := &StudentRecord{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.Exec(
		"INSERT INTO students (id, name, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Name, rec.Email, rec.PasswordHash, rec.Role, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return rec, nil
}

// GetStudent retrieves an account by ID
func (s *Store) GetStudent(id string) (*StudentRecord, error) {
	return s.scanStudent(s.db.QueryRow(
		"SELECT id, name, email, password_hash, role, created_at FROM students WHERE id = ?", id))
}

// GetStudentByEmail retrieves an account by email
func (s *Store) GetStudentByEmail(email string) (*StudentRecord, error) {
	return s.scanStudent(s.db.QueryRow(
		"SELECT id, name, email, password_hash, role, created_at FROM students WHERE email = ?", email))
}

func (s *Store) scanStudent(row *sql.Row) (*StudentRecord, error) {
	var rec StudentRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.PasswordHash, &rec.Role, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("student not found")
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &rec, nil
}

// CreateTest stores a completed test. Question fields are kept verbatim;
// options are serialized into a JSON column.
func (s *Store) CreateTest(rec *TestRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Score > rec.Total {
		rec.Score = rec.Total
	}

	questionsJSON, err := json.Marshal(rec.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO tests (id, student_id, title, subject, questions, score, total, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.StudentID, rec.Title, rec.Subject, string(questionsJSON), rec.Score, rec.Total, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}
	return nil
}

// GetTest retrieves one test, scoped to the owning student
func (s *Store) GetTest(id, studentID string) (*TestRecord, error) {
	row := s.db.QueryRow(
		"SELECT id, student_id, title, subject, questions, score, total, created_at FROM tests WHERE id = ? AND student_id = ?",
		id, studentID,
	)
	rec, err := scanTest(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("test not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return rec, nil
}

// GetTests retrieves a student's tests, newest first, optionally filtered by
// subject and limited in count.
func (s *Store) GetTests(studentID, subject string, limit int) ([]TestRecord, error) {
	query := "SELECT id, student_id, title, subject, questions, score, total, created_at FROM tests WHERE student_id = ?"
	args := []any{studentID}
	if subject != "" {
		query += " AND subject = ?"
		args = append(args, subject)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get tests: %w", err)
	}
	defer rows.Close()

	var tests []TestRecord
	for rows.Next() {
		rec, err := scanTest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}
		tests = append(tests, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tests: %w", err)
	}
	return tests, nil
}

func scanTest(scan func(dest ...any) error) (*TestRecord, error) {
	var rec TestRecord
	var questionsJSON string
	if err := scan(&rec.ID, &rec.StudentID, &rec.Title, &rec.Subject, &questionsJSON, &rec.Score, &rec.Total, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questionsJSON), &rec.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	return &rec, nil
}

// LatestSummary returns the prior-performance signal for a subject, or nil
// when the student has no history there.
func (s *Store) LatestSummary(studentID, subject string) (*TestSummary, error) {
	tests, err := s.GetTests(studentID, subject, 1)
	if err != nil {
		return nil, err
	}
	if len(tests) == 0 {
		return nil, nil
	}
	t := tests[0]
	score := t.Score
	if t.Total > 0 {
		score = t.Score / t.Total * 100
	}
	return &TestSummary{Subject: t.Subject, Score: score, TakenAt: t.CreatedAt}, nil
}

// RecentScores returns up to limit percentage scores for a subject, most
// recent first, as input for performance analysis.
func (s *Store) RecentScores(studentID, subject string, limit int) ([]float64, error) {
	tests, err := s.GetTests(studentID, subject, limit)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, 0, len(tests))
	for _, t := range tests {
		if t.Total > 0 {
			scores = append(scores, t.Score/t.Total*100)
		} else {
			scores = append(scores, 0)
		}
	}
	return scores, nil
}

// Stats aggregates a student's dashboard numbers
func (s *Store) Stats(studentID string) (*DashboardStats, error) {
	tests, err := s.GetTests(studentID, "", 0)
	if err != nil {
		return nil, err
	}
	if len(tests) == 0 {
		return &DashboardStats{}, nil
	}

	var sum, best float64
	for _, t := range tests {
		var pct float64
		if t.Total > 0 {
			pct = t.Score / t.Total * 100
		}
		sum += pct
		if pct > best {
			best = pct
		}
	}
	last := tests[0].CreatedAt
	return &DashboardStats{
		TotalTests:     len(tests),
		AveragePercent: clampPercent(sum / float64(len(tests))),
		BestPercent:    clampPercent(best),
		LastTakenAt:    &last,
	}, nil
}
