// Package store persists accepted instructions in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrNotFound is returned when no submission has the requested id.
	ErrNotFound = errors.New("store: submission not found")
	// ErrDuplicate is returned when a submission id was already stored.
	ErrDuplicate = errors.New("store: duplicate submission")
)

// Attachment describes an uploaded file. Only the metadata is stored; Data
// carries the upload through intake checks and is dropped on Save.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// Submission is a stored instruction. Payload holds the JSON document as
// received.
type Submission struct {
	ID              string          `json:"id"`
	SubmittedAt     time.Time       `json:"submitted_at"`
	ReceivedAt      time.Time       `json:"received_at"`
	ClientName      string          `json:"client_name"`
	ClientEmail     string          `json:"client_email"`
	PropertyAddress string          `json:"property_address"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	Attachments     []Attachment    `json:"attachments"`
}

// Store wraps the database handle.
type Store struct {
	db *sql.DB
}

// New wraps an open database. Call Migrate before use.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the database at path and applies the
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens the sqlite database at path with a single connection.
func OpenSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate applies every embedded migration in name order. Migrations are
// idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("store: list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("store: read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("store: apply migration %s: %w", name, err)
		}
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores sub and its attachment metadata in one transaction. ReceivedAt
// is set when zero. Size is taken from Data when Data is present.
func (s *Store) Save(ctx context.Context, sub Submission) (Submission, error) {
	if sub.ID == "" {
		return Submission{}, errors.New("store: submission id is required")
	}
	if !json.Valid(sub.Payload) {
		return Submission{}, errors.New("store: payload is not valid JSON")
	}
	if sub.ReceivedAt.IsZero() {
		sub.ReceivedAt = time.Now()
	}
	sub.SubmittedAt = sub.SubmittedAt.UTC()
	sub.ReceivedAt = sub.ReceivedAt.UTC()
	sub.Attachments = append([]Attachment(nil), sub.Attachments...)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Submission{}, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO submissions (id, submitted_at, received_at, client_name, client_email, property_address, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `,
		sub.ID,
		sub.SubmittedAt.Format(timeLayout),
		sub.ReceivedAt.Format(timeLayout),
		sub.ClientName,
		sub.ClientEmail,
		sub.PropertyAddress,
		string(sub.Payload),
	)
	if err != nil {
		if errors.Is(err, sqlite3.CONSTRAINT_PRIMARYKEY) {
			return Submission{}, fmt.Errorf("%w: %s", ErrDuplicate, sub.ID)
		}
		return Submission{}, fmt.Errorf("store: insert submission: %w", err)
	}

	for i := range sub.Attachments {
		att := &sub.Attachments[i]
		if att.Data != nil {
			att.Size = int64(len(att.Data))
			att.Data = nil
		}
		_, err := tx.ExecContext(ctx, `
            INSERT INTO attachments (submission_id, position, name, content_type, size)
            VALUES (?, ?, ?, ?, ?)
        `, sub.ID, i, att.Name, att.ContentType, att.Size)
		if err != nil {
			return Submission{}, fmt.Errorf("store: insert attachment %s: %w", att.Name, err)
		}
	}
	if sub.Attachments == nil {
		sub.Attachments = []Attachment{}
	}

	if err := tx.Commit(); err != nil {
		return Submission{}, fmt.Errorf("store: commit: %w", err)
	}
	return sub, nil
}

// Get loads a submission with its attachments.
func (s *Store) Get(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, submitted_at, received_at, client_name, client_email, property_address, payload
        FROM submissions
        WHERE id = ?
    `, id)

	var (
		sub                 Submission
		submitted, received string
		payload             string
	)
	if err := row.Scan(&sub.ID, &submitted, &received, &sub.ClientName, &sub.ClientEmail, &sub.PropertyAddress, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Submission{}, fmt.Errorf("store: get %s: %w", id, err)
	}
	if err := sub.setTimes(submitted, received); err != nil {
		return Submission{}, err
	}
	sub.Payload = json.RawMessage(payload)

	atts, err := s.attachments(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	sub.Attachments = atts
	return sub, nil
}

// List returns the most recently received submissions without payloads or
// attachments. A limit of zero or less returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, submitted_at, received_at, client_name, client_email, property_address
        FROM submissions
        ORDER BY received_at DESC, id
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		var (
			sub                 Submission
			submitted, received string
		)
		if err := rows.Scan(&sub.ID, &submitted, &received, &sub.ClientName, &sub.ClientEmail, &sub.PropertyAddress); err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		if err := sub.setTimes(submitted, received); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return out, nil
}

func (s *Store) attachments(ctx context.Context, id string) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, content_type, size
        FROM attachments
        WHERE submission_id = ?
        ORDER BY position
    `, id)
	if err != nil {
		return nil, fmt.Errorf("store: attachments %s: %w", id, err)
	}
	defer rows.Close()

	out := []Attachment{}
	for rows.Next() {
		var att Attachment
		if err := rows.Scan(&att.Name, &att.ContentType, &att.Size); err != nil {
			return nil, fmt.Errorf("store: attachments %s: %w", id, err)
		}
		out = append(out, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: attachments %s: %w", id, err)
	}
	return out, nil
}

func (sub *Submission) setTimes(submitted, received string) error {
	var err error
	if sub.SubmittedAt, err = time.Parse(timeLayout, submitted); err != nil {
		return fmt.Errorf("store: %s: submitted_at: %w", sub.ID, err)
	}
	if sub.ReceivedAt, err = time.Parse(timeLayout, received); err != nil {
		return fmt.Errorf("store: %s: received_at: %w", sub.ID, err)
	}
	return nil
}
