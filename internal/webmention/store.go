package webmention

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// SentRecord is the last send attempt for a source/target pair.
type SentRecord struct {
	Source      string
	Target      string
	Fingerprint string
	Endpoint    string
	Status      int
	Error       string
	SentAt      time.Time
}

// Succeeded reports whether the endpoint accepted the mention.
func (r SentRecord) Succeeded() bool {
	return r.Error == "" && r.Status >= 200 && r.Status < 300
}

// Settled reports whether the pair needs no further attempt for the same
// content: the endpoint accepted it, or the target has no endpoint.
func (r SentRecord) Settled() bool {
	return r.Succeeded() || (r.Endpoint == "" && r.Error == "")
}

// Store persists sent and received webmentions in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenStore opens or creates the database at path. Use ":memory:" for an
// in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every pooled connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sent (
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		endpoint TEXT,
		status INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		sent_at INTEGER NOT NULL,
		PRIMARY KEY (source, target)
	);
	CREATE TABLE IF NOT EXISTS received (
		id INTEGER PRIMARY KEY,
		type TEXT NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		author TEXT,
		author_url TEXT,
		content TEXT,
		published INTEGER,
		received_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_received_target ON received(target);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LastSent returns the last attempt for source and target. ok is false when
// the pair was never attempted.
func (s *Store) LastSent(ctx context.Context, source, target string) (rec SentRecord, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var endpoint, errText sql.NullString
	var sentAt int64
	row := s.db.QueryRowContext(ctx,
		"SELECT source, target, fingerprint, endpoint, status, error, sent_at FROM sent WHERE source = ? AND target = ?",
		source, target)
	err = row.Scan(&rec.Source, &rec.Target, &rec.Fingerprint, &endpoint, &rec.Status, &errText, &sentAt)
	if err == sql.ErrNoRows {
		return SentRecord{}, false, nil
	}
	if err != nil {
		return SentRecord{}, false, fmt.Errorf("query sent: %w", err)
	}
	rec.Endpoint = endpoint.String
	rec.Error = errText.String
	rec.SentAt = time.Unix(sentAt, 0).UTC()
	return rec, true, nil
}

// RecordSent stores rec, replacing the previous attempt for the same pair.
func (s *Store) RecordSent(ctx context.Context, rec SentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sent (source, target, fingerprint, endpoint, status, error, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source, target) DO UPDATE SET
		   fingerprint = excluded.fingerprint, endpoint = excluded.endpoint,
		   status = excluded.status, error = excluded.error, sent_at = excluded.sent_at`,
		rec.Source, rec.Target, rec.Fingerprint, rec.Endpoint, rec.Status, rec.Error, rec.SentAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert sent: %w", err)
	}
	return nil
}

// SaveMentions stores received mentions keyed by ID, ignoring IDs already
// stored, and returns how many were new.
func (s *Store) SaveMentions(ctx context.Context, mentions []site.Mention) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	added := 0
	for _, m := range mentions {
		var published sql.NullInt64
		if !m.Published.IsZero() {
			published = sql.NullInt64{Int64: m.Published.Unix(), Valid: true}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO received (id, type, source, target, author, author_url, content, published, received_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Type, m.Source, m.Target, m.Author, m.AuthorURL, m.Content, published, now)
		if err != nil {
			return 0, fmt.Errorf("insert mention %d: %w", m.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// MentionsFor returns mentions of target, oldest first.
func (s *Store) MentionsFor(ctx context.Context, target string) ([]site.Mention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, source, target, author, author_url, content, published
		 FROM received WHERE target = ? ORDER BY COALESCE(published, received_at), id`,
		target)
	if err != nil {
		return nil, fmt.Errorf("query received: %w", err)
	}
	defer rows.Close()

	var mentions []site.Mention
	for rows.Next() {
		var m site.Mention
		var author, authorURL, content sql.NullString
		var published sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Type, &m.Source, &m.Target, &author, &authorURL, &content, &published); err != nil {
			return nil, fmt.Errorf("scan mention: %w", err)
		}
		m.Author = author.String
		m.AuthorURL = authorURL.String
		m.Content = content.String
		if published.Valid {
			m.Published = time.Unix(published.Int64, 0).UTC()
		}
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}

// MaxMentionID returns the highest stored mention ID, or 0 when none is stored.
func (s *Store) MaxMentionID(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(id) FROM received").Scan(&id); err != nil {
		return 0, fmt.Errorf("query max id: %w", err)
	}
	return id.Int64, nil
}
