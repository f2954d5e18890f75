// Package ledger records published videos in a local SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type PublishedVideo struct {
	ID              string    `json:"id"`
	VideoID         string    `json:"video_id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	PrivacyStatus   string    `json:"privacy_status"`
	Topic           string    `json:"topic,omitempty"`
	ArchiveLocation string    `json:"archive_location,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
}

type Ledger struct {
	conn *sql.DB
}

func Open(dbPath string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	l := &Ledger{conn: conn}
	if err := l.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return l, nil
}

func (l *Ledger) Close() error {
	return l.conn.Close()
}

func (l *Ledger) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}

		name := m.Name()
		if l.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if _, err := l.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}

		if _, err := l.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		slog.Debug("Applied migration", "name", name)
	}

	return nil
}

func (l *Ledger) isMigrationApplied(name string) bool {
	var exists int
	err := l.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = l.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Record stores v, filling ID and PublishedAt when unset.
func (l *Ledger) Record(ctx context.Context, v *PublishedVideo) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.PublishedAt.IsZero() {
		v.PublishedAt = time.Now().UTC()
	}

	_, err := l.conn.ExecContext(ctx, `
		INSERT INTO published_videos (id, video_id, url, title, privacy_status, topic, archive_location, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.VideoID, v.URL, v.Title, v.PrivacyStatus, v.Topic, v.ArchiveLocation,
		v.PublishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record published video: %w", err)
	}
	return nil
}

// List returns up to limit rows, most recent first. limit <= 0 returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]PublishedVideo, error) {
	query := `
		SELECT id, video_id, url, title, privacy_status, topic, archive_location, published_at
		FROM published_videos
		ORDER BY published_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query published videos: %w", err)
	}
	defer rows.Close()

	var videos []PublishedVideo
	for rows.Next() {
		var v PublishedVideo
		var publishedAt string
		if err := rows.Scan(&v.ID, &v.VideoID, &v.URL, &v.Title, &v.PrivacyStatus, &v.Topic, &v.ArchiveLocation, &publishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan published video: %w", err)
		}
		v.PublishedAt, err = time.Parse(time.RFC3339Nano, publishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse published_at: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
