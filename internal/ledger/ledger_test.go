package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "data", "storycast.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestOpenCreatesSchema(t *testing.T) {
	l := openTestLedger(t)

	for _, table := range []string{"published_videos", "_migrations"} {
		var name string
		err := l.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	var journalMode string
	if err := l.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatal(err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}
}

func TestOpenMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storycast.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer second.Close()

	var count int
	if err := second.conn.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("migrations recorded = %d, want 1", count)
	}
}

func TestRecordAndList(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"abc", "def", "ghi"} {
		err := l.Record(ctx, &PublishedVideo{
			VideoID:       id,
			URL:           "https://www.youtube.com/watch?v=" + id,
			Title:         "Video " + id,
			PrivacyStatus: "public",
			PublishedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	all, err := l.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() returned %d rows, want 3", len(all))
	}
	if all[0].VideoID != "ghi" || all[2].VideoID != "abc" {
		t.Errorf("order = %s, %s, %s; want newest first", all[0].VideoID, all[1].VideoID, all[2].VideoID)
	}
	if all[0].ID == "" {
		t.Error("ID should be generated")
	}
	if !all[2].PublishedAt.Equal(base) {
		t.Errorf("PublishedAt = %v, want %v", all[2].PublishedAt, base)
	}

	limited, err := l.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d rows", len(limited))
	}
}

func TestRecordFillsDefaults(t *testing.T) {
	l := openTestLedger(t)
	v := &PublishedVideo{VideoID: "x", URL: "u", Title: "t", PrivacyStatus: "private"}

	if err := l.Record(context.Background(), v); err != nil {
		t.Fatal(err)
	}
	if v.ID == "" || v.PublishedAt.IsZero() {
		t.Errorf("Record() did not fill defaults: %+v", v)
	}
}
