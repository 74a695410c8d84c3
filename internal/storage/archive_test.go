package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/safqa-app/safqagate/internal/config"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestArchiveKeyLayout(t *testing.T) {
	day := time.Date(2026, 8, 21, 13, 0, 0, 0, time.UTC)
	got := ArchiveKey("production", day, "app.log.json.2026-08-21")
	want := "logs/production/2026/08/21/app.log.json.2026-08-21.gz"
	if got != want {
		t.Errorf("key = %q, want %q", got, want)
	}
}

func TestArchiveKeyDefaultsEnv(t *testing.T) {
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	got := ArchiveKey("", day, "x")
	if got != "logs/development/2026/01/02/x.gz" {
		t.Errorf("key = %q", got)
	}
}

func TestArchiveDayFromName(t *testing.T) {
	day := archiveDay("app.log.json.2026-08-21")
	if !day.Equal(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day = %v", day)
	}
}

func TestArchiveDayFallback(t *testing.T) {
	before := time.Now().UTC()
	day := archiveDay("nodate")
	if day.Before(before.Add(-time.Minute)) {
		t.Errorf("fallback day = %v", day)
	}
}

func TestUnconfiguredClientIsNil(t *testing.T) {
	c, err := NewArchiveClient(config.ArchiveConfig{})
	if err != nil || c != nil {
		t.Fatalf("client = %v, err = %v", c, err)
	}
	if err := c.EnsureBucket(context.Background()); err != nil {
		t.Errorf("nil client EnsureBucket: %v", err)
	}
	if _, err := c.List(context.Background(), "logs/"); err != nil {
		t.Errorf("nil client List: %v", err)
	}
}

func TestNilShipperIsSafe(t *testing.T) {
	s := NewShipper(nil, "development", testLogger())
	if s != nil {
		t.Fatalf("shipper = %v", s)
	}
	s.Enqueue("/tmp/whatever")
	s.Start(context.Background())
	s.Wait()
}
