package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// testSink pins the sink clock to a controllable day.
func testSink(t *testing.T, path string, keep int, onRotate func(string)) (*fileSink, *time.Time) {
	t.Helper()
	sink, err := newFileSink(path, keep, onRotate)
	if err != nil {
		t.Fatalf("newFileSink: %v", err)
	}
	t.Cleanup(func() { sink.Close() })

	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return now }
	sink.day = sink.today()
	return sink, &now
}

func TestRotatesAcrossDayBoundaries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log.json")
	var rotated []string
	sink, now := testSink(t, path, 4, func(p string) { rotated = append(rotated, p) })

	for i := 0; i < 6; i++ {
		sink.Write([]byte(fmt.Sprintf("{\"n\":%d}\n", i)))
		*now = now.Add(24 * time.Hour)
	}

	archives, err := filepath.Glob(path + ".*")
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) != 4 {
		t.Fatalf("want 4 retained archives, got %v", archives)
	}
	if _, err := os.Stat(path + ".2026-08-10"); !os.IsNotExist(err) {
		t.Error("oldest archive was not pruned")
	}

	// Each archive holds only its own day's records.
	for day, n := range map[string]int{
		"2026-08-11": 1,
		"2026-08-12": 2,
		"2026-08-13": 3,
		"2026-08-14": 4,
	} {
		data, err := os.ReadFile(path + "." + day)
		if err != nil {
			t.Fatalf("archive for %s missing: %v", day, err)
		}
		want := fmt.Sprintf("{\"n\":%d}\n", n)
		if string(data) != want {
			t.Errorf("archive %s = %q, want %q", day, data, want)
		}
	}

	active, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(active) != "{\"n\":5}\n" {
		t.Errorf("active file = %q", active)
	}

	if len(rotated) != 5 {
		t.Errorf("rotate hook fired %d times, want 5: %v", len(rotated), rotated)
	}
}

func TestSameDayWritesDoNotRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log.json")
	sink, _ := testSink(t, path, 4, nil)

	sink.Write([]byte("one\n"))
	sink.Write([]byte("two\n"))

	if archives, _ := filepath.Glob(path + ".*"); len(archives) != 0 {
		t.Fatalf("unexpected archives: %v", archives)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "one\ntwo\n" {
		t.Errorf("active file = %q", data)
	}
}

func TestCreatesMissingLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "app.log.json")
	sink, err := newFileSink(path, 4, nil)
	if err != nil {
		t.Fatalf("newFileSink: %v", err)
	}
	defer sink.Close()

	sink.Write([]byte("x\n"))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("active file not created: %v", err)
	}
}

func TestStaleActiveFileArchivedOnOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log.json")
	if err := os.WriteFile(path, []byte("old-day\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	if err := os.Chtimes(path, yesterday, yesterday); err != nil {
		t.Fatal(err)
	}

	sink, err := newFileSink(path, 4, nil)
	if err != nil {
		t.Fatalf("newFileSink: %v", err)
	}
	defer sink.Close()

	archived := path + "." + yesterday.Format(dayLayout)
	data, err := os.ReadFile(archived)
	if err != nil {
		t.Fatalf("stale file was not archived: %v", err)
	}
	if !strings.Contains(string(data), "old-day") {
		t.Errorf("archive content = %q", data)
	}

	sink.Write([]byte("new-day\n"))
	active, _ := os.ReadFile(path)
	if string(active) != "new-day\n" {
		t.Errorf("active file = %q", active)
	}
}
