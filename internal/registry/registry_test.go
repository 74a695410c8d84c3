package registry

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSnapshotCopiesInAndOut(t *testing.T) {
	src := map[string][]string{"city": {"الرياض", "جدة", "الدمام"}}
	snap := NewSnapshot(src)

	src["city"][0] = "changed"
	if !snap.Contains("city", "الرياض") {
		t.Fatal("snapshot shares storage with its source map")
	}

	values, ok := snap.Allowed("city")
	if !ok {
		t.Fatal("city should be known")
	}
	values[1] = "changed"
	again, _ := snap.Allowed("city")
	if again[1] != "جدة" {
		t.Fatal("snapshot shares storage with returned slices")
	}
}

func TestSnapshotUnknownField(t *testing.T) {
	snap := NewSnapshot(nil)
	if _, ok := snap.Allowed("city"); ok {
		t.Fatal("unknown field reported as known")
	}
	if snap.Contains("city", "anything") {
		t.Fatal("unknown field allows values")
	}
}

func TestSnapshotAllowedPreservesOrder(t *testing.T) {
	snap := NewSnapshot(map[string][]string{"industry": {"retail", "food", "travel"}})
	values, _ := snap.Allowed("industry")
	want := []string{"retail", "food", "travel"}
	if !reflect.DeepEqual(values, want) {
		t.Fatalf("order changed: %v", values)
	}
}

func TestProviderPublishSwapsWholeSnapshot(t *testing.T) {
	p := NewProvider(NewSnapshot(map[string][]string{"city": {"a"}}))
	held := p.Current()

	p.Publish(NewSnapshot(map[string][]string{"city": {"b"}}))

	if !held.Contains("city", "a") {
		t.Fatal("in-flight snapshot changed under the reader")
	}
	if !p.Current().Contains("city", "b") {
		t.Fatal("publish not visible to new readers")
	}
}

func TestProviderPublishField(t *testing.T) {
	p := NewProvider(NewSnapshot(map[string][]string{
		"city":     {"a"},
		"industry": {"retail"},
	}))

	snap := p.PublishField("city", []string{"x", "y"})

	values, _ := snap.Allowed("city")
	if !reflect.DeepEqual(values, []string{"x", "y"}) {
		t.Fatalf("city not replaced: %v", values)
	}
	if !snap.Contains("industry", "retail") {
		t.Fatal("untouched field lost on publish")
	}
	if p.Current() != snap {
		t.Fatal("returned snapshot is not the current one")
	}
}

func TestProviderNeverNil(t *testing.T) {
	p := NewProvider(nil)
	if p.Current() == nil {
		t.Fatal("Current returned nil")
	}
	p.Publish(nil)
	if p.Current() == nil {
		t.Fatal("Current returned nil after Publish(nil)")
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	seed := "city:\n  - \"الرياض\"\n  - \"جدة\"\nindustry: [retail, food]\n"
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if !snap.Contains("city", "جدة") {
		t.Errorf("city values wrong: %v", snap.All())
	}
	values, _ := snap.Allowed("industry")
	if !reflect.DeepEqual(values, []string{"retail", "food"}) {
		t.Errorf("industry values wrong: %v", values)
	}
}

func TestLoadSeedFileMissing(t *testing.T) {
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
