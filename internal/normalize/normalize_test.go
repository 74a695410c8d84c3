package normalize

import (
	"reflect"
	"testing"

	"github.com/safqa-app/safqagate/internal/model"
)

func TestRepairURLCases(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		in   string
		want string
	}{
		{"https://example.com", "https://example.com"},
		{"http://example.com/a?b=1", "http://example.com/a?b=1"},
		{"www.example.com", "https://www.example.com"},
		{"1.com", "https://www.1.com"},
		{"9gag.com", "https://www.9gag.com"},
		{"cars.sa", "https://cars.sa"},
		{"example.com/path", "https://example.com/path"},
		{"bad url", "bad url"},
		{"localhost", "localhost"},
	}
	for _, c := range cases {
		out, _ := Apply(rules, map[string]any{"website_url": c.in})
		if out["website_url"] != c.want {
			t.Errorf("repair(%q) = %v, want %q", c.in, out["website_url"], c.want)
		}
	}
}

func TestURLRepairOnlyForURLFields(t *testing.T) {
	out, deltas := Apply(DefaultRules(), map[string]any{"company": "www.example.com"})
	if out["company"] != "www.example.com" {
		t.Errorf("non-URL field repaired: %v", out["company"])
	}
	if len(deltas) != 0 {
		t.Errorf("unexpected deltas: %v", deltas)
	}
}

func TestTrimAndEmptyToNull(t *testing.T) {
	out, deltas := Apply(DefaultRules(), map[string]any{
		"name":  "  Acme  ",
		"city":  "   ",
		"count": 3,
	})
	if out["name"] != "Acme" {
		t.Errorf("trim failed: %q", out["name"])
	}
	if out["city"] != nil {
		t.Errorf("empty string must become null, got %v", out["city"])
	}
	if out["count"] != 3 {
		t.Errorf("non-string value changed: %v", out["count"])
	}

	want := []model.Delta{
		{Field: "city", From: "   ", To: nil},
		{Field: "name", From: "  Acme  ", To: "Acme"},
	}
	if !reflect.DeepEqual(deltas, want) {
		t.Errorf("deltas = %v, want %v", deltas, want)
	}
}

func TestDeltasOnlyForChangedFields(t *testing.T) {
	_, deltas := Apply(DefaultRules(), map[string]any{
		"a": "same",
		"b": " trimmed ",
		"c": "also same",
	})
	if len(deltas) != 1 || deltas[0].Field != "b" {
		t.Fatalf("want exactly one delta for b, got %v", deltas)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	in := map[string]any{
		"website_url": "www.example.com",
		"social_url":  "1.com",
		"name":        "  Acme  ",
		"notes":       "",
	}
	first, deltas := Apply(DefaultRules(), in)
	if len(deltas) != 4 {
		t.Fatalf("expected 4 deltas on first pass, got %v", deltas)
	}
	second, again := Apply(DefaultRules(), first)
	if len(again) != 0 {
		t.Fatalf("second pass produced deltas: %v", again)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second pass changed fields: %v vs %v", first, second)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"website_url": " www.example.com "}
	Apply(DefaultRules(), in)
	if in["website_url"] != " www.example.com " {
		t.Fatalf("input mutated: %q", in["website_url"])
	}
}
