package validate

import (
	"reflect"
	"testing"

	"github.com/safqa-app/safqagate/internal/model"
	"github.com/safqa-app/safqagate/internal/registry"
)

func emptySnap() *registry.Snapshot { return registry.NewSnapshot(nil) }

func TestCollectsEveryMissingField(t *testing.T) {
	p := Profile{Required: []string{"email", "password"}}
	ds := Evaluate(p, map[string]any{}, emptySnap())

	if len(ds) != 2 {
		t.Fatalf("want 2 diagnostics, got %v", ds)
	}
	if ds[0].Field != "email" || ds[1].Field != "password" {
		t.Errorf("wrong fields or order: %v", ds)
	}
	for _, d := range ds {
		if d.Kind != model.DiagMissingField {
			t.Errorf("wrong kind: %v", d)
		}
	}
}

func TestNullAndEmptyCountAsMissing(t *testing.T) {
	p := Profile{Required: []string{"a", "b", "c"}}
	ds := Evaluate(p, map[string]any{"a": nil, "b": "   ", "c": "ok"}, emptySnap())
	if len(ds) != 2 {
		t.Fatalf("want 2 diagnostics, got %v", ds)
	}
}

func TestInvalidChoiceKeepsAllowedOrder(t *testing.T) {
	snap := registry.NewSnapshot(map[string][]string{"city": {"الرياض", "جدة", "الدمام"}})
	p := Profile{RegistryFields: []string{"city"}}

	ds := Evaluate(p, map[string]any{"city": "Berlin"}, snap)

	if len(ds) != 1 || ds[0].Kind != model.DiagInvalidChoice {
		t.Fatalf("want one invalid_choice, got %v", ds)
	}
	if ds[0].Received != "Berlin" {
		t.Errorf("received = %q", ds[0].Received)
	}
	want := []string{"الرياض", "جدة", "الدمام"}
	if !reflect.DeepEqual(ds[0].Allowed, want) {
		t.Errorf("allowed = %v, want %v", ds[0].Allowed, want)
	}
}

func TestEmptyRegistryFieldIsMissingOnly(t *testing.T) {
	snap := registry.NewSnapshot(map[string][]string{"city": {"الرياض"}})
	p := Profile{RegistryFields: []string{"city"}}

	ds := Evaluate(p, map[string]any{"city": nil}, snap)

	if len(ds) != 1 || ds[0].Kind != model.DiagMissingField {
		t.Fatalf("empty bound field must yield missing_field only, got %v", ds)
	}
}

func TestRequiredAndRegistryDoNotDoubleReport(t *testing.T) {
	snap := registry.NewSnapshot(map[string][]string{"city": {"الرياض"}})
	p := Profile{Required: []string{"city"}, RegistryFields: []string{"city"}}

	ds := Evaluate(p, map[string]any{}, snap)

	if len(ds) != 1 {
		t.Fatalf("city reported twice: %v", ds)
	}
}

func TestValidChoicePasses(t *testing.T) {
	snap := registry.NewSnapshot(map[string][]string{"city": {"الرياض", "جدة"}})
	p := Profile{RegistryFields: []string{"city"}}
	if ds := Evaluate(p, map[string]any{"city": "جدة"}, snap); len(ds) != 0 {
		t.Fatalf("valid choice rejected: %v", ds)
	}
}

func TestURLFailures(t *testing.T) {
	cases := []struct {
		value  string
		reason string
	}{
		{"bad url", model.URLReasonMissingScheme},
		{"localhost", model.URLReasonMissingScheme},
		{"https://", model.URLReasonEmptyHost},
		{"https://example.com/a\\b", model.URLReasonInvalidChars},
		{"https://example.com/\"q\"", model.URLReasonInvalidChars},
	}
	for _, c := range cases {
		p := Profile{URLFields: []string{"website_url"}}
		ds := Evaluate(p, map[string]any{"website_url": c.value}, emptySnap())
		if len(ds) != 1 {
			t.Fatalf("%q: want one diagnostic, got %v", c.value, ds)
		}
		if ds[0].Kind != model.DiagInvalidURL || ds[0].Reason != c.reason {
			t.Errorf("%q: got %v, want reason %q", c.value, ds[0], c.reason)
		}
	}
}

func TestURLValidAndAbsentPass(t *testing.T) {
	p := Profile{URLFields: []string{"website_url"}}
	if ds := Evaluate(p, map[string]any{"website_url": "https://cars.sa"}, emptySnap()); len(ds) != 0 {
		t.Errorf("valid URL rejected: %v", ds)
	}
	if ds := Evaluate(p, map[string]any{}, emptySnap()); len(ds) != 0 {
		t.Errorf("absent URL field must not be checked: %v", ds)
	}
	if ds := Evaluate(p, map[string]any{"website_url": nil}, emptySnap()); len(ds) != 0 {
		t.Errorf("null URL field must not be checked: %v", ds)
	}
}

func TestTooLargeCountsRunes(t *testing.T) {
	p := Profile{LargeText: map[string]int{"description": 5}}

	ds := Evaluate(p, map[string]any{"description": "عرض خاص جديد"}, emptySnap())
	if len(ds) != 1 || ds[0].Kind != model.DiagTooLarge {
		t.Fatalf("want one too_large, got %v", ds)
	}
	if ds[0].Limit != 5 || ds[0].Length != 12 {
		t.Errorf("limit/length = %d/%d, want 5/12", ds[0].Limit, ds[0].Length)
	}

	if ds := Evaluate(p, map[string]any{"description": "خمسة"}, emptySnap()); len(ds) != 0 {
		t.Errorf("under-limit text rejected: %v", ds)
	}
}

func TestCollectAllNeverShortCircuits(t *testing.T) {
	snap := registry.NewSnapshot(map[string][]string{"city": {"الرياض"}})
	p := Profile{
		Required:       []string{"name"},
		URLFields:      []string{"website_url"},
		RegistryFields: []string{"city"},
		LargeText:      map[string]int{"description": 3},
	}
	fields := map[string]any{
		"website_url": "bad url",
		"city":        "Berlin",
		"description": "too long here",
	}

	ds := Evaluate(p, fields, snap)

	kinds := make([]model.DiagnosticKind, len(ds))
	for i, d := range ds {
		kinds[i] = d.Kind
	}
	want := []model.DiagnosticKind{
		model.DiagMissingField,
		model.DiagInvalidURL,
		model.DiagInvalidChoice,
		model.DiagTooLarge,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
}

func TestMustValidate(t *testing.T) {
	if (Profile{}).MustValidate() {
		t.Error("empty profile must not require validation")
	}
	if !(Profile{Required: []string{"x"}}).MustValidate() {
		t.Error("profile with rules must require validation")
	}
}

func TestErrorGroupsShapeAndOrder(t *testing.T) {
	ds := []model.Diagnostic{
		TooLarge("description", 10, 22),
		MissingField("email"),
		InvalidURL("social_url", model.URLReasonMissingScheme),
		MissingField("password"),
		InvalidChoice("city", "Berlin", []string{"الرياض", "جدة", "الدمام"}),
	}

	groups := ErrorGroups(ds)
	if len(groups) != 4 {
		t.Fatalf("want 4 groups, got %v", groups)
	}

	missing, ok := groups[0]["missing_fields"].([]string)
	if !ok || !reflect.DeepEqual(missing, []string{"email", "password"}) {
		t.Errorf("missing_fields = %v", groups[0])
	}
	urls := groups[1]["invalid_urls"].([]map[string]any)
	if len(urls) != 1 || urls[0]["field"] != "social_url" || urls[0]["reason"] != model.URLReasonMissingScheme {
		t.Errorf("invalid_urls = %v", urls)
	}
	choices := groups[2]["invalid_choices"].([]map[string]any)
	if len(choices) != 1 || choices[0]["field"] != "city" {
		t.Errorf("invalid_choices = %v", choices)
	}
	allowed := choices[0]["allowed_values"].([]string)
	if !reflect.DeepEqual(allowed, []string{"الرياض", "جدة", "الدمام"}) {
		t.Errorf("allowed_values = %v", allowed)
	}
	large := groups[3]["too_large"].([]map[string]any)
	if len(large) != 1 || large[0]["limit"] != 10 || large[0]["length"] != 22 {
		t.Errorf("too_large = %v", large)
	}
}

func TestErrorGroupsOmitsEmpty(t *testing.T) {
	groups := ErrorGroups([]model.Diagnostic{MissingField("email")})
	if len(groups) != 1 {
		t.Fatalf("want 1 group, got %v", groups)
	}
	if _, ok := groups[0]["missing_fields"]; !ok {
		t.Fatalf("missing_fields group absent: %v", groups)
	}
	if len(ErrorGroups(nil)) != 0 {
		t.Fatal("no diagnostics must yield no groups")
	}
}
