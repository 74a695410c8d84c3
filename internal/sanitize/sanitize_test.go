package sanitize

import "testing"

func TestCleanRedactsMatchingKeys(t *testing.T) {
	s := New(nil)
	in := map[string]any{
		"email":        "user@example.com",
		"Password":     "hunter2",
		"api_token":    "abc123",
		"X-CSRF-Token": "xyz",
		"bio":          "likes tokens",
	}
	out := s.Clean(in)

	for _, k := range []string{"Password", "api_token", "X-CSRF-Token"} {
		if out[k] != Marker {
			t.Errorf("key %q: got %v, want %q", k, out[k], Marker)
		}
	}
	if out["email"] != "user@example.com" {
		t.Errorf("email changed: %v", out["email"])
	}
	if out["bio"] != "likes tokens" {
		t.Errorf("value matching deny word must survive when key is clean: %v", out["bio"])
	}
}

func TestCleanRecurses(t *testing.T) {
	s := New(nil)
	in := map[string]any{
		"profile": map[string]any{
			"secret_answer": "blue",
			"city":          "Riyadh",
		},
		"items": []any{
			map[string]any{"password": "p"},
			"plain",
		},
	}
	out := s.Clean(in)

	profile := out["profile"].(map[string]any)
	if profile["secret_answer"] != Marker {
		t.Errorf("nested secret not redacted: %v", profile["secret_answer"])
	}
	if profile["city"] != "Riyadh" {
		t.Errorf("nested clean value changed: %v", profile["city"])
	}
	items := out["items"].([]any)
	if items[0].(map[string]any)["password"] != Marker {
		t.Errorf("map inside slice not redacted: %v", items[0])
	}
	if items[1] != "plain" {
		t.Errorf("slice element changed: %v", items[1])
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	s := New(nil)
	nested := map[string]any{"number": "4111"}
	in := map[string]any{"card_secret": nested, "name": "x"}

	out := s.Clean(in)

	if nested["number"] != "4111" {
		t.Fatalf("input mutated: %v", nested["number"])
	}
	if out["card_secret"] != Marker {
		t.Fatalf("matched key with container value must be replaced whole, got %v", out["card_secret"])
	}
}

func TestCleanExtraDenyWords(t *testing.T) {
	s := New([]string{"ssn"})
	out := s.Clean(map[string]any{"ssn": "123", "password": "open", "name": "x"})
	if out["ssn"] != Marker {
		t.Errorf("extra deny word ignored: %v", out["ssn"])
	}
	if out["password"] != Marker {
		t.Errorf("built-in deny word lost when extras are configured: %v", out["password"])
	}
	if out["name"] != "x" {
		t.Errorf("clean key changed: %v", out["name"])
	}
}

func TestCleanNil(t *testing.T) {
	if out := New(nil).Clean(nil); out != nil {
		t.Fatalf("expected nil, got %v", out)
	}
}

func TestCleanHeaders(t *testing.T) {
	s := New(nil)
	out := s.CleanHeaders(map[string]string{
		"Authorization": "Bearer abc",
		"Cookie":        "sid=1",
		"User-Agent":    "curl/8.0",
	})
	if out["Authorization"] != Marker || out["Cookie"] != Marker {
		t.Errorf("credential headers not redacted: %v", out)
	}
	if out["User-Agent"] != "curl/8.0" {
		t.Errorf("benign header changed: %v", out["User-Agent"])
	}
}
