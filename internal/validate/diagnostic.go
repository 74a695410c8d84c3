package validate

import "github.com/safqa-app/safqagate/internal/model"

func MissingField(field string) model.Diagnostic {
	return model.Diagnostic{Kind: model.DiagMissingField, Field: field}
}

func InvalidChoice(field, received string, allowed []string) model.Diagnostic {
	return model.Diagnostic{
		Kind:     model.DiagInvalidChoice,
		Field:    field,
		Received: received,
		Allowed:  allowed,
	}
}

func InvalidURL(field, reason string) model.Diagnostic {
	return model.Diagnostic{Kind: model.DiagInvalidURL, Field: field, Reason: reason}
}

func TooLarge(field string, limit, length int) model.Diagnostic {
	return model.Diagnostic{Kind: model.DiagTooLarge, Field: field, Limit: limit, Length: length}
}

// ErrorGroups folds diagnostics into the wire shape of a rejection body:
// a list of single-key group objects in fixed order, with empty groups
// left out.
func ErrorGroups(diagnostics []model.Diagnostic) []map[string]any {
	var missing []string
	var urls, choices, large []map[string]any

	for _, d := range diagnostics {
		switch d.Kind {
		case model.DiagMissingField:
			missing = append(missing, d.Field)
		case model.DiagInvalidURL:
			urls = append(urls, map[string]any{"field": d.Field, "reason": d.Reason})
		case model.DiagInvalidChoice:
			choices = append(choices, map[string]any{"field": d.Field, "allowed_values": d.Allowed})
		case model.DiagTooLarge:
			large = append(large, map[string]any{"field": d.Field, "limit": d.Limit, "length": d.Length})
		}
	}

	groups := make([]map[string]any, 0, 4)
	if len(missing) > 0 {
		groups = append(groups, map[string]any{"missing_fields": missing})
	}
	if len(urls) > 0 {
		groups = append(groups, map[string]any{"invalid_urls": urls})
	}
	if len(choices) > 0 {
		groups = append(groups, map[string]any{"invalid_choices": choices})
	}
	if len(large) > 0 {
		groups = append(groups, map[string]any{"too_large": large})
	}
	return groups
}
