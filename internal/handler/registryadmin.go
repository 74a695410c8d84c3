package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/safqa-app/safqagate/internal/ingress"
	"github.com/safqa-app/safqagate/internal/registry"
	"github.com/safqa-app/safqagate/internal/repository"
	"github.com/safqa-app/safqagate/internal/response"
)

// RegistryHandler administers the allowed-choice lists validation runs
// against. Changes go to Postgres when a repository is configured and
// are always published as a fresh snapshot, so in-flight requests keep
// the lists they started with.
type RegistryHandler struct {
	provider *registry.Provider
	repo     *repository.ChoiceRepository
}

// NewRegistryHandler returns the admin handler. repo may be nil; the
// registry is then process-local.
func NewRegistryHandler(provider *registry.Provider, repo *repository.ChoiceRepository) *RegistryHandler {
	return &RegistryHandler{provider: provider, repo: repo}
}

// Show returns every field with its allowed values (GET /registry).
func (h *RegistryHandler) Show(c echo.Context) error {
	return response.OK(c, map[string]any{"fields": h.provider.Current().All()}, "")
}

// ReplaceField swaps the allowed values for one field (PUT /registry/:field).
func (h *RegistryHandler) ReplaceField(c echo.Context) error {
	field := c.Param("field")
	values, ok := stringValues(ingress.CleanedView(c)["values"])
	if !ok || len(values) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "body must carry a non-empty values list of strings")
	}

	if h.repo != nil {
		err := ingress.Span(c.Request().Context(), "registry.store.replace", func(ctx context.Context) error {
			return h.repo.ReplaceField(ctx, field, values)
		})
		if err != nil {
			return err
		}
	}
	snap := h.provider.PublishField(field, values)
	allowed, _ := snap.Allowed(field)
	return response.OK(c, map[string]any{"field": field, "allowed_values": allowed}, "registry updated")
}

// RemoveField drops one field from the registry (DELETE /registry/:field).
func (h *RegistryHandler) RemoveField(c echo.Context) error {
	field := c.Param("field")
	if _, known := h.provider.Current().Allowed(field); !known {
		return echo.NewHTTPError(http.StatusNotFound, "unknown registry field")
	}

	if h.repo != nil {
		err := ingress.Span(c.Request().Context(), "registry.store.delete", func(ctx context.Context) error {
			return h.repo.DeleteField(ctx, field)
		})
		if err != nil {
			return err
		}
	}
	remaining := h.provider.Current().All()
	delete(remaining, field)
	h.provider.Publish(registry.NewSnapshot(remaining))
	return response.OK(c, map[string]any{"field": field}, "registry field removed")
}

// stringValues coerces a cleaned-view value into a string slice.
func stringValues(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
