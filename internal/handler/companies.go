// Package handler holds the business endpoints behind the ingress
// gate. Handlers read the cleaned payload the gate prepared; they never
// touch the raw request body themselves.
package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/safqa-app/safqagate/internal/ingress"
	"github.com/safqa-app/safqagate/internal/model"
	"github.com/safqa-app/safqagate/internal/response"
)

// stringField reads one string out of a cleaned view; absent or
// non-string values come back empty.
func stringField(view map[string]any, key string) string {
	s, _ := view[key].(string)
	return s
}

// CompanyHandler keeps registered companies in memory.
type CompanyHandler struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]model.Company
	order     []uuid.UUID
}

func NewCompanyHandler() *CompanyHandler {
	return &CompanyHandler{companies: make(map[uuid.UUID]model.Company)}
}

// Create registers a company from the cleaned payload (POST /api/companies).
func (h *CompanyHandler) Create(c echo.Context) error {
	view := ingress.CleanedView(c)
	company := model.Company{
		ID:          uuid.New(),
		Name:        stringField(view, "name"),
		City:        stringField(view, "city"),
		Industry:    stringField(view, "industry"),
		WebsiteURL:  stringField(view, "website_url"),
		Description: stringField(view, "description"),
		CreatedAt:   time.Now().UTC(),
	}

	err := ingress.Span(c.Request().Context(), "companies.store.create", func(context.Context) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.companies[company.ID] = company
		h.order = append(h.order, company.ID)
		return nil
	})
	if err != nil {
		return err
	}
	return response.Created(c, company, "company registered")
}

// List returns all companies in registration order (GET /api/companies).
func (h *CompanyHandler) List(c echo.Context) error {
	var out []model.Company
	err := ingress.Span(c.Request().Context(), "companies.store.list", func(context.Context) error {
		h.mu.RLock()
		defer h.mu.RUnlock()
		out = make([]model.Company, 0, len(h.order))
		for _, id := range h.order {
			out = append(out, h.companies[id])
		}
		return nil
	})
	if err != nil {
		return err
	}
	return response.OK(c, map[string]any{"companies": out}, "")
}

// Get returns one company by id (GET /api/companies/:id).
func (h *CompanyHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid company id")
	}

	var company model.Company
	var found bool
	err = ingress.Span(c.Request().Context(), "companies.store.get", func(context.Context) error {
		h.mu.RLock()
		defer h.mu.RUnlock()
		company, found = h.companies[id]
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "unknown company")
	}
	return response.OK(c, company, "")
}

// Has reports whether a company id exists.
func (h *CompanyHandler) Has(id uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.companies[id]
	return ok
}
