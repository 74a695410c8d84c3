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

// OfferHandler keeps published offers in memory. Offers may reference a
// company registered through the CompanyHandler.
type OfferHandler struct {
	companies *CompanyHandler

	mu     sync.RWMutex
	offers []model.Offer
}

func NewOfferHandler(companies *CompanyHandler) *OfferHandler {
	return &OfferHandler{companies: companies}
}

// Create publishes an offer from the cleaned payload (POST /api/offers).
func (h *OfferHandler) Create(c echo.Context) error {
	view := ingress.CleanedView(c)
	offer := model.Offer{
		ID:        uuid.New(),
		Title:     stringField(view, "title"),
		Category:  stringField(view, "category"),
		OfferURL:  stringField(view, "offer_url"),
		Details:   stringField(view, "details"),
		CreatedAt: time.Now().UTC(),
	}

	if raw := stringField(view, "company_id"); raw != "" {
		companyID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid company_id")
		}
		if !h.companies.Has(companyID) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown company")
		}
		offer.CompanyID = companyID
	}

	err := ingress.Span(c.Request().Context(), "offers.store.create", func(context.Context) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.offers = append(h.offers, offer)
		return nil
	})
	if err != nil {
		return err
	}
	return response.Created(c, offer, "offer published")
}

// List returns all offers, newest first (GET /api/offers).
func (h *OfferHandler) List(c echo.Context) error {
	var out []model.Offer
	err := ingress.Span(c.Request().Context(), "offers.store.list", func(context.Context) error {
		h.mu.RLock()
		defer h.mu.RUnlock()
		out = make([]model.Offer, 0, len(h.offers))
		for i := len(h.offers) - 1; i >= 0; i-- {
			out = append(out, h.offers[i])
		}
		return nil
	})
	if err != nil {
		return err
	}
	return response.OK(c, map[string]any{"offers": out}, "")
}
