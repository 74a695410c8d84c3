package model

import (
	"time"

	"github.com/google/uuid"
)

type Offer struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CompanyID uuid.UUID `json:"company_id,omitempty"`
	Category  string    `json:"category,omitempty"`
	OfferURL  string    `json:"offer_url,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
