package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	DisplayName    *string   `json:"display_name,omitempty"`
	PasswordHash   string    `json:"-"`
	PayoutsEnabled bool      `json:"payouts_enabled"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) Party() *PartyUser {
	return &PartyUser{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingSold     ListingStatus = "sold"
	ListingArchived ListingStatus = "archived"
)

type Listing struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	DailyRate decimal.Decimal `json:"daily_rate"`
	Status    ListingStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (l *Listing) Summary() *ListingSummary {
	return &ListingSummary{ID: l.ID, Title: l.Title, Price: l.Price, DailyRate: l.DailyRate}
}

type CreateListingInput struct {
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	DailyRate decimal.Decimal `json:"daily_rate"`
}
