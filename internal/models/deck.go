package models

import "time"

type Deck struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsPublic    bool      `json:"is_public"`
	CardCount   int       `json:"card_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeckPatch carries the fields of a partial deck update; nil means unchanged.
type DeckPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

// ReadableBy reports whether userID may study or list this deck.
func (d Deck) ReadableBy(userID int64) bool {
	return d.IsPublic || d.OwnerID == userID
}
