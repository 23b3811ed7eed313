package models

import "time"

type Card struct {
	ID        int64     `json:"id"`
	DeckID    int64     `json:"deck_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	Hint      *string   `json:"hint"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CardDraft is a front/back pair that has not been stored yet, as produced
// by the generator or supplied when creating a deck.
type CardDraft struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type CardPatch struct {
	Front *string `json:"front"`
	Back  *string `json:"back"`
	Hint  *string `json:"hint"`
}

type CardSort string

const (
	CardSortCreatedAt CardSort = "created_at"
	CardSortUpdatedAt CardSort = "updated_at"
)

type CardFilter struct {
	DeckID int64
	Query  string
	Sort   CardSort
}
