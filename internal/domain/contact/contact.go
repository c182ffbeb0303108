package contact

import (
	"errors"
	"time"
)

type Contact struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"` // scoping detail, not part of the API surface
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("contact not found")

// CreateContactRequest carries the four writable fields. Presence and phone
// canonicalization are checked by internal/validate, not binding tags, so the
// API keeps its exact field-specific messages.
type CreateContactRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// UpdateContactRequest is a full rewrite of the core fields. Favorite is
// optional; nil leaves the stored flag untouched.
type UpdateContactRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Favorite *bool  `json:"favorite"`
}

type ListContactsFilter struct {
	// Query is a case-insensitive substring matched against name, phone,
	// email and company. Nil or empty means no filtering.
	Query *string
}
