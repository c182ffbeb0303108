package contact

import (
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest assumes req has already been through
// internal/validate: phone canonical, email/company trimmed.
func NewFromCreateRequest(ownerID string, req CreateContactRequest) Contact {
	return Contact{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Company:   req.Company,
		Favorite:  false,
		CreatedAt: time.Now().UTC(),
	}
}
