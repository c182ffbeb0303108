package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contacthub/contacthub/internal/cache"
	"github.com/contacthub/contacthub/internal/config"
	"github.com/contacthub/contacthub/internal/domain/contact"
	"github.com/contacthub/contacthub/internal/http/middlewares"
	"github.com/contacthub/contacthub/internal/validate"
)

type ContactsStore interface {
	Create(ctx context.Context, ownerID string, req contact.CreateContactRequest) (contact.Contact, error)
	GetByID(ctx context.Context, ownerID, id string) (contact.Contact, error)
	List(ctx context.Context, ownerID string, filter contact.ListContactsFilter) ([]contact.Contact, error)
	Update(ctx context.Context, ownerID, id string, req contact.UpdateContactRequest) error
	Delete(ctx context.Context, ownerID, id string) error
}

type ContactsHandler struct {
	repo  ContactsStore
	cache cache.Cache
}

func NewContactsHandler(repo ContactsStore, listCache cache.Cache) *ContactsHandler {
	return &ContactsHandler{
		repo:  repo,
		cache: listCache,
	}
}

func (h *ContactsHandler) ListContacts(ctx *gin.Context) {
	ownerID, ok := middlewares.AccountIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	q := ctx.Query("q")

	var filter contact.ListContactsFilter
	if q != "" {
		filter.Query = &q
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// only the unfiltered list is cached; searches go to the database
	if q == "" && h.cache != nil {
		if body, hit := h.cache.Get(cctx, cache.ListKey(ownerID)); hit {
			respondBytesWithETag(ctx, http.StatusOK, body)
			return
		}
	}

	contacts, err := h.repo.List(cctx, ownerID, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list contacts")
		return
	}

	// the contract is a bare array, not a paging envelope
	body, err := json.Marshal(contacts)

	if err != nil {
		ctx.JSON(http.StatusOK, contacts)
		return
	}

	if q == "" && h.cache != nil {
		h.cache.Set(cctx, cache.ListKey(ownerID), body)
	}

	respondBytesWithETag(ctx, http.StatusOK, body)
}

func (h *ContactsHandler) CreateContact(ctx *gin.Context) {
	ownerID, ok := middlewares.AccountIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req contact.CreateContactRequest

	if !BindJSON(ctx, &req) {
		return
	}

	phone, email, company, err := checkContactFields(req.Name, req.Phone, req.Email, req.Company)

	if err != nil {
		RespondBadRequest(ctx, "validation_failed", err.Error())
		return
	}

	req.Phone = phone
	req.Email = email
	req.Company = company

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	_, err = h.repo.Create(cctx, ownerID, req)

	if err != nil {
		RespondInternal(ctx, "Could not create contact")
		return
	}

	h.invalidateList(cctx, ownerID)

	ctx.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *ContactsHandler) GetContactById(ctx *gin.Context) {
	ownerID, ok := middlewares.AccountIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.repo.GetByID(cctx, ownerID, id)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, "Not found")
			return
		}
		RespondInternal(ctx, "Could not fetch contact")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ContactsHandler) UpdateContact(ctx *gin.Context) {
	ownerID, ok := middlewares.AccountIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	var req contact.UpdateContactRequest

	if !BindJSON(ctx, &req) {
		return
	}

	phone, email, company, err := checkContactFields(req.Name, req.Phone, req.Email, req.Company)

	if err != nil {
		RespondBadRequest(ctx, "validation_failed", err.Error())
		return
	}

	req.Phone = phone
	req.Email = email
	req.Company = company

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err = h.repo.Update(cctx, ownerID, id, req)

	if err != nil {
		RespondInternal(ctx, "Could not update contact")
		return
	}

	h.invalidateList(cctx, ownerID)

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ContactsHandler) DeleteContact(ctx *gin.Context) {
	ownerID, ok := middlewares.AccountIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, ownerID, id)

	if err != nil {
		RespondInternal(ctx, "Could not delete contact")
		return
	}

	h.invalidateList(cctx, ownerID)

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// checkContactFields runs the write-path field checks in their fixed order
// and returns the canonical phone plus trimmed email and company.
func checkContactFields(name, phone, email, company string) (string, string, string, error) {
	if err := validate.RequireNamePhone(name, phone); err != nil {
		return "", "", "", err
	}

	normPhone, err := validate.NormalizePhone(phone)
	if err != nil {
		return "", "", "", err
	}

	trimmedEmail, err := validate.RequireNonEmpty("Email", email)
	if err != nil {
		return "", "", "", err
	}

	trimmedCompany, err := validate.RequireNonEmpty("Company", company)
	if err != nil {
		return "", "", "", err
	}

	return normPhone, trimmedEmail, trimmedCompany, nil
}

func (h *ContactsHandler) invalidateList(ctx context.Context, ownerID string) {
	if h.cache == nil {
		return
	}

	h.cache.Delete(ctx, cache.ListKey(ownerID))
}
