package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contacthub/contacthub/internal/cache"
	"github.com/contacthub/contacthub/internal/domain/contact"
	"github.com/contacthub/contacthub/internal/http/handlers"
	"github.com/contacthub/contacthub/internal/http/middlewares"
)

type fakeContactsRepo struct {
	createFn func(ctx context.Context, ownerID string, req contact.CreateContactRequest) (contact.Contact, error)
	getFn    func(ctx context.Context, ownerID, id string) (contact.Contact, error)
	listFn   func(ctx context.Context, ownerID string, filter contact.ListContactsFilter) ([]contact.Contact, error)
	updateFn func(ctx context.Context, ownerID, id string, req contact.UpdateContactRequest) error
	deleteFn func(ctx context.Context, ownerID, id string) error
}

func (f *fakeContactsRepo) Create(ctx context.Context, ownerID string, req contact.CreateContactRequest) (contact.Contact, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, req)
	}
	return contact.Contact{ID: newUUID(), OwnerID: ownerID, Name: req.Name, Phone: req.Phone, Email: req.Email, Company: req.Company}, nil
}

func (f *fakeContactsRepo) GetByID(ctx context.Context, ownerID, id string) (contact.Contact, error) {
	if f.getFn != nil {
		return f.getFn(ctx, ownerID, id)
	}
	return contact.Contact{}, contact.ErrNotFound
}

func (f *fakeContactsRepo) List(ctx context.Context, ownerID string, filter contact.ListContactsFilter) ([]contact.Contact, error) {
	if f.listFn != nil {
		return f.listFn(ctx, ownerID, filter)
	}
	return []contact.Contact{}, nil
}

func (f *fakeContactsRepo) Update(ctx context.Context, ownerID, id string, req contact.UpdateContactRequest) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, ownerID, id, req)
	}
	return nil
}

func (f *fakeContactsRepo) Delete(ctx context.Context, ownerID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, ownerID, id)
	}
	return nil
}

// mounts the handler behind a stub identity so owner scoping works without
// running the full session middleware
func setupOwnedRouter(ownerID, method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(func(c *gin.Context) {
		c.Set(middlewares.CtxAccountID, ownerID)
		c.Next()
	})

	r.Handle(method, path, h)

	return r
}

func TestListContactsHandler(t *testing.T) {
	ownerID := newUUID()
	now := time.Now().UTC()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeContactsRepo)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "success",
			url:  "/contacts",
			repoSetup: func(f *fakeContactsRepo) {
				f.listFn = func(ctx context.Context, owner string, filter contact.ListContactsFilter) ([]contact.Contact, error) {
					if owner != ownerID {
						return nil, errors.New("wrong owner")
					}
					if filter.Query != nil {
						return nil, errors.New("filter should be empty")
					}
					return []contact.Contact{
						{ID: "c-1", OwnerID: owner, Name: "Ada", Phone: "1234567890", Email: "ada@example.com", Company: "Analytical", CreatedAt: now},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      1,
		},
		{
			name: "search_query_reaches_repo",
			url:  "/contacts?q=ada",
			repoSetup: func(f *fakeContactsRepo) {
				f.listFn = func(ctx context.Context, owner string, filter contact.ListContactsFilter) ([]contact.Contact, error) {
					if filter.Query == nil || *filter.Query != "ada" {
						return nil, errors.New("query filter not passed")
					}
					return []contact.Contact{
						{ID: "c-1", OwnerID: owner, Name: "Ada", Phone: "1234567890", Email: "ada@example.com", Company: "Analytical", CreatedAt: now},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      1,
		},
		{
			name:           "empty_list",
			url:            "/contacts",
			wantStatusCode: http.StatusOK,
			wantCount:      0,
		},
		{
			name: "repo_error",
			url:  "/contacts",
			repoSetup: func(f *fakeContactsRepo) {
				f.listFn = func(ctx context.Context, owner string, filter contact.ListContactsFilter) ([]contact.Contact, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeContactsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewContactsHandler(fakeRepo, nil)
			r := setupOwnedRouter(ownerID, http.MethodGet, "/contacts", h.ListContacts)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp []contact.Contact
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("expected a top-level array: %v, body=%s", err, w.Body.String())
				}
				if len(resp) != tt.wantCount {
					t.Fatalf("got %d contacts, want %d", len(resp), tt.wantCount)
				}
			}
		})
	}
}

func TestListContactsHandler_CacheHit(t *testing.T) {
	ownerID := newUUID()
	now := time.Now().UTC()

	fakeRepo := &fakeContactsRepo{}
	c := cache.NewMemory(30 * time.Second)

	calls := 0
	fakeRepo.listFn = func(ctx context.Context, owner string, filter contact.ListContactsFilter) ([]contact.Contact, error) {
		calls++
		return []contact.Contact{
			{ID: "c-1", OwnerID: owner, Name: "Ada", Phone: "1234567890", Email: "ada@example.com", Company: "Analytical", CreatedAt: now},
		}, nil
	}

	h := handlers.NewContactsHandler(fakeRepo, c)
	r := setupOwnedRouter(ownerID, http.MethodGet, "/contacts", h.ListContacts)

	// first request misses the cache
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/contacts", nil))

	if w1.Code != http.StatusOK {
		t.Fatalf("first call got %d body=%s", w1.Code, w1.Body.String())
	}

	// second request is served from the cache
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/contacts", nil))

	if w2.Code != http.StatusOK {
		t.Fatalf("second call got %d body=%s", w2.Code, w2.Body.String())
	}

	if calls != 1 {
		t.Fatalf("expected repo calls=1, got %d", calls)
	}

	// a search bypasses the cache entirely
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/contacts?q=ada", nil))

	if w3.Code != http.StatusOK {
		t.Fatalf("search call got %d body=%s", w3.Code, w3.Body.String())
	}

	if calls != 2 {
		t.Fatalf("expected search to hit the repo, calls=%d", calls)
	}
}

func TestListContactsHandler_ETagNotModified(t *testing.T) {
	ownerID := newUUID()
	now := time.Now().UTC()

	fakeRepo := &fakeContactsRepo{
		listFn: func(ctx context.Context, owner string, filter contact.ListContactsFilter) ([]contact.Contact, error) {
			return []contact.Contact{
				{ID: "c-1", OwnerID: owner, Name: "Ada", Phone: "1234567890", Email: "ada@example.com", Company: "Analytical", CreatedAt: now},
			}, nil
		},
	}

	h := handlers.NewContactsHandler(fakeRepo, cache.NewMemory(30*time.Second))
	r := setupOwnedRouter(ownerID, http.MethodGet, "/contacts", h.ListContacts)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/contacts", nil))

	if w1.Code != http.StatusOK {
		t.Fatalf("first call got %d body=%s", w1.Code, w1.Body.String())
	}

	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header in first response")
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req2.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("second call got %d, want 304, body=%s", w2.Code, w2.Body.String())
	}

	if w2.Body.Len() != 0 {
		t.Fatalf("expected empty body for 304, got %q", w2.Body.String())
	}
}

func TestCreateContactHandler(t *testing.T) {
	ownerID := newUUID()

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeContactsRepo)
		wantStatusCode int
		wantMessage    string
	}{
		{
			name:           "success",
			body:           `{"name": "Ada", "phone": "1234567890", "email": "ada@example.com", "company": "Analytical"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "phone_is_normalized_before_storage",
			body: `{"name": "Ada", "phone": "(123) 456-7890", "email": "ada@example.com", "company": "Analytical"}`,
			repoSetup: func(f *fakeContactsRepo) {
				f.createFn = func(ctx context.Context, owner string, req contact.CreateContactRequest) (contact.Contact, error) {
					if req.Phone != "1234567890" {
						return contact.Contact{}, errors.New("phone not canonical: " + req.Phone)
					}
					return contact.Contact{ID: newUUID(), OwnerID: owner}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_name",
			body:           `{"name": "", "phone": "1234567890", "email": "ada@example.com", "company": "Analytical"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Name and phone required",
		},
		{
			name:           "short_phone",
			body:           `{"name": "Ada", "phone": "12345", "email": "ada@example.com", "company": "Analytical"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Phone number must be exactly 10 digits",
		},
		{
			name:           "blank_email",
			body:           `{"name": "Ada", "phone": "1234567890", "email": "   ", "company": "Analytical"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Email is required",
		},
		{
			name:           "blank_company",
			body:           `{"name": "Ada", "phone": "1234567890", "email": "ada@example.com", "company": ""}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Company is required",
		},
		{
			name: "repo_error",
			body: `{"name": "Ada", "phone": "1234567890", "email": "ada@example.com", "company": "Analytical"}`,
			repoSetup: func(f *fakeContactsRepo) {
				f.createFn = func(ctx context.Context, owner string, req contact.CreateContactRequest) (contact.Contact, error) {
					return contact.Contact{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeContactsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewContactsHandler(fakeRepo, nil)
			r := setupOwnedRouter(ownerID, http.MethodPost, "/contacts", h.CreateContact)

			req := httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantMessage != "" {
				var resp struct {
					Error struct {
						Message string `json:"message"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Error.Message != tt.wantMessage {
					t.Fatalf("got message %q, want %q", resp.Error.Message, tt.wantMessage)
				}
			}
		})
	}
}

func TestCreateContactHandler_InvalidatesListCache(t *testing.T) {
	ownerID := newUUID()

	fakeRepo := &fakeContactsRepo{}
	c := cache.NewMemory(30 * time.Second)

	listCalls := 0
	fakeRepo.listFn = func(ctx context.Context, owner string, filter contact.ListContactsFilter) ([]contact.Contact, error) {
		listCalls++
		return []contact.Contact{}, nil
	}

	h := handlers.NewContactsHandler(fakeRepo, c)

	r := gin.New()
	r.Use(func(gc *gin.Context) {
		gc.Set(middlewares.CtxAccountID, ownerID)
		gc.Next()
	})
	r.GET("/contacts", h.ListContacts)
	r.POST("/contacts", h.CreateContact)

	// warm the cache
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/contacts", nil))
	if listCalls != 1 {
		t.Fatalf("expected 1 list call, got %d", listCalls)
	}

	// a write drops the cached list
	body := `{"name": "Ada", "phone": "1234567890", "email": "ada@example.com", "company": "Analytical"}`
	reqCreate := httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewBufferString(body))
	reqCreate.Header.Set("Content-Type", "application/json")
	wCreate := httptest.NewRecorder()
	r.ServeHTTP(wCreate, reqCreate)

	if wCreate.Code != http.StatusCreated {
		t.Fatalf("create got %d body=%s", wCreate.Code, wCreate.Body.String())
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/contacts", nil))
	if listCalls != 2 {
		t.Fatalf("expected the list to be re-read after a write, calls=%d", listCalls)
	}
}

func TestGetContactByIdHandler(t *testing.T) {
	ownerID := newUUID()
	validID := newUUID()
	missingID := newUUID()
	now := time.Now().UTC()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeContactsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/contacts/" + validID,
			repoSetup: func(f *fakeContactsRepo) {
				f.getFn = func(ctx context.Context, owner, id string) (contact.Contact, error) {
					if owner != ownerID {
						return contact.Contact{}, contact.ErrNotFound
					}
					return contact.Contact{ID: id, OwnerID: owner, Name: "Ada", Phone: "1234567890", Email: "ada@example.com", Company: "Analytical", CreatedAt: now}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "not_found",
			url:            "/contacts/" + missingID,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			url:  "/contacts/" + validID,
			repoSetup: func(f *fakeContactsRepo) {
				f.getFn = func(ctx context.Context, owner, id string) (contact.Contact, error) {
					return contact.Contact{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeContactsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewContactsHandler(fakeRepo, nil)
			r := setupOwnedRouter(ownerID, http.MethodGet, "/contacts/:id", h.GetContactById)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateContactHandler(t *testing.T) {
	ownerID := newUUID()
	validID := newUUID()

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeContactsRepo)
		wantStatusCode int
		wantMessage    string
	}{
		{
			name: "success_with_favorite",
			body: `{"name": "Ada", "phone": "1234567890", "email": "ada@example.com", "company": "Analytical", "favorite": true}`,
			repoSetup: func(f *fakeContactsRepo) {
				f.updateFn = func(ctx context.Context, owner, id string, req contact.UpdateContactRequest) error {
					if req.Favorite == nil || !*req.Favorite {
						return errors.New("favorite flag not passed")
					}
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "favorite_omitted_stays_nil",
			body: `{"name": "Ada", "phone": "1234567890", "email": "ada@example.com", "company": "Analytical"}`,
			repoSetup: func(f *fakeContactsRepo) {
				f.updateFn = func(ctx context.Context, owner, id string, req contact.UpdateContactRequest) error {
					if req.Favorite != nil {
						return errors.New("favorite should be nil when omitted")
					}
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "validation_error",
			body:           `{"name": "Ada", "phone": "12345", "email": "ada@example.com", "company": "Analytical"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Phone number must be exactly 10 digits",
		},
		{
			// favorite is typed; a non-boolean value is a bind error, not
			// something to silently drop
			name:           "non_boolean_favorite_rejected",
			body:           `{"name": "Ada", "phone": "1234567890", "email": "ada@example.com", "company": "Analytical", "favorite": "yes"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// updates do not probe for row existence
			name:           "unknown_id_still_succeeds",
			body:           `{"name": "Ada", "phone": "1234567890", "email": "ada@example.com", "company": "Analytical"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name: "repo_error",
			body: `{"name": "Ada", "phone": "1234567890", "email": "ada@example.com", "company": "Analytical"}`,
			repoSetup: func(f *fakeContactsRepo) {
				f.updateFn = func(ctx context.Context, owner, id string, req contact.UpdateContactRequest) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeContactsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewContactsHandler(fakeRepo, nil)
			r := setupOwnedRouter(ownerID, http.MethodPut, "/contacts/:id", h.UpdateContact)

			req := httptest.NewRequest(http.MethodPut, "/contacts/"+validID, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantMessage != "" {
				var resp struct {
					Error struct {
						Message string `json:"message"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Error.Message != tt.wantMessage {
					t.Fatalf("got message %q, want %q", resp.Error.Message, tt.wantMessage)
				}
			}
		})
	}
}

func TestDeleteContactHandler(t *testing.T) {
	ownerID := newUUID()
	validID := newUUID()

	tests := []struct {
		name           string
		repoSetup      func(*fakeContactsRepo)
		wantStatusCode int
	}{
		{
			name:           "success",
			wantStatusCode: http.StatusOK,
		},
		{
			// deletes are fire-and-forget for missing rows too
			name: "unknown_id_still_succeeds",
			repoSetup: func(f *fakeContactsRepo) {
				f.deleteFn = func(ctx context.Context, owner, id string) error {
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "repo_error",
			repoSetup: func(f *fakeContactsRepo) {
				f.deleteFn = func(ctx context.Context, owner, id string) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeContactsRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewContactsHandler(fakeRepo, nil)
			r := setupOwnedRouter(ownerID, http.MethodDelete, "/contacts/:id", h.DeleteContact)

			req := httptest.NewRequest(http.MethodDelete, "/contacts/"+validID, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
