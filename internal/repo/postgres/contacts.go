package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/contacthub/contacthub/internal/domain/contact"
)

// ContactsRepo is the owner-scoped contact store. Every statement filters by
// owner_id, so one account can never see or touch another account's rows.
type ContactsRepo struct {
	db  DB
	obs Observer
}

func NewContactsRepo(db DB, obs Observer) *ContactsRepo {
	return &ContactsRepo{db: db, obs: orNop(obs)}
}

// Create stores a new contact for ownerID. req must already be validated and
// canonicalized (internal/validate).
func (r *ContactsRepo) Create(ctx context.Context, ownerID string, req contact.CreateContactRequest) (contact.Contact, error) {
	c := contact.NewFromCreateRequest(ownerID, req)

	err := r.obs.ObserveDB("contacts.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO contacts (id, owner_id, name, phone, email, company, favorite, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.OwnerID, c.Name, c.Phone, c.Email, c.Company, c.Favorite, c.CreatedAt,
		)

		return err
	})

	if err != nil {
		return contact.Contact{}, err
	}

	return c, nil
}

// GetByID returns the single row matching both id and owner. A foreign
// owner's contact and a missing id are indistinguishable: both ErrNotFound.
func (r *ContactsRepo) GetByID(ctx context.Context, ownerID, id string) (contact.Contact, error) {
	var c contact.Contact

	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, name, phone, email, company, favorite, created_at
         FROM contacts
         WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Phone, &c.Email, &c.Company, &c.Favorite, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Contact{}, contact.ErrNotFound
		}

		return contact.Contact{}, err
	}

	return c, nil
}

// List returns the owner's contacts newest first. A non-empty filter query
// keeps rows where any of the four text fields contains it, case-insensitive.
func (r *ContactsRepo) List(ctx context.Context, ownerID string, filter contact.ListContactsFilter) ([]contact.Contact, error) {
	query := `SELECT id, owner_id, name, phone, email, company, favorite, created_at
        FROM contacts
        WHERE owner_id = $1`

	args := []interface{}{ownerID}

	if filter.Query != nil && *filter.Query != "" {
		query += ` AND (name ILIKE $2 OR phone ILIKE $2 OR email ILIKE $2 OR company ILIKE $2)`
		args = append(args, "%"+*filter.Query+"%")
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]contact.Contact, 0)

	for rows.Next() {
		var c contact.Contact

		err = rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Phone, &c.Email, &c.Company, &c.Favorite, &c.CreatedAt)

		if err != nil {
			return nil, err
		}

		output = append(output, c)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return output, nil
}

// Update rewrites the four core fields and, when req.Favorite is non-nil,
// the favorite flag, in one statement. Matching zero rows is not an error:
// the operation does not distinguish "updated" from "no-op", so an absent id
// or a foreign owner's id reports the same success as a real write.
func (r *ContactsRepo) Update(ctx context.Context, ownerID, id string, req contact.UpdateContactRequest) error {
	return r.obs.ObserveDB("contacts.update", func() error {
		_, err := r.db.Exec(ctx,
			`UPDATE contacts
            SET name = $3,
                phone = $4,
                email = $5,
                company = $6,
                favorite = COALESCE($7, favorite)
         WHERE id = $1 AND owner_id = $2`,
			id, ownerID, req.Name, req.Phone, req.Email, req.Company, req.Favorite,
		)

		return err
	})
}

// Delete removes the scoped row if present. Like Update it reports success
// whether or not a row was actually removed.
func (r *ContactsRepo) Delete(ctx context.Context, ownerID, id string) error {
	return r.obs.ObserveDB("contacts.delete", func() error {
		_, err := r.db.Exec(ctx,
			`DELETE FROM contacts WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		)

		return err
	})
}
