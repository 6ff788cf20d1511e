package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	remerrors "github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// ContactRepository handles contact persistence. Contacts are client-local
// state for the frontend; chain state never feeds them.
type ContactRepository struct {
	db *PostgresDB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *PostgresDB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a contact. Addresses are lower-cased on write so lookups
// match regardless of the caller's checksum casing.
func (r *ContactRepository) Create(ctx context.Context, contact *types.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	contact.Owner = strings.ToLower(contact.Owner)
	contact.Address = strings.ToLower(contact.Address)

	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	query := `
		INSERT INTO contacts (id, owner_address, name, contact_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		contact.ID,
		contact.Owner,
		contact.Name,
		contact.Address,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return remerrors.NewStorageError("create contact", err)
	}
	return nil
}

// ListByOwner returns all contacts for an owner, newest first.
func (r *ContactRepository) ListByOwner(ctx context.Context, owner string) ([]types.Contact, error) {
	query := `
		SELECT id, owner_address, name, contact_address, created_at, updated_at
		FROM contacts
		WHERE owner_address = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, strings.ToLower(owner))
	if err != nil {
		return nil, remerrors.NewStorageError("list contacts", err)
	}
	defer rows.Close()

	contacts := make([]types.Contact, 0)
	for rows.Next() {
		var c types.Contact
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, remerrors.NewStorageError("scan contact", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, remerrors.NewStorageError("list contacts", err)
	}
	return contacts, nil
}

// GetByID retrieves a contact owned by the given address.
func (r *ContactRepository) GetByID(ctx context.Context, owner, id string) (*types.Contact, error) {
	query := `
		SELECT id, owner_address, name, contact_address, created_at, updated_at
		FROM contacts
		WHERE id = $1 AND owner_address = $2
	`

	var c types.Contact
	err := r.db.Pool().QueryRow(ctx, query, id, strings.ToLower(owner)).Scan(
		&c.ID, &c.Owner, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, remerrors.NewNotFoundError("contact", id)
		}
		return nil, remerrors.NewStorageError("get contact", err)
	}
	return &c, nil
}

// Update renames a contact or changes its address.
func (r *ContactRepository) Update(ctx context.Context, contact *types.Contact) error {
	contact.Address = strings.ToLower(contact.Address)
	contact.UpdatedAt = time.Now()

	query := `
		UPDATE contacts
		SET name = $1, contact_address = $2, updated_at = $3
		WHERE id = $4 AND owner_address = $5
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		contact.Name,
		contact.Address,
		contact.UpdatedAt,
		contact.ID,
		strings.ToLower(contact.Owner),
	)
	if err != nil {
		return remerrors.NewStorageError("update contact", err)
	}
	if tag.RowsAffected() == 0 {
		return remerrors.NewNotFoundError("contact", contact.ID)
	}
	return nil
}

// Delete removes a contact owned by the given address.
func (r *ContactRepository) Delete(ctx context.Context, owner, id string) error {
	tag, err := r.db.Pool().Exec(ctx,
		`DELETE FROM contacts WHERE id = $1 AND owner_address = $2`,
		id, strings.ToLower(owner),
	)
	if err != nil {
		return remerrors.NewStorageError("delete contact", err)
	}
	if tag.RowsAffected() == 0 {
		return remerrors.NewNotFoundError("contact", id)
	}
	return nil
}

// CountByOwner returns the number of contacts an owner has saved.
func (r *ContactRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	var count int
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM contacts WHERE owner_address = $1`,
		strings.ToLower(owner),
	).Scan(&count)
	if err != nil {
		return 0, remerrors.NewStorageError("count contacts", err)
	}
	return count, nil
}
