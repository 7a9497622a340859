package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNoRecipient means the notification has nobody to go to, for example
// an orphaned offer.
var ErrNoRecipient = errors.New("no recipient")

// Directory resolves ids into addresses.
type Directory interface {
	OfferField(ctx context.Context, offerID int64) (string, error)
	CompanyEmail(ctx context.Context, offerID int64) (string, error)
	StudentEmails(ctx context.Context, studentIDs []int64) ([]string, error)
}

// DBDirectory reads addresses from Postgres.
type DBDirectory struct {
	db *sqlx.DB
}

// NewDBDirectory creates a directory.
func NewDBDirectory(db *sqlx.DB) *DBDirectory {
	return &DBDirectory{db: db}
}

// OfferField returns the field of an offer for the email subject.
func (d *DBDirectory) OfferField(ctx context.Context, offerID int64) (string, error) {
	var field string
	err := d.db.GetContext(ctx, &field, `SELECT field FROM offers WHERE id = $1`, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("offer %d: %w", offerID, ErrNoRecipient)
	}
	return field, err
}

// CompanyEmail returns the address of the company owning an offer.
func (d *DBDirectory) CompanyEmail(ctx context.Context, offerID int64) (string, error) {
	var email string
	err := d.db.GetContext(ctx, &email, `
		SELECT c.email FROM offers o
		JOIN companies c ON c.id = o.company_id
		WHERE o.id = $1`, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("company of offer %d: %w", offerID, ErrNoRecipient)
	}
	return email, err
}

// StudentEmails skips students that no longer exist.
func (d *DBDirectory) StudentEmails(ctx context.Context, studentIDs []int64) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, fmt.Errorf("no students: %w", ErrNoRecipient)
	}
	query, args, err := sqlx.In(`SELECT email FROM students WHERE id IN (?) ORDER BY id`, studentIDs)
	if err != nil {
		return nil, err
	}
	var emails []string
	if err := d.db.SelectContext(ctx, &emails, d.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("students %v: %w", studentIDs, ErrNoRecipient)
	}
	return emails, nil
}
