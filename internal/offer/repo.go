package offer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/store"
)

const offerColumns = `id, salary, num_weeks, field, deadline, requirements, responsibilities, company_id, region_id`

// Repository persists offers in Postgres.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a repo.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an offer owned by companyID.
func (r *Repository) Create(ctx context.Context, companyID int64, d Draft) (Offer, error) {
	var o Offer
	err := r.db.GetContext(ctx, &o, `
		INSERT INTO offers (salary, num_weeks, field, deadline, requirements, responsibilities, company_id, region_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+offerColumns,
		d.Salary, d.NumWeeks, d.Field, d.Deadline, d.Requirements, d.Responsibilities, companyID, int(d.Region))
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return Offer{}, apperr.NotFound("company not found")
		}
		return Offer{}, store.Wrap(err, "create offer")
	}
	return o, nil
}

// Get returns a single offer by id.
func (r *Repository) Get(ctx context.Context, id int64) (Offer, error) {
	var o Offer
	err := r.db.GetContext(ctx, &o, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Offer{}, apperr.NotFound("offer not found")
		}
		return Offer{}, store.Wrap(err, "load offer")
	}
	return o, nil
}

// Update rewrites an offer still owned by companyID.
func (r *Repository) Update(ctx context.Context, id, companyID int64, d Draft) (Offer, error) {
	var o Offer
	err := r.db.GetContext(ctx, &o, `
		UPDATE offers
		SET salary = $3, num_weeks = $4, field = $5, deadline = $6, requirements = $7, responsibilities = $8, region_id = $9
		WHERE id = $1 AND company_id = $2
		RETURNING `+offerColumns,
		id, companyID, d.Salary, d.NumWeeks, d.Field, d.Deadline, d.Requirements, d.Responsibilities, int(d.Region))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Offer{}, apperr.NotFound("offer not found")
		}
		return Offer{}, store.Wrap(err, "update offer")
	}
	return o, nil
}

// Delete removes an offer still owned by companyID. Its applications go with it.
func (r *Repository) Delete(ctx context.Context, id, companyID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return store.Wrap(err, "delete offer")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("offer not found")
	}
	return nil
}

// ListByCompany returns the offers of one company.
func (r *Repository) ListByCompany(ctx context.Context, companyID int64) ([]Offer, error) {
	offers := []Offer{}
	err := r.db.SelectContext(ctx, &offers, `SELECT `+offerColumns+` FROM offers WHERE company_id = $1 ORDER BY id`, companyID)
	if err != nil {
		return nil, store.Wrap(err, "list company offers")
	}
	return offers, nil
}

// Search lists offers visible from the given region. Offers whose company was
// deleted are not listed.
func (r *Repository) Search(ctx context.Context, region Region, s Search) ([]Brief, error) {
	q := store.NewQuery(`SELECT o.id, o.salary, o.num_weeks, o.field, o.deadline, o.region_id, c.name AS company_name
		FROM offers o
		JOIN companies c ON c.id = o.company_id`).
		Where("o.num_weeks >= ? AND o.num_weeks <= ?", s.MinWeeks, s.MaxWeeks).
		Where("o.salary >= ? AND o.salary <= ?", s.MinSalary, s.MaxSalary).
		Where("(o.region_id = ? OR o.region_id = ?)", int(region), int(RegionGlobal))
	if s.Field != "" {
		q.Where("o.field = ?", s.Field)
	}
	q.Suffix("ORDER BY o.deadline, o.id")

	query, args := q.Build()
	briefs := []Brief{}
	if err := r.db.SelectContext(ctx, &briefs, query, args...); err != nil {
		return nil, store.Wrap(err, "search offers")
	}
	return briefs, nil
}

// StudentRegion returns the region a student is registered in.
func (r *Repository) StudentRegion(ctx context.Context, studentID int64) (Region, error) {
	var region int
	err := r.db.GetContext(ctx, &region, `SELECT region_id FROM students WHERE id = $1`, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("student not found")
		}
		return 0, store.Wrap(err, "load student region")
	}
	return Region(region), nil
}
