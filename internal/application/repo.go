package application

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/offer"
	"github.com/kasap-ot/thesis-project/internal/store"
)

// Repository persists applications. Every lifecycle write locks the offer
// row first so competing operations on one offer run one after another and
// always take locks in the same order.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a repo.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// OfferOwner returns the company owning an offer, nil for orphaned offers.
func (r *Repository) OfferOwner(ctx context.Context, offerID int64) (*int64, error) {
	var owner *int64
	err := r.db.GetContext(ctx, &owner, `SELECT company_id FROM offers WHERE id = $1`, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("offer not found")
		}
		return nil, store.Wrap(err, "load offer owner")
	}
	return owner, nil
}

// Target loads the regions Apply compares and the company to notify.
func (r *Repository) Target(ctx context.Context, studentID, offerID int64) (Target, error) {
	var row struct {
		Region    int    `db:"region_id"`
		CompanyID *int64 `db:"company_id"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT region_id, company_id FROM offers WHERE id = $1`, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Target{}, apperr.NotFound("offer not found")
		}
		return Target{}, store.Wrap(err, "load offer")
	}
	var studentRegion int
	err = r.db.GetContext(ctx, &studentRegion, `SELECT region_id FROM students WHERE id = $1`, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Target{}, apperr.NotFound("student not found")
		}
		return Target{}, store.Wrap(err, "load student")
	}
	return Target{
		OfferRegion:   offer.Region(row.Region),
		CompanyID:     row.CompanyID,
		StudentRegion: offer.Region(studentRegion),
	}, nil
}

// Insert creates a WAITING application. The primary key on (student, offer)
// decides duplicate applications.
func (r *Repository) Insert(ctx context.Context, studentID, offerID int64) (Application, error) {
	a := Application{StudentID: studentID, OfferID: offerID, Status: StatusWaiting}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (student_id, offer_id, status) VALUES ($1, $2, $3)`,
		studentID, offerID, string(StatusWaiting))
	if err != nil {
		switch {
		case store.IsUniqueViolation(err):
			return Application{}, apperr.New(apperr.KindConflict, "already applied to this offer", err)
		case store.IsForeignKeyViolation(err):
			return Application{}, apperr.New(apperr.KindNotFound, "offer or student not found", err)
		}
		return Application{}, store.Wrap(err, "insert application")
	}
	return a, nil
}

// Get returns one application.
func (r *Repository) Get(ctx context.Context, studentID, offerID int64) (Application, error) {
	var a Application
	err := r.db.GetContext(ctx, &a,
		`SELECT student_id, offer_id, status FROM applications WHERE student_id = $1 AND offer_id = $2`,
		studentID, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, apperr.NotFound("application not found")
		}
		return Application{}, store.Wrap(err, "load application")
	}
	return a, nil
}

// Accept makes studentID the winner of the offer and rejects every other
// application still waiting.
func (r *Repository) Accept(ctx context.Context, companyID, offerID, studentID int64) (AcceptResult, error) {
	res := AcceptResult{AcceptedStudentID: studentID, RejectedStudentIDs: []int64{}}
	err := store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockOwnedOffer(ctx, tx, offerID, companyID); err != nil {
			return err
		}
		current, err := statusOf(ctx, tx, studentID, offerID)
		if err != nil {
			return err
		}
		to, err := Transition(current, ActionAccept)
		if err != nil {
			return err
		}
		query, args, err := sqlx.In(
			`SELECT EXISTS (SELECT 1 FROM applications WHERE offer_id = ? AND status IN (?))`,
			offerID, winnerStatuses())
		if err != nil {
			return store.Wrap(err, "build winner check")
		}
		var taken bool
		if err := tx.GetContext(ctx, &taken, tx.Rebind(query), args...); err != nil {
			return store.Wrap(err, "check offer winner")
		}
		if taken {
			return apperr.Conflict("offer already has an accepted applicant")
		}
		if err := setStatus(ctx, tx, studentID, offerID, current, to); err != nil {
			return err
		}
		rejected, _ := Next(StatusWaiting, ActionReject)
		err = tx.SelectContext(ctx, &res.RejectedStudentIDs, `
			UPDATE applications SET status = $1
			WHERE offer_id = $2 AND student_id <> $3 AND status = $4
			RETURNING student_id`,
			string(rejected), offerID, studentID, string(StatusWaiting))
		if err != nil {
			return store.Wrap(err, "reject competing applications")
		}
		return nil
	})
	if err != nil {
		return AcceptResult{}, err
	}
	return res, nil
}

// Cancel withdraws a student's application. Withdrawing an accepted one
// reopens the offer: every other application goes back to WAITING.
func (r *Repository) Cancel(ctx context.Context, studentID, offerID int64) (CancelResult, error) {
	res := CancelResult{ResetStudentIDs: []int64{}}
	err := store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		owner, err := lockOffer(ctx, tx, offerID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.NotFound("application not found")
			}
			return err
		}
		res.CompanyID = owner
		current, err := statusOf(ctx, tx, studentID, offerID)
		if err != nil {
			return err
		}
		if _, err := Transition(current, ActionCancel); err != nil {
			return err
		}
		out, err := tx.ExecContext(ctx,
			`DELETE FROM applications WHERE student_id = $1 AND offer_id = $2 AND status = $3`,
			studentID, offerID, string(current))
		if err != nil {
			return store.Wrap(err, "delete application")
		}
		if n, _ := out.RowsAffected(); n == 0 {
			return apperr.Conflict("application changed concurrently")
		}
		res.PreviousStatus = current
		if current != StatusAccepted {
			return nil
		}
		reopened, _ := Next(StatusRejected, ActionReopen)
		err = tx.SelectContext(ctx, &res.ResetStudentIDs, `
			UPDATE applications SET status = $1
			WHERE offer_id = $2 AND student_id <> $3
			RETURNING student_id`,
			string(reopened), offerID, studentID)
		if err != nil {
			return store.Wrap(err, "reopen applications")
		}
		return nil
	})
	if err != nil {
		return CancelResult{}, err
	}
	return res, nil
}

// Advance applies a single-step company action such as start or complete.
func (r *Repository) Advance(ctx context.Context, companyID, offerID, studentID int64, action Action) (Status, error) {
	var to Status
	err := store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockOwnedOffer(ctx, tx, offerID, companyID); err != nil {
			return err
		}
		current, err := statusOf(ctx, tx, studentID, offerID)
		if err != nil {
			return err
		}
		if to, err = Transition(current, action); err != nil {
			return err
		}
		return setStatus(ctx, tx, studentID, offerID, current, to)
	})
	if err != nil {
		return "", err
	}
	return to, nil
}

// Applicants runs the applicant filter for one offer.
func (r *Repository) Applicants(ctx context.Context, offerID int64, f ApplicantFilter) ([]Applicant, error) {
	query, args := applicantsQuery(offerID, f)
	out := []Applicant{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, store.Wrap(err, "filter applicants")
	}
	return out, nil
}

// ListByStudent returns a student's applications with their offers.
func (r *Repository) ListByStudent(ctx context.Context, studentID int64) ([]StudentApplication, error) {
	out := []StudentApplication{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT a.offer_id, a.status, o.field, o.salary, o.num_weeks, o.deadline, c.name AS company_name
		FROM applications a
		JOIN offers o ON o.id = a.offer_id
		LEFT JOIN companies c ON c.id = o.company_id
		WHERE a.student_id = $1
		ORDER BY o.deadline, a.offer_id`, studentID)
	if err != nil {
		return nil, store.Wrap(err, "list student applications")
	}
	return out, nil
}

func lockOffer(ctx context.Context, tx *sqlx.Tx, offerID int64) (*int64, error) {
	var owner *int64
	err := tx.GetContext(ctx, &owner, `SELECT company_id FROM offers WHERE id = $1 FOR UPDATE`, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("offer not found")
		}
		return nil, store.Wrap(err, "lock offer")
	}
	return owner, nil
}

func lockOwnedOffer(ctx context.Context, tx *sqlx.Tx, offerID, companyID int64) error {
	owner, err := lockOffer(ctx, tx, offerID)
	if err != nil {
		return err
	}
	if owner == nil || *owner != companyID {
		return apperr.Forbidden("offer is not owned by the caller")
	}
	return nil
}

func statusOf(ctx context.Context, tx *sqlx.Tx, studentID, offerID int64) (Status, error) {
	var raw string
	err := tx.GetContext(ctx, &raw,
		`SELECT status FROM applications WHERE student_id = $1 AND offer_id = $2`, studentID, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFound("application not found")
		}
		return "", store.Wrap(err, "load application status")
	}
	s, err := ParseStatus(raw)
	if err != nil {
		return "", store.Wrap(err, "load application status")
	}
	return s, nil
}

// setStatus writes to only if the row still holds from.
func setStatus(ctx context.Context, tx *sqlx.Tx, studentID, offerID int64, from, to Status) error {
	out, err := tx.ExecContext(ctx, `
		UPDATE applications SET status = $1
		WHERE student_id = $2 AND offer_id = $3 AND status = $4`,
		string(to), studentID, offerID, string(from))
	if err != nil {
		if store.IsUniqueViolation(err) {
			return apperr.New(apperr.KindConflict, "offer already has an accepted applicant", err)
		}
		return store.Wrap(err, "update application status")
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return apperr.Conflict("application status changed concurrently")
	}
	return nil
}
