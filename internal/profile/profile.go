// Package profile manages the parts of student and company accounts the
// marketplace owns: account removal and the subject grades the applicant
// filter reads.
package profile

import (
	"context"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/auth"
	"github.com/kasap-ot/thesis-project/internal/store"
)

// Store deletes profiles and edits subjects. The schema takes care of
// dependent rows.
type Store interface {
	DeleteStudent(ctx context.Context, id int64) error
	DeleteCompany(ctx context.Context, id int64) error
	CreateSubject(ctx context.Context, s Subject) (Subject, error)
	UpdateSubject(ctx context.Context, studentID int64, name string, s Subject) (Subject, error)
	DeleteSubject(ctx context.Context, studentID int64, name string) error
	Subjects(ctx context.Context, studentID int64) ([]Subject, error)
}

// Repository deletes profiles in Postgres.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a repo.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DeleteStudent removes the student with its subjects, experiences, letter,
// applications and reports.
func (r *Repository) DeleteStudent(ctx context.Context, id int64) error {
	return r.delete(ctx, `DELETE FROM students WHERE id = $1`, id, "student")
}

// DeleteCompany removes the company. Its offers stay with a NULL company_id.
func (r *Repository) DeleteCompany(ctx context.Context, id int64) error {
	return r.delete(ctx, `DELETE FROM companies WHERE id = $1`, id, "company")
}

func (r *Repository) delete(ctx context.Context, query string, id int64, what string) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return store.Wrap(err, "delete "+what)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(what + " not found")
	}
	return nil
}

// Service authorizes profile changes.
type Service struct {
	store Store
}

// NewService creates a service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// DeleteStudent lets a student remove their own account.
func (s *Service) DeleteStudent(ctx context.Context, caller auth.Caller, id int64) error {
	if err := auth.AuthorizeStudent(caller, id); err != nil {
		return err
	}
	if err := s.store.DeleteStudent(ctx, id); err != nil {
		return err
	}
	log.WithField("student_id", id).Info("student profile deleted")
	return nil
}

// DeleteCompany lets a company remove its own account.
func (s *Service) DeleteCompany(ctx context.Context, caller auth.Caller, id int64) error {
	if err := auth.AuthorizeCompany(caller, &id); err != nil {
		return err
	}
	if err := s.store.DeleteCompany(ctx, id); err != nil {
		return err
	}
	log.WithField("company_id", id).Info("company profile deleted")
	return nil
}
