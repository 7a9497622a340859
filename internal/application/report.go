package application

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/auth"
	"github.com/kasap-ot/thesis-project/internal/store"
)

// Report grades use the same scale as GPA.
const (
	MinReportGrade = 0
	MaxReportGrade = 10
)

// StudentReport is the company's evaluation of its intern.
type StudentReport struct {
	StudentID          int64  `db:"student_id" json:"student_id"`
	OfferID            int64  `db:"offer_id" json:"offer_id"`
	OverallGrade       int    `db:"overall_grade" json:"overall_grade"`
	TechnicalGrade     int    `db:"technical_grade" json:"technical_grade"`
	CommunicationGrade int    `db:"communication_grade" json:"communication_grade"`
	Comment            string `db:"comment" json:"comment"`
}

// Validate checks the grades are within [0, 10].
func (r StudentReport) Validate() error {
	return validGrades(r.OverallGrade, r.TechnicalGrade, r.CommunicationGrade)
}

// CompanyReport is the intern's evaluation of the company.
type CompanyReport struct {
	StudentID            int64  `db:"student_id" json:"student_id"`
	OfferID              int64  `db:"offer_id" json:"offer_id"`
	MentorshipGrade      int    `db:"mentorship_grade" json:"mentorship_grade"`
	WorkEnvironmentGrade int    `db:"work_environment_grade" json:"work_environment_grade"`
	BenefitsGrade        int    `db:"benefits_grade" json:"benefits_grade"`
	Comment              string `db:"comment" json:"comment"`
}

// Validate checks the grades are within [0, 10].
func (r CompanyReport) Validate() error {
	return validGrades(r.MentorshipGrade, r.WorkEnvironmentGrade, r.BenefitsGrade)
}

func validGrades(grades ...int) error {
	for _, g := range grades {
		if g < MinReportGrade || g > MaxReportGrade {
			return apperr.Invalid("report grades must be within [0, 10]")
		}
	}
	return nil
}

const (
	studentReportColumns = `student_id, offer_id, overall_grade, technical_grade, communication_grade, comment`
	companyReportColumns = `student_id, offer_id, mentorship_grade, work_environment_grade, benefits_grade, comment`
)

// CreateStudentReport stores the first report for a completed internship and
// archives the application with it.
func (r *Repository) CreateStudentReport(ctx context.Context, companyID int64, rep StudentReport) (StudentReport, error) {
	var out StudentReport
	err := store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockOwnedOffer(ctx, tx, rep.OfferID, companyID); err != nil {
			return err
		}
		current, err := statusOf(ctx, tx, rep.StudentID, rep.OfferID)
		if err != nil {
			return err
		}
		to, err := Transition(current, ActionArchive)
		if err != nil {
			return err
		}
		err = tx.GetContext(ctx, &out, `
			INSERT INTO student_reports (`+studentReportColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+studentReportColumns,
			rep.StudentID, rep.OfferID, rep.OverallGrade, rep.TechnicalGrade, rep.CommunicationGrade, rep.Comment)
		if err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.New(apperr.KindConflict, "student report already exists", err)
			}
			return store.Wrap(err, "insert student report")
		}
		return setStatus(ctx, tx, rep.StudentID, rep.OfferID, current, to)
	})
	if err != nil {
		return StudentReport{}, err
	}
	return out, nil
}

// UpdateStudentReport rewrites the grades. The application status is left
// alone.
func (r *Repository) UpdateStudentReport(ctx context.Context, companyID int64, rep StudentReport) (StudentReport, error) {
	var out StudentReport
	err := store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockOwnedOffer(ctx, tx, rep.OfferID, companyID); err != nil {
			return err
		}
		err := tx.GetContext(ctx, &out, `
			UPDATE student_reports
			SET overall_grade = $3, technical_grade = $4, communication_grade = $5, comment = $6
			WHERE student_id = $1 AND offer_id = $2
			RETURNING `+studentReportColumns,
			rep.StudentID, rep.OfferID, rep.OverallGrade, rep.TechnicalGrade, rep.CommunicationGrade, rep.Comment)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("student report not found")
		}
		return store.Wrap(err, "update student report")
	})
	if err != nil {
		return StudentReport{}, err
	}
	return out, nil
}

// DeleteStudentReport removes the report and moves the application back to
// COMPLETED.
func (r *Repository) DeleteStudentReport(ctx context.Context, companyID, studentID, offerID int64) error {
	return store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockOwnedOffer(ctx, tx, offerID, companyID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM student_reports WHERE student_id = $1 AND offer_id = $2`, studentID, offerID)
		if err != nil {
			return store.Wrap(err, "delete student report")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("student report not found")
		}
		to, err := Transition(StatusArchived, ActionUnarchive)
		if err != nil {
			return err
		}
		return setStatus(ctx, tx, studentID, offerID, StatusArchived, to)
	})
}

// StudentReport returns the company's report on an intern.
func (r *Repository) StudentReport(ctx context.Context, studentID, offerID int64) (StudentReport, error) {
	var out StudentReport
	err := r.db.GetContext(ctx, &out,
		`SELECT `+studentReportColumns+` FROM student_reports WHERE student_id = $1 AND offer_id = $2`,
		studentID, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StudentReport{}, apperr.NotFound("student report not found")
		}
		return StudentReport{}, store.Wrap(err, "load student report")
	}
	return out, nil
}

// CreateCompanyReport stores the student's review once the internship is
// over.
func (r *Repository) CreateCompanyReport(ctx context.Context, rep CompanyReport) (CompanyReport, error) {
	var out CompanyReport
	err := store.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockOffer(ctx, tx, rep.OfferID); err != nil {
			return err
		}
		current, err := statusOf(ctx, tx, rep.StudentID, rep.OfferID)
		if err != nil {
			return err
		}
		if current != StatusCompleted && current != StatusArchived {
			return apperr.Conflict("the internship has not been completed")
		}
		err = tx.GetContext(ctx, &out, `
			INSERT INTO company_reports (`+companyReportColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+companyReportColumns,
			rep.StudentID, rep.OfferID, rep.MentorshipGrade, rep.WorkEnvironmentGrade, rep.BenefitsGrade, rep.Comment)
		if err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.New(apperr.KindConflict, "company report already exists", err)
			}
			return store.Wrap(err, "insert company report")
		}
		return nil
	})
	if err != nil {
		return CompanyReport{}, err
	}
	return out, nil
}

// UpdateCompanyReport rewrites the grades and comment of a company report.
func (r *Repository) UpdateCompanyReport(ctx context.Context, rep CompanyReport) (CompanyReport, error) {
	var out CompanyReport
	err := r.db.GetContext(ctx, &out, `
		UPDATE company_reports
		SET mentorship_grade = $3, work_environment_grade = $4, benefits_grade = $5, comment = $6
		WHERE student_id = $1 AND offer_id = $2
		RETURNING `+companyReportColumns,
		rep.StudentID, rep.OfferID, rep.MentorshipGrade, rep.WorkEnvironmentGrade, rep.BenefitsGrade, rep.Comment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CompanyReport{}, apperr.NotFound("company report not found")
		}
		return CompanyReport{}, store.Wrap(err, "update company report")
	}
	return out, nil
}

// DeleteCompanyReport removes a company report. Status is untouched.
func (r *Repository) DeleteCompanyReport(ctx context.Context, studentID, offerID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM company_reports WHERE student_id = $1 AND offer_id = $2`, studentID, offerID)
	if err != nil {
		return store.Wrap(err, "delete company report")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("company report not found")
	}
	return nil
}

// CompanyReport returns the intern's report on a company.
func (r *Repository) CompanyReport(ctx context.Context, studentID, offerID int64) (CompanyReport, error) {
	var out CompanyReport
	err := r.db.GetContext(ctx, &out,
		`SELECT `+companyReportColumns+` FROM company_reports WHERE student_id = $1 AND offer_id = $2`,
		studentID, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CompanyReport{}, apperr.NotFound("company report not found")
		}
		return CompanyReport{}, store.Wrap(err, "load company report")
	}
	return out, nil
}

// CreateStudentReport lets the offer's company grade its intern. The
// application is archived in the same transaction.
func (s *Service) CreateStudentReport(ctx context.Context, caller auth.Caller, rep StudentReport) (StudentReport, error) {
	if err := rep.Validate(); err != nil {
		return StudentReport{}, err
	}
	if err := s.authorizeOwner(ctx, caller, rep.OfferID); err != nil {
		return StudentReport{}, err
	}
	out, err := s.store.CreateStudentReport(ctx, caller.ID, rep)
	if err != nil {
		return StudentReport{}, s.record(string(ActionArchive), err)
	}
	s.record(string(ActionArchive), nil)
	return out, nil
}

// UpdateStudentReport lets the owning company revise its report.
func (s *Service) UpdateStudentReport(ctx context.Context, caller auth.Caller, rep StudentReport) (StudentReport, error) {
	if err := rep.Validate(); err != nil {
		return StudentReport{}, err
	}
	if err := s.authorizeOwner(ctx, caller, rep.OfferID); err != nil {
		return StudentReport{}, err
	}
	return s.store.UpdateStudentReport(ctx, caller.ID, rep)
}

// DeleteStudentReport removes the report and reopens the application as
// COMPLETED.
func (s *Service) DeleteStudentReport(ctx context.Context, caller auth.Caller, studentID, offerID int64) error {
	if err := s.authorizeOwner(ctx, caller, offerID); err != nil {
		return err
	}
	return s.record(string(ActionUnarchive), s.store.DeleteStudentReport(ctx, caller.ID, studentID, offerID))
}

// GetStudentReport returns the report to the intern or the owning company.
func (s *Service) GetStudentReport(ctx context.Context, caller auth.Caller, studentID, offerID int64) (StudentReport, error) {
	if err := s.authorizeReader(ctx, caller, studentID, offerID); err != nil {
		return StudentReport{}, err
	}
	return s.store.StudentReport(ctx, studentID, offerID)
}

// CreateCompanyReport lets the intern review the company.
func (s *Service) CreateCompanyReport(ctx context.Context, caller auth.Caller, rep CompanyReport) (CompanyReport, error) {
	if err := auth.AuthorizeStudent(caller, rep.StudentID); err != nil {
		return CompanyReport{}, err
	}
	if err := rep.Validate(); err != nil {
		return CompanyReport{}, err
	}
	return s.store.CreateCompanyReport(ctx, rep)
}

// UpdateCompanyReport lets the intern revise their review.
func (s *Service) UpdateCompanyReport(ctx context.Context, caller auth.Caller, rep CompanyReport) (CompanyReport, error) {
	if err := auth.AuthorizeStudent(caller, rep.StudentID); err != nil {
		return CompanyReport{}, err
	}
	if err := rep.Validate(); err != nil {
		return CompanyReport{}, err
	}
	return s.store.UpdateCompanyReport(ctx, rep)
}

// DeleteCompanyReport lets the intern withdraw their review.
func (s *Service) DeleteCompanyReport(ctx context.Context, caller auth.Caller, studentID, offerID int64) error {
	if err := auth.AuthorizeStudent(caller, studentID); err != nil {
		return err
	}
	return s.store.DeleteCompanyReport(ctx, studentID, offerID)
}

// GetCompanyReport returns the review to the intern or the offer's company.
func (s *Service) GetCompanyReport(ctx context.Context, caller auth.Caller, studentID, offerID int64) (CompanyReport, error) {
	if err := s.authorizeReader(ctx, caller, studentID, offerID); err != nil {
		return CompanyReport{}, err
	}
	return s.store.CompanyReport(ctx, studentID, offerID)
}
