package profile

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/auth"
	"github.com/kasap-ot/thesis-project/internal/store"
)

// Subject grade bounds, on the same scale as the GPA.
const (
	MinGrade = 0
	MaxGrade = 10
)

// Subject is a passed course with its grade. A student has at most one row
// per subject name.
type Subject struct {
	StudentID int64  `db:"student_id" json:"student_id"`
	Name      string `db:"name" json:"name"`
	Grade     int    `db:"grade" json:"grade"`
}

// Validate checks the name and the grade range.
func (s Subject) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return apperr.Invalid("subject name is required")
	}
	if s.Grade < MinGrade || s.Grade > MaxGrade {
		return apperr.Invalid("subject grade must be within [0, 10]")
	}
	return nil
}

// CreateSubject inserts a subject row.
func (r *Repository) CreateSubject(ctx context.Context, s Subject) (Subject, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subjects (student_id, name, grade) VALUES ($1, $2, $3)`,
		s.StudentID, s.Name, s.Grade)
	if err != nil {
		return Subject{}, subjectError(err, "insert subject")
	}
	return s, nil
}

// UpdateSubject rewrites the subject stored under name. The name itself may
// change.
func (r *Repository) UpdateSubject(ctx context.Context, studentID int64, name string, s Subject) (Subject, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subjects SET name = $1, grade = $2
		WHERE student_id = $3 AND name = $4`,
		s.Name, s.Grade, studentID, name)
	if err != nil {
		return Subject{}, subjectError(err, "update subject")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Subject{}, apperr.NotFound("subject not found")
	}
	s.StudentID = studentID
	return s, nil
}

// DeleteSubject removes one subject of a student.
func (r *Repository) DeleteSubject(ctx context.Context, studentID int64, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE student_id = $1 AND name = $2`, studentID, name)
	if err != nil {
		return store.Wrap(err, "delete subject")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("subject not found")
	}
	return nil
}

// Subjects lists a student's subjects by name.
func (r *Repository) Subjects(ctx context.Context, studentID int64) ([]Subject, error) {
	out := []Subject{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT student_id, name, grade FROM subjects WHERE student_id = $1 ORDER BY name`, studentID)
	if err != nil {
		return nil, store.Wrap(err, "list subjects")
	}
	return out, nil
}

func subjectError(err error, message string) error {
	switch {
	case store.IsUniqueViolation(err):
		return apperr.New(apperr.KindConflict, "subject already recorded", err)
	case store.IsForeignKeyViolation(err):
		return apperr.New(apperr.KindNotFound, "student not found", err)
	}
	return store.Wrap(err, message)
}

// CreateSubject records a subject for the calling student.
func (s *Service) CreateSubject(ctx context.Context, caller auth.Caller, sub Subject) (Subject, error) {
	if err := auth.AuthorizeStudent(caller, sub.StudentID); err != nil {
		return Subject{}, err
	}
	if err := sub.Validate(); err != nil {
		return Subject{}, err
	}
	out, err := s.store.CreateSubject(ctx, sub)
	if err != nil {
		return Subject{}, err
	}
	log.WithFields(log.Fields{"student_id": sub.StudentID, "subject": sub.Name}).Debug("subject recorded")
	return out, nil
}

// UpdateSubject lets a student correct one of their subjects.
func (s *Service) UpdateSubject(ctx context.Context, caller auth.Caller, studentID int64, name string, sub Subject) (Subject, error) {
	if err := auth.AuthorizeStudent(caller, studentID); err != nil {
		return Subject{}, err
	}
	if err := sub.Validate(); err != nil {
		return Subject{}, err
	}
	return s.store.UpdateSubject(ctx, studentID, name, sub)
}

// DeleteSubject lets a student drop one of their subjects.
func (s *Service) DeleteSubject(ctx context.Context, caller auth.Caller, studentID int64, name string) error {
	if err := auth.AuthorizeStudent(caller, studentID); err != nil {
		return err
	}
	return s.store.DeleteSubject(ctx, studentID, name)
}

// Subjects lists a student's subjects. Companies read them when
// shortlisting, so any authenticated caller may.
func (s *Service) Subjects(ctx context.Context, studentID int64) ([]Subject, error) {
	return s.store.Subjects(ctx, studentID)
}
