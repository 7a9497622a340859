package application

import (
	"math"
	"strconv"
	"strings"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/store"
)

// Domain limits for the academic attributes of a student.
const (
	MinGPA     = 0.0
	MaxGPA     = 10.0
	MinCredits = 0
	MaxCredits = 300
)

// SubjectRequirement asks for a subject passed with at least MinGrade.
type SubjectRequirement struct {
	Name     string `json:"name"`
	MinGrade int    `json:"min_grade"`
}

// ApplicantFilter narrows the applicants of an offer. Every predicate must
// hold. A nil University and an empty Subjects list apply no filtering.
type ApplicantFilter struct {
	University *string
	MinGPA     float64
	MaxGPA     float64
	MinCredits int
	MaxCredits int
	Subjects   []SubjectRequirement
}

// DefaultFilter matches every applicant.
func DefaultFilter() ApplicantFilter {
	return ApplicantFilter{MinGPA: MinGPA, MaxGPA: MaxGPA, MinCredits: MinCredits, MaxCredits: MaxCredits}
}

// Validate rejects ranges outside the domain or inverted ones.
func (f ApplicantFilter) Validate() error {
	switch {
	case !finite(f.MinGPA) || !finite(f.MaxGPA):
		return apperr.Invalid("gpa bounds must be finite numbers")
	case f.MinGPA < MinGPA || f.MaxGPA > MaxGPA:
		return apperr.Invalid("gpa range must be within [0, 10]")
	case f.MinGPA > f.MaxGPA:
		return apperr.Invalid("min_gpa exceeds max_gpa")
	case f.MinCredits < MinCredits || f.MaxCredits > MaxCredits:
		return apperr.Invalid("credit range must be within [0, 300]")
	case f.MinCredits > f.MaxCredits:
		return apperr.Invalid("min_credits exceeds max_credits")
	}
	for _, s := range f.Subjects {
		if strings.TrimSpace(s.Name) == "" {
			return apperr.Invalid("subject name is required")
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ParseSubjects reads requirements in the form "Math,8;CS,7". Empty
// segments are skipped.
func ParseSubjects(raw string) ([]SubjectRequirement, error) {
	var out []SubjectRequirement
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, grade, ok := strings.Cut(part, ",")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, apperr.Invalid("subjects must look like name,grade;name,grade")
		}
		g, err := strconv.Atoi(strings.TrimSpace(grade))
		if err != nil {
			return nil, apperr.Invalid("subject grade must be an integer: " + part)
		}
		out = append(out, SubjectRequirement{Name: name, MinGrade: g})
	}
	return out, nil
}

const applicantsBase = `SELECT s.id, s.email, s.name, s.date_of_birth, s.university, s.major, s.credits, s.gpa, s.region_id, a.status
		FROM students s
		JOIN applications a ON a.student_id = s.id`

// applicantsQuery builds the applicant search for one offer. Each subject
// requirement becomes its own HAVING term so one subject row can never
// satisfy two requirements.
func applicantsQuery(offerID int64, f ApplicantFilter) (string, []any) {
	q := store.NewQuery(applicantsBase).
		Where("a.offer_id = ?", offerID).
		Where("s.gpa >= ? AND s.gpa <= ?", f.MinGPA, f.MaxGPA).
		Where("s.credits >= ? AND s.credits <= ?", f.MinCredits, f.MaxCredits)
	if f.University != nil {
		q.Where("s.university LIKE '%' || ? || '%'", *f.University)
	}
	if len(f.Subjects) > 0 {
		terms := make([]string, len(f.Subjects))
		args := make([]any, 0, 2*len(f.Subjects))
		for i, s := range f.Subjects {
			terms[i] = "COUNT(CASE WHEN name = ? AND grade >= ? THEN 1 END) > 0"
			args = append(args, s.Name, s.MinGrade)
		}
		q.Where("s.id IN (SELECT student_id FROM subjects GROUP BY student_id HAVING "+strings.Join(terms, " AND ")+")", args...)
	}
	q.Suffix("ORDER BY s.id")
	return q.Build()
}
