package offer

import (
	"math"
	"strings"
	"time"

	"github.com/kasap-ot/thesis-project/internal/apperr"
)

// Offer is an internship listing posted by a company.
type Offer struct {
	ID               int64     `db:"id" json:"id"`
	Salary           int       `db:"salary" json:"salary"`
	NumWeeks         int       `db:"num_weeks" json:"num_weeks"`
	Field            string    `db:"field" json:"field"`
	Deadline         time.Time `db:"deadline" json:"deadline"`
	Requirements     string    `db:"requirements" json:"requirements"`
	Responsibilities string    `db:"responsibilities" json:"responsibilities"`
	CompanyID        *int64    `db:"company_id" json:"company_id"`
	Region           Region    `db:"region_id" json:"region"`
}

// Draft is the writable part of an offer.
type Draft struct {
	Salary           int       `json:"salary"`
	NumWeeks         int       `json:"num_weeks"`
	Field            string    `json:"field"`
	Deadline         time.Time `json:"deadline"`
	Requirements     string    `json:"requirements"`
	Responsibilities string    `json:"responsibilities"`
	Region           Region    `json:"region"`
}

// Validate checks the draft before it is written.
func (d Draft) Validate() error {
	switch {
	case d.Salary < 0:
		return apperr.Invalid("salary must not be negative")
	case d.NumWeeks <= 0:
		return apperr.Invalid("num_weeks must be positive")
	case strings.TrimSpace(d.Field) == "":
		return apperr.Invalid("field is required")
	case d.Deadline.IsZero():
		return apperr.Invalid("deadline is required")
	case !d.Region.Valid():
		return apperr.Invalid("unknown region")
	}
	return nil
}

// Brief is the search result row shown to students.
type Brief struct {
	ID          int64     `db:"id" json:"id"`
	Salary      int       `db:"salary" json:"salary"`
	NumWeeks    int       `db:"num_weeks" json:"num_weeks"`
	Field       string    `db:"field" json:"field"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
	Region      Region    `db:"region_id" json:"region"`
	CompanyName string    `db:"company_name" json:"company_name"`
}

// Search filters the offers a student browses. Region is not part of it:
// the student's own region always applies.
type Search struct {
	Field     string
	MinWeeks  int
	MaxWeeks  int
	MinSalary int
	MaxSalary int
}

// DefaultSearch matches every offer.
func DefaultSearch() Search {
	return Search{MinWeeks: 0, MaxWeeks: 52, MinSalary: 0, MaxSalary: math.MaxInt32}
}

// Validate rejects negative or inverted ranges.
func (s Search) Validate() error {
	if s.MinWeeks < 0 || s.MinSalary < 0 {
		return apperr.Invalid("ranges must not be negative")
	}
	if s.MinWeeks > s.MaxWeeks {
		return apperr.Invalid("min_num_weeks exceeds max_num_weeks")
	}
	if s.MinSalary > s.MaxSalary {
		return apperr.Invalid("min_salary exceeds max_salary")
	}
	return nil
}
