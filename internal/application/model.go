package application

import (
	"time"

	"github.com/kasap-ot/thesis-project/internal/offer"
)

// Application is one student's candidacy for one offer.
type Application struct {
	StudentID int64  `db:"student_id" json:"student_id"`
	OfferID   int64  `db:"offer_id" json:"offer_id"`
	Status    Status `db:"status" json:"status"`
}

// Applicant is a student who applied to an offer, with the application status.
type Applicant struct {
	ID          int64        `db:"id" json:"id"`
	Email       string       `db:"email" json:"email"`
	Name        string       `db:"name" json:"name"`
	DateOfBirth *time.Time   `db:"date_of_birth" json:"date_of_birth,omitempty"`
	University  string       `db:"university" json:"university"`
	Major       string       `db:"major" json:"major"`
	Credits     int          `db:"credits" json:"credits"`
	GPA         float64      `db:"gpa" json:"gpa"`
	Region      offer.Region `db:"region_id" json:"region"`
	Status      Status       `db:"status" json:"status"`
}

// StudentApplication is a row of a student's own application list.
type StudentApplication struct {
	OfferID     int64     `db:"offer_id" json:"offer_id"`
	Status      Status    `db:"status" json:"status"`
	Field       string    `db:"field" json:"field"`
	Salary      int       `db:"salary" json:"salary"`
	NumWeeks    int       `db:"num_weeks" json:"num_weeks"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
	CompanyName *string   `db:"company_name" json:"company_name"`
}

// Target is what Apply needs to know about the offer and the student.
type Target struct {
	OfferRegion   offer.Region
	CompanyID     *int64
	StudentRegion offer.Region
}

// AcceptResult lists who won and who lost. RejectedStudentIDs is unordered.
type AcceptResult struct {
	AcceptedStudentID  int64   `json:"accepted_student_id"`
	RejectedStudentIDs []int64 `json:"rejected_student_ids"`
}

// CancelResult describes a cancellation. ResetStudentIDs is unordered and
// only filled when an accepted application was cancelled.
type CancelResult struct {
	PreviousStatus  Status  `json:"previous_status"`
	ResetStudentIDs []int64 `json:"reset_student_ids"`
	CompanyID       *int64  `json:"-"`
}
