// Package notify carries lifecycle events from a committed transaction to
// the people who need to hear about them.
package notify

import (
	"context"
	"time"
)

// Kind selects the message template.
type Kind string

const (
	KindNewApplicant       Kind = "new_applicant"
	KindApplicantCancelled Kind = "applicant_cancelled"
	KindStatusChanged      Kind = "status_changed"
)

// Notification is one event. Company kinds go to the offer's owner;
// KindStatusChanged goes to StudentIDs.
type Notification struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	OfferID    int64     `json:"offer_id"`
	StudentIDs []int64   `json:"student_ids,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notifier hands notifications off for delivery.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NewApplicant tells the company someone applied.
func NewApplicant(offerID int64) Notification {
	return Notification{Kind: KindNewApplicant, OfferID: offerID}
}

// ApplicantCancelled tells the company someone withdrew.
func ApplicantCancelled(offerID int64) Notification {
	return Notification{Kind: KindApplicantCancelled, OfferID: offerID}
}

// StatusChanged tells students their application moved to status.
func StatusChanged(offerID int64, status string, studentIDs ...int64) Notification {
	return Notification{Kind: KindStatusChanged, OfferID: offerID, Status: status, StudentIDs: studentIDs}
}
