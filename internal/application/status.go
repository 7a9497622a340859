// Package application implements the lifecycle of a student's candidacy for
// an offer and the applicant filter companies use to shortlist candidates.
package application

import (
	"fmt"

	"github.com/kasap-ot/thesis-project/internal/apperr"
)

// Status is the state of an application row.
type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
	StatusArchived  Status = "ARCHIVED"

	// StatusRemoved is the target of a cancellation: the row is deleted.
	StatusRemoved Status = ""
)

var allStatuses = []Status{StatusWaiting, StatusAccepted, StatusRejected, StatusOngoing, StatusCompleted, StatusArchived}

// Valid reports whether s names a stored status.
func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Winner reports whether s holds the offer's single slot.
func (s Status) Winner() bool {
	switch s {
	case StatusAccepted, StatusOngoing, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// winnerStatuses lists the stored statuses that hold an offer's slot.
func winnerStatuses() []string {
	var out []string
	for _, s := range allStatuses {
		if s.Winner() {
			out = append(out, string(s))
		}
	}
	return out
}

// ParseStatus converts a stored value into a Status.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown application status %q", v)
	}
	return s, nil
}

// Action is an operation that moves an application between statuses.
type Action string

const (
	ActionAccept    Action = "accept"
	ActionReject    Action = "reject"
	ActionCancel    Action = "cancel"
	ActionReopen    Action = "reopen"
	ActionStart     Action = "start"
	ActionComplete  Action = "complete"
	ActionArchive   Action = "archive"
	ActionUnarchive Action = "unarchive"
)

type edge struct {
	from   Status
	action Action
}

// transitions is the complete lifecycle graph. Anything missing is refused.
var transitions = map[edge]Status{
	{StatusWaiting, ActionAccept}:     StatusAccepted,
	{StatusWaiting, ActionReject}:     StatusRejected,
	{StatusWaiting, ActionCancel}:     StatusRemoved,
	{StatusAccepted, ActionCancel}:    StatusRemoved,
	{StatusWaiting, ActionReopen}:     StatusWaiting,
	{StatusRejected, ActionReopen}:    StatusWaiting,
	{StatusAccepted, ActionStart}:     StatusOngoing,
	{StatusOngoing, ActionComplete}:   StatusCompleted,
	{StatusCompleted, ActionArchive}:  StatusArchived,
	{StatusArchived, ActionUnarchive}: StatusCompleted,
}

// Next returns the status an action leads to from the given status.
func Next(from Status, action Action) (Status, bool) {
	to, ok := transitions[edge{from, action}]
	return to, ok
}

// Transition is Next with a Conflict error for refused moves.
func Transition(from Status, action Action) (Status, error) {
	to, ok := Next(from, action)
	if !ok {
		return "", apperr.Conflict(fmt.Sprintf("cannot %s an application that is %s", action, from))
	}
	return to, nil
}
