package notify

import "fmt"

// Email is a rendered message.
type Email struct {
	To      []string
	Subject string
	Body    string
}

func render(kind Kind, field, status string) (subject, body string, err error) {
	switch kind {
	case KindNewApplicant:
		return fmt.Sprintf("%s Offer - New Applicant", field),
			fmt.Sprintf("You have a new applicant for the '%s' offer.", field), nil
	case KindApplicantCancelled:
		return fmt.Sprintf("%s Offer - Applicant Cancellation", field),
			fmt.Sprintf("One of your applicants for the '%s' offer has cancelled their application.", field), nil
	case KindStatusChanged:
		return fmt.Sprintf("Application Status Update - %s", status),
			fmt.Sprintf("Your application for the '%s' offer has been updated to %s.", field, status), nil
	}
	return "", "", fmt.Errorf("unknown notification kind %q", kind)
}
