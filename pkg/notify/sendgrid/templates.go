package sendgrid

import (
	"context"
	"fmt"
)

const receivedApplicationBody = `Thank you for submitting your application materials! We really appreciate all
the time and thought everyone puts into their application. We will be in touch
within the next couple weeks with more information.

Sincerely,
  The Team`

// ReceivedApplication builds the acknowledgement sent to a new applicant,
// copied to the careers inbox.
func ReceivedApplication(domain, email, name string) *Message {
	careers := "careers@" + domain
	return NewMessage(Email{Email: careers, Name: careers}, "Application Received!").
		AddText(receivedApplicationBody).
		AddPersonalization(Personalization{
			To: []Email{{Email: email, Name: name}},
			Cc: []Email{{Email: careers}},
		})
}

// NewApplicantNotification builds the internal notice about a new applicant.
func NewApplicantNotification(domain, name, body string) *Message {
	applications := "applications@" + domain
	all := "all@" + domain
	return NewMessage(Email{Email: applications, Name: applications}, fmt.Sprintf("New Application: %s", name)).
		AddText(body).
		AddPersonalization(Personalization{To: []Email{{Email: all, Name: all}}})
}

// SendReceivedApplication acknowledges an application.
func (c *Client) SendReceivedApplication(ctx context.Context, email, name string) error {
	return c.Send(ctx, ReceivedApplication(c.domain, email, name))
}

// SendNewApplicantNotification tells the team about a new applicant.
func (c *Client) SendNewApplicantNotification(ctx context.Context, name, body string) error {
	return c.Send(ctx, NewApplicantNotification(c.domain, name, body))
}
