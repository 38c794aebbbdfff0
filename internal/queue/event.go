// Package queue defines message payloads exchanged over the message broker.
package queue

// EmailQueueName is the durable queue that carries outbound mail events.
const EmailQueueName = "notification.email"

// Email kinds understood by downstream mailers.
const (
	EmailKindSignupVerification = "signup_verification"
	EmailKindPasswordReset      = "password_reset"
)

// EmailNotificationEvent is published whenever credential issuance needs a
// message delivered out-of-band.  It carries everything a mailer consumer
// needs to render and send without querying the primary database.  The
// signed token only ever travels inside Link; it is never logged separately.
type EmailNotificationEvent struct {
	Kind        string `json:"kind"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	FirstName   string `json:"first_name"`
	Link        string `json:"link"`
	RequestedAt string `json:"requested_at"`
}
