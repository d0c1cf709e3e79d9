// Package notification sends notification email over SMTP and records each
// successful delivery in the notification history.
package notification

import (
	"context"
	"fmt"
	"io"
)

// Step names one stage of an SMTP delivery.
type Step string

// Delivery steps in the order they are attempted.
const (
	StepConnect  Step = "connect"
	StepStartTLS Step = "starttls"
	StepAuth     Step = "auth"
	StepSend     Step = "send"
)

// DeliveryError reports the step at which a delivery stopped.
type DeliveryError struct {
	Step Step
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("smtp %s: %v", e.Step, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Dialer opens SMTP sessions.
type Dialer interface {
	// Dial connects to the mail server. For implicit TLS the handshake is
	// part of Dial.
	Dial(ctx context.Context) (Session, error)
}

// Session is one connected SMTP conversation. Each method is one delivery
// step so that a failure can be attributed to it.
type Session interface {
	// StartTLS upgrades the connection. It fails when the server does not
	// offer STARTTLS.
	StartTLS() error
	// Auth authenticates with PLAIN credentials.
	Auth(username, password string) error
	// Send transmits msg to every recipient in to.
	Send(from string, to []string, msg io.WriterTo) error
	// Close ends the conversation and releases the connection.
	Close() error
}
