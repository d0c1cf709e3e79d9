package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/config"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/fault"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/logger"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/notice"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/storage"
)

// ErrNoTestingRecipient is returned for a testing-mode send when no testing
// address is configured.
var ErrNoTestingRecipient = errors.New("testing recipient not configured")

// Notifier sends notification email and records delivered notices in a
// NotificationHistoryStore. A Notifier is not safe for concurrent use.
type Notifier struct {
	cfg        config.NotifierConfig
	store      storage.NotificationHistoryStore
	dialer     Dialer
	recognized notice.Set
	logger     *slog.Logger
	metrics    *Metrics
	now        func() time.Time
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithDialer replaces the SMTP dialer built from the configuration.
func WithDialer(d Dialer) Option {
	return func(n *Notifier) { n.dialer = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) { n.logger = logger.OrDiscard(l) }
}

// WithMetrics enables delivery metrics.
func WithMetrics(m *Metrics) Option {
	return func(n *Notifier) { n.metrics = m }
}

// WithRecognizedTypes restricts the notice types the Notifier records and
// reports on. The default is notice.All().
func WithRecognizedTypes(s notice.Set) Option {
	return func(n *Notifier) { n.recognized = s }
}

// WithClock sets the clock used for the Date header and ShouldNotify.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// New validates cfg and returns a Notifier. Missing or malformed settings
// are a precondition fault.
func New(cfg config.NotifierConfig, store storage.NotificationHistoryStore, opts ...Option) (*Notifier, error) {
	const op = "notification.New"
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fault.Precondition(op, "", err)
	}
	if store == nil {
		return nil, fault.Precondition(op, "notification history store is required", nil)
	}

	n := &Notifier{
		cfg:        cfg,
		store:      store,
		recognized: notice.All(),
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.dialer == nil {
		n.dialer = NewSMTPDialer(cfg, nil)
	}
	return n, nil
}

// Recognized returns the notice types this Notifier accepts.
func (n *Notifier) Recognized() notice.Set { return n.recognized }

// SendNotificationEmail sends body, wrapped in the standard preamble and
// postscript, to the production or testing recipient. It does not record
// the event; see Notify.
func (n *Notifier) SendNotificationEmail(ctx context.Context, body string, testing bool) error {
	const op = "notification.SendNotificationEmail"
	to, err := n.recipient(op, testing)
	if err != nil {
		return err
	}
	msg, err := buildMessage(n.envelope(to), body, nil)
	if err != nil {
		return fault.Recoverable(op, "composing message", err)
	}
	return n.deliver(ctx, op, "plain", to, msg)
}

// SendMailWithAttachments sends body with each file in files attached. All
// files are read before connecting; an unreadable file is a fatal fault and
// nothing is sent.
func (n *Notifier) SendMailWithAttachments(ctx context.Context, body string, files []string, testing bool) error {
	const op = "notification.SendMailWithAttachments"
	to, err := n.recipient(op, testing)
	if err != nil {
		return err
	}

	atts := make([]attachment, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path) //nolint:gosec // caller-supplied attachment path
		if err != nil {
			n.logger.Error("failed to read attachment", "file", path, "error", err)
			return fault.Fatal(op, fmt.Sprintf("reading attachment %q", path), err)
		}
		atts = append(atts, attachment{name: attachmentName(path), data: data})
	}

	msg, err := buildMessage(n.envelope(to), body, atts)
	if err != nil {
		return fault.Recoverable(op, "composing message", err)
	}
	return n.deliver(ctx, op, "attachments", to, msg)
}

// RecordEvent appends t to the notification history.
func (n *Notifier) RecordEvent(ctx context.Context, t notice.Type) (bool, error) {
	ok, err := n.store.RecordEvent(ctx, t, n.recognized)
	if ok && err == nil {
		n.metrics.observeRecorded(t.String())
	}
	return ok, err
}

// LastReportDate returns the latest recorded time for t.
func (n *Notifier) LastReportDate(ctx context.Context, t notice.Type) (time.Time, bool, error) {
	return n.store.LastReportDate(ctx, t, n.recognized)
}

// ShouldNotify reports whether at least minInterval has passed since t was
// last recorded. A type that was never recorded is always due.
func (n *Notifier) ShouldNotify(ctx context.Context, t notice.Type, minInterval time.Duration) (bool, error) {
	last, found, err := n.LastReportDate(ctx, t)
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	return n.now().UTC().Sub(last) >= minInterval, nil
}

// Notify sends body for notice type t and records the event only when the
// send succeeded. The bool reports whether the event was recorded.
func (n *Notifier) Notify(ctx context.Context, t notice.Type, body string, testing bool) (bool, error) {
	const op = "notification.Notify"
	if !n.recognized.Contains(t) {
		return false, fault.Precondition(op, fmt.Sprintf("notice type %d", int(t)), storage.ErrInvalidNoticeType)
	}
	if err := n.SendNotificationEmail(ctx, body, testing); err != nil {
		return false, err
	}
	return n.RecordEvent(ctx, t)
}

func (n *Notifier) recipient(op string, testing bool) (string, error) {
	if !testing {
		return n.cfg.To, nil
	}
	if n.cfg.TestingTo == "" {
		return "", fault.Precondition(op, "", ErrNoTestingRecipient)
	}
	return n.cfg.TestingTo, nil
}

func (n *Notifier) envelope(to string) envelope {
	return envelope{
		from:    n.cfg.From,
		to:      to,
		subject: n.cfg.Subject,
		date:    n.now(),
	}
}

// deliver runs the SMTP steps in order and stops at the first failure.
func (n *Notifier) deliver(ctx context.Context, op, kind, to string, msg io.WriterTo) error {
	start := time.Now()
	fail := func(step Step, err error) error {
		n.logger.Error("smtp step failed", "step", string(step), "to", to, "error", err)
		n.metrics.observeDelivery(kind, step, time.Since(start).Seconds())
		return fault.Recoverable(op, "delivering notification", &DeliveryError{Step: step, Err: err})
	}

	sess, err := n.dialer.Dial(ctx)
	if err != nil {
		return fail(StepConnect, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			n.logger.Warn("failed to close smtp session", "error", err)
		}
	}()

	if n.cfg.Encryption == EncryptionSTARTTLS {
		if err := sess.StartTLS(); err != nil {
			return fail(StepStartTLS, err)
		}
	}
	if err := sess.Auth(n.cfg.Username, n.cfg.Password); err != nil {
		return fail(StepAuth, err)
	}
	if err := sess.Send(n.cfg.From, []string{to}, msg); err != nil {
		return fail(StepSend, err)
	}

	n.metrics.observeDelivery(kind, "", time.Since(start).Seconds())
	n.logger.Info("sent notification email", "to", to, "kind", kind)
	return nil
}
