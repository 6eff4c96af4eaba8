// Package mail provides mail dispatcher implementations. Actual SMTP
// delivery belongs to the hosting platform; the core only needs the
// account.MailDispatcher contract.
package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pmorrell/surveyid/internal/services/account"
)

// LogDispatcher is a development dispatcher that logs instead of
// sending. It never logs ticket tokens.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a dispatcher that writes to the logger
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

var _ account.MailDispatcher = (*LogDispatcher)(nil)

func (d *LogDispatcher) SendRecoveryEmail(ctx context.Context, email string, tickets []account.RecoveryTicket) error {
	d.logger.Info("would send recovery email",
		slog.Int("tickets", len(tickets)))
	return nil
}

func (d *LogDispatcher) SendIDReminder(ctx context.Context, email string, userids []string) error {
	d.logger.Info("would send userid reminder",
		slog.Int("userids", len(userids)))
	return nil
}

// Recorder is a test dispatcher capturing everything handed to it
type Recorder struct {
	mu sync.Mutex

	RecoveryEmails []RecordedRecovery
	Reminders      []RecordedReminder

	// Fail makes every send report failure
	Fail bool
}

// RecordedRecovery is one captured recovery send
type RecordedRecovery struct {
	Email   string
	Tickets []account.RecoveryTicket
}

// RecordedReminder is one captured reminder send
type RecordedReminder struct {
	Email   string
	UserIDs []string
}

// NewRecorder creates a recording dispatcher for tests
func NewRecorder() *Recorder {
	return &Recorder{}
}

var _ account.MailDispatcher = (*Recorder)(nil)

func (r *Recorder) SendRecoveryEmail(ctx context.Context, email string, tickets []account.RecoveryTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return errSendFailed
	}
	r.RecoveryEmails = append(r.RecoveryEmails, RecordedRecovery{Email: email, Tickets: tickets})
	return nil
}

func (r *Recorder) SendIDReminder(ctx context.Context, email string, userids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return errSendFailed
	}
	r.Reminders = append(r.Reminders, RecordedReminder{Email: email, UserIDs: userids})
	return nil
}

var errSendFailed = errors.New("mail send failed")
