package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"
)

// Mailer sends a plain-text message to a single recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail over an unauthenticated SMTP relay, typically a
// local Mailpit or the campus relay.
type SMTPMailer struct {
	Host string
	Port int
	From string
}

// Send delivers a single message.
func (m SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("jobs: send mail: %w", err)
	}
	return nil
}

// OTPEmailJob processes TaskTypeOTPEmail tasks.
type OTPEmailJob struct {
	mailer Mailer
	logger *slog.Logger
}

// NewOTPEmailJob constructs the job handler.
func NewOTPEmailJob(mailer Mailer, logger *slog.Logger) *OTPEmailJob {
	return &OTPEmailJob{mailer: mailer, logger: logger}
}

// Handle delivers the code. Malformed payloads are dropped; transport errors
// are returned so asynq applies its retry policy.
func (j *OTPEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload OTPEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	body := fmt.Sprintf("Your verification code is %s. It expires in a few minutes; do not share it.", payload.Code)
	if err := j.mailer.Send(payload.Email, "Your verification code", body); err != nil {
		if j.logger != nil {
			j.logger.Error("otp mail delivery", slog.String("email", payload.Email), slog.Any("error", err))
		}
		return err
	}
	return nil
}
