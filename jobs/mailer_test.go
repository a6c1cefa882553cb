package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
)

type fakeMailer struct {
	to      string
	subject string
	body    string
	err     error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.to, f.subject, f.body = to, subject, body
	return nil
}

func TestOTPEmailJobDelivers(t *testing.T) {
	mailer := &fakeMailer{}
	job := NewOTPEmailJob(mailer, nil)

	task, err := NewOTPEmailTask(OTPEmailPayload{Email: "staff@college.test", Code: "123456"})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if mailer.to != "staff@college.test" {
		t.Fatalf("unexpected recipient %q", mailer.to)
	}
	if !strings.Contains(mailer.body, "123456") {
		t.Fatalf("code missing from body: %q", mailer.body)
	}
}

func TestOTPEmailJobSkipsMalformedPayload(t *testing.T) {
	job := NewOTPEmailJob(&fakeMailer{}, nil)
	task := asynq.NewTask(TaskTypeOTPEmail, []byte("{not json"))
	if err := job.Handle(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestOTPEmailJobSurfacesTransportError(t *testing.T) {
	transport := errors.New("relay refused")
	job := NewOTPEmailJob(&fakeMailer{err: transport}, nil)
	task, err := NewOTPEmailTask(OTPEmailPayload{Email: "staff@college.test", Code: "123456"})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); !errors.Is(err, transport) {
		t.Fatalf("expected transport error to propagate, got %v", err)
	}
}
