package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/furu-identity/furu-identity/jobs"
)

type capturedMail struct {
	to      string
	subject string
	html    string
	text    string
}

type fakeMailer struct {
	sent    []capturedMail
	sendErr error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, capturedMail{to: to, subject: subject, html: html, text: text})
	return nil
}

func newEmailHandler(mailer *fakeMailer) *jobs.EmailHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return jobs.NewEmailHandler(mailer, "https://app.example.com", logger)
}

func TestHandleVerificationEmail(t *testing.T) {
	mailer := &fakeMailer{}
	handler := newEmailHandler(mailer)

	task, err := jobs.NewVerificationEmailTask(jobs.EmailTokenPayload{
		To:    "a@x.com",
		Token: "sec+ret/value",
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handler.HandleVerificationEmail(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.to != "a@x.com" {
		t.Fatalf("unexpected recipient %q", mail.to)
	}
	// Token must be query escaped in the link.
	want := "https://app.example.com/verify-email?token=sec%2Bret%2Fvalue"
	if !strings.Contains(mail.html, want) {
		t.Fatalf("html body missing link %q", want)
	}
	if !strings.Contains(mail.text, want) {
		t.Fatalf("text body missing link %q", want)
	}
}

func TestHandlePasswordResetEmail(t *testing.T) {
	mailer := &fakeMailer{}
	handler := newEmailHandler(mailer)

	task, err := jobs.NewPasswordResetEmailTask(jobs.EmailTokenPayload{
		To:    "b@x.com",
		Token: "reset-secret",
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handler.HandlePasswordResetEmail(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if !strings.Contains(mail.html, "https://app.example.com/reset-password?token=reset-secret") {
		t.Fatal("html body missing reset link")
	}
	if mail.subject != "Reset your password" {
		t.Fatalf("unexpected subject %q", mail.subject)
	}
}

func TestHandleEmailBadPayloadSkipsRetry(t *testing.T) {
	mailer := &fakeMailer{}
	handler := newEmailHandler(mailer)

	task := asynq.NewTask(jobs.TaskTypeVerificationEmail, []byte("{not json"))
	if err := handler.HandleVerificationEmail(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	task = asynq.NewTask(jobs.TaskTypePasswordResetEmail, []byte("{not json"))
	if err := handler.HandlePasswordResetEmail(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("no mail expected, got %d", len(mailer.sent))
	}
}

func TestHandleEmailSendFailurePropagates(t *testing.T) {
	mailer := &fakeMailer{sendErr: errors.New("smtp down")}
	handler := newEmailHandler(mailer)

	task, err := jobs.NewVerificationEmailTask(jobs.EmailTokenPayload{To: "a@x.com", Token: "tok"})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handler.HandleVerificationEmail(context.Background(), task); err == nil {
		t.Fatal("expected delivery error to propagate for retry")
	}
}
