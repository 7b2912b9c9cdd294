package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeVerificationEmail is the task type for verification emails.
	TaskTypeVerificationEmail = "mail:verification"
	// TaskTypePasswordResetEmail is the task type for password reset emails.
	TaskTypePasswordResetEmail = "mail:password_reset"
)

// EmailTokenPayload carries the recipient and the plaintext token secret for
// a verification or reset email. The payload lives in Redis until delivery;
// it is never written to logs.
type EmailTokenPayload struct {
	To    string `json:"to"`
	Token string `json:"token"`
}

// NewVerificationEmailTask constructs an Asynq task for a verification email.
func NewVerificationEmailTask(payload EmailTokenPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeVerificationEmail, data), nil
}

// NewPasswordResetEmailTask constructs an Asynq task for a reset email.
func NewPasswordResetEmailTask(payload EmailTokenPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePasswordResetEmail, data), nil
}

// EmailHandler processes the mail task types.
type EmailHandler struct {
	mailer      Mailer
	frontendURL string
	logger      *slog.Logger
}

// NewEmailHandler constructs an EmailHandler.
func NewEmailHandler(mailer Mailer, frontendURL string, logger *slog.Logger) *EmailHandler {
	return &EmailHandler{mailer: mailer, frontendURL: frontendURL, logger: logger}
}

// HandleVerificationEmail processes TaskTypeVerificationEmail tasks.
func (h *EmailHandler) HandleVerificationEmail(ctx context.Context, t *asynq.Task) error {
	var payload EmailTokenPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	link := h.frontendURL + "/verify-email?token=" + url.QueryEscape(payload.Token)
	html, text := verificationEmailBody(link)
	if err := h.mailer.Send(ctx, payload.To, "Verify your account", html, text); err != nil {
		h.logger.Warn("send verification email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	return nil
}

// HandlePasswordResetEmail processes TaskTypePasswordResetEmail tasks.
func (h *EmailHandler) HandlePasswordResetEmail(ctx context.Context, t *asynq.Task) error {
	var payload EmailTokenPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	link := h.frontendURL + "/reset-password?token=" + url.QueryEscape(payload.Token)
	html, text := passwordResetEmailBody(link)
	if err := h.mailer.Send(ctx, payload.To, "Reset your password", html, text); err != nil {
		h.logger.Warn("send password reset email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	return nil
}

func verificationEmailBody(link string) (html, text string) {
	html = fmt.Sprintf(`<html><body>
<h2>Welcome!</h2>
<p>Thank you for registering. Please click the link below to verify your email address:</p>
<p><a href="%s">Verify Email</a></p>
<p>Or copy and paste this link in your browser:</p>
<p>%s</p>
<p>This link will expire in 24 hours.</p>
</body></html>`, link, link)
	text = fmt.Sprintf(`Welcome!

Thank you for registering. Please open the link below to verify your email address:
%s

This link will expire in 24 hours.
`, link)
	return html, text
}

func passwordResetEmailBody(link string) (html, text string) {
	html = fmt.Sprintf(`<html><body>
<h2>Password Reset Request</h2>
<p>You requested to reset your password. Click the link below to reset it:</p>
<p><a href="%s">Reset Password</a></p>
<p>Or copy and paste this link in your browser:</p>
<p>%s</p>
<p>This link will expire in 1 hour.</p>
<p>If you didn't request this, please ignore this email.</p>
</body></html>`, link, link)
	text = fmt.Sprintf(`Password Reset Request

You requested to reset your password. Open the link below to reset it:
%s

This link will expire in 1 hour.

If you didn't request this, please ignore this email.
`, link)
	return html, text
}
