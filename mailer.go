package accounts

import (
	"bytes"
	"context"
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

//go:embed templates
var templatesFS embed.FS

const (
	activationSubject = "Activate your account."
	resetSubject      = "Change your account password."
)

// MailComposer renders and delivers the transactional emails of the
// account lifecycle. Rendering happens against embedded templates so
// callers only provide transport via the Mailer interface.
type MailComposer struct {
	engine *django.Engine
	mailer Mailer
	cfg    Config
	logger Logger
}

// NewMailComposer builds a composer over the embedded template set.
func NewMailComposer(mailer Mailer, cfg Config) (*MailComposer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open template directory")
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load email templates")
	}

	return &MailComposer{
		engine: engine,
		mailer: mailer,
		cfg:    cfg,
		logger: defLogger{},
	}, nil
}

func (m *MailComposer) WithLogger(logger Logger) *MailComposer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// SendActivation delivers the account activation link.
func (m *MailComposer) SendActivation(ctx context.Context, user *User, uid, token string) error {
	link := m.cfg.GetBaseURL() + m.cfg.GetActivationPath() + uid + "/" + token + "/"
	return m.send(ctx, user, activationSubject, "activate_account", map[string]any{
		"first_name":   user.FirstName,
		"activate_url": link,
	})
}

// SendPasswordReset delivers the password reset link.
func (m *MailComposer) SendPasswordReset(ctx context.Context, user *User, uid, token string) error {
	link := m.cfg.GetBaseURL() + m.cfg.GetPasswordResetPath() + uid + "/" + token + "/"
	return m.send(ctx, user, resetSubject, "password_reset", map[string]any{
		"first_name": user.FirstName,
		"reset_url":  link,
	})
}

func (m *MailComposer) send(ctx context.Context, user *User, subject, template string, binding map[string]any) error {
	var body bytes.Buffer
	if err := m.engine.Render(&body, template, binding); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render email template").
			WithMetadata(map[string]any{"template": template})
	}

	msg := Email{
		To:       user.Email,
		From:     m.cfg.GetFromEmail(),
		Subject:  subject,
		HTMLBody: body.String(),
	}

	// Delivery failures read as a caller-facing validation error so the
	// HTTP layer reports them as a 400 detail, not a server fault. Any
	// row committed before the send stays committed.
	if err := m.mailer.Send(ctx, msg); err != nil {
		m.logger.Error("email delivery failed for %s: %v", user.ID, err)
		return goerrors.Wrap(err, goerrors.CategoryValidation, "The e-mail could not be sent.")
	}

	return nil
}
