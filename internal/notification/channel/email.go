package channel

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"github.com/shandysiswandi/emunotify/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed templates/*
var templateFS embed.FS

const settingsPath = "/notifications/settings"

type emailRepo interface {
	GetUserProfile(ctx context.Context, userID int64) (*entity.UserProfile, error)
}

// UnsubscribeLinker builds a signed one-click unsubscribe URL.
type UnsubscribeLinker interface {
	UnsubscribeURL(userID int64, t entity.NotificationType) string
}

type EmailConfig struct {
	BaseURL string
	From    string
}

type Email struct {
	cfg   EmailConfig
	repo  emailRepo
	mail  mail.Mail
	links UnsubscribeLinker
	html  *htmltemplate.Template
	text  *texttemplate.Template
	ins   instrument.Instrumentation
}

type emailView struct {
	RecipientName  string
	Title          string
	Message        string
	ActionURL      string
	UnsubscribeURL string
	SettingsURL    string
}

// NewEmail parses the embedded layouts. links may be nil.
func NewEmail(cfg EmailConfig, repo emailRepo, m mail.Mail, links UnsubscribeLinker, ins instrument.Instrumentation) (*Email, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/email.html")
	if err != nil {
		return nil, fmt.Errorf("parse html email layout: %w", err)
	}

	text, err := texttemplate.ParseFS(templateFS, "templates/email.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text email layout: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Email{cfg: cfg, repo: repo, mail: m, links: links, html: html, text: text, ins: ins}, nil
}

func (c *Email) Deliver(ctx context.Context, data entity.RenderedNotification) Result {
	ctx, span := c.ins.Tracer("notification.channel").Start(ctx, "Email.Deliver",
		trace.WithAttributes(attribute.Int64("user_id", data.UserID), attribute.String("type", data.Type.String())))
	defer span.End()

	res := c.deliver(ctx, data)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}

	return res
}

func (c *Email) deliver(ctx context.Context, data entity.RenderedNotification) Result {
	user, err := c.repo.GetUserProfile(ctx, data.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user profile for email", "user_id", data.UserID, "error", err)
		return failed(entity.DeliveryChannelEmail, err)
	}

	if user == nil || strings.TrimSpace(user.Email) == "" {
		return failed(entity.DeliveryChannelEmail, entity.ErrEmailNotFound)
	}

	msg, err := c.compose(user, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "user_id", data.UserID, "type", data.Type, "error", err)
		return failed(entity.DeliveryChannelEmail, err)
	}

	if err := c.mail.Send(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to send notification email", "user_id", data.UserID, "type", data.Type, "error", err)
		return failed(entity.DeliveryChannelEmail, fmt.Errorf("%w: %w", entity.ErrDeliveryFailed, err))
	}

	return Result{Channel: entity.DeliveryChannelEmail, Success: true}
}

func (c *Email) compose(user *entity.UserProfile, data entity.RenderedNotification) (mail.Message, error) {
	name := user.Name
	if name == "" {
		name = "there"
	}

	view := emailView{
		RecipientName: name,
		Title:         data.Title,
		Message:       data.Message,
		ActionURL:     c.absolute(data.ActionURL),
		SettingsURL:   c.cfg.BaseURL + settingsPath,
	}
	if c.links != nil {
		view.UnsubscribeURL = c.links.UnsubscribeURL(data.UserID, data.Type)
	}

	var html, text bytes.Buffer
	if err := c.html.Execute(&html, view); err != nil {
		return mail.Message{}, err
	}
	if err := c.text.Execute(&text, view); err != nil {
		return mail.Message{}, err
	}

	msg := mail.Message{
		From:     c.cfg.From,
		To:       []string{user.Email},
		Subject:  data.Title,
		TextBody: text.String(),
		HTMLBody: html.String(),
		Tag:      data.Type.String(),
	}
	if view.UnsubscribeURL != "" {
		msg.Headers = map[string]string{
			"List-Unsubscribe":      "<" + view.UnsubscribeURL + ">",
			"List-Unsubscribe-Post": "List-Unsubscribe=One-Click",
		}
	}

	return msg, nil
}

func (c *Email) absolute(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.cfg.BaseURL + path
}
