// Package mail sends account emails through the console (development) or
// SendGrid.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/NesmitC/project-webmath/internal/config"
)

type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("mail: message has no recipient")

// New picks the mailer named by cfg.Provider.
func New(cfg config.MailConfig, log *zap.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "", "console":
		return NewConsole(log), nil
	case "sendgrid":
		if cfg.SendgridKey == "" {
			return nil, errors.New("mail: sendgrid key is required")
		}
		return NewSendgrid(cfg.SendgridKey, cfg.FromName, cfg.FromAddress), nil
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
	}
}

const ConfirmSubject = "Подтверждение регистрации"

// ConfirmURL is the link a new user follows to confirm their address.
func ConfirmURL(publicURL, token string) string {
	return strings.TrimRight(publicURL, "/") + "/auth/confirm?token=" + url.QueryEscape(token)
}

func Confirmation(publicURL string, to mail.Address, token string) Message {
	link := ConfirmURL(publicURL, token)
	name := to.Name
	if name == "" {
		name = to.Address
	}
	return Message{
		To:      to,
		Subject: ConfirmSubject,
		Text: fmt.Sprintf("Здравствуйте, %s!\n\nДля подтверждения регистрации перейдите по ссылке:\n%s\n\n"+
			"Если вы не регистрировались, просто проигнорируйте это письмо.\n", name, link),
		HTML: fmt.Sprintf(`<p>Здравствуйте, %s!</p><p>Для подтверждения регистрации перейдите по ссылке: <a href="%s">%s</a></p>`,
			htmlEscape(name), link, link),
	}
}

func htmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}
