package mail

import (
	"context"
	"encoding/json"
	"net/mail"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NesmitC/project-webmath/internal/config"
)

func TestConfirmation(t *testing.T) {
	msg := Confirmation("https://webmath.example/", mail.Address{Name: "Аня", Address: "anya@example.com"}, "a.b+c")
	assert.Equal(t, "Подтверждение регистрации", msg.Subject)
	assert.Contains(t, msg.Text, "https://webmath.example/auth/confirm?token=a.b%2Bc")
	assert.Contains(t, msg.Text, "Аня")
	assert.Contains(t, msg.HTML, `href="https://webmath.example/auth/confirm?token=a.b%2Bc"`)
}

func TestConsole(t *testing.T) {
	c := NewConsole(nil)
	require.NoError(t, c.Send(context.Background(), Message{To: mail.Address{Address: "x@example.com"}, Subject: "s"}))
	assert.ErrorIs(t, c.Send(context.Background(), Message{Subject: "s"}), ErrNoRecipient)
	require.Len(t, c.Sent(), 1)
	assert.Equal(t, "s", c.Sent()[0].Subject)
}

func TestNew(t *testing.T) {
	m, err := New(config.MailConfig{Provider: "console"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Console{}, m)

	_, err = New(config.MailConfig{Provider: "sendgrid"}, nil)
	assert.Error(t, err)

	m, err = New(config.MailConfig{Provider: "sendgrid", SendgridKey: "k", FromAddress: "noreply@example.com"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Sendgrid{}, m)

	_, err = New(config.MailConfig{Provider: "smtp"}, nil)
	assert.Error(t, err)
}

func TestSendgridPayload(t *testing.T) {
	s := NewSendgrid("k", "Webmath", "noreply@example.com")
	body := s.prepare(Confirmation("http://localhost:5005", mail.Address{Address: "u@example.com"}, "tok"))

	var payload struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
			To      []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
		Content []struct {
			Type string `json:"type"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(sgmail.GetRequestBody(body), &payload))
	assert.Equal(t, "noreply@example.com", payload.From.Email)
	require.Len(t, payload.Personalizations, 1)
	assert.Equal(t, ConfirmSubject, payload.Personalizations[0].Subject)
	assert.Equal(t, "u@example.com", payload.Personalizations[0].To[0].Email)
	assert.Len(t, payload.Content, 2)
}
