package mailer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aprspass/entity"
	"aprspass/internal/config"
)

func sampleRequest() *entity.PasscodeRequest {
	return &entity.PasscodeRequest{
		Id:       "abc-123",
		FullName: "Jane Doe",
		Callsign: "DL1ABC",
		Locator:  "jo62nb",
		Email:    "jane@example.com",
		Comment:  "for my weather station",
		Status:   entity.StatusApproved,
		Passcode: "17580",
	}
}

func TestRenderBodies(t *testing.T) {
	req := sampleRequest()

	t.Run("submission", func(t *testing.T) {
		body, err := renderBody(submissionBody, req)
		require.NoError(t, err)
		assert.Contains(t, body, "Jane Doe")
		assert.Contains(t, body, "jane@example.com")
		assert.Contains(t, body, "jo62nb")
		assert.Contains(t, body, "requested a passcode for DL1ABC")
		assert.Contains(t, body, "for my weather station")
	})

	t.Run("approval", func(t *testing.T) {
		body, err := renderBody(approvalBody, req)
		require.NoError(t, err)
		assert.Contains(t, body, "Dear Jane Doe")
		assert.Contains(t, body, "passcode for DL1ABC is 17580")
		assert.Contains(t, body, "any SSID")
	})

	t.Run("denial", func(t *testing.T) {
		body, err := renderBody(denialBody, req)
		require.NoError(t, err)
		assert.Contains(t, body, "request for DL1ABC was denied")
		assert.NotContains(t, body, "17580")
	})
}

func TestMessageHeaders(t *testing.T) {
	m := New(config.SmtpConfig{
		Host: "localhost",
		Port: "25",
		From: "noreply@example.com",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	msg := string(m.message(
		[]string{"admin1@example.com", "admin2@example.com"},
		"jane@example.com",
		"APRS-IS Passcode Request: DL1ABC",
		"body text",
	))

	assert.Contains(t, msg, "From: noreply@example.com\r\n")
	assert.Contains(t, msg, "To: admin1@example.com, admin2@example.com\r\n")
	assert.Contains(t, msg, "Reply-To: jane@example.com\r\n")
	assert.Contains(t, msg, "Subject: APRS-IS Passcode Request: DL1ABC\r\n")
	assert.Contains(t, msg, "\r\n\r\nbody text")
}

func TestMessageWithoutReplyTo(t *testing.T) {
	m := New(config.SmtpConfig{From: "noreply@example.com"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	msg := string(m.message([]string{"jane@example.com"}, "", "APRS-IS Passcode Approved!", "body"))
	assert.NotContains(t, msg, "Reply-To")
}
