package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailService_StatesConfiguredValidity(t *testing.T) {
	mailer := &fakeMailer{}
	emails := NewEmailService(mailer, "EstateHub", AuthSettings{
		VerificationTTL: 2 * time.Hour,
		ResetOTPTTL:     5 * time.Minute,
	})

	require.NoError(t, emails.SendVerificationEmail("a@b.com", "a", "111111"))
	assert.Contains(t, mailer.Last().Body, "valid for 2 hours")
	assert.NotContains(t, mailer.Last().Body, "24 hours")

	require.NoError(t, emails.SendPasswordResetOTP("a@b.com", "a", "654321"))
	assert.Contains(t, mailer.Last().Body, "expires in 5 minutes")
	assert.Contains(t, mailer.Last().Body, "<strong>654321</strong>")
}

func TestEmailService_DefaultValidity(t *testing.T) {
	mailer := &fakeMailer{}
	emails := NewEmailService(mailer, "", AuthSettings{})

	require.NoError(t, emails.SendVerificationEmail("a@b.com", "a", "111111"))
	assert.Contains(t, mailer.Last().Body, "valid for 24 hours")
	require.NoError(t, emails.SendPasswordResetOTP("a@b.com", "a", "654321"))
	assert.Contains(t, mailer.Last().Body, "expires in 15 minutes")
}

func TestHumanDuration(t *testing.T) {
	cases := map[time.Duration]string{
		time.Hour:        "1 hour",
		24 * time.Hour:   "24 hours",
		90 * time.Minute: "90 minutes",
		time.Minute:      "1 minute",
		15 * time.Minute: "15 minutes",
		30 * time.Second: "1 minute",
	}
	for d, want := range cases {
		assert.Equal(t, want, humanDuration(d), d.String())
	}
}
