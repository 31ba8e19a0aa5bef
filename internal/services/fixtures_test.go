package services

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"estatehub/internal/repositories"
)

var errSMTPDown = errors.New("smtp down")

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// fakeMailer records every message; Fail makes Send return errSMTPDown.
type fakeMailer struct {
	mu   sync.Mutex
	Sent []sentMail
	Fail bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return errSMTPDown
	}
	m.Sent = append(m.Sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) Last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return sentMail{}
	}
	return m.Sent[len(m.Sent)-1]
}

type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func fixedCode(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

type authFixture struct {
	users  *repositories.MemoryUserRepository
	mailer *fakeMailer
	hasher PasswordHasher
	tokens *TokenService
	clock  *clock
	auth   *authService
	reset  *passwordResetService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  repositories.NewMemoryUserRepository(),
		mailer: &fakeMailer{},
		hasher: NewPasswordHasher(bcrypt.MinCost),
		clock:  newClock(),
	}
	f.tokens = NewTokenService("test-secret", 0, 0)
	f.tokens.now = f.clock.Now
	emails := NewEmailService(f.mailer, "EstateHub", AuthSettings{})

	f.auth = NewAuthService(f.users, emails, f.hasher, f.tokens, AuthSettings{}).(*authService)
	f.auth.now = f.clock.Now
	f.auth.newCode = fixedCode("111111")

	f.reset = NewPasswordResetService(f.users, emails, f.hasher, f.tokens, AuthSettings{}).(*passwordResetService)
	f.reset.now = f.clock.Now
	f.reset.newOTP = fixedCode("654321")
	return f
}
