package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/cache"
	"estatehub/internal/config"
	"estatehub/internal/repositories"
	"estatehub/internal/search"
)

var codeRe = regexp.MustCompile(`<strong>(\d{6})</strong>`)

type inbox struct {
	mu     sync.Mutex
	bodies []string
}

func (b *inbox) Send(_, _, body string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bodies = append(b.bodies, body)
	return nil
}

func (b *inbox) lastCode(t *testing.T) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.bodies)
	m := codeRe.FindStringSubmatch(b.bodies[len(b.bodies)-1])
	require.Len(t, m, 2)
	return m[1]
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t       *testing.T
	router  http.Handler
	cookies map[string]*http.Cookie
}

func (c *client) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Environment = config.EnvDevelopment
	cfg.Auth = config.AuthConfig{
		JWTSecret:            "test-secret",
		SessionTTLHours:      168,
		ResetTokenTTLMinutes: 10,
		VerificationTTLHours: 24,
		ResetOTPTTLMinutes:   15,
	}
	cfg.Email.FromName = "EstateHub"
	return cfg
}

func newTestClient(t *testing.T, mail *inbox, rc *search.ResultCache) *client {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testConfig(), repositories.NewMemoryUserRepository(), repositories.NewMemoryListingRepository(), rc, mail)
	return &client{t: t, router: router, cookies: map[string]*http.Cookie{}}
}

func TestAuthFlowOverHTTP(t *testing.T) {
	mail := &inbox{}
	c := newTestClient(t, mail, search.NewResultCache(nil, 0))

	w, env := c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "a@b.com", "username": "a", "password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "success", env.Status)
	assert.NotContains(t, string(env.Data), "password")
	code := mail.lastCode(t)

	w, _ = c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "a@b.com", "username": "a", "password": "pw123456",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	code = mail.lastCode(t)

	w, env = c.do(http.MethodPost, "/api/auth/verify-email", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := c.cookies["auth-token"]
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
	assert.False(t, session.Secure)
	assert.Contains(t, string(env.Data), `"is_verified":true`)

	w, _ = c.do(http.MethodGet, "/api/auth/check-auth", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "a@b.com", "username": "a", "password": "pw123456",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = c.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "a@b.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	otp := mail.lastCode(t)

	w, _ = c.do(http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "a@b.com", "otp": "000000"})
	if otp != "000000" {
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w, _ = c.do(http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "a@b.com", "otp": otp})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, c.cookies["tempResetToken"])

	w, _ = c.do(http.MethodPost, "/api/auth/reset-password", map[string]string{
		"newPassword": "newpw1", "confirmPassword": "other",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = c.do(http.MethodPost, "/api/auth/reset-password", map[string]string{
		"newPassword": "newpw1", "confirmPassword": "newpw1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, c.cookies["tempResetToken"])

	w, _ = c.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, c.cookies["auth-token"])

	w, _ = c.do(http.MethodGet, "/api/auth/check-auth", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@b.com", "password": "pw123456"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@b.com", "password": "newpw1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, c.cookies["auth-token"])
}

func TestListingsOverHTTP(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rdb, err := cache.Connect(ctx, mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	rc := search.NewResultCache(cache.NewRedisStore(rdb, cacheKeyPrefix), 0)

	c := newTestClient(t, &inbox{}, rc)
	w, _ := c.do(http.MethodPost, "/api/auth/google", map[string]string{"email": "owner@b.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	listing := map[string]interface{}{
		"name": "Loft", "description": "Bright", "address": "Main 1",
		"regularPrice": 200, "discountedPrice": 150, "offer": true,
		"type": "sale", "imageUrls": []string{"https://img/1.jpg"},
	}
	w, env := c.do(http.MethodPost, "/api/listings", listing)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID      int `json:"id"`
		UserRef int `json:"userRef"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env = c.do(http.MethodGet, "/api/listings?maxPrice=150&type=sale", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":1`)
	assert.NotEmpty(t, mr.Keys())

	w, _ = c.do(http.MethodGet, "/api/listings/"+strconv.Itoa(created.ID)+"/owner", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = c.do(http.MethodGet, "/api/users/"+strconv.Itoa(created.UserRef)+"/listings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = c.do(http.MethodGet, "/api/users/"+strconv.Itoa(created.UserRef+1)+"/listings", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// чужой пользователь не может удалить объявление
	other := &client{t: t, router: c.router, cookies: map[string]*http.Cookie{}}
	w, _ = other.do(http.MethodPost, "/api/auth/google", map[string]string{"email": "other@b.com"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = other.do(http.MethodDelete, "/api/listings/"+strconv.Itoa(created.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = c.do(http.MethodDelete, "/api/listings/"+strconv.Itoa(created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = c.do(http.MethodGet, "/api/listings/"+strconv.Itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = c.do(http.MethodPost, "/api/listings", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	c := newTestClient(t, &inbox{}, search.NewResultCache(nil, 0))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
