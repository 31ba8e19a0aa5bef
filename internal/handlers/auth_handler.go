package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estatehub/internal/models"
	"estatehub/internal/services"
)

type AuthHandler struct {
	authService  services.AuthService
	resetService services.PasswordResetService
	cookies      CookieSettings
}

func NewAuthHandler(authService services.AuthService, resetService services.PasswordResetService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService, cookies: cookies}
}

func bindJSON(c *gin.Context, op string, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Printf("[auth][%s] bad request: bind json failed: err=%v", op, err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// @Summary      Регистрация
// @Description  Creates an unverified account (or refreshes a pending one) and emails a verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.SignupRequest  true  "Signup data"
// @Success      201   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      409   {object}  Envelope
// @Failure      500   {object}  Envelope
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, "signup", &req) {
		return
	}
	user, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, "signup", err)
		return
	}
	respondOK(c, http.StatusCreated, "verification code sent to your email", user)
}

// @Summary      Подтверждение email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.VerifyEmailRequest  true  "Verification code"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req models.VerifyEmailRequest
	if !bindJSON(c, "verify-email", &req) {
		return
	}
	res, err := h.authService.VerifyEmail(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, "verify-email", err)
		return
	}
	h.cookies.setSession(c, res.SessionToken)
	respondOK(c, http.StatusOK, "email verified successfully", res.User)
}

// @Summary      Вход в систему
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, "login", &req) {
		return
	}
	log.Printf("[auth][login] attempt email=%q", strings.TrimSpace(req.Email))
	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}
	h.cookies.setSession(c, res.SessionToken)
	respondOK(c, http.StatusOK, "login successful", res.User)
}

// @Summary      Выход
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  Envelope
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.clearSession(c)
	respondOK(c, http.StatusOK, "logged out", nil)
}

// @Summary      Вход через Google
// @Description  Signs in with an identity asserted by the OAuth provider; unknown emails get a verified account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.GoogleLoginRequest  true  "OAuth identity"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/auth/google [post]
func (h *AuthHandler) Google(c *gin.Context) {
	var req models.GoogleLoginRequest
	if !bindJSON(c, "google", &req) {
		return
	}
	res, err := h.authService.GoogleLogin(c.Request.Context(), req)
	if err != nil {
		respondError(c, "google", err)
		return
	}
	h.cookies.setSession(c, res.SessionToken)
	respondOK(c, http.StatusOK, "login successful", res.User)
}

// @Summary      Текущий пользователь
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Router       /api/auth/check-auth [get]
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.authService.CheckAuth(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "check-auth", err)
		return
	}
	respondOK(c, http.StatusOK, "", user)
}

// @Summary      Забыли пароль
// @Description  Emails a one-time code for resetting the password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ForgotPasswordRequest  true  "Account email"
// @Success      200   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !bindJSON(c, "forgot-password", &req) {
		return
	}
	if err := h.resetService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, "forgot-password", err)
		return
	}
	respondOK(c, http.StatusOK, "otp sent to your email", nil)
}

// @Summary      Проверка OTP
// @Description  Exchanges a valid OTP for a short-lived reset cookie
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.VerifyOTPRequest  true  "Email and OTP"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if !bindJSON(c, "verify-otp", &req) {
		return
	}
	token, err := h.resetService.VerifyResetOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, "verify-otp", err)
		return
	}
	h.cookies.setReset(c, token)
	respondOK(c, http.StatusOK, "otp verified", nil)
}

// @Summary      Новый пароль
// @Description  Sets a new password using the reset cookie issued by verify-otp
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ResetPasswordRequest  true  "New password"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, "reset-password", &req) {
		return
	}
	token, _ := c.Cookie(ResetCookie)
	if err := h.resetService.ResetPassword(c.Request.Context(), token, req.NewPassword, req.ConfirmPassword); err != nil {
		respondError(c, "reset-password", err)
		return
	}
	h.cookies.clearReset(c)
	respondOK(c, http.StatusOK, "password reset successfully", nil)
}
