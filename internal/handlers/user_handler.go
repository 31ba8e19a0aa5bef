package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estatehub/internal/models"
	"estatehub/internal/services"
)

type UserHandler struct {
	service  services.UserService
	listings *services.ListingService
	cookies  CookieSettings
}

func NewUserHandler(service services.UserService, listings *services.ListingService, cookies CookieSettings) *UserHandler {
	return &UserHandler{service: service, listings: listings, cookies: cookies}
}

// @Summary      Профиль пользователя
// @Tags         Users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get-user", err)
		return
	}
	respondOK(c, http.StatusOK, "", user)
}

// @Summary      Обновить профиль
// @Description  Only the account owner may update it; changing the password needs the current one
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id    path      int                          true  "User ID"
// @Param        body  body      models.UpdateProfileRequest  true  "Fields to change"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, "update-user", err)
		return
	}
	respondOK(c, http.StatusOK, "profile updated", user)
}

// @Summary      Удалить аккаунт
// @Description  Deletes the account together with its listings and ends the session
// @Tags         Users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(c.Request.Context(), id); err != nil {
		respondError(c, "delete-user", err)
		return
	}
	h.cookies.clearSession(c)
	respondOK(c, http.StatusOK, "account deleted", nil)
}

// @Summary      Объявления пользователя
// @Tags         Users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  Envelope
// @Router       /api/users/{id}/listings [get]
func (h *UserHandler) ListUserListings(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	listings, err := h.listings.ListByOwner(c.Request.Context(), id)
	if err != nil {
		respondError(c, "user-listings", err)
		return
	}
	respondOK(c, http.StatusOK, "", listings)
}
