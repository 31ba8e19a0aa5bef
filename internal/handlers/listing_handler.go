package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estatehub/internal/models"
	"estatehub/internal/services"
)

type ListingHandler struct {
	Service *services.ListingService
}

func NewListingHandler(service *services.ListingService) *ListingHandler {
	return &ListingHandler{Service: service}
}

// @Summary      Поиск объявлений
// @Description  Filters, sorts and pages listings; identical queries are served from cache
// @Tags         Listings
// @Produce      json
// @Param        search      query     string  false  "Name substring"
// @Param        type        query     string  false  "sale, rent or all"
// @Param        offer       query     string  false  "true, false or all"
// @Param        furnished   query     string  false  "true, false or all"
// @Param        parking     query     string  false  "true, false or all"
// @Param        maxPrice    query     number  false  "Upper price bound"
// @Param        sort        query     string  false  "Sort field"
// @Param        order       query     string  false  "asc or desc"
// @Param        page        query     int     false  "Page, from 1"
// @Param        limit       query     int     false  "Page size"
// @Success      200         {object}  Envelope
// @Router       /api/listings [get]
func (h *ListingHandler) Search(c *gin.Context) {
	page, err := h.Service.Search(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respondError(c, "search-listings", err)
		return
	}
	respondOK(c, http.StatusOK, "", page)
}

// @Summary      Создать объявление
// @Tags         Listings
// @Accept       json
// @Produce      json
// @Param        body  body      models.ListingInput  true  "Listing"
// @Success      201   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Router       /api/listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var in models.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	// владельца берём из токена
	l, err := h.Service.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, "create-listing", err)
		return
	}
	respondOK(c, http.StatusCreated, "listing created", l)
}

// @Summary      Объявление
// @Tags         Listings
// @Produce      json
// @Param        id   path      int  true  "Listing ID"
// @Success      200  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/listings/{id} [get]
func (h *ListingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get-listing", err)
		return
	}
	respondOK(c, http.StatusOK, "", l)
}

// @Summary      Изменить объявление
// @Tags         Listings
// @Accept       json
// @Produce      json
// @Param        id    path      int                  true  "Listing ID"
// @Param        body  body      models.ListingInput  true  "Listing"
// @Success      200   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /api/listings/{id} [put]
func (h *ListingHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	l, err := h.Service.Update(c.Request.Context(), userID, id, in)
	if err != nil {
		respondError(c, "update-listing", err)
		return
	}
	respondOK(c, http.StatusOK, "listing updated", l)
}

// @Summary      Удалить объявление
// @Tags         Listings
// @Produce      json
// @Param        id   path      int  true  "Listing ID"
// @Success      200  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Router       /api/listings/{id} [delete]
func (h *ListingHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, "delete-listing", err)
		return
	}
	respondOK(c, http.StatusOK, "listing deleted", nil)
}

// @Summary      Владелец объявления
// @Description  Contact details of the account that posted the listing
// @Tags         Listings
// @Produce      json
// @Param        id   path      int  true  "Listing ID"
// @Success      200  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/listings/{id}/owner [get]
func (h *ListingHandler) Owner(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.Service.Owner(c.Request.Context(), id)
	if err != nil {
		respondError(c, "listing-owner", err)
		return
	}
	respondOK(c, http.StatusOK, "", u)
}
