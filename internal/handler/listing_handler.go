package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/service"
)

type ListingHandler struct {
	svc service.ListingService
}

func NewListingHandler(svc service.ListingService) *ListingHandler {
	return &ListingHandler{svc: svc}
}

type CreateListingRequest struct {
	Title          string                `json:"title"`
	Category       string                `json:"category"`
	Description    string                `json:"description"`
	PricingType    string                `json:"pricingType"`
	PricingDetails string                `json:"pricingDetails"`
	Location       model.ListingLocation `json:"location"`
	Availability   string                `json:"availability"`
	Images         []string              `json:"images"`
	Terms          bool                  `json:"terms"`
	Email          string                `json:"email"`
}

type ListingResponse struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Category       string                `json:"category"`
	Description    string                `json:"description"`
	PricingType    string                `json:"pricingType"`
	PricingDetails string                `json:"pricingDetails,omitempty"`
	Location       model.ListingLocation `json:"location"`
	Availability   string                `json:"availability,omitempty"`
	Images         []string              `json:"images,omitempty"`
	CreatedBy      model.ListingOwner    `json:"createdBy"`
	CreatedAt      string                `json:"createdAt"`
}

func toListingResponse(l *model.Listing) ListingResponse {
	return ListingResponse{
		ID:             l.ID,
		Title:          l.Title,
		Category:       l.Category,
		Description:    l.Description,
		PricingType:    l.PricingType,
		PricingDetails: l.PricingDetails,
		Location:       l.Location,
		Availability:   l.Availability,
		Images:         l.Images,
		CreatedBy:      l.CreatedBy,
		CreatedAt:      l.CreatedAt.Format(time.RFC3339),
	}
}

func (h *ListingHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	owner := model.ListingOwner{UID: uid, Email: req.Email}
	listing, err := h.svc.Create(c.Request().Context(), owner, service.CreateListingInput{
		Title:          req.Title,
		Category:       req.Category,
		Description:    req.Description,
		PricingType:    req.PricingType,
		PricingDetails: req.PricingDetails,
		Location:       req.Location,
		Availability:   req.Availability,
		Images:         req.Images,
		Terms:          req.Terms,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	return c.JSON(http.StatusCreated, toListingResponse(listing))
}

func (h *ListingHandler) Get(c echo.Context) error {
	listing, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == service.ErrNotFound {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "service not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch service"))
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandler) List(c echo.Context) error {
	listings, err := h.svc.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch services"))
	}
	resp := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		resp = append(resp, toListingResponse(&listings[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) Delete(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	err := h.svc.Delete(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		switch err {
		case service.ErrNotFound:
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "service not found"))
		case service.ErrForbidden:
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not the owner"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to delete service"))
	}
	return c.NoContent(http.StatusNoContent)
}
