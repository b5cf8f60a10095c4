package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/profile"
	"github.com/qolda/qolda-backend/internal/service"
	"github.com/qolda/qolda-backend/internal/store"
)

type ProfileHandler struct {
	svc   service.ProfileService
	users store.UserRepository
}

func NewProfileHandler(svc service.ProfileService, users store.UserRepository) *ProfileHandler {
	return &ProfileHandler{svc: svc, users: users}
}

type UpdateProfileRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

type ProfileResponse struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type PublicUserResponse struct {
	UID    string `json:"uid"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func toProfileResponse(p *model.UserProfile) ProfileResponse {
	return ProfileResponse{
		UID:       p.UID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Bio:       p.Bio,
		Avatar:    p.AvatarURL,
		CreatedAt: p.CreatedAt,
	}
}

// GetMine returns the caller's profile, creating the document on first
// visit the way the web client does.
func (h *ProfileHandler) GetMine(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	p, created, err := h.svc.GetOrCreate(c.Request().Context(), uid, c.QueryParam("email"), c.QueryParam("name"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to load profile"))
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, toProfileResponse(p))
}

func (h *ProfileHandler) UpdateMine(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	p, err := h.svc.Update(c.Request().Context(), uid, service.ProfileUpdate{
		Name:   req.Name,
		Phone:  req.Phone,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		if err == service.ErrNotFound {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "profile not found"))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to update profile"))
	}
	return c.JSON(http.StatusOK, toProfileResponse(p))
}

// GetPublic exposes the display name and avatar of any member, with the
// same placeholder fallbacks the chat views use.
func (h *ProfileHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid uid"))
	}
	p := profile.NewResolver(h.users).Lookup(c.Request().Context(), uid)
	return c.JSON(http.StatusOK, PublicUserResponse{
		UID:    uid,
		Name:   p.Name,
		Avatar: p.AvatarURL,
	})
}
