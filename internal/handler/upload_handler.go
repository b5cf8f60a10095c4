package handler

import (
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/qolda/qolda-backend/internal/storage"
)

type UploadHandler struct {
	uploader storage.Uploader
}

func NewUploadHandler(uploader storage.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

type UploadResponse struct {
	URL string `json:"url"`
}

// Create accepts one multipart image and stores it under the caller's uid.
func (h *UploadHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	if h.uploader == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("uploads_disabled", "no storage bucket configured"))
	}
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "file is required"))
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable file"))
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := h.uploader.Upload(c.Request().Context(), path.Join("services", uid), file.Filename, contentType, src)
	if err != nil {
		return c.JSON(http.StatusBadGateway, NewErrorResponse("upload_failed", "failed to store file"))
	}
	return c.JSON(http.StatusCreated, UploadResponse{URL: url})
}
