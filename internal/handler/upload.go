package handler

import (
	"errors"
	"fmt"
	"net/url"
	"path"

	"github.com/gofiber/fiber/v2"

	"github.com/vibecut/api/internal/middleware"
	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/service"
	"github.com/vibecut/api/pkg/response"
)

type UploadHandler struct {
	service       *service.UploadService
	maxUploadSize int64
}

func NewUploadHandler(svc *service.UploadService, maxUploadMB int) *UploadHandler {
	return &UploadHandler{
		service:       svc,
		maxUploadSize: int64(maxUploadMB) * 1024 * 1024,
	}
}

// Video handles POST /api/upload/video. The multipart body carries either a
// "file" part or a "url" field naming an already hosted video.
func (h *UploadHandler) Video(c *fiber.Ctx) error {
	sourceURL := c.FormValue("url")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if sourceURL == "" {
			return response.ValidationError(c, "file or url is required", nil)
		}
		if _, perr := url.ParseRequestURI(sourceURL); perr != nil {
			return response.ValidationError(c, "url is invalid", nil)
		}
		result, err := h.service.UploadVideo(c.UserContext(), middleware.GetUserID(c), path.Base(sourceURL), nil, 0, sourceURL)
		if err != nil {
			return response.UpstreamError(c, err.Error())
		}
		return response.Created(c, result)
	}

	if h.maxUploadSize > 0 && fileHeader.Size > h.maxUploadSize {
		return response.ValidationError(c, fmt.Sprintf("File size exceeds %dMB limit", h.maxUploadSize/1024/1024), map[string]interface{}{
			"maxSize":  h.maxUploadSize,
			"fileSize": fileHeader.Size,
		})
	}

	if !model.IsSupportedVideo(fileHeader.Filename) {
		return response.ValidationError(c, "Invalid file type", map[string]interface{}{
			"supported": model.SupportedVideoExtensions,
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	result, err := h.service.UploadVideo(c.UserContext(), middleware.GetUserID(c), fileHeader.Filename, f, fileHeader.Size, sourceURL)
	if err != nil {
		if errors.Is(err, service.ErrNoSourceURL) {
			return response.ValidationError(c, "Storage is not configured; provide a url", nil)
		}
		return response.UpstreamError(c, err.Error())
	}

	return response.Created(c, result)
}

// DeleteVideo handles DELETE /api/upload/video/:key
func (h *UploadHandler) DeleteVideo(c *fiber.Ctx) error {
	key, err := url.PathUnescape(c.Params("key"))
	if err != nil || key == "" {
		return response.ValidationError(c, "Key is required", nil)
	}

	if err := h.service.DeleteVideoByKey(c.UserContext(), key); err != nil {
		return response.UpstreamError(c, err.Error())
	}

	return response.NoContent(c)
}
