package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/service"
	"github.com/vibecut/api/pkg/response"
)

// IndexHandler serves batch indexing and collection jobs.
type IndexHandler struct {
	service   *service.IndexService
	validator *validator.Validate
}

func NewIndexHandler(svc *service.IndexService, v *validator.Validate) *IndexHandler {
	return &IndexHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/index/start
func (h *IndexHandler) Start(c *fiber.Ctx) error {
	var req model.IndexStartRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	result, err := h.service.StartIndex(c.UserContext(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/index/status/:jobId
func (h *IndexHandler) Status(c *fiber.Ctx) error {
	result, err := h.service.GetStatus(c.UserContext(), c.Params("jobId"))
	if err != nil {
		return jobError(c, err)
	}
	return response.OK(c, result)
}

// Result handles GET /api/index/result/:jobId
func (h *IndexHandler) Result(c *fiber.Ctx) error {
	result, err := h.service.GetResult(c.UserContext(), c.Params("jobId"))
	if err != nil {
		return jobError(c, err)
	}
	return response.OK(c, result)
}

// CreateCollection handles POST /api/collections
func (h *IndexHandler) CreateCollection(c *fiber.Ctx) error {
	var req model.CollectionCreateRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	result, err := h.service.StartCollection(c.UserContext(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// CollectionVideos handles GET /api/collections/videos
func (h *IndexHandler) CollectionVideos(c *fiber.Ctx) error {
	result, err := h.service.CollectionStatus(c.UserContext())
	if err != nil {
		return response.UpstreamError(c, err.Error())
	}
	return response.OK(c, result)
}
