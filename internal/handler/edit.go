package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/service"
	"github.com/vibecut/api/pkg/response"
)

type EditHandler struct {
	service   *service.EditService
	validator *validator.Validate
}

func NewEditHandler(svc *service.EditService, v *validator.Validate) *EditHandler {
	return &EditHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/edit/start
func (h *EditHandler) Start(c *fiber.Ctx) error {
	var req model.EditStartRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	result, err := h.service.StartEdit(c.UserContext(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/edit/status/:jobId
func (h *EditHandler) Status(c *fiber.Ctx) error {
	result, err := h.service.GetStatus(c.UserContext(), c.Params("jobId"))
	if err != nil {
		return jobError(c, err)
	}
	return response.OK(c, result)
}

// Result handles GET /api/edit/result/:jobId
func (h *EditHandler) Result(c *fiber.Ctx) error {
	result, err := h.service.GetResult(c.UserContext(), c.Params("jobId"))
	if err != nil {
		return jobError(c, err)
	}
	return response.OK(c, result)
}

// Cancel handles POST /api/edit/cancel/:jobId
func (h *EditHandler) Cancel(c *fiber.Ctx) error {
	result, err := h.service.CancelEdit(c.UserContext(), c.Params("jobId"))
	if err != nil {
		return jobError(c, err)
	}
	return response.OK(c, result)
}
