package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/pkg/response"
)

// ListPresets handles GET /api/presets
func ListPresets(c *fiber.Ctx) error {
	presets := model.AllPresets()
	return response.OK(c, fiber.Map{
		"presets": presets,
		"count":   len(presets),
	})
}

// GetPreset handles GET /api/presets/:name. Unlike edit requests, an
// unknown name is a 404 here rather than the custom preset.
func GetPreset(c *fiber.Ctx) error {
	t := model.PresetType(c.Params("name"))
	if !model.IsKnownPreset(t) {
		return response.NotFound(c, "Preset not found")
	}
	return response.OK(c, model.LookupPreset(t))
}
