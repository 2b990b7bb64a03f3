package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func decode(t *testing.T, app *fiber.App, path string) (int, string, ErrorResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, resp.Header.Get(fiber.HeaderRetryAfter), body
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		CodeValidationError: 400,
		CodeConflict:        409,
		CodeRateLimited:     429,
		CodeUpstreamError:   502,
		"SOMETHING_ELSE":    500,
	}
	for code, want := range tests {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestHelpers(t *testing.T) {
	app := fiber.New()
	app.Get("/conflict", func(c *fiber.Ctx) error { return Conflict(c, "job not completed") })
	app.Get("/limited", func(c *fiber.Ctx) error { return RateLimited(c, 42*time.Second) })
	app.Get("/upstream", func(c *fiber.Ctx) error { return UpstreamError(c, "videodb down") })

	status, _, body := decode(t, app, "/conflict")
	if status != 409 || body.Error.Code != CodeConflict || body.Error.Message != "job not completed" {
		t.Errorf("conflict = %d %+v", status, body)
	}

	status, retry, body := decode(t, app, "/limited")
	if status != 429 || retry != "42" || body.Error.Code != CodeRateLimited {
		t.Errorf("rate limited = %d retry=%q %+v", status, retry, body)
	}

	status, _, body = decode(t, app, "/upstream")
	if status != 502 || body.Error.Code != CodeUpstreamError {
		t.Errorf("upstream = %d %+v", status, body)
	}
}

func TestFromError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: FromError})
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/large", func(c *fiber.Ctx) error { return fiber.ErrRequestEntityTooLarge })

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/plain", 500, CodeServiceError},
		{"/large", 413, CodeValidationError},
		{"/missing", 404, CodeNotFound},
	}
	for _, tt := range tests {
		status, _, body := decode(t, app, tt.path)
		if status != tt.status || body.Error.Code != tt.code {
			t.Errorf("%s = %d %+v, want %d %s", tt.path, status, body, tt.status, tt.code)
		}
	}
}
