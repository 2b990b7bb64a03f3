package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vibecut/api/internal/auth"
)

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memoryCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return redis.NewIntResult(m.counts[key], nil)
}

func (m *memoryCounter) Expire(context.Context, string, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCounter) TTL(context.Context, string) *redis.DurationCmd {
	return redis.NewDurationResult(42*time.Second, nil)
}

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c))
	})
	app.Get("/", handlers...)
	return app
}

func TestAuthenticate_Legacy(t *testing.T) {
	app := newApp(NewLegacyAuthMiddleware("secret").Authenticate())
	token, err := auth.IssueLegacyToken("secret", "user-1", "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, fiber.StatusOK},
		{"lowercase scheme", "bearer " + token, fiber.StatusOK},
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

type stubVerifier struct{}

func (stubVerifier) Validate(token string) (*auth.Claims, error) {
	if token == "zitadel-token" {
		return &auth.Claims{UserID: "zitadel-user", Name: "Z"}, nil
	}
	return nil, errors.New("unknown token")
}

func (stubVerifier) Close() error { return nil }

func TestAuthenticate_VerifierWithFallback(t *testing.T) {
	app := newApp(NewAuthMiddleware(stubVerifier{}, "secret").Authenticate())
	legacy, _ := auth.IssueLegacyToken("secret", "legacy-user", "", time.Hour)

	for token, want := range map[string]int{
		"zitadel-token": fiber.StatusOK,
		legacy:          fiber.StatusOK,
		"garbage":       fiber.StatusUnauthorized,
	} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ := app.Test(req)
		if resp.StatusCode != want {
			t.Errorf("token %q: status = %d, want %d", token, resp.StatusCode, want)
		}
	}

	strict := newApp(NewAuthMiddleware(stubVerifier{}, "").Authenticate())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+legacy)
	resp, _ := strict.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("legacy token without fallback: status = %d", resp.StatusCode)
	}
}

func TestGatewayAuth(t *testing.T) {
	app := newApp(GatewayAuthMiddleware())

	req := httptest.NewRequest("GET", "/", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-User-Id", "gw-user")
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func withUser(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userId", id)
		return c.Next()
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(&memoryCounter{counts: map[string]int64{}}, nil)
	app := newApp(withUser("user-1"), rl.SearchLimit(2))

	for i, want := range []int{200, 200, 429} {
		resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
		if resp.StatusCode != want {
			t.Fatalf("request %d: status = %d, want %d", i, resp.StatusCode, want)
		}
		if want == 429 && resp.Header.Get("Retry-After") != "42" {
			t.Errorf("Retry-After = %q", resp.Header.Get("Retry-After"))
		}
	}
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	rl := NewRateLimiter(&memoryCounter{err: errors.New("redis down")}, nil)
	app := newApp(withUser("user-1"), rl.EditLimit(1))

	for i := 0; i < 3; i++ {
		resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	}
}
