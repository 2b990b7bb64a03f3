package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/vibecut/api/internal/auth"
	"github.com/vibecut/api/internal/client"
	"github.com/vibecut/api/internal/handler"
	"github.com/vibecut/api/internal/middleware"
	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/retrieval"
	"github.com/vibecut/api/internal/selection"
	"github.com/vibecut/api/internal/service"
)

const testJWTSecret = "test-secret-for-handlers"

type memoryStore struct {
	mu   sync.Mutex
	jobs map[string]model.Job
}

func (m *memoryStore) Create(_ context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memoryStore) Get(_ context.Context, jobID string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, service.ErrJobNotFound
	}
	return &job, nil
}

func (m *memoryStore) Update(_ context.Context, jobID string, fn func(*model.Job) error) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, service.ErrJobNotFound
	}
	if err := fn(&job); err != nil {
		return nil, err
	}
	m.jobs[jobID] = job
	return &job, nil
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: task.Type()}, nil
}

// fakeVideoDB answers searches from a fixed table keyed by query.
type fakeVideoDB struct {
	hits   map[string][]client.SearchResult
	videos []string
}

func (f *fakeVideoDB) Search(_ context.Context, req *client.SearchRequest) ([]client.SearchResult, error) {
	return f.hits[req.Query], nil
}

func (f *fakeVideoDB) ListVideos(context.Context, string) ([]string, error) {
	return f.videos, nil
}

func (f *fakeVideoDB) Upload(_ context.Context, sourceURL string) (string, error) {
	return "vid-" + sourceURL[strings.LastIndex(sourceURL, "/")+1:], nil
}

func score(v float64) *float64 { return &v }

// testApp holds all components needed for testing
type testApp struct {
	app   *fiber.App
	store *memoryStore
	queue *recordingEnqueuer
}

// setupApp builds the same routes as the server, backed by in-memory jobs
// and an unconfigured storage client.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	store := &memoryStore{jobs: map[string]model.Job{}}
	queue := &recordingEnqueuer{}
	jobs := service.NewJobManager(store, queue)
	videodb := &fakeVideoDB{
		hits: map[string][]client.SearchResult{
			"goal": {
				{VideoID: "v1", Start: 0, End: 20, Score: score(0.9)},
				{VideoID: "v2", Start: 5, End: 20, Score: score(0.7)},
			},
			"crowd": {
				{VideoID: "v1", Start: 0, End: 20, Score: score(0.95)},
				{VideoID: "v3", Start: 0, End: 10, Score: score(0.6)},
			},
		},
		videos: []string{"v1", "v2", "v3"},
	}

	validate := validator.New()

	executor := retrieval.NewQueryExecutor(videodb, retrieval.SearchOptions{}, nil)
	selector := selection.NewSelector(selection.DefaultEarlyStopFraction, nil)

	editHandler := handler.NewEditHandler(service.NewEditService(jobs), validate)
	indexHandler := handler.NewIndexHandler(service.NewIndexService(jobs, store, videodb, "vibecut_videos", ""), validate)
	searchHandler := handler.NewSearchHandler(service.NewSearchService(executor, selector, "vibecut_videos", 10, nil), validate)
	uploadHandler := handler.NewUploadHandler(service.NewUploadService(nil, videodb, nil), 1)
	authHandler := handler.NewAuthHandler(nil, testJWTSecret)

	app := fiber.New()
	app.Get("/auth/verify", authHandler.Verify)

	api := app.Group("/api", middleware.NewLegacyAuthMiddleware(testJWTSecret).Authenticate())
	api.Get("/presets", handler.ListPresets)
	api.Get("/presets/:name", handler.GetPreset)

	api.Post("/upload/video", uploadHandler.Video)
	api.Delete("/upload/video/:key", uploadHandler.DeleteVideo)

	api.Post("/index/start", indexHandler.Start)
	api.Get("/index/status/:jobId", indexHandler.Status)
	api.Get("/index/result/:jobId", indexHandler.Result)
	api.Post("/collections", indexHandler.CreateCollection)
	api.Get("/collections/videos", indexHandler.CollectionVideos)

	api.Post("/search", searchHandler.Search)

	api.Post("/edit/start", editHandler.Start)
	api.Get("/edit/status/:jobId", editHandler.Status)
	api.Get("/edit/result/:jobId", editHandler.Result)
	api.Post("/edit/cancel/:jobId", editHandler.Cancel)

	return &testApp{app: app, store: store, queue: queue}
}

// generateToken creates a legacy HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	token, err := auth.IssueLegacyToken(testJWTSecret, "test-user-123", "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest performs an HTTP request against the test app.
func doRequest(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	return doRequest(t, app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateToken(t),
	})
}

// multipartBody builds a form with the given fields and an optional file.
func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

// parseJSON decodes the response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := parseJSON(t, resp)
	detail, _ := body["error"].(map[string]interface{})
	code, _ := detail["code"].(string)
	return code
}
