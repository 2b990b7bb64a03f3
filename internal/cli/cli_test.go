package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vibecut/api/internal/config"
)

// fakeVideoDB fails indexing for video "b" and serves fixed search hits.
func fakeVideoDB(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok := func(data interface{}) {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/video/b/index"):
			http.Error(w, `{"success":false,"message":"boom"}`, http.StatusInternalServerError)
		case strings.Contains(r.URL.Path, "/index"):
			ok(nil)
		case strings.HasSuffix(r.URL.Path, "/search"):
			ok(map[string]interface{}{
				"shots": []map[string]interface{}{
					{"video_id": "a", "start": 0, "end": 20, "search_score": 0.9},
					{"video_id": "c", "start": 5, "end": 15, "search_score": 0.7},
				},
			})
		case r.URL.Path == "/compile":
			ok(map[string]string{"stream_url": "https://stream/out.m3u8"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func loader(baseURL string) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		return &config.Config{
			Server:    config.ServerConfig{LogLevel: "error"},
			VideoDB:   config.VideoDBConfig{APIKey: "k", BaseURL: baseURL, Collection: "vibecut_videos", Timeout: 5},
			Indexing:  config.IndexingConfig{MaxConcurrency: 2},
			Retrieval: config.RetrievalConfig{PerQueryLimit: 5, EarlyStopFraction: 0.8, SearchType: "semantic"},
		}, nil
	}
}

func execute(t *testing.T, load func() (*config.Config, error), args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(load)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPresets(t *testing.T) {
	out, err := execute(t, nil, "presets")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	var presets []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &presets); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(presets) != 3 || presets[0]["type"] != "highlights" {
		t.Errorf("presets = %v", presets)
	}
}

func TestIndex(t *testing.T) {
	srv := fakeVideoDB(t)

	out, err := execute(t, loader(srv.URL), "index", "a", "b", "c", "--kind", "spoken_words")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	var got indexOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Results["a"] || got.Results["b"] || !got.Results["c"] {
		t.Errorf("results = %v", got.Results)
	}
	if len(got.Failed) != 1 || got.Failed[0] != "b" {
		t.Errorf("failed = %v", got.Failed)
	}
}

func TestIndex_BadKind(t *testing.T) {
	_, err := execute(t, nil, "index", "a", "--kind", "faces")
	if err == nil || !strings.Contains(err.Error(), "unknown index kind") {
		t.Errorf("err = %v", err)
	}
}

func TestSearch(t *testing.T) {
	srv := fakeVideoDB(t)

	out, err := execute(t, loader(srv.URL), "search", "goal", "crowd", "--target", "20")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var got struct {
		Count    int `json:"count"`
		Selected []struct {
			ClipID string `json:"clipId"`
		} `json:"selected"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got.Count != 2 || len(got.Selected) != 1 || got.Selected[0].ClipID != "a" {
		t.Errorf("search = %+v", got)
	}
}

func TestEdit(t *testing.T) {
	srv := fakeVideoDB(t)

	out, err := execute(t, loader(srv.URL), "edit", "best goals", "--clips", "a,c", "--preset", "reel")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	var got struct {
		Stage         string  `json:"stage"`
		FinalVideoURL string  `json:"finalVideoUrl"`
		TotalDuration float64 `json:"totalDuration"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got.Stage != "complete" || got.FinalVideoURL != "https://stream/out.m3u8" || got.TotalDuration != 30 {
		t.Errorf("edit = %+v", got)
	}
}

func TestConfigError(t *testing.T) {
	load := func() (*config.Config, error) { return nil, errors.New("missing") }
	if _, err := execute(t, load, "search", "goal"); err == nil || !strings.Contains(err.Error(), "config: missing") {
		t.Errorf("err = %v", err)
	}
}
