package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vibecut/api/internal/config"
)

func TestLLMClient_ChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "test-model" {
			t.Errorf("model = %v", body["model"])
		}
		rf, _ := body["response_format"].(map[string]interface{})
		if rf["type"] != "json_object" {
			t.Errorf("response_format = %v", body["response_format"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "test-model",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "  {\"search_queries\": [\"goal\"]}  "}
			}]
		}`))
	}))
	defer srv.Close()

	c := NewLLMClient(&config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"})
	if !c.IsConfigured() {
		t.Fatal("expected configured client")
	}

	out, err := c.ChatCompletion(context.Background(), "system", "user", true)
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if out != `{"search_queries": ["goal"]}` {
		t.Errorf("ChatCompletion() = %q", out)
	}
}

func TestLLMClient_NotConfigured(t *testing.T) {
	c := NewLLMClient(&config.LLMConfig{})
	if c.IsConfigured() {
		t.Error("client without api key should not be configured")
	}
}
