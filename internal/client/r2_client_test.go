package client

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vibecut/api/internal/config"
)

func TestNewR2Client_IncompleteConfig(t *testing.T) {
	if _, err := NewR2Client(&config.R2Config{AccountID: "acct"}); err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if _, err := NewR2Client(&config.R2Config{AccountID: "acct", AccessKeyID: "k", SecretAccessKey: "s"}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestR2Client_URLs(t *testing.T) {
	c, err := NewR2Client(&config.R2Config{
		AccountID:       "acct",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		BucketName:      "vibecut",
		PublicURL:       "https://media.example.com/",
	})
	if err != nil {
		t.Fatalf("NewR2Client() error = %v", err)
	}
	if !c.IsConfigured() {
		t.Fatal("expected configured client")
	}

	key := VideoKey("user-1", "up-1", "Match.MP4")
	if key != "videos/user-1/up-1.mp4" {
		t.Errorf("VideoKey() = %q", key)
	}
	if got := c.GetPublicURL(key); got != "https://media.example.com/videos/user-1/up-1.mp4" {
		t.Errorf("GetPublicURL() = %q", got)
	}

	signed, err := c.GetSignedURL(context.Background(), key, 15*time.Minute)
	if err != nil {
		t.Fatalf("GetSignedURL() error = %v", err)
	}
	if !strings.HasPrefix(signed, "https://acct.r2.cloudflarestorage.com/vibecut/videos/user-1/up-1.mp4") {
		t.Errorf("unexpected signed url %q", signed)
	}
	if !strings.Contains(signed, "X-Amz-Signature=") {
		t.Errorf("signed url lacks signature: %q", signed)
	}
}

func TestVideoKey_Anonymous(t *testing.T) {
	if got := VideoKey("", "u", "a.webm"); got != "videos/anonymous/u.webm" {
		t.Errorf("VideoKey() = %q", got)
	}
}
