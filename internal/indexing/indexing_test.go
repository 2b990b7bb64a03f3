package indexing

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vibecut/api/internal/model"
)

type fakeIndexer struct {
	mu          sync.Mutex
	spokenCalls []string
	sceneCalls  []string
	prompts     []string
	failSpoken  map[string]bool
	failScenes  map[string]bool
	panicOn     string
}

func (f *fakeIndexer) IndexSpokenWords(_ context.Context, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if videoID == f.panicOn {
		panic("boom")
	}
	f.spokenCalls = append(f.spokenCalls, videoID)
	if f.failSpoken[videoID] {
		return errors.New("transcript service unavailable")
	}
	return nil
}

func (f *fakeIndexer) IndexScenes(_ context.Context, videoID, prompt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sceneCalls = append(f.sceneCalls, videoID)
	f.prompts = append(f.prompts, prompt)
	if f.failScenes[videoID] {
		return errors.New("scene extraction failed")
	}
	return nil
}

func TestRunner_Index(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.IndexKind
		indexer *fakeIndexer
		want    bool
	}{
		{"spoken words ok", model.IndexSpokenWords, &fakeIndexer{}, true},
		{"scenes ok", model.IndexScenes, &fakeIndexer{}, true},
		{"both ok", model.IndexBoth, &fakeIndexer{}, true},
		{"spoken words fails", model.IndexSpokenWords, &fakeIndexer{failSpoken: map[string]bool{"v": true}}, false},
		{"both with scene failure", model.IndexBoth, &fakeIndexer{failScenes: map[string]bool{"v": true}}, false},
		{"both with spoken failure", model.IndexBoth, &fakeIndexer{failSpoken: map[string]bool{"v": true}}, false},
		{"unknown kind", model.IndexKind("faces"), &fakeIndexer{}, false},
		{"panic is contained", model.IndexSpokenWords, &fakeIndexer{panicOn: "v"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(tt.indexer, "", zap.NewNop())
			if got := r.Index(context.Background(), "v", tt.kind, ""); got != tt.want {
				t.Errorf("Index() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunner_BothAttemptsBothOperations(t *testing.T) {
	idx := &fakeIndexer{failSpoken: map[string]bool{"v": true}}
	r := NewRunner(idx, "", zap.NewNop())

	if r.Index(context.Background(), "v", model.IndexBoth, "") {
		t.Fatal("expected failure")
	}
	if len(idx.spokenCalls) != 1 || len(idx.sceneCalls) != 1 {
		t.Errorf("expected both operations to run, got spoken=%v scenes=%v", idx.spokenCalls, idx.sceneCalls)
	}
}

func TestRunner_ScenePromptFallbacks(t *testing.T) {
	idx := &fakeIndexer{}

	NewRunner(idx, "", zap.NewNop()).Index(context.Background(), "v", model.IndexScenes, "")
	NewRunner(idx, "configured prompt", zap.NewNop()).Index(context.Background(), "v", model.IndexScenes, "")
	NewRunner(idx, "configured prompt", zap.NewNop()).Index(context.Background(), "v", model.IndexScenes, "caller prompt")

	want := []string{DefaultScenePrompt, "configured prompt", "caller prompt"}
	if !reflect.DeepEqual(idx.prompts, want) {
		t.Errorf("prompts = %v, want %v", idx.prompts, want)
	}
}

func TestRunner_LogsCause(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	idx := &fakeIndexer{failScenes: map[string]bool{"v": true}}

	NewRunner(idx, "", zap.New(core)).Index(context.Background(), "v", model.IndexScenes, "")

	entries := logs.FilterMessage("indexing failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["video_id"] != "v" {
		t.Errorf("missing video_id field: %v", ctx)
	}
	if ctx["error"] != "scene extraction failed" {
		t.Errorf("error field = %v", ctx["error"])
	}
}

type fakeTaskRunner struct {
	fail     map[string]bool
	delay    time.Duration
	inFlight int64
	maxSeen  int64
	calls    int64
}

func (f *fakeTaskRunner) Index(_ context.Context, videoID string, _ model.IndexKind, _ string) bool {
	atomic.AddInt64(&f.calls, 1)
	cur := atomic.AddInt64(&f.inFlight, 1)
	for {
		prev := atomic.LoadInt64(&f.maxSeen)
		if cur <= prev || atomic.CompareAndSwapInt64(&f.maxSeen, prev, cur) {
			break
		}
	}
	time.Sleep(f.delay)
	atomic.AddInt64(&f.inFlight, -1)
	return !f.fail[videoID]
}

func TestBatchIndexer_EmptyInput(t *testing.T) {
	runner := &fakeTaskRunner{}
	got := NewBatchIndexer(runner, zap.NewNop()).IndexBatch(context.Background(), nil, model.IndexScenes, "", 3)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty result, got %#v", got)
	}
	if runner.calls != 0 {
		t.Errorf("expected no calls, got %d", runner.calls)
	}
}

func TestBatchIndexer_PartialFailure(t *testing.T) {
	runner := NewRunner(&fakeIndexer{failSpoken: map[string]bool{"b": true}}, "", zap.NewNop())
	b := NewBatchIndexer(runner, zap.NewNop())

	got := b.IndexBatch(context.Background(), []string{"a", "b", "c"}, model.IndexSpokenWords, "", 1)

	want := Result{"a": true, "b": false, "c": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IndexBatch() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(got.Failed(), []string{"b"}) || !reflect.DeepEqual(got.Succeeded(), []string{"a", "c"}) {
		t.Errorf("Failed()=%v Succeeded()=%v", got.Failed(), got.Succeeded())
	}
}

func TestBatchIndexer_AllFailStillComplete(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	fail := map[string]bool{}
	for _, id := range ids {
		fail[id] = true
	}

	got := NewBatchIndexer(&fakeTaskRunner{fail: fail}, zap.NewNop()).
		IndexBatch(context.Background(), ids, model.IndexBoth, "", 2)

	if len(got) != len(ids) {
		t.Fatalf("expected %d entries, got %d", len(ids), len(got))
	}
	for _, id := range ids {
		if ok, present := got[id]; !present || ok {
			t.Errorf("entry for %q = %v (present=%v)", id, ok, present)
		}
	}
}

func TestBatchIndexer_RespectsConcurrencyCap(t *testing.T) {
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%02d", i)
	}

	for _, limit := range []int{1, 3, 5} {
		runner := &fakeTaskRunner{delay: 5 * time.Millisecond}
		NewBatchIndexer(runner, zap.NewNop()).IndexBatch(context.Background(), ids, model.IndexScenes, "", limit)

		if runner.maxSeen > int64(limit) {
			t.Errorf("limit %d: saw %d concurrent calls", limit, runner.maxSeen)
		}
		if runner.calls != int64(len(ids)) {
			t.Errorf("limit %d: expected %d calls, got %d", limit, len(ids), runner.calls)
		}
	}
}

func TestBatchIndexer_DefaultConcurrency(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	runner := &fakeTaskRunner{delay: 5 * time.Millisecond}

	NewBatchIndexer(runner, zap.NewNop()).IndexBatch(context.Background(), ids, model.IndexScenes, "", 0)

	if runner.maxSeen > DefaultMaxConcurrency {
		t.Errorf("saw %d concurrent calls with default cap %d", runner.maxSeen, DefaultMaxConcurrency)
	}
}

func TestBatchIndexer_ResultIndependentOfConcurrency(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	fail := map[string]bool{"b": true, "e": true}

	var first Result
	for _, limit := range []int{1, 2, 3, 10} {
		got := NewBatchIndexer(&fakeTaskRunner{fail: fail}, zap.NewNop()).
			IndexBatch(context.Background(), ids, model.IndexSpokenWords, "", limit)
		if first == nil {
			first = got
			continue
		}
		if !reflect.DeepEqual(first, got) {
			t.Errorf("limit %d: result %v differs from %v", limit, got, first)
		}
	}
}

func TestBatchIndexer_DuplicateIDsIndexedOnce(t *testing.T) {
	runner := &fakeTaskRunner{}
	got := NewBatchIndexer(runner, zap.NewNop()).
		IndexBatch(context.Background(), []string{"a", "a", "b"}, model.IndexScenes, "", 3)

	if len(got) != 2 || runner.calls != 2 {
		t.Errorf("expected 2 entries and 2 calls, got %v and %d", got, runner.calls)
	}
}

func TestBatchIndexer_Progress(t *testing.T) {
	var dones []int
	progress := func(_ string, _ bool, done, total int) {
		if total != 4 {
			t.Errorf("total = %d", total)
		}
		dones = append(dones, done)
	}

	NewBatchIndexer(&fakeTaskRunner{}, zap.NewNop()).
		IndexBatchWithProgress(context.Background(), []string{"a", "b", "c", "d"}, model.IndexScenes, "", 2, progress)

	if !reflect.DeepEqual(dones, []int{1, 2, 3, 4}) {
		t.Errorf("progress done counts = %v", dones)
	}
}

type fakeUploader struct {
	fail map[string]bool
}

func (f *fakeUploader) Upload(_ context.Context, sourceURL string) (string, error) {
	if f.fail[sourceURL] {
		return "", errors.New("unreachable source")
	}
	return "id-" + sourceURL, nil
}

func TestCollectionBuilder_Create(t *testing.T) {
	batch := NewBatchIndexer(&fakeTaskRunner{fail: map[string]bool{"id-u3": true}}, zap.NewNop())
	builder := NewCollectionBuilder(&fakeUploader{fail: map[string]bool{"u2": true}}, batch, "vibecut_videos", 2, zap.NewNop())

	got := builder.Create(context.Background(), []string{"u1", "u2", "u3"}, model.IndexScenes, "", nil)

	if got.CollectionName != "vibecut_videos" || got.TotalVideos != 3 || got.UploadedVideos != 2 {
		t.Errorf("unexpected counts %+v", got)
	}
	if !reflect.DeepEqual(got.FailedUploads, []string{"u2"}) {
		t.Errorf("FailedUploads = %v", got.FailedUploads)
	}
	if !reflect.DeepEqual(got.VideoIDs, []string{"id-u1", "id-u3"}) {
		t.Errorf("VideoIDs = %v", got.VideoIDs)
	}
	want := map[string]bool{"id-u1": true, "id-u3": false}
	if !reflect.DeepEqual(got.IndexingResults, want) {
		t.Errorf("IndexingResults = %v, want %v", got.IndexingResults, want)
	}
}

func TestCollectionBuilder_NothingUploaded(t *testing.T) {
	runner := &fakeTaskRunner{}
	builder := NewCollectionBuilder(&fakeUploader{fail: map[string]bool{"u1": true}}, NewBatchIndexer(runner, zap.NewNop()), "c", 0, zap.NewNop())

	got := builder.Create(context.Background(), []string{"u1"}, model.IndexBoth, "", nil)

	if got.UploadedVideos != 0 || len(got.IndexingResults) != 0 || runner.calls != 0 {
		t.Errorf("unexpected result %+v (calls=%d)", got, runner.calls)
	}
}
