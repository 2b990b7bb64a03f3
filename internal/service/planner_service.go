package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// maxPlanQueries caps how many search queries a plan may fan out to.
const maxPlanQueries = 8

// ChatCompleter is the LLM surface the planner needs.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, system, user string, jsonMode bool) (string, error)
	IsConfigured() bool
}

// PlannerService turns an edit request into an execution plan using the LLM
type PlannerService struct {
	llm    ChatCompleter
	logger *zap.Logger
}

// NewPlannerService creates a planner. A nil or unconfigured llm gives
// deterministic mock plans.
func NewPlannerService(llm ChatCompleter, logger *zap.Logger) *PlannerService {
	return &PlannerService{
		llm:    llm,
		logger: logging.WithComponent(logger, "planner"),
	}
}

// CreatePlan asks the LLM for a plan. An unusable reply still yields a plan
// whose queries come from the user query and the preset keywords; only a
// failed LLM call is an error.
func (s *PlannerService) CreatePlan(ctx context.Context, userQuery string, clipIDs []string, preset model.PresetType, custom model.CustomSettings) (model.ExecutionPlan, error) {
	if s.llm == nil || !s.llm.IsConfigured() {
		return s.mockPlan(userQuery, clipIDs, preset, custom)
	}

	s.logger.Info("creating plan",
		zap.String("preset", string(preset)),
		zap.Int("clips", len(clipIDs)))

	response, err := s.llm.ChatCompletion(ctx, plannerSystemPrompt, buildPlannerPrompt(userQuery, len(clipIDs), preset, custom), true)
	if err != nil {
		return model.ExecutionPlan{}, fmt.Errorf("AI planning failed: %w", err)
	}

	raw := extractJSON(response)
	if !gjson.Valid(raw) {
		s.logger.Warn("planner returned non-JSON reply, using fallback queries")
		wrapped, _ := json.Marshal(map[string]string{"raw_response": response})
		raw = string(wrapped)
	}

	queries := parseSearchQueries(raw)
	if len(queries) == 0 {
		queries = fallbackQueries(userQuery, preset)
	}

	return model.ExecutionPlan{
		SearchQueries: queries,
		Raw:           json.RawMessage(raw),
	}, nil
}

const plannerSystemPrompt = `You are a video editing planner. You analyze a user's request and the clips they uploaded and produce an execution plan for an automated editor.
Always output a single valid JSON object in the exact format requested.
Do not include any text outside the JSON structure.`

func buildPlannerPrompt(userQuery string, clipCount int, preset model.PresetType, custom model.CustomSettings) string {
	p := model.LookupPreset(preset)

	settings := "none"
	var parts []string
	if custom.Duration != nil {
		parts = append(parts, fmt.Sprintf("duration=%gs", *custom.Duration))
	}
	if custom.Theme != nil && *custom.Theme != "" {
		parts = append(parts, fmt.Sprintf("theme=%s", *custom.Theme))
	}
	if len(parts) > 0 {
		settings = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(`User request: %s
Available clips: %d videos uploaded
Preset: %s (%s, about %gs, %s transitions, %s pacing)
Custom settings: %s

Create a plan with:
1. The narrative structure (intro, main content, conclusion)
2. 3 to 6 short search queries that will find matching moments in the footage
3. Estimated timing for each section
4. Transitions and effects
5. Overall flow and pacing

Output as JSON: {"narrative": {"intro": "...", "main": "...", "conclusion": "..."}, "search_queries": ["query1", "query2"], "timing": {"intro": 5, "main": 40, "conclusion": 5}, "transitions": ["fade"], "pacing": "medium"}`,
		userQuery, clipCount, p.Name, p.Description, p.DefaultDuration, p.TransitionStyle, p.Pacing, settings)
}

// parseSearchQueries reads search_queries (or searchQueries) as strings or
// as objects with a query field. Blank and repeated entries are dropped.
func parseSearchQueries(raw string) []string {
	result := gjson.Get(raw, "search_queries")
	if !result.Exists() {
		result = gjson.Get(raw, "searchQueries")
	}
	if !result.IsArray() {
		return nil
	}

	seen := make(map[string]struct{})
	var queries []string
	result.ForEach(func(_, v gjson.Result) bool {
		q := v.String()
		if v.IsObject() {
			q = v.Get("query").String()
		}
		q = strings.TrimSpace(q)
		if q == "" {
			return true
		}
		if _, ok := seen[strings.ToLower(q)]; ok {
			return true
		}
		seen[strings.ToLower(q)] = struct{}{}
		queries = append(queries, q)
		return len(queries) < maxPlanQueries
	})
	return queries
}

// fallbackQueries derives queries from the request and the preset keywords.
func fallbackQueries(userQuery string, preset model.PresetType) []string {
	queries := []string{strings.TrimSpace(userQuery)}
	for _, kw := range model.LookupPreset(preset).SearchKeywords {
		queries = append(queries, kw)
	}
	return queries
}

func extractJSON(s string) string {
	// Find the first { and last }
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

// Mock implementation for development/testing
func (s *PlannerService) mockPlan(userQuery string, clipIDs []string, preset model.PresetType, custom model.CustomSettings) (model.ExecutionPlan, error) {
	p := model.LookupPreset(preset)
	cfg := model.BuildAssemblyConfig(preset, custom)
	queries := fallbackQueries(userQuery, preset)

	intro := cfg.TargetDurationSeconds * 0.1
	outro := cfg.TargetDurationSeconds * 0.1

	raw, err := json.Marshal(map[string]interface{}{
		"narrative": map[string]string{
			"intro":      "Open on the strongest establishing shot",
			"main":       userQuery,
			"conclusion": "Close on a memorable moment",
		},
		"search_queries": queries,
		"timing": map[string]float64{
			"intro":      intro,
			"main":       cfg.TargetDurationSeconds - intro - outro,
			"conclusion": outro,
		},
		"transitions": []string{p.TransitionStyle},
		"pacing":      p.Pacing,
		"clip_count":  len(clipIDs),
		"mock":        true,
	})
	if err != nil {
		return model.ExecutionPlan{}, err
	}

	return model.ExecutionPlan{SearchQueries: queries, Raw: raw}, nil
}
