package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/pkg/metrics"
	"github.com/samirrijal/geoplan/internal/pkg/upstream"
)

const provider = "gemini"

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
)

// DefaultVersions is the API version order tried when none is configured.
var DefaultVersions = []string{"v1beta", "v1"}

// Options configures the planner.
type Options struct {
	APIKey   string
	Model    string
	BaseURL  string
	Versions []string
	Timeout  time.Duration
}

// Planner implements ports.Planner on the Gemini generateContent API.
type Planner struct {
	http     *upstream.Client
	apiKey   string
	model    string
	baseURL  string
	versions []string
}

// New creates a new Gemini planner.
func New(opts Options) *Planner {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	versions := make([]string, 0, len(opts.Versions))
	for _, v := range opts.Versions {
		if v = strings.TrimSpace(v); v != "" {
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 {
		versions = DefaultVersions
	}
	return &Planner{
		http:     upstream.New(provider, opts.Timeout, ""),
		apiKey:   opts.APIKey,
		model:    ModelPath(opts.Model),
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		versions: versions,
	}
}

// ModelPath prefixes name with "models/" unless already present.
func ModelPath(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultModel
	}
	if strings.HasPrefix(name, "models/") {
		return name
	}
	return "models/" + name
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"response_mime_type"`
}

type generateRequest struct {
	SystemInstruction content          `json:"system_instruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generation_config"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Plan asks the model for a plan. API versions are tried in order; a version
// that is missing the model, unreachable or answers without usable text is
// skipped. Any other failure is final.
func (p *Planner) Plan(ctx context.Context, prompt string, history []domain.Message) (*domain.Plan, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", domain.ErrPlannerUnavailable)
	}

	body, err := json.Marshal(buildRequest(prompt, history))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	params := url.Values{}
	params.Set("key", p.apiKey)

	var skipped []string
	for _, version := range p.versions {
		endpoint := fmt.Sprintf("%s/%s/%s:generateContent", p.baseURL, version, p.model)

		resp, err := p.http.PostJSON(ctx, endpoint, params, body)
		if err != nil {
			metrics.PlannerRequests.WithLabelValues(version, "network").Inc()
			skipped = append(skipped, fmt.Sprintf("%s: connection failed (%v)", version, err))
			continue
		}

		switch {
		case resp.Status == 404:
			metrics.PlannerRequests.WithLabelValues(version, "not_found").Inc()
			skipped = append(skipped, fmt.Sprintf("%s: %s", version, errorMessage(resp.Body, "model not available")))
			continue
		case resp.Status == 403:
			metrics.PlannerRequests.WithLabelValues(version, "denied").Inc()
			return nil, fmt.Errorf("%w (%s): %s", domain.ErrPlannerAccessDenied, version,
				errorMessage(resp.Body, "check quota and permissions"))
		case !resp.OK():
			metrics.PlannerRequests.WithLabelValues(version, "error").Inc()
			return nil, fmt.Errorf("%w: model returned status %d (%s): %s", domain.ErrPlannerResponse,
				resp.Status, version, errorMessage(resp.Body, string(resp.Body)))
		}

		text, err := candidateText(resp.Body)
		if err != nil {
			metrics.PlannerRequests.WithLabelValues(version, "empty").Inc()
			skipped = append(skipped, fmt.Sprintf("%s: %v", version, err))
			continue
		}

		plan, err := ParsePlan(text)
		if err != nil {
			metrics.PlannerRequests.WithLabelValues(version, "invalid").Inc()
			return nil, err
		}
		metrics.PlannerRequests.WithLabelValues(version, "ok").Inc()
		slog.DebugContext(ctx, "plan received", "version", version, "actions", len(plan.Actions))
		return plan, nil
	}

	msg := "no model version produced an answer"
	if len(skipped) > 0 {
		msg += ": " + strings.Join(skipped, " | ")
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrPlannerUnavailable, msg)
}

func buildRequest(prompt string, history []domain.Message) generateRequest {
	contents := make([]content, 0, len(history)+1)
	for _, m := range history {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		contents = append(contents, content{Role: Role(m.Role), Parts: []part{{Text: text}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: prompt}}})

	return generateRequest{
		SystemInstruction: content{Role: "system", Parts: []part{{Text: systemPrompt}}},
		Contents:          contents,
		GenerationConfig: generationConfig{
			Temperature:      0.3,
			ResponseMimeType: "application/json",
		},
	}
}

// Role maps a conversation role onto Gemini's two-party vocabulary.
func Role(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant", "model":
		return "model"
	default:
		return "user"
	}
}

var errNoCandidate = errors.New("response has no candidates")

func candidateText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, pt := range c.Content.Parts {
			sb.WriteString(pt.Text)
		}
		if sb.Len() == 0 {
			return "", errors.New("candidate has no usable text")
		}
		return sb.String(), nil
	}
	return "", errNoCandidate
}

// ParsePlan decodes model text into a plan. Code fences and prose around the
// JSON object are tolerated; reply and actions are both required.
func ParsePlan(text string) (*domain.Plan, error) {
	raw := extractJSONText(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", domain.ErrPlannerResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPlannerResponse, err)
	}
	replyRaw, hasReply := fields["reply"]
	actionsRaw, hasActions := fields["actions"]
	if !hasReply || !hasActions {
		return nil, fmt.Errorf("%w: reply and actions are required", domain.ErrPlannerResponse)
	}

	plan := &domain.Plan{}
	if err := json.Unmarshal(replyRaw, &plan.Reply); err != nil {
		return nil, fmt.Errorf("%w: reply must be a string", domain.ErrPlannerResponse)
	}
	if t := bytes.TrimSpace(actionsRaw); len(t) == 0 || t[0] != '[' {
		return nil, fmt.Errorf("%w: actions must be a list", domain.ErrPlannerResponse)
	}
	if err := json.Unmarshal(actionsRaw, &plan.Actions); err != nil {
		return nil, fmt.Errorf("%w: actions: %v", domain.ErrPlannerResponse, err)
	}
	return plan, nil
}

func extractJSONText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func errorMessage(body []byte, fallback string) string {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil {
		if e.Error.Message != "" {
			return e.Error.Message
		}
		if e.Error.Status != "" {
			return e.Error.Status
		}
	}
	return fallback
}
