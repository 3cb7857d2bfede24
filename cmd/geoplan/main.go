package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"sigs.k8s.io/yaml"

	"github.com/samirrijal/geoplan/internal/adapters/nominatim"
	"github.com/samirrijal/geoplan/internal/adapters/osrm"
	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/usecases"
	"github.com/samirrijal/geoplan/internal/pkg/config"
	"github.com/samirrijal/geoplan/internal/pkg/logging"
	"github.com/samirrijal/geoplan/internal/pkg/upstream"
	"github.com/samirrijal/geoplan/internal/workflows"
)

const defaultAPIURL = "http://localhost:8080"

var stdout io.Writer = os.Stdout

// newRunner builds the action runner used by "run". Tests replace it.
var newRunner = func(cfg *config.Config) usecases.ActionRunner {
	geocoder := nominatim.New(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, cfg.Geocoder.TimeoutDuration())
	router := osrm.New(geocoder, osrm.Backends{
		domain.ProfileDriving: cfg.Routing.DrivingURL,
		domain.ProfileWalking: cfg.Routing.WalkingURL,
		domain.ProfileCycling: cfg.Routing.CyclingURL,
	}, cfg.Geocoder.UserAgent, cfg.Routing.TimeoutDuration())
	return usecases.NewActionExecutor(geocoder, router)
}

// planFile is the on-disk plan format.
type planFile struct {
	Context *domain.MapContext `json:"context,omitempty"`
	Actions []domain.Action    `json:"actions"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return usageError("subcommand is required")
	}

	switch args[0] {
	case "run":
		return runPlan(args[1:])
	case "ask":
		return runAsk(args[1:])
	case "-h", "--help", "help":
		fmt.Fprintln(stdout, usageText())
		return nil
	default:
		return usageError(fmt.Sprintf("unknown subcommand: %s", args[0]))
	}
}

func runPlan(args []string) error {
	if len(args) == 0 {
		return usageError("run requires a plan file path")
	}
	path, onTemporal := args[0], false
	for _, a := range args[1:] {
		if a != "--temporal" {
			return usageError(fmt.Sprintf("unknown run option: %s", a))
		}
		onTemporal = true
	}

	plan, err := loadPlanFile(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load("geoplan-cli")
	if err != nil {
		return err
	}
	logging.SetupWriter(os.Stderr, cfg.Telemetry.ServiceName, cfg.Log.Level, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var outcome domain.ExecutionOutcome
	if onTemporal {
		outcome, err = executeOnTemporal(ctx, cfg, plan)
		if err != nil {
			return err
		}
	} else {
		executor := usecases.NewPlanExecutor(newRunner(cfg), cfg.Executor.Parallelism)
		outcome = executor.ExecutePlan(ctx, plan.Actions, plan.Context)
	}
	return printYAML(outcome)
}

func loadPlanFile(path string) (*planFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %q: %w", path, err)
	}
	var plan planFile
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan %q: %w", path, err)
	}
	if len(plan.Actions) == 0 {
		return nil, fmt.Errorf("plan %q has no actions", path)
	}
	return &plan, nil
}

func executeOnTemporal(ctx context.Context, cfg *config.Config, plan *planFile) (domain.ExecutionOutcome, error) {
	var outcome domain.ExecutionOutcome

	c, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort, Namespace: cfg.Temporal.Namespace})
	if err != nil {
		return outcome, fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	planID := uuid.NewString()
	wf, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "plan-" + planID,
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.PlanWorkflow, workflows.PlanInput{PlanID: planID, Actions: plan.Actions, Context: plan.Context})
	if err != nil {
		return outcome, fmt.Errorf("start plan workflow: %w", err)
	}
	fmt.Fprintf(os.Stderr, "workflowId=%s runId=%s\n", wf.GetID(), wf.GetRunID())

	if err := wf.Get(ctx, &outcome); err != nil {
		return outcome, fmt.Errorf("plan workflow: %w", err)
	}
	return outcome, nil
}

func runAsk(args []string) error {
	if len(args) == 0 {
		return usageError("ask requires prompt text or a path to a text file")
	}
	apiURL := os.Getenv("GEOPLAN_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	rest := args[1:]
	for len(rest) > 0 {
		if rest[0] != "--api" || len(rest) < 2 {
			return usageError(fmt.Sprintf("unknown ask option: %s", rest[0]))
		}
		apiURL, rest = rest[1], rest[2:]
	}

	prompt, err := readPromptText(args[0])
	if err != nil {
		return err
	}
	body, err := json.Marshal(usecases.AssistantRequest{Prompt: prompt})
	if err != nil {
		return err
	}

	api := upstream.New("geoplan-api", 2*time.Minute, "geoplan-cli/1.0")
	resp, err := api.PostJSON(context.Background(), strings.TrimRight(apiURL, "/")+"/v1/assistant", nil, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(resp.Body, &apiErr)
		return fmt.Errorf("assistant returned %d: %s", resp.Status, apiErr.Message)
	}

	var out usecases.AssistantResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return fmt.Errorf("decode assistant response: %w", err)
	}
	return printYAML(out)
}

func readPromptText(source string) (string, error) {
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		data, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("read prompt file %q: %w", source, err)
		}
		source = string(data)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat prompt source %q: %w", source, err)
	}

	text := strings.TrimSpace(source)
	if text == "" {
		return "", fmt.Errorf("prompt is empty")
	}
	return text, nil
}

func printYAML(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("render yaml: %w", err)
	}
	_, err = stdout.Write(out)
	return err
}

func usageError(msg string) error {
	return fmt.Errorf("%s\n\n%s", msg, usageText())
}

func usageText() string {
	return `Usage:
  geoplan run <plan.yaml> [--temporal]
  geoplan ask <prompt-text|prompt-file.txt> [--api <base-url>]

Examples:
  geoplan run examples/plans/madrid-museums.yaml
  geoplan run examples/plans/madrid-museums.yaml --temporal
  GEOPLAN_API_URL=http://localhost:8080 geoplan ask "walk from Sol to Retiro"`
}
