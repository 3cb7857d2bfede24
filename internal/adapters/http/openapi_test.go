package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/geoplan/internal/adapters/http"
)

// findOpenAPISpec walks up from the package directory to api/openapi.yaml.
func findOpenAPISpec(t *testing.T) string {
	t.Helper()
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func TestLoadOpenAPI(t *testing.T) {
	spec, err := handler.LoadOpenAPI(findOpenAPISpec(t))
	if err != nil {
		t.Fatalf("LoadOpenAPI: %v", err)
	}

	if spec.Info.Title != "Geoplan Map Assistant API" {
		t.Errorf("title = %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0 to match X-API-Version", spec.Info.Version)
	}
	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}

	for _, name := range []string{
		"AssistantRequest", "AssistantResponse", "ExecuteRequest", "ExecutionOutcome",
		"ActionFailure", "ExecutedAction", "GeocodedPlace", "RouteResult", "PlanRecord",
		"APIError", "Pagination",
	} {
		if spec.Components.Schemas[name] == nil {
			t.Errorf("schema %s missing", name)
		}
	}

	if op := spec.Paths.Find("/api/assistant").Post; op == nil || !op.Deprecated {
		t.Error("/api/assistant should be marked deprecated")
	}
}

func TestLoadOpenAPI_MissingFile(t *testing.T) {
	if _, err := handler.LoadOpenAPI(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

// Every documented operation must be served and every versioned route documented.
func TestOpenAPI_MatchesRouter(t *testing.T) {
	spec, err := handler.LoadOpenAPI(findOpenAPISpec(t))
	if err != nil {
		t.Fatalf("LoadOpenAPI: %v", err)
	}
	app := setupApp(newFixture().deps())

	served := map[string]bool{}
	for _, r := range app.GetRoutes(true) {
		served[r.Method+" "+r.Path] = true
	}

	documented := map[string]bool{}
	for path, item := range spec.Paths.Map() {
		fiberPath := strings.NewReplacer("{", ":", "}", "").Replace(path)
		for method := range item.Operations() {
			key := method + " " + fiberPath
			documented[key] = true
			if !served[key] {
				t.Errorf("documented %s is not routed", key)
			}
		}
	}

	for key := range served {
		if !strings.Contains(key, " /v1/") || strings.HasPrefix(key, fiber.MethodHead) {
			continue
		}
		if !documented[key] {
			t.Errorf("route %s is not documented", key)
		}
	}
}

func TestDocs_ServesJSONRendering(t *testing.T) {
	app := fiber.New()
	handler.SetupDocs(app, findOpenAPISpec(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/docs/openapi.json", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.") || doc.Info.Title != "Geoplan Map Assistant API" {
		t.Errorf("unexpected document header: %+v", doc)
	}
}

func TestDocs_MissingSpec(t *testing.T) {
	app := fiber.New()
	handler.SetupDocs(app, filepath.Join(t.TempDir(), "absent.yaml"))

	for _, path := range []string{"/docs/openapi.yaml", "/docs/openapi.json"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 404 {
			t.Errorf("%s: status = %d, want 404", path, resp.StatusCode)
		}
	}
}
