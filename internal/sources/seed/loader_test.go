package seed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "seed.yaml")

	yamlContent := `---
services:
  - id: "a"
    name: Billing API
    type: API
    endpoint: https://billing.example.com
events:
  - serviceId: "a"
    type: deployment
    status: Online
    message: v2 rolled out
`

	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	config, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(config.Services) != 1 {
		t.Fatalf("Load() services = %d, want 1", len(config.Services))
	}
	if config.Services[0].Name != "Billing API" {
		t.Errorf("Load() name = %q, want %q", config.Services[0].Name, "Billing API")
	}
	if len(config.Events) != 1 {
		t.Fatalf("Load() events = %d, want 1", len(config.Events))
	}
}

func TestLoaderLoadExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "seed.yaml")
	t.Setenv("PULSE_TEST_ENDPOINT", "https://env.example.com")

	yamlContent := `services:
  - name: Env Service
    type: Cache
    endpoint: ${PULSE_TEST_ENDPOINT}
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	config, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := config.Services[0].Endpoint; got != "https://env.example.com" {
		t.Errorf("Load() endpoint = %q, want expanded value", got)
	}
}

func TestLoaderLoadMissingFile(t *testing.T) {
	_, err := NewLoader("/nonexistent/seed.yaml").Load()
	if err == nil {
		t.Error("Load() should fail for missing file")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("services: [unclosed"))
	if err == nil {
		t.Error("Parse() should fail for invalid YAML")
	}
}
