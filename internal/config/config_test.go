package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %v, want %v", cfg.ListenPort, ":8080")
	}
	if cfg.PollInterval != 15*time.Second {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, 15*time.Second)
	}
	if cfg.GCInterval != time.Minute {
		t.Errorf("GCInterval = %v, want %v", cfg.GCInterval, time.Minute)
	}
	if cfg.FailureRate != 0.05 {
		t.Errorf("FailureRate = %v, want %v", cfg.FailureRate, 0.05)
	}
	if cfg.QueryRetries != 3 || cfg.MutationRetries != 2 {
		t.Errorf("retries = %d/%d, want 3/2", cfg.QueryRetries, cfg.MutationRetries)
	}
	if cfg.PageSize != 10 || cfg.EventPageSize != 20 {
		t.Errorf("page sizes = %d/%d, want 10/20", cfg.PageSize, cfg.EventPageSize)
	}
	if cfg.UsesRedis() {
		t.Errorf("UsesRedis() = true, want false without PULSE_REDIS_ADDR")
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v, want nil", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PULSE_POLL_INTERVAL", "2s")
	t.Setenv("PULSE_FAILURE_RATE", "0")
	t.Setenv("PULSE_REDIS_ADDR", "localhost:6379")
	t.Setenv("PULSE_ALLOWED_ORIGINS", "http://a.test, 'http://b.test'")

	cfg := Load()

	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, 2*time.Second)
	}
	if cfg.FailureRate != 0 {
		t.Errorf("FailureRate = %v, want 0", cfg.FailureRate)
	}
	if !cfg.UsesRedis() {
		t.Errorf("UsesRedis() = false, want true")
	}
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoadPanicsOnInvalidCombination(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "failure rate above one", env: map[string]string{"PULSE_FAILURE_RATE": "1.5"}},
		{name: "negative failure rate", env: map[string]string{"PULSE_FAILURE_RATE": "-0.1"}},
		{name: "max delay below min", env: map[string]string{"PULSE_MIN_DELAY": "2s", "PULSE_MAX_DELAY": "1s"}},
		{name: "poll max delay below min", env: map[string]string{"PULSE_POLL_MIN_DELAY": "1s", "PULSE_POLL_MAX_DELAY": "1ms"}},
		{name: "retry cap below base", env: map[string]string{"PULSE_RETRY_BASE_DELAY": "10s", "PULSE_RETRY_MAX_DELAY": "1s"}},
		{name: "negative retries", env: map[string]string{"PULSE_QUERY_RETRIES": "-1"}},
		{name: "unparsable float", env: map[string]string{"PULSE_STATUS_CHANGE_RATE": "often"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestGetenvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      float64
		expected float64
	}{
		{name: "valid float", key: "TEST_FLOAT", value: "0.25", def: 0.1, expected: 0.25},
		{name: "missing variable uses default", key: "TEST_FLOAT_MISSING", value: "", def: 0.1, expected: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if got := getenvFloat(tt.key, tt.def); got != tt.expected {
				t.Errorf("getenvFloat() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	if err := os.Setenv("TEST_INT", "42"); err != nil {
		t.Fatalf("failed to set env var: %v", err)
	}
	defer func() {
		if err := os.Unsetenv("TEST_INT"); err != nil {
			t.Errorf("failed to unset env var: %v", err)
		}
	}()

	if got := getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %v, want %v", got, 42)
	}
	if got := getenvInt("TEST_INT_MISSING", 7); got != 7 {
		t.Errorf("getenvInt() = %v, want %v", got, 7)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{name: "empty", value: "", expected: nil},
		{name: "single value", value: "value1", expected: []string{"value1"}},
		{name: "multiple values", value: "value1, value2, value3", expected: []string{"value1", "value2", "value3"}},
		{name: "quoted and blank", value: `"a", ,'b'`, expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.value)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitAndTrim() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}
