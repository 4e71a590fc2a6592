package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "CALMI_TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "CALMI_TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			assert.Equal(t, tc.expected, getEnvOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "CALMI_TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "CALMI_TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "CALMI_TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			assert.Equal(t, tc.expected, getEnvAsIntOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected time.Duration
	}{
		{"parses duration", "3s", 3 * time.Second},
		{"parses milliseconds", "2500", 2500 * time.Millisecond},
		{"rejects garbage", "soon", time.Second},
		{"rejects negative", "-5s", time.Second},
		{"uses default for empty", "", time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CALMI_TEST_DURATION", tc.envValue)

			assert.Equal(t, tc.expected, getEnvAsDurationOrDefault("CALMI_TEST_DURATION", time.Second))
		})
	}
}

func TestLoad_StartsWithoutCredentials(t *testing.T) {
	for _, key := range []string{"HUGGING_FACE_API_KEY", "GEMINI_API_KEY", "PAYSTACK_SECRET_KEY", "UPSTREAM_PROVIDER", "DATABASE_URL", "REDIS_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, ProviderHuggingFace, cfg.UpstreamProvider)
	assert.Empty(t, cfg.ActiveAPIKey())
	assert.Equal(t, "gpt2", cfg.DefaultModel())
	assert.Equal(t, 2500*time.Millisecond, cfg.UpstreamRetryDelay)
}

func TestLoad_GeminiProvider(t *testing.T) {
	t.Setenv("UPSTREAM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("HUGGING_FACE_API_KEY", "hf-key")

	cfg := Load()

	assert.Equal(t, ProviderGemini, cfg.UpstreamProvider)
	assert.Equal(t, "g-key", cfg.ActiveAPIKey())
}

func TestLoad_UnknownProviderFallsBackToHuggingFace(t *testing.T) {
	t.Setenv("UPSTREAM_PROVIDER", "something-else")

	cfg := Load()

	assert.Equal(t, ProviderHuggingFace, cfg.UpstreamProvider)
}
