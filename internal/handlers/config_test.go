package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmi-backend/internal/config"
)

func TestPublicConfig(t *testing.T) {
	tests := []struct {
		name           string
		cfg            *config.Config
		wantConfigured bool
		wantPublicKey  string
	}{
		{
			"nothing configured",
			&config.Config{UpstreamProvider: config.ProviderHuggingFace},
			false,
			"null",
		},
		{
			"hugging face and paystack",
			&config.Config{UpstreamProvider: config.ProviderHuggingFace, HuggingFaceAPIKey: "hf_secret", PaystackPublicKey: "pk_test_1"},
			true,
			`"pk_test_1"`,
		},
		{
			"gemini key only counts for gemini",
			&config.Config{UpstreamProvider: config.ProviderHuggingFace, GeminiAPIKey: "g"},
			false,
			"null",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			NewConfigHandler(tc.cfg).PublicConfig(rr, httptest.NewRequest(http.MethodGet, "/api/public-config", nil))

			require.Equal(t, http.StatusOK, rr.Code)
			assert.NotContains(t, rr.Body.String(), "hf_secret")

			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))

			var configured bool
			require.NoError(t, json.Unmarshal(body["huggingFaceConfigured"], &configured))
			assert.Equal(t, tc.wantConfigured, configured)
			assert.Equal(t, tc.wantPublicKey, string(body["paystackPublicKey"]))
		})
	}
}

func TestPing(t *testing.T) {
	rr := httptest.NewRecorder()
	NewConfigHandler(&config.Config{PingMessage: "pong"}).Ping(rr, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())
}
