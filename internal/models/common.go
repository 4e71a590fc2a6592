package models

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Details   interface{}       `json:"details,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// PublicConfig tells the frontend which integrations are usable without exposing secrets.
type PublicConfig struct {
	HuggingFaceConfigured bool    `json:"huggingFaceConfigured"`
	PaystackPublicKey     *string `json:"paystackPublicKey"`
	UpstreamProvider      string  `json:"upstreamProvider"`
}
