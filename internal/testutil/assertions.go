package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API's uniform response shape.
type Envelope struct {
	Status  string          `json:"status"`
	Results *int            `json:"results"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// DecodeEnvelope reads the response body into an Envelope
func DecodeEnvelope(t *testing.T, resp *http.Response) Envelope {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env), "failed to unmarshal envelope: %s", string(body))
	return env
}

// AssertSuccessData decodes a success envelope's data field into v
func AssertSuccessData(t *testing.T, resp *http.Response, expectedStatus int, v interface{}) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")
	env := DecodeEnvelope(t, resp)
	require.Equal(t, "success", env.Status, "expected success envelope, got message %q", env.Message)
	require.NoError(t, json.Unmarshal(env.Data, v), "failed to unmarshal data: %s", string(env.Data))
}

// AssertErrorResponse verifies a fail/error envelope with expected status and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")
	env := DecodeEnvelope(t, resp)
	assert.NotEqual(t, "success", env.Status, "expected a non-success envelope")
	assert.Contains(t, env.Message, expectedMessage, "error message mismatch")
}
