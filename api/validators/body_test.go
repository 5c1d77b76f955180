package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
)

type samplePayload struct {
	Name   string `json:"name" validate:"required,min=2"`
	Amount int    `json:"amount" validate:"min=1"`
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDecodeJSONBody(t *testing.T) {
	var dest samplePayload
	require.NoError(t, DecodeJSONBody(jsonRequest(`{"name":"ube","amount":3}`), &dest))
	assert.Equal(t, "ube", dest.Name)
	assert.Equal(t, 3, dest.Amount)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(jsonRequest(`{"name":"ube","amount":3,"extra":true}`), &dest)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyValidationDetails(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(jsonRequest(`{"name":"x","amount":0}`), &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "amount")
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10", nil)
	value, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, value)

	value, err = ParseQueryInt(req, "offset", 0, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, value)

	req = httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	_, err = ParseQueryInt(req, "limit", 25, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req = httptest.NewRequest(http.MethodGet, "/?limit=101", nil)
	_, err = ParseQueryInt(req, "limit", 25, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
