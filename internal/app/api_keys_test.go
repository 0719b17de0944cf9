package app

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cbmason/trainspotting/internal/appconf"
)

func TestIsInvalidAPIKey(t *testing.T) {
	app := &Application{Config: appconf.Config{ApiKeys: []string{"alpha", "beta"}}}

	tests := []struct {
		name    string
		key     string
		invalid bool
	}{
		{"first key", "alpha", false},
		{"second key", "beta", false},
		{"unknown key", "gamma", true},
		{"empty key", "", true},
		{"prefix of a key", "alp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.invalid, app.IsInvalidAPIKey(tt.key))
		})
	}
}

func TestIsInvalidAPIKey_OpenWhenNoKeysConfigured(t *testing.T) {
	app := &Application{}

	assert.False(t, app.APIKeysRequired())
	assert.False(t, app.IsInvalidAPIKey(""))
	assert.False(t, app.RequestHasInvalidAPIKey(httptest.NewRequest("GET", "/api/lines", nil)))
}

func TestRequestHasInvalidAPIKey(t *testing.T) {
	app := &Application{Config: appconf.Config{ApiKeys: []string{"alpha"}}}

	assert.False(t, app.RequestHasInvalidAPIKey(httptest.NewRequest("GET", "/api/lines?key=alpha", nil)))
	assert.True(t, app.RequestHasInvalidAPIKey(httptest.NewRequest("GET", "/api/lines?key=nope", nil)))
	assert.True(t, app.RequestHasInvalidAPIKey(httptest.NewRequest("GET", "/api/lines", nil)))
}
