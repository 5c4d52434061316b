package portdir

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/portpulse/server/internal/config"
)

func TestPort_Found(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ports/SGSIN", r.URL.Path)
		fmt.Fprint(w, `{"code":"SGSIN","name":"Singapore","country":"SG","lat":1.2644,"lon":103.8217}`)
	}))
	defer server.Close()

	client := NewClient(config.ServiceConfig{URL: server.URL})
	port, err := client.Port(context.Background(), "SGSIN")
	require.NoError(t, err)

	assert.Equal(t, "SGSIN", port.Code)
	assert.Equal(t, "Singapore", port.Name)
	require.NotNil(t, port.Position)
	assert.Equal(t, 1.2644, port.Position.Latitude)
}

func TestPort_WithoutCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"XXINL","name":"Inland Depot","country":"XX"}`)
	}))
	defer server.Close()

	client := NewClient(config.ServiceConfig{URL: server.URL})
	port, err := client.Port(context.Background(), "XXINL")
	require.NoError(t, err)

	// Known port, but not evaluable: Position stays nil, never defaulted
	assert.Nil(t, port.Position)
}

func TestPort_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(config.ServiceConfig{URL: server.URL})
	_, err := client.Port(context.Background(), "ZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}
