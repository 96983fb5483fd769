// Package client provides unit tests for the partsdesk API client.
//
// The tests use httptest to create a mock server that simulates the API,
// allowing the client to be tested without requiring an actual API server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsdesk/partsdesk/internal/services"
	"github.com/partsdesk/partsdesk/pkg/api/v1/handlers"
	"github.com/partsdesk/partsdesk/pkg/api/v1/routes"
)

// TestNewClient tests the NewClient function with various configurations.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name       string
		opts       *Options
		wantErr    bool
		validateFn func(t *testing.T, client Client)
	}{
		{
			name:    "nil options",
			opts:    nil,
			wantErr: false,
			validateFn: func(t *testing.T, client Client) {
				apiClient, ok := client.(*APIClient)
				assert.True(t, ok, "client should be an *APIClient")

				expectedDefaults := DefaultOptions()
				assert.Equal(t, expectedDefaults.BaseURL, apiClient.baseURL)
				assert.Equal(t, expectedDefaults.Timeout, apiClient.timeout)
			},
		},
		{
			name: "valid options",
			opts: &Options{
				BaseURL: "http://example.com/",
				Timeout: 10 * time.Second,
			},
			wantErr: false,
			validateFn: func(t *testing.T, client Client) {
				apiClient, ok := client.(*APIClient)
				assert.True(t, ok, "client should be an *APIClient")

				assert.Equal(t, "http://example.com", apiClient.baseURL)
				assert.Equal(t, 10*time.Second, apiClient.timeout)
			},
		},
		{
			name: "invalid base URL",
			opts: &Options{
				BaseURL: "://invalid-url",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, client)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, client)
			if tt.validateFn != nil {
				tt.validateFn(t, client)
			}
		})
	}
}

// setupTestServer creates a mock HTTP server for testing the client.
// It provides several endpoints that simulate different API responses:
// - /success: Returns a successful slug response
// - /plain: Returns a successful plain JSON response
// - /error: Returns a 400 Bad Request error with a plain body
// - /conflict: Returns a 409 slug response
// - /invalid-json: Returns malformed JSON to test error handling
// - Any other path: Returns a 404 Not Found error
func setupTestServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/success":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"slug":"success","data":{"id":1,"status":"success"}}`))
		case "/plain":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id": 1, "status": "success"}`))
		case "/error":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("Invalid request"))
		case "/conflict":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"slug":"conflict","error":"part ID must be unique"}`))
		case "/invalid-json":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{invalid json`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

type testResponse struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

// TestAPIClient_doRequest tests decoding and error handling of raw responses
func TestAPIClient_doRequest(t *testing.T) {
	server := setupTestServer()
	defer server.Close()

	client, err := NewClient(&Options{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	apiClient := client.(*APIClient)

	t.Run("success", func(t *testing.T) {
		agent, err := apiClient.createAgent(context.Background(), http.MethodGet, "/plain", nil)
		require.NoError(t, err)

		var response testResponse
		err = apiClient.doRequest(agent, &response)
		assert.NoError(t, err)
		assert.Equal(t, uint(1), response.ID)
		assert.Equal(t, "success", response.Status)
	})

	t.Run("error response", func(t *testing.T) {
		agent, err := apiClient.createAgent(context.Background(), http.MethodGet, "/error", nil)
		require.NoError(t, err)

		var response testResponse
		err = apiClient.doRequest(agent, &response)
		assert.Error(t, err)

		var fiberErr *fiber.Error
		assert.True(t, errors.As(err, &fiberErr))
		assert.Equal(t, http.StatusBadRequest, fiberErr.Code)
		assert.Equal(t, "Invalid request", fiberErr.Message)
	})

	t.Run("slug error response", func(t *testing.T) {
		agent, err := apiClient.createAgent(context.Background(), http.MethodGet, "/conflict", nil)
		require.NoError(t, err)

		err = apiClient.doRequest(agent, nil)
		var fiberErr *fiber.Error
		require.True(t, errors.As(err, &fiberErr))
		assert.Equal(t, http.StatusConflict, fiberErr.Code)
		assert.Equal(t, "part ID must be unique", fiberErr.Message)
	})

	t.Run("invalid json", func(t *testing.T) {
		agent, err := apiClient.createAgent(context.Background(), http.MethodGet, "/invalid-json", nil)
		require.NoError(t, err)

		var response testResponse
		err = apiClient.doRequest(agent, &response)
		assert.Error(t, err)

		var fiberErr *fiber.Error
		assert.False(t, errors.As(err, &fiberErr))
		assert.Contains(t, err.Error(), "error decoding response")
	})

	t.Run("not found", func(t *testing.T) {
		agent, err := apiClient.createAgent(context.Background(), http.MethodGet, "/not-found", nil)
		require.NoError(t, err)

		err = apiClient.doRequest(agent, &testResponse{})
		var fiberErr *fiber.Error
		assert.True(t, errors.As(err, &fiberErr))
		assert.Equal(t, http.StatusNotFound, fiberErr.Code)
	})
}

// TestAPIClient_executeRequest tests unwrapping of the slug envelope
func TestAPIClient_executeRequest(t *testing.T) {
	server := setupTestServer()
	defer server.Close()

	client, err := NewClient(&Options{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	apiClient := client.(*APIClient)

	var response testResponse
	require.NoError(t, apiClient.executeRequest(context.Background(), http.MethodGet, "/success", nil, &response))
	assert.Equal(t, uint(1), response.ID)

	err = apiClient.executeRequest(context.Background(), http.MethodGet, "/plain", nil, &response)
	assert.ErrorContains(t, err, "unexpected response slug")
}

// TestAPIClient_createAgent tests the createAgent method of the APIClient.
func TestAPIClient_createAgent(t *testing.T) {
	client, err := NewClient(&Options{BaseURL: "http://example.com"})
	require.NoError(t, err)
	apiClient := client.(*APIClient)

	t.Run("valid request", func(t *testing.T) {
		agent, err := apiClient.createAgent(context.Background(), http.MethodGet, "/test", nil)
		assert.NoError(t, err)
		assert.NotNil(t, agent)
	})

	t.Run("unsupported method", func(t *testing.T) {
		agent, err := apiClient.createAgent(context.Background(), "INVALID", "/test", nil)
		assert.Error(t, err)
		assert.Nil(t, agent)
		assert.Contains(t, err.Error(), "unsupported HTTP method")
	})

	t.Run("with body and deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		agent, err := apiClient.createAgent(ctx, http.MethodPost, "/test", map[string]interface{}{"name": "Resistor"})
		assert.NoError(t, err)
		assert.NotNil(t, agent)
	})
}

func TestExportBOMRejectsUnknownFormat(t *testing.T) {
	client, err := NewClient(nil)
	require.NoError(t, err)

	_, err = client.ExportBOM(context.Background(), "P1", services.ExportFormat("pdf"))
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestWatchBOM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, routes.StreamBOMURL("P1"), r.URL.Path)
		w.Header().Set("Content-Type", handlers.ContentTypeEventStream)
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, ": keepalive\n\n")
		_, _ = fmt.Fprint(w, "id: 0\nevent: bom\ndata: {\"projectId\":\"P1\",\"categories\":[],\"version\":0}\n\n")
		_, _ = fmt.Fprint(w, "event: other\ndata: {\"projectId\":\"ignored\"}\n\n")
		_, _ = fmt.Fprint(w, "id: 2\nevent: bom\ndata: {\"projectId\":\"P1\",\"categories\":[{\"name\":\"Sensors\",\"items\":[],\"isExpanded\":true}],\"version\":2}\n\n")
	}))
	defer server.Close()

	client, err := NewClient(&Options{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	var updates []services.BOMUpdate
	err = client.WatchBOM(context.Background(), "P1", func(u services.BOMUpdate) {
		updates = append(updates, u)
	})
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, uint64(0), updates[0].Version)
	assert.Empty(t, updates[0].Categories)
	assert.Equal(t, uint64(2), updates[1].Version)
	assert.Equal(t, "Sensors", updates[1].Categories[0].Name)
}

func TestSendPurchaseOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != routes.SendPurchaseOrderURL() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"smtp down"}`))
	}))
	defer server.Close()

	client, err := NewClient(&Options{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	resp, err := client.SendPurchaseOrder(context.Background(), "buyer@example.com")
	require.Error(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "smtp down", resp.Error)

	var fiberErr *fiber.Error
	require.True(t, errors.As(err, &fiberErr))
	assert.Equal(t, http.StatusInternalServerError, fiberErr.Code)
}
