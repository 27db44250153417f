package toolserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unified-thinking/internal/errs"
)

func TestListTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tools":["search","calculator"]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 0)
	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "calculator"}, tools)
}

func TestCallTool_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"result":{"answer":"42"}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 0)
	result, err := c.CallTool(context.Background(), "calculator", map[string]interface{}{"expr": "6*7"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "42", result.Result["answer"])
}

func TestCallTool_ServerErrorRetriesThenFails(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 2)
	_, err := c.CallTool(context.Background(), "calculator", nil)
	require.Error(t, err)
	assert.Equal(t, errs.BackendUnavailable, errs.KindOf(err))
	assert.Equal(t, 3, calls)
}

func TestHealth_UnreachableIsDown(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", 100*time.Millisecond, 0)
	assert.Equal(t, StatusDown, c.Health(context.Background()))
}
