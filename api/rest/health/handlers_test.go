package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "codeberg.org/taleloom/server/internal/websocket"
	"codeberg.org/taleloom/server/taleloom/rooms"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := rooms.NewRegistry()
	hub := ws.NewHub(registry)

	router := gin.New()
	router.GET("/health", Handler(hub))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.ActiveUsers)
	assert.Equal(t, 0, body.ActiveRooms)
	assert.False(t, body.Timestamp.IsZero())
}

func TestHealthHandlerCountsRooms(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := rooms.NewRegistry()
	hub := ws.NewHub(registry)

	registry.GetOrCreate("r1", "s1")
	registry.GetOrCreate("r2", "s2")

	router := gin.New()
	router.GET("/health", Handler(hub))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.ActiveRooms)
}

func TestPingHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/ping", PingHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
