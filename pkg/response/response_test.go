package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSuccessWritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("request_id", "rid-1")

	Success(c, 0, gin.H{"ok": true}, "done", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rid-1", body["request_id"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"ok": true}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestAbortStopsChain(t *testing.T) {
	r := gin.New()
	reached := false
	r.GET("/", func(c *gin.Context) {
		Abort(c, http.StatusUnauthorized, "unauthorized", nil)
	}, func(c *gin.Context) {
		reached = true
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
