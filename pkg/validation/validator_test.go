package validation

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,pwd"`
	Price    *float64 `json:"price" binding:"omitempty,gte=0"`
	Title    string   `json:"title" binding:"shorttext"`
}

func bind(t *testing.T, body string) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Init()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var s sample
	err := c.ShouldBindJSON(&s)
	require.Error(t, err)
	return ToDetails(err)
}

func TestToDetails_UsesJSONNames(t *testing.T) {
	details := bind(t, `{"email":"nope","password":"short","price":-1}`)

	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be between 8 and 72 characters long", details["password"])
	assert.Equal(t, "must be at least 0", details["price"])
}

func TestToDetails_InvalidJSON(t *testing.T) {
	details := bind(t, `{"email":}`)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, details)
}

func TestToDetails_WrongType(t *testing.T) {
	details := bind(t, `{"email":"a@b.co","password":"longenough","price":"cheap"}`)
	assert.Equal(t, "must be a float64", details["price"])
}

func TestToDetails_Nil(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
}
