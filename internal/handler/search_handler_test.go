package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newSearchTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, recorder
}

func TestSearchHandlerRequiresUserAndQuery(t *testing.T) {
	h := NewSearchHandler(nil)

	c, recorder := newSearchTestContext("/api/v1/search?q=x")
	h.Search(c)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "user_id and q are required")

	c, recorder = newSearchTestContext("/api/v1/search?user_id=u1")
	h.Search(c)
	require.Contains(t, recorder.Body.String(), "user_id and q are required")
}

func TestSearchHandlerRejectsBadLimit(t *testing.T) {
	h := NewSearchHandler(nil)
	c, recorder := newSearchTestContext("/api/v1/search?user_id=u1&q=x&limit=abc")
	h.Search(c)
	require.Contains(t, recorder.Body.String(), "invalid limit")
}

func TestSearchHandlerRejectsUnknownMode(t *testing.T) {
	h := NewSearchHandler(nil)
	c, recorder := newSearchTestContext("/api/v1/search?user_id=u1&q=x&search_mode=fuzzy")
	h.Search(c)
	require.Contains(t, recorder.Body.String(), "invalid search_mode")
}
