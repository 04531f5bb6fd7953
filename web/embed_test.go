package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, c Console, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestConsoleRendersTargetAndProfile(t *testing.T) {
	c := Console{TargetURL: "https://chat.example.test/c/new", ProfileName: "School"}

	for _, path := range []string{"/", "/index.html"} {
		rr := serve(t, c, path)

		require.Equal(t, http.StatusOK, rr.Code, path)
		body := rr.Body.String()
		assert.Contains(t, body, `href="https://chat.example.test/c/new"`)
		assert.Contains(t, body, "<code>School</code>")
		assert.Contains(t, body, "/ws/run")
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	}
}

func TestConsoleEscapesSettings(t *testing.T) {
	rr := serve(t, Console{TargetURL: "https://chat.example.test/", ProfileName: "<script>x</script>"}, "/")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "<script>x</script>")
	assert.Contains(t, rr.Body.String(), "&lt;script&gt;x&lt;/script&gt;")
}

func TestConsoleUnknownPathIsNotFound(t *testing.T) {
	rr := serve(t, Console{}, "/some/client/route")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
