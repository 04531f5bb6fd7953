package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/promptrelay/internal/domain"
)

func newInspectRouter() http.Handler {
	r := chi.NewRouter()
	NewInspectHandler(NewHandler(&fakeRunner{}, Options{
		Input:            domain.Strategy{domain.CSS("textarea"), domain.CSS("div[contenteditable='true']")},
		SendButtons:      domain.Strategy{domain.CSS("button[aria-label*='Send']")},
		Messages:         domain.Strategy{domain.CSS(".message")},
		ExtractMinLength: 30,
	}, nil)).RegisterRoutes(r)
	return r
}

func inspect(t *testing.T, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rr := httptest.NewRecorder()
	newInspectRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/debug/inspect", strings.NewReader(body)))
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got), rr.Body.String())
	return rr, got
}

func TestInspectFindsInputAndReply(t *testing.T) {
	html := `<div class="message">short</div>` +
		`<div class="message">This reply is long enough to pass the extractor threshold.</div>` +
		`<textarea disabled></textarea><div contenteditable="true"></div>` +
		`<button aria-label="Send prompt">Send</button>`
	body, err := json.Marshal(map[string]string{"html": html})
	require.NoError(t, err)

	rr, got := inspect(t, string(body))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "css:div[contenteditable='true']", got["input_selector"])
	assert.Equal(t, "css:button[aria-label*='Send']", got["send_selector"])
	assert.Equal(t, "This reply is long enough to pass the extractor threshold.", got["output"])
}

func TestInspectNothingFound(t *testing.T) {
	rr, got := inspect(t, `{"html":"<p>empty page</p>"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, got["input_selector"])
	assert.Equal(t, "", got["output"])
}

func TestInspectRejectsEmptyHTML(t *testing.T) {
	rr, got := inspect(t, `{"html":"  "}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "HTML is empty.", got["detail"])
}
