package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"comics-blog/internal/chat"
	pkgapi "comics-blog/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompletion struct {
	answer string
	err    error
	texts  []string
}

func (s *stubCompletion) Complete(ctx context.Context, text string) (string, error) {
	s.texts = append(s.texts, text)
	return s.answer, s.err
}

type stubGrounded struct {
	answer string
}

func (s *stubGrounded) Answer(ctx context.Context, text string) (string, error) {
	return s.answer, nil
}

func chatRouter(t *testing.T, completion chat.CompletionBackend, grounded chat.GroundedQueryBackend) chi.Router {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	gateway := chat.NewGateway(completion, grounded, chat.GatewayOptions{DefaultMode: chat.ModeDirect})
	router := chi.NewRouter()
	NewChatService(gateway, renderer).AddRoutes(router)
	return router
}

func postForm(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChatbotView(t *testing.T) {
	completion := &stubCompletion{answer: "hi there"}
	router := chatRouter(t, completion, nil)

	rec := postForm(router, "/chatbot/", url.Values{"message": {"hello"}, "csrfmiddlewaretoken": {"abc"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.ChatbotViewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, pkgapi.ChatbotViewResponse{Message: "hello", Response: "hi there", Succeeded: true}, res)
	assert.Equal(t, []string{"hello"}, completion.texts)
}

func TestChatbotStandalone(t *testing.T) {
	router := chatRouter(t, &stubCompletion{answer: "direct"}, &stubGrounded{answer: "Iron Man #1, Thor #1"})

	rec := postForm(router, "/api/chatbot", url.Values{"message": {"list all titles"}, "mode": {"GROUNDED"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	var res map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, map[string]any{"response": "Iron Man #1, Thor #1", "succeeded": true}, res)
}

func TestChatbotFailureIsStill200(t *testing.T) {
	router := chatRouter(t, &stubCompletion{err: errors.New("connection refused")}, nil)

	rec := postForm(router, "/chatbot/", url.Values{"message": {"hello"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.ChatbotViewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.False(t, res.Succeeded)
	assert.True(t, strings.HasPrefix(res.Response, "Sorry, I couldn't process your request:"))
}

func TestChatbotEmptyMessage(t *testing.T) {
	completion := &stubCompletion{answer: "hi there"}
	router := chatRouter(t, completion, nil)

	rec := postForm(router, "/api/chatbot", url.Values{})
	assert.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.ChatbotResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, pkgapi.ChatbotResponse{Response: chat.EmptyInputMessage, Succeeded: false}, res)
	assert.Empty(t, completion.texts)
}

func TestChatbotMalformedForm(t *testing.T) {
	router := chatRouter(t, &stubCompletion{answer: "hi"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/chatbot/", strings.NewReader("message=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatbotPage(t *testing.T) {
	router := chatRouter(t, &stubCompletion{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/chatbot/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<form id="chat">`)
}
