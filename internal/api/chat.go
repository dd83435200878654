package api

import (
	"context"
	"log/slog"
	"net/http"

	"comics-blog/internal/chat"
	"comics-blog/pkg/api"

	"github.com/go-chi/chi/v5"
)

type Gateway interface {
	Handle(ctx context.Context, msg chat.ChatMessage) chat.ChatResponse
}

type ChatService struct {
	gateway  Gateway
	renderer Renderer
}

func NewChatService(gateway Gateway, renderer Renderer) *ChatService {
	return &ChatService{gateway: gateway, renderer: renderer}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Get("/chatbot/", s.ChatbotPage)
	r.Post("/chatbot/", RestHandler(s.ChatbotView))
	r.Post("/api/chatbot", RestHandler(s.Chatbot))
}

func (s *ChatService) ChatbotPage(w http.ResponseWriter, r *http.Request) {
	render(w, s.renderer, "chatbot.html", nil)
}

// message runs the gateway. A chat failure is not an HTTP failure, the
// response body reports it instead.
func (s *ChatService) message(r *http.Request) (chat.ChatResponse, error) {
	form, err := ParseRequestForm[api.ChatForm](r)
	if err != nil {
		return chat.ChatResponse{}, err
	}

	mode, err := chat.ParseMode(form.Mode)
	if err != nil && form.Mode != "" {
		slog.Warn("unknown chat mode requested, using default", "mode", form.Mode)
	}

	res := s.gateway.Handle(r.Context(), chat.ChatMessage{Text: form.Message, Mode: mode})
	return res, nil
}

func (s *ChatService) ChatbotView(r *http.Request) (any, error) {
	res, err := s.message(r)
	if err != nil {
		return nil, err
	}

	return api.ChatbotViewResponse{
		Message:   res.OriginalMessage,
		Response:  res.AnswerText,
		Succeeded: res.Succeeded,
	}, nil
}

func (s *ChatService) Chatbot(r *http.Request) (any, error) {
	res, err := s.message(r)
	if err != nil {
		return nil, err
	}

	return api.ChatbotResponse{
		Response:  res.AnswerText,
		Succeeded: res.Succeeded,
	}, nil
}
