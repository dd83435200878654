package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"comics-blog/pkg/api"

	"github.com/go-resty/resty/v2"
)

// ChatClient talks to the standalone chatbot endpoint of a running server.
type ChatClient struct {
	client *resty.Client
}

func NewChatClient(baseURL string, timeout time.Duration) *ChatClient {
	return &ChatClient{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
	}
}

func (c *ChatClient) Send(ctx context.Context, message, mode string) (api.ChatbotResponse, error) {
	form := map[string]string{"message": message}
	if mode != "" {
		form["mode"] = mode
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/api/chatbot")
	if err != nil {
		return api.ChatbotResponse{}, fmt.Errorf("error sending chat message: %w", err)
	}

	if !res.IsSuccess() {
		return api.ChatbotResponse{}, fmt.Errorf("chatbot returned status %d: %s", res.StatusCode(), res.String())
	}

	var out api.ChatbotResponse
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return api.ChatbotResponse{}, fmt.Errorf("error parsing chatbot response: %w", err)
	}

	return out, nil
}
