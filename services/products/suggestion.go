package products

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
	"github.com/matheusmosca/inventory-invoicing/pkg/config"
)

const (
	suggestionModel       = "gpt-4o-mini"
	suggestionTemperature = 0.7
	suggestionInstruction = "You are helping an inventory clerk register products. " +
		"Suggest exactly one short, commercial product name for the description below. " +
		"Reply with the product name only, without quotes or extra text.\n\nDescription: %s"
)

// SuggestionGateway sugere o nome de um produto a partir de um texto livre
type SuggestionGateway interface {
	Suggest(ctx context.Context, prompt string) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatCompletionGateway chama uma API compatível com /chat/completions
type ChatCompletionGateway struct {
	client  *resty.Client
	apiKey  string
	baseURL string
}

// NewChatCompletionGateway recebe a configuração já carregada na inicialização
func NewChatCompletionGateway(cfg config.SuggestionConfig) *ChatCompletionGateway {
	return &ChatCompletionGateway{
		client:  resty.New().SetTimeout(cfg.Timeout),
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (g *ChatCompletionGateway) Suggest(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", apperrors.Configuration("suggestion provider API key is not configured")
	}

	body := chatCompletionRequest{
		Model: suggestionModel,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(suggestionInstruction, prompt)},
		},
		Temperature: suggestionTemperature,
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(g.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(g.baseURL + "/chat/completions")
	if err != nil {
		return "", apperrors.Upstream("suggestion provider is unreachable", 0, "", err)
	}

	if !resp.IsSuccess() {
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode(),
			"body":   resp.String(),
		}).Error("❌ [SUGGEST] provider returned an error")
		// o status do provedor não é repassado ao navegador: sempre 500
		return "", apperrors.Upstream(
			fmt.Sprintf("suggestion provider returned status %d", resp.StatusCode()),
			0, resp.String(), nil,
		)
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", apperrors.Parse("suggestion provider returned malformed JSON", err)
	}
	if len(out.Choices) == 0 {
		return "", apperrors.Parse("suggestion provider returned no choices", nil)
	}

	suggestion := strings.Trim(strings.TrimSpace(out.Choices[0].Message.Content), `"'`)
	if suggestion == "" {
		return "", apperrors.Parse("suggestion provider returned an empty suggestion", nil)
	}

	return suggestion, nil
}
