package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spacesedan/sentimas/internal/models"
)

const openAISystemPrompt = `Eres un clasificador de sentimiento para comentarios en español de redes sociales.
Responde solo con un objeto JSON con las claves "POS", "NEU" y "NEG".
Cada valor es la probabilidad de esa clase entre 0 y 1 y las tres suman 1.`

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICapability asks a chat model for the three class probabilities.
type OpenAICapability struct {
	client chatCompleter
	model  string
}

func NewOpenAICapability(client chatCompleter, model string) (*OpenAICapability, error) {
	if client == nil {
		return nil, &InitializationError{Backend: "openai", Err: errors.New("nil chat client")}
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICapability{client: client, model: model}, nil
}

func (o *OpenAICapability) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: truncateWords(text, maxInputWords)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	var probs map[string]float64
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &probs); err != nil {
		return nil, fmt.Errorf("decoding model answer %q: %w", content, err)
	}

	out := make([]models.LabelScore, 0, len(probs))
	for label, score := range probs {
		out = append(out, models.LabelScore{Label: label, Score: score})
	}
	return out, nil
}
