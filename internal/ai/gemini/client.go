package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/recruit-panel/internal/ai"

	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

type modelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator is an ai.Backend on top of the Google GenAI client.
type Generator struct {
	models    modelsClient
	modelName string
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, model), nil
}

func newGenerator(models modelsClient, model string) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Generator{models: models, modelName: model}
}

func (g *Generator) Name() string { return ProviderName }

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

// Complete maps the chat messages onto Gemini contents. System messages are
// merged into the system instruction.
func (g *Generator) Complete(ctx context.Context, req ai.Request) (ai.Completion, error) {
	if g == nil || g.models == nil {
		return ai.Completion{}, errors.New("gemini generator is not initialized")
	}

	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		switch msg.Role {
		case ai.RoleSystem:
			system = append(system, text)
		case ai.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}})
		}
	}
	if len(contents) == 0 {
		return ai.Completion{}, errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}

	model := g.modelName
	if m := strings.TrimSpace(req.Model); m != "" {
		model = m
	}

	resp, err := g.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return ai.Completion{}, fmt.Errorf("generate content: %w", err)
	}

	output := collectText(resp)
	if output == "" {
		return ai.Completion{}, errors.New("gemini api returned empty response")
	}

	completion := ai.Completion{Content: output}
	if resp.UsageMetadata != nil {
		completion.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return completion, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
