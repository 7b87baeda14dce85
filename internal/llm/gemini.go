package llm

import (
	"context"
	"fmt"
	"strings"

	"meal-planner-dashboard/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	geminiModel = "gemini-2.0-flash"

	// maxToolRounds bounds the tool-call loop so a misbehaving model
	// cannot spin forever.
	maxToolRounds = 5
)

// GeminiClient talks to the Google Gemini API. It implements both
// TextGenerator and ToolAgent.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// GenerateContent sends a plain prompt and returns the generated text.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	model := c.client.GenerativeModel(geminiModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}
	return ContentResponse{Content: text, Usage: usage(resp)}, nil
}

// Run drives a tool-calling conversation: the model's function calls are
// executed through exec and their results fed back until the model
// answers in text or the round limit is hit.
func (c *GeminiClient) Run(ctx context.Context, system, message string, tools []ToolDef, exec ToolExecutor) (ContentResponse, error) {
	model := c.client.GenerativeModel(geminiModel)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: declarations(tools)}}
	}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to send message: %w", err)
	}

	total := usage(resp)
	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, execErr := exec(call.Name, call.Args)
			if execErr != nil {
				result = map[string]any{"success": false, "error": execErr.Error()}
			}
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: result})
		}

		resp, err = session.SendMessage(ctx, replies...)
		if err != nil {
			return ContentResponse{}, fmt.Errorf("failed to send tool results: %w", err)
		}
		add(&total, usage(resp))
	}

	text := responseText(resp)
	if text == "" {
		text = "Done — documents updated."
	}
	return ContentResponse{Content: text, Usage: total}, nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func declarations(tools []ToolDef) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		props := make(map[string]*genai.Schema, len(tool.Params))
		var required []string
		for _, p := range tool.Params {
			props[p.Name] = &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}
	return decls
}

func schemaType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if call, ok := part.(genai.FunctionCall); ok {
				calls = append(calls, call)
			}
		}
	}
	return calls
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func usage(resp *genai.GenerateContentResponse) shared.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return shared.TokenUsage{Model: geminiModel}
	}
	return shared.TokenUsage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		Model:            geminiModel,
	}
}

func add(total *shared.TokenUsage, u shared.TokenUsage) {
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
}
