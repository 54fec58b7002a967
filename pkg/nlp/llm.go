package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// LLMParams defines OpenAI-compatible client parameters
type LLMParams struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// LLMClient summarizes and classifies with a chat completion model, temperature 0
type LLMClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

const summarizePrompt = `You write short neutral summaries of news articles.
Write the summary in the same language as the article. Return only the summary text, no preface.`

const classifyPrompt = `You classify news articles into exactly one of the candidate categories.
Respond with JSON object {"label": "<category>", "score": <confidence from 0 to 1>}.
The label must be one of the candidates, spelled exactly as given.`

// NewLLMClient makes OpenAI-compatible client
func NewLLMClient(params LLMParams) *LLMClient {
	clientConfig := openai.DefaultConfig(params.APIKey)
	if params.Endpoint != "" {
		clientConfig.BaseURL = params.Endpoint
	}
	if params.Model == "" {
		params.Model = "gpt-4o-mini"
	}
	if params.Timeout == 0 {
		params.Timeout = 30 * time.Second
	}
	return &LLMClient{client: openai.NewClientWithConfig(clientConfig), model: params.Model, timeout: params.Timeout}
}

// Summarize asks the model for a summary within length bounds, bounds are passed as word counts
func (l *LLMClient) Summarize(ctx context.Context, text string, params SummaryParams) (string, error) {
	prompt := fmt.Sprintf("Summarize the article in %d to %d words.\n\nArticle:\n%s", params.MinLength, params.MaxLength, text)
	content, err := l.complete(ctx, summarizePrompt, prompt, false)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if content == "" {
		return "", errors.New("summarize: empty response")
	}
	return content, nil
}

// Classify asks the model to pick one label. The result has single label, multiLabel is not supported.
func (l *LLMClient) Classify(ctx context.Context, text string, labels []string, template string, _ bool) (Ranking, error) {
	var sb strings.Builder
	sb.WriteString("Candidate categories: ")
	sb.WriteString(strings.Join(labels, ", "))
	sb.WriteString("\n")
	if template != "" {
		sb.WriteString("Pick the category that makes this statement most true: ")
		sb.WriteString(strings.ReplaceAll(template, "{}", "<category>"))
		sb.WriteString("\n")
	}
	sb.WriteString("\nArticle:\n")
	sb.WriteString(text)

	content, err := l.complete(ctx, classifyPrompt, sb.String(), true)
	if err != nil {
		return Ranking{}, fmt.Errorf("classify: %w", err)
	}
	label, score, err := parseClassification(content, labels)
	if err != nil {
		return Ranking{}, fmt.Errorf("classify: %w", err)
	}
	return Ranking{Labels: []string{label}, Scores: []float64{score}}, nil
}

func (l *LLMClient) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       l.model,
		Temperature: math.SmallestNonzeroFloat32, // zero is omitted from request and means default
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := l.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from llm")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// parseClassification extracts label and score from model json, label matched to candidates ignoring case
func parseClassification(content string, labels []string) (label string, score float64, err error) {
	start, end := strings.Index(content, "{"), strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", 0, fmt.Errorf("no json object found in %q", content)
	}
	var resp struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &resp); err != nil {
		return "", 0, fmt.Errorf("failed to parse json: %w", err)
	}
	for _, l := range labels {
		if strings.EqualFold(l, strings.TrimSpace(resp.Label)) {
			return l, min(max(resp.Score, 0), 1), nil
		}
	}
	return "", 0, fmt.Errorf("label %q is not a candidate: %w", resp.Label, ErrNoLabels)
}
