package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HFParams defines Hugging Face inference client parameters
type HFParams struct {
	Endpoint        string
	Token           string
	SummaryModel    string
	ClassifierModel string
	Timeout         time.Duration
}

// HFClient calls hosted summarization and zero-shot classification pipelines
type HFClient struct {
	HFParams
	client *http.Client
}

// NewHFClient makes Hugging Face inference client
func NewHFClient(params HFParams) *HFClient {
	if params.Endpoint == "" {
		params.Endpoint = "https://api-inference.huggingface.co"
	}
	if params.SummaryModel == "" {
		params.SummaryModel = "facebook/bart-large-cnn"
	}
	if params.ClassifierModel == "" {
		params.ClassifierModel = "facebook/bart-large-mnli"
	}
	if params.Timeout == 0 {
		params.Timeout = 60 * time.Second
	}
	params.Endpoint = strings.TrimSuffix(params.Endpoint, "/")
	return &HFClient{HFParams: params, client: &http.Client{Timeout: params.Timeout}}
}

// Summarize returns abstractive summary of the text
func (h *HFClient) Summarize(ctx context.Context, text string, params SummaryParams) (string, error) {
	req := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"max_length": params.MaxLength,
			"min_length": params.MinLength,
			"do_sample":  params.DoSample,
		},
		"options": map[string]any{"wait_for_model": true},
	}
	var resp []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := h.post(ctx, h.SummaryModel, req, &resp); err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if len(resp) == 0 || strings.TrimSpace(resp[0].SummaryText) == "" {
		return "", fmt.Errorf("summarize: empty response from %s", h.SummaryModel)
	}
	return strings.TrimSpace(resp[0].SummaryText), nil
}

// Classify ranks candidate labels for the text using zero-shot classification
func (h *HFClient) Classify(ctx context.Context, text string, labels []string, template string, multiLabel bool) (Ranking, error) {
	req := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"candidate_labels":    labels,
			"hypothesis_template": template,
			"multi_label":         multiLabel,
		},
		"options": map[string]any{"wait_for_model": true},
	}
	var resp struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := h.post(ctx, h.ClassifierModel, req, &resp); err != nil {
		return Ranking{}, fmt.Errorf("classify: %w", err)
	}
	if len(resp.Labels) == 0 || len(resp.Labels) != len(resp.Scores) {
		return Ranking{}, fmt.Errorf("classify: %w", ErrNoLabels)
	}
	return sortRanking(Ranking{Labels: resp.Labels, Scores: resp.Scores}), nil
}

func (h *HFClient) post(ctx context.Context, model string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint+"/models/"+model, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", model, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			return fmt.Errorf("model %s returned %d: %s", model, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("model %s returned %d", model, resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
