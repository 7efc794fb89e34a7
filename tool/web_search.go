package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/inverlab/finagent/logging"
)

// WebSearchNotConfiguredMessage is returned when no API key is set. Returned
// as regular output so the reasoner can explain the limitation instead of
// failing the exchange.
const WebSearchNotConfiguredMessage = "Chave de API do Tavily não configurada."

const defaultTavilyEndpoint = "https://api.tavily.com/search"

// WebSearchTool searches the public web through the Tavily API and renders
// the top results as labeled text blocks.
type WebSearchTool struct {
	apiKey     string
	endpoint   string
	maxResults int
	httpClient *http.Client
	logger     logging.Logger
}

// WebSearchOptions configure the Tavily client.
type WebSearchOptions struct {
	// Endpoint overrides the Tavily search URL, mainly for tests.
	Endpoint string
	// MaxResults caps the number of results rendered.
	MaxResults int
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Logger receives request diagnostics.
	Logger logging.Logger
}

// NewWebSearchTool builds the tool. An empty apiKey is allowed; calls then
// return WebSearchNotConfiguredMessage.
func NewWebSearchTool(apiKey string, optFns ...func(o *WebSearchOptions)) *WebSearchTool {
	opts := WebSearchOptions{
		Endpoint:   defaultTavilyEndpoint,
		MaxResults: 3,
		HTTPClient: http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &WebSearchTool{
		apiKey:     apiKey,
		endpoint:   opts.Endpoint,
		maxResults: opts.MaxResults,
		httpClient: opts.HTTPClient,
		logger:     logging.OrNoOp(opts.Logger),
	}
}

// Name implements Tool.
func (t *WebSearchTool) Name() string { return "search_web" }

// Description implements Tool.
func (t *WebSearchTool) Description() string {
	return "Executa uma busca na internet para informações públicas e atuais: notícias, " +
		"cotações do dia, eventos recentes. Use quando os documentos internos não cobrem a pergunta."
}

// Parameters implements Tool.
func (t *WebSearchTool) Parameters() map[string]any {
	return StringParameter("query", "Termos de busca")
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Call implements Tool.
func (t *WebSearchTool) Call(ctx context.Context, args map[string]any) (string, error) {
	if t.apiKey == "" {
		return WebSearchNotConfiguredMessage, nil
	}
	query, _ := args["query"].(string)

	body, err := json.Marshal(tavilyRequest{APIKey: t.apiKey, Query: query, MaxResults: t.maxResults})
	if err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("encode request: %v", err), CodeExecution)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("build request: %v", err), CodeExecution)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("search request failed: %v", err), CodeExecution)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", NewToolError(t.Name(), fmt.Sprintf("search returned status %d", resp.StatusCode), CodeExecution)
	}

	var payload tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("decode response: %v", err), CodeExecution)
	}
	if len(payload.Results) == 0 {
		return "Nenhum resultado encontrado na web.", nil
	}

	var sb strings.Builder
	for i, r := range payload.Results {
		if i >= t.maxResults {
			break
		}
		fmt.Fprintf(&sb, "Title: %s\nURL: %s\nSnippet: %s\n", r.Title, r.URL, r.Content)
	}
	t.logger.Debug("web_search.ok", "query", query, "results", len(payload.Results))
	return sb.String(), nil
}
