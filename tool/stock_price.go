package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/inverlab/finagent/logging"
)

// StockPriceNotConfiguredMessage is returned when no API key is set.
const StockPriceNotConfiguredMessage = "Chave da API Alpha Vantage não configurada."

const defaultAlphaVantageEndpoint = "https://www.alphavantage.co/query"

// StockPriceTool quotes the current price of an equity through the
// Alpha Vantage GLOBAL_QUOTE endpoint.
type StockPriceTool struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     logging.Logger
}

// StockPriceOptions configure the Alpha Vantage client.
type StockPriceOptions struct {
	// Endpoint overrides the query URL, mainly for tests.
	Endpoint string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Logger receives request diagnostics.
	Logger logging.Logger
}

// NewStockPriceTool builds the tool. An empty apiKey is allowed; calls then
// return StockPriceNotConfiguredMessage.
func NewStockPriceTool(apiKey string, optFns ...func(o *StockPriceOptions)) *StockPriceTool {
	opts := StockPriceOptions{
		Endpoint:   defaultAlphaVantageEndpoint,
		HTTPClient: http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &StockPriceTool{
		apiKey:     apiKey,
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
		logger:     logging.OrNoOp(opts.Logger),
	}
}

// Name implements Tool.
func (t *StockPriceTool) Name() string { return "stock_price" }

// Description implements Tool.
func (t *StockPriceTool) Description() string {
	return "Retorna o preço atual de uma ação. O símbolo deve incluir o sufixo do mercado " +
		"quando necessário, por exemplo 'BBAS3.SA' para a B3."
}

// Parameters implements Tool.
func (t *StockPriceTool) Parameters() map[string]any {
	return StringParameter("symbol", "Símbolo da ação, por exemplo 'BBAS3.SA' ou 'AAPL'")
}

type globalQuoteEnvelope struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

// Call implements Tool.
func (t *StockPriceTool) Call(ctx context.Context, args map[string]any) (string, error) {
	if t.apiKey == "" {
		return StockPriceNotConfiguredMessage, nil
	}
	symbol, _ := args["symbol"].(string)

	query := url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
		"apikey":   {t.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("build request: %v", err), CodeExecution)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("quote request failed: %v", err), CodeExecution)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", NewToolError(t.Name(), fmt.Sprintf("quote returned status %d", resp.StatusCode), CodeExecution)
	}

	var envelope globalQuoteEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("decode response: %v", err), CodeExecution)
	}
	price := envelope.GlobalQuote["05. price"]
	if price == "" {
		return fmt.Sprintf("Resposta inesperada para o símbolo '%s'.", symbol), nil
	}
	change := valueOr(envelope.GlobalQuote, "09. change", "N/A")
	percent := valueOr(envelope.GlobalQuote, "10. change percent", "N/A")
	t.logger.Debug("stock_price.ok", "symbol", symbol, "price", price)
	return fmt.Sprintf("Preço: %s USD\nVariação: %s (%s)", price, change, percent), nil
}

func valueOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}
