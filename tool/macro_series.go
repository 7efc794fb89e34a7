package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/inverlab/finagent/logging"
)

const defaultOlindaEndpoint = "https://olinda.bcb.gov.br/olinda/servico/Expectativas/versao/v1/odata/ExpectativasMercadoAnuais"

// MacroCacheTTL is the recommended cache policy for macro series lookups.
// Focus survey data changes at most weekly, so repeated lookups within a
// few hours serve the same payload.
const MacroCacheTTL = 5 * time.Hour

// MacroSeriesTool fetches market expectation series for Brazilian economic
// indicators from the central bank's Olinda OData service. For a given
// indicator it combines the last 12 months of survey history with the most
// recent forward projections and renders both as a JSON document.
type MacroSeriesTool struct {
	endpoint   string
	httpClient *http.Client
	logger     logging.Logger
	now        func() time.Time
}

// MacroSeriesOptions configure the Olinda client.
type MacroSeriesOptions struct {
	// Endpoint overrides the OData collection URL, mainly for tests.
	Endpoint string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Logger receives request diagnostics.
	Logger logging.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewMacroSeriesTool builds the tool.
func NewMacroSeriesTool(optFns ...func(o *MacroSeriesOptions)) *MacroSeriesTool {
	opts := MacroSeriesOptions{
		Endpoint:   defaultOlindaEndpoint,
		HTTPClient: http.DefaultClient,
		Now:        time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &MacroSeriesTool{
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
		logger:     logging.OrNoOp(opts.Logger),
		now:        opts.Now,
	}
}

// Name implements Tool.
func (t *MacroSeriesTool) Name() string { return "macro_indicator_series" }

// Description implements Tool.
func (t *MacroSeriesTool) Description() string {
	return "Busca a série temporal de expectativas de mercado do Relatório Focus do Banco Central " +
		"do Brasil. Use para obter a evolução histórica recente e as projeções futuras de " +
		"indicadores econômicos brasileiros. Exemplos de indicador: 'IPCA', 'Selic', 'PIB', 'Câmbio'."
}

// Parameters implements Tool.
func (t *MacroSeriesTool) Parameters() map[string]any {
	return StringParameter("indicator", "Nome do indicador econômico, por exemplo 'IPCA' ou 'Selic'")
}

type olindaRow struct {
	Indicador      string  `json:"Indicador"`
	Data           string  `json:"Data"`
	DataReferencia string  `json:"DataReferencia"`
	Media          float64 `json:"Media"`
	Mediana        float64 `json:"Mediana"`
	DesvioPadrao   float64 `json:"DesvioPadrao"`
}

type olindaEnvelope struct {
	Value []olindaRow `json:"value"`
}

type historyPoint struct {
	SurveyDate    string  `json:"data_previsao"`
	ReferenceYear string  `json:"ano_referencia"`
	Mean          float64 `json:"media"`
}

type projectionPoint struct {
	ReferenceYear string  `json:"ano_projecao"`
	Mean          float64 `json:"media"`
	Median        float64 `json:"mediana"`
	StdDev        float64 `json:"desvio_padrao"`
}

type macroSeries struct {
	Indicator   string            `json:"indicador"`
	Summary     string            `json:"resumo"`
	History12M  []historyPoint    `json:"evolucao_recente_12m"`
	Projections []projectionPoint `json:"projecoes_proximos_anos"`
}

// Call implements Tool.
func (t *MacroSeriesTool) Call(ctx context.Context, args map[string]any) (string, error) {
	indicator, _ := args["indicator"].(string)

	history, err := t.fetchHistory(ctx, indicator)
	if err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("buscar histórico: %v", err), CodeExecution)
	}
	projections, err := t.fetchProjections(ctx, indicator)
	if err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("buscar projeções: %v", err), CodeExecution)
	}
	if len(history) == 0 && len(projections) == 0 {
		return fmt.Sprintf("Nenhum dado encontrado para o indicador '%s'.", indicator), nil
	}

	series := macroSeries{
		Indicator:   indicator,
		Summary:     fmt.Sprintf("Análise temporal para %s coletada em %s", indicator, t.now().Format("2006-01-02 15:04")),
		History12M:  history,
		Projections: projections,
	}
	out, err := json.Marshal(series)
	if err != nil {
		return "", NewToolError(t.Name(), fmt.Sprintf("encode series: %v", err), CodeExecution)
	}
	t.logger.Debug("macro_series.ok", "indicator", indicator, "history", len(history), "projections", len(projections))
	return string(out), nil
}

// fetchHistory returns the last 12 months of survey rows in ascending
// survey-date order.
func (t *MacroSeriesTool) fetchHistory(ctx context.Context, indicator string) ([]historyPoint, error) {
	since := t.now().AddDate(0, 0, -365).Format("2006-01-02")
	query := url.Values{
		"$top":     {"200"},
		"$filter":  {fmt.Sprintf("Indicador eq '%s' and Data ge '%s'", indicator, since)},
		"$orderby": {"Data asc"},
		"$format":  {"json"},
	}
	rows, err := t.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	points := make([]historyPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, historyPoint{
			SurveyDate:    r.Data,
			ReferenceYear: r.DataReferencia,
			Mean:          r.Media,
		})
	}
	return points, nil
}

// fetchProjections returns the projections from the most recent survey date,
// one row per reference year.
func (t *MacroSeriesTool) fetchProjections(ctx context.Context, indicator string) ([]projectionPoint, error) {
	query := url.Values{
		"$top":     {"5"},
		"$filter":  {fmt.Sprintf("Indicador eq '%s'", indicator)},
		"$orderby": {"Data desc,DataReferencia asc"},
		"$format":  {"json"},
	}
	rows, err := t.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	points := make([]projectionPoint, 0, len(rows))
	if len(rows) == 0 {
		return points, nil
	}
	latest := rows[0].Data
	for _, r := range rows {
		if r.Data != latest {
			continue
		}
		points = append(points, projectionPoint{
			ReferenceYear: r.DataReferencia,
			Mean:          r.Media,
			Median:        r.Mediana,
			StdDev:        r.DesvioPadrao,
		})
	}
	return points, nil
}

func (t *MacroSeriesTool) fetch(ctx context.Context, query url.Values) ([]olindaRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var envelope olindaEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}
