package tool

import (
	"context"
	"strings"

	"github.com/inverlab/finagent/retrieval"
)

// NoDocumentsMessage is returned when no indexed passage clears the
// similarity threshold. It is phrased for the reasoner, not the end user.
const NoDocumentsMessage = "Nenhuma informação relevante encontrada nos documentos internos."

// DocumentSearchTool answers queries against the internal document store.
// Degraded retrieval (embedder or store failure) surfaces as the no-results
// message rather than an error, so the reasoner can fall back to other
// capabilities.
type DocumentSearchTool struct {
	store     *retrieval.Store
	threshold float64
	topK      int
}

// DocumentSearchOptions configure the retrieval pass.
type DocumentSearchOptions struct {
	// Threshold is the minimum cosine similarity for a passage to count.
	Threshold float64
	// TopK caps the number of passages returned.
	TopK int
}

// NewDocumentSearchTool builds the tool over a retrieval store.
func NewDocumentSearchTool(store *retrieval.Store, optFns ...func(o *DocumentSearchOptions)) *DocumentSearchTool {
	opts := DocumentSearchOptions{
		Threshold: retrieval.DefaultMatchThreshold,
		TopK:      retrieval.DefaultTopK,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &DocumentSearchTool{store: store, threshold: opts.Threshold, topK: opts.TopK}
}

// Name implements Tool.
func (t *DocumentSearchTool) Name() string { return "search_internal_documents" }

// Description implements Tool.
func (t *DocumentSearchTool) Description() string {
	return "Busca informações nos documentos internos da firma: relatórios Focus, atas do COPOM, " +
		"teses de investimento e análises proprietárias. Use para perguntas sobre projeções " +
		"macroeconômicas, decisões do Banco Central e posicionamento da casa."
}

// Parameters implements Tool.
func (t *DocumentSearchTool) Parameters() map[string]any {
	return StringParameter("query", "Pergunta ou termos de busca em linguagem natural")
}

// Call implements Tool. Matching passages are concatenated in similarity
// order, separated by blank lines.
func (t *DocumentSearchTool) Call(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	matches := t.store.Search(ctx, query, t.threshold, t.topK)
	if len(matches) == 0 {
		return NoDocumentsMessage, nil
	}
	passages := make([]string, 0, len(matches))
	for _, m := range matches {
		passages = append(passages, m.Content)
	}
	return strings.Join(passages, "\n\n"), nil
}
