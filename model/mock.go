package model

import (
	"context"
	"fmt"
	"math"
	"sync"
	"unicode"

	"github.com/inverlab/finagent/core"
)

// MockReasoner is a lightweight in-memory Reasoner useful for tests and
// examples. Responses are scripted with EnqueueAnswer / EnqueueToolCall and
// played back in order; once the script is exhausted it echoes the last user
// text.
type MockReasoner struct {
	mu     sync.Mutex
	script []Response
	calls  int
	err    error
}

// NewMockReasoner constructs an empty MockReasoner.
func NewMockReasoner() *MockReasoner { return &MockReasoner{} }

// EnqueueAnswer scripts a final text answer.
func (m *MockReasoner) EnqueueAnswer(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, Response{
		Content:      core.NewTextContent(core.RoleAssistant, text),
		FinishReason: "stop",
	})
}

// EnqueueToolCall scripts a tool invocation request.
func (m *MockReasoner) EnqueueToolCall(id, name, arguments string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, Response{
		Content: core.Content{
			Role: core.RoleAssistant,
			Parts: []core.Part{core.ToolCallPart{ToolCall: core.ToolCall{
				ID:        id,
				Name:      name,
				Arguments: arguments,
			}}},
		},
		FinishReason: "tool_calls",
	})
}

// Fail makes every subsequent Propose call return err.
func (m *MockReasoner) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Propose has been invoked.
func (m *MockReasoner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Propose implements Reasoner by replaying the scripted responses.
func (m *MockReasoner) Propose(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.calls++
	err := m.err
	var resp Response
	scripted := len(m.script) > 0
	if scripted {
		resp = m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)
		if err != nil {
			errCh <- err
			return
		}
		if !scripted {
			var last string
			for _, c := range req.Contents {
				if c.Role == core.RoleUser {
					last = c.Text()
				}
			}
			resp = Response{
				Content:      core.NewTextContent(core.RoleAssistant, fmt.Sprintf("Mock answer to: %s", last)),
				FinishReason: "stop",
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- resp:
		}
	}()

	return respCh, errCh
}

// Info implements Reasoner.
func (m *MockReasoner) Info() Info {
	return Info{Name: "mock", Provider: "mock", SupportsTools: true}
}

// MockEmbedder produces deterministic vectors without a network call. By
// default a text maps to its normalized character-frequency histogram, so
// near-identical texts yield near-identical vectors. Specific texts can be
// pinned to canned vectors for scripted similarity scenarios.
type MockEmbedder struct {
	mu     sync.Mutex
	dims   int
	canned map[string][]float32
	err    error
	count  int
}

// NewMockEmbedder creates a MockEmbedder with the given dimensionality.
func NewMockEmbedder(dims int) *MockEmbedder {
	return &MockEmbedder{dims: dims, canned: make(map[string][]float32)}
}

// Pin fixes the vector returned for an exact text. The vector length must
// match the embedder dimensionality.
func (m *MockEmbedder) Pin(text string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canned[text] = vec
}

// Fail makes every subsequent call return err.
func (m *MockEmbedder) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Count reports how many backend calls were made (one per Embed/EmbedOne).
func (m *MockEmbedder) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Embed implements Embedder.
func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorLocked(t)
	}
	return out, nil
}

// EmbedOne implements Embedder.
func (m *MockEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorLocked(text), nil
}

// Dims implements Embedder.
func (m *MockEmbedder) Dims() int { return m.dims }

func (m *MockEmbedder) vectorLocked(text string) []float32 {
	if vec, ok := m.canned[text]; ok {
		return vec
	}
	vec := make([]float32, m.dims)
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		vec[int(unicode.ToLower(r))%m.dims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
