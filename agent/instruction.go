package agent

import "context"

// Instruction supplies the system prompt for a reasoning pass. Implementations
// may return static text or derive the prompt from request context.
type Instruction interface {
	Text(ctx context.Context) (string, error)
}

// DefaultInstructions is the standing persona for the investment assistant.
const DefaultInstructions = "Você é um analista de investimentos sênior de uma gestora brasileira. " +
	"Responda em português, com precisão e objetividade. Use as ferramentas disponíveis para " +
	"consultar documentos internos, dados macroeconômicos, preços de ações e a internet antes de " +
	"responder perguntas factuais. Quando os dados não estiverem disponíveis, diga isso " +
	"explicitamente em vez de especular. Nunca dê recomendações personalizadas de compra ou venda."

type staticInstruction struct {
	text string
}

// NewInstructionFromText wraps fixed text as an Instruction.
func NewInstructionFromText(text string) Instruction {
	return &staticInstruction{text: text}
}

// Text implements Instruction.
func (i *staticInstruction) Text(_ context.Context) (string, error) {
	return i.text, nil
}

// InstructionFunc adapts a function to the Instruction interface.
type InstructionFunc func(ctx context.Context) (string, error)

// Text implements Instruction.
func (f InstructionFunc) Text(ctx context.Context) (string, error) {
	return f(ctx)
}
