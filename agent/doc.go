// Package agent implements the bounded decide/act reasoning loop.
//
// An Agent wires a reasoner to a tool registry: each pass the reasoner either
// requests tool invocations, whose outputs are fed back as tool results, or
// emits the final answer. The loop is capped at a fixed number of reasoning
// passes; hitting the cap surfaces core.ErrReasoningExhausted together with
// the best partial answer seen.
package agent
