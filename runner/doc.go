// Package runner coordinates a complete conversational exchange.
//
// The Runner bridges the session store and the reasoning loop: it loads the
// session history, hands the conversation to the agent, and persists the new
// user and assistant turns once the exchange concludes. Storage faults
// surface to the caller; a reasoning loop that runs out of budget still
// produces a persisted, best-effort answer.
package runner
