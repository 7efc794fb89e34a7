// Package core defines the shared domain types of the orchestrator: role
// based content with a closed set of part variants, durable conversation
// turns, the session store contract and the error taxonomy. Concrete
// implementations (SQLite stores, model backends, tools) live in their own
// packages and depend on core, never the other way around.
package core
