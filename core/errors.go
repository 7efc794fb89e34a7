package core

import "errors"

// ErrStorageUnavailable indicates the session or chunk backend could not be
// reached. It is the only fault class (besides total reasoner unavailability)
// allowed to become a user-visible failure.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrReasoningExhausted indicates the decide/act loop hit its iteration
// bound without producing a final answer. Callers receive a best-effort
// partial answer alongside this error.
var ErrReasoningExhausted = errors.New("reasoning exhausted")
