// Package session contains concrete core.SessionStore implementations. The
// contract lives in the core package; pick an implementation at wiring time.
//
// Both stores implement full-replace upsert semantics on Save: the stored
// history under an identifier is replaced wholesale, so concurrent saves to
// the same session are last-write-wins. Callers needing strict per-session
// serialization must serialize above this layer.
package session
