package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/inverlab/finagent/core"
)

// ChatMessage is one message in the client's conversation view.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest mirrors the OpenAI request envelope, extended with a
// session_id binding the request to a server-side conversation.
type ChatCompletionRequest struct {
	Model     string        `json:"model,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	Stream    bool          `json:"stream,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

type chatChoice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message,omitempty"`
	Delta        *ChatMessage `json:"delta,omitempty"`
	FinishReason *string      `json:"finish_reason"`
}

type chatCompletionResponse struct {
	ID        string       `json:"id"`
	Object    string       `json:"object"`
	Created   int64        `json:"created"`
	Model     string       `json:"model"`
	Choices   []chatChoice `json:"choices"`
	SessionID string       `json:"session_id"`
}

type modelCard struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type modelList struct {
	Object string      `json:"object"`
	Data   []modelCard `json:"data"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.healthCheck != nil {
		if err := s.healthCheck(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			s.respondError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, modelList{
		Object: "list",
		Data: []modelCard{
			{ID: s.modelID, Object: "model", Created: time.Now().Unix(), OwnedBy: "user"},
		},
	})
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		s.respondError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	input := req.Messages[len(req.Messages)-1].Content
	modelID := req.Model
	if modelID == "" {
		modelID = s.modelID
	}

	// The reasoning loop always runs to completion before anything is
	// written; streamed requests replay the finished answer as chunks.
	outcome, err := s.runner.Run(r.Context(), req.SessionID, input)
	if err != nil {
		if errors.Is(err, core.ErrStorageUnavailable) {
			s.logger.Error("exchange storage failure", "error", err)
			s.respondError(w, http.StatusServiceUnavailable, "session storage unavailable")
			return
		}
		s.logger.Error("exchange failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	completionID := "chatcmpl-" + core.NewID()
	if req.Stream {
		s.streamAnswer(w, completionID, modelID, outcome.SessionID, outcome.Answer)
		return
	}

	stop := "stop"
	s.respondJSON(w, http.StatusOK, chatCompletionResponse{
		ID:      completionID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   modelID,
		Choices: []chatChoice{
			{Index: 0, Message: &ChatMessage{Role: "assistant", Content: outcome.Answer}, FinishReason: &stop},
		},
		SessionID: outcome.SessionID,
	})
}

// streamChunkRunes is the size of each SSE content delta. Concatenating all
// deltas reproduces the full answer byte for byte.
const streamChunkRunes = 24

// streamAnswer replays a finished answer as server-sent chat.completion.chunk
// events, terminated by a [DONE] marker.
func (s *Server) streamAnswer(w http.ResponseWriter, completionID, modelID, sessionID, answer string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	created := time.Now().Unix()
	emit := func(delta *ChatMessage, finishReason *string) {
		chunk := chatCompletionResponse{
			ID:        completionID,
			Object:    "chat.completion.chunk",
			Created:   created,
			Model:     modelID,
			Choices:   []chatChoice{{Index: 0, Delta: delta, FinishReason: finishReason}},
			SessionID: sessionID,
		}
		payload, err := json.Marshal(chunk)
		if err != nil {
			s.logger.Error("encode stream chunk", "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		if flusher != nil {
			flusher.Flush()
		}
	}

	runes := []rune(answer)
	for start := 0; start < len(runes); start += streamChunkRunes {
		end := start + streamChunkRunes
		if end > len(runes) {
			end = len(runes)
		}
		emit(&ChatMessage{Role: "assistant", Content: string(runes[start:end])}, nil)
	}
	stop := "stop"
	emit(&ChatMessage{}, &stop)
	fmt.Fprint(w, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
}

// requireAPIKey rejects requests without the configured bearer token. With no
// key configured every request is rejected, matching a locked-down default.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if s.apiKey == "" || auth != "Bearer "+s.apiKey {
			s.respondError(w, http.StatusUnauthorized, "unauthorized: invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, map[string]string{"detail": detail})
}
