// Package agent is the façade over the turn pipeline: it owns the session
// handles, serializes turns per user, and degrades failures to a
// user-facing apology.
package agent

import (
	"context"
	"strings"
	"sync"

	"minerva/internal/conversation"
	"minerva/internal/graph"
	"minerva/internal/logger"
	"minerva/internal/memory"
	"minerva/internal/prompts"
)

type Config struct {
	ResetKeyword string
}

// Agent routes utterances for all users. Sessions for different user ids
// are independent; turns for one user id are serialized on the session
// mutex so the store and buffer never see concurrent mutation.
type Agent struct {
	graph   *graph.Graph
	repo    conversation.Repository
	store   *memory.Store
	prompts prompts.Set
	config  Config

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu sync.Mutex
}

func New(g *graph.Graph, repo conversation.Repository, store *memory.Store, p prompts.Set, config Config) *Agent {
	return &Agent{
		graph:    g,
		repo:     repo,
		store:    store,
		prompts:  p,
		config:   config,
		sessions: make(map[string]*session),
	}
}

// session returns the handle for the user id, creating it on first use.
// The same id always maps to the same handle.
func (a *Agent) session(userID string) *session {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[userID]
	if !ok {
		s = &session{}
		a.sessions[userID] = s
	}
	return s
}

// Ask runs one conversation turn and always returns text: the answer, the
// greeting after a reset, or the apology when the pipeline fails.
func (a *Agent) Ask(ctx context.Context, userID, utterance string) string {
	s := a.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.config.ResetKeyword != "" && strings.Contains(utterance, a.config.ResetKeyword) {
		return a.reset(ctx, userID)
	}

	answer, err := a.run(ctx, userID, utterance)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("turn failed")
		return a.prompts.Apology
	}
	return answer
}

func (a *Agent) run(ctx context.Context, userID, utterance string) (string, error) {
	stored, err := a.repo.Load(ctx, userID)
	if err != nil {
		return "", err
	}

	buffer := conversation.NewBuffer(stored)
	buffer.Append(conversation.NewUserMessage(strings.TrimSpace(utterance)))

	st := &graph.State{UserID: userID, Buffer: buffer}
	if err := a.graph.Run(ctx, st); err != nil {
		return "", err
	}

	// Best-effort persistence: the answer stands even if the log write
	// fails, the next turn just starts from the older log.
	if err := a.repo.Save(ctx, userID, buffer.Messages()); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("conversation log save failed")
	}
	return st.Answer, nil
}

// reset clears the session: the persisted log and the in-memory namespace
// are dropped, so the next turn starts from the durable profile alone.
func (a *Agent) reset(ctx context.Context, userID string) string {
	if err := a.repo.Delete(ctx, userID); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("conversation log delete failed")
	}
	a.store.DeleteNamespace(userID)
	logger.Info().Str("user_id", userID).Msg("session reset")
	return a.prompts.Greeting
}
