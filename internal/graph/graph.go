// Package graph executes the fixed decision/action graph for one
// conversation turn:
//
//	initialize → {decide_personal, decide_preference, decide_search}
//	           → write_memory → answer → (optimize_memory | end)
//
// The topology is static: plain adjacency tables plus one typed predicate
// for the conditional edge.
package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"minerva/internal/llm"
	"minerva/internal/logger"
	"minerva/internal/memory"
	"minerva/internal/prompts"
	"minerva/internal/search"
)

// NodeID names one node of the fixed graph.
type NodeID string

const (
	NodeInitialize       NodeID = "initialize"
	NodeDecidePersonal   NodeID = "decide_personal"
	NodeDecidePreference NodeID = "decide_preference"
	NodeDecideSearch     NodeID = "decide_search"
	NodeWriteMemory      NodeID = "write_memory"
	NodeAnswer           NodeID = "answer"
	NodeOptimizeMemory   NodeID = "optimize_memory"
	NodeEnd              NodeID = "end"
)

// nodeFunc runs one sequential node against the invocation state.
type nodeFunc func(ctx context.Context, st *State) error

// branchFunc runs one fan-out node against a read-only state snapshot and
// reports its outcome as a delta.
type branchFunc func(ctx context.Context, st *State) (*delta, error)

// SearchProvider is the search augmentation capability consumed by the
// write-memory node. *search.Searcher satisfies it.
type SearchProvider interface {
	Search(ctx context.Context, queryContext, previousQuery string) (search.Context, error)
}

type Config struct {
	HistoryLimit int
	LLMTimeout   time.Duration
	ChatDigest   bool
}

// Graph wires the node set to its collaborators. One Graph instance is
// safe for concurrent invocations; all turn-local data lives in State.
type Graph struct {
	model    llm.Completer
	store    *memory.Store
	searcher SearchProvider
	prompts  prompts.Set
	config   Config

	nodes       map[NodeID]nodeFunc
	branches    map[NodeID]branchFunc
	static      map[NodeID]NodeID
	fanOut      map[NodeID][]NodeID
	joins       map[NodeID]NodeID
	conditional map[NodeID]func(*State) NodeID
}

func New(model llm.Completer, store *memory.Store, searcher SearchProvider, p prompts.Set, config Config) *Graph {
	g := &Graph{
		model:    model,
		store:    store,
		searcher: searcher,
		prompts:  p,
		config:   config,
	}

	g.nodes = map[NodeID]nodeFunc{
		NodeInitialize:     g.nodeInitialize,
		NodeWriteMemory:    g.nodeWriteMemory,
		NodeAnswer:         g.nodeAnswer,
		NodeOptimizeMemory: g.nodeOptimizeMemory,
	}
	g.branches = map[NodeID]branchFunc{
		NodeDecidePersonal:   g.nodeDecidePersonal,
		NodeDecidePreference: g.nodeDecidePreference,
		NodeDecideSearch:     g.nodeDecideSearch,
	}

	// Fan-out order is also the deterministic merge order.
	g.fanOut = map[NodeID][]NodeID{
		NodeInitialize: {NodeDecidePersonal, NodeDecidePreference, NodeDecideSearch},
	}
	g.joins = map[NodeID]NodeID{
		NodeInitialize: NodeWriteMemory,
	}
	g.static = map[NodeID]NodeID{
		NodeWriteMemory:    NodeAnswer,
		NodeOptimizeMemory: NodeEnd,
	}
	g.conditional = map[NodeID]func(*State) NodeID{
		NodeAnswer: func(st *State) NodeID {
			if st.Buffer.Len() > g.config.HistoryLimit {
				return NodeOptimizeMemory
			}
			return NodeEnd
		},
	}

	return g
}

// Run executes one invocation to completion. Any node error aborts the
// turn and propagates.
func (g *Graph) Run(ctx context.Context, st *State) error {
	current := NodeInitialize
	for current != NodeEnd {
		fn, ok := g.nodes[current]
		if !ok {
			return fmt.Errorf("graph: no node registered for %s", current)
		}
		if err := fn(ctx, st); err != nil {
			return fmt.Errorf("node %s: %w", current, err)
		}

		if branches, ok := g.fanOut[current]; ok {
			if err := g.runBranches(ctx, branches, st); err != nil {
				return err
			}
			current = g.joins[current]
			continue
		}
		if predicate, ok := g.conditional[current]; ok {
			current = predicate(st)
			continue
		}
		next, ok := g.static[current]
		if !ok {
			return fmt.Errorf("graph: no edge out of %s", current)
		}
		current = next
	}
	return nil
}

type branchResult struct {
	id    NodeID
	delta *delta
	err   error
}

// runBranches executes the fan-out nodes concurrently against the shared
// read-only state, waits for all of them (hard barrier), then fails fast
// on the first error or merges the deltas in fan-out order.
func (g *Graph) runBranches(ctx context.Context, ids []NodeID, st *State) error {
	results := make([]branchResult, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		fn, ok := g.branches[id]
		if !ok {
			return fmt.Errorf("graph: no branch registered for %s", id)
		}
		wg.Add(1)
		go func(i int, id NodeID, fn branchFunc) {
			defer wg.Done()
			d, err := fn(ctx, st)
			results[i] = branchResult{id: id, delta: d, err: err}
		}(i, id, fn)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return fmt.Errorf("node %s: %w", r.id, r.err)
		}
	}
	for _, r := range results {
		r.delta.apply(st)
	}

	logger.Debug().
		Str("user_id", st.UserID).
		Str("is_personal", string(st.IsPersonal)).
		Str("is_preference", string(st.IsPreference)).
		Str("is_search", string(st.IsSearch)).
		Msg("classifier fan-in merged")
	return nil
}
