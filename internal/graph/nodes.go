package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"minerva/internal/conversation"
	"minerva/internal/llm"
	"minerva/internal/logger"
	"minerva/internal/memory"
	"minerva/internal/prompts"
)

// nodeInitialize loads the durable profile into the user's namespace and
// builds the aggregated request view the classifiers work on: every
// user-authored message so far, numbered, not just the latest utterance.
func (g *Graph) nodeInitialize(ctx context.Context, st *State) error {
	if err := g.store.LoadUser(ctx, st.UserID); err != nil {
		return fmt.Errorf("load user profile: %w", err)
	}

	var b strings.Builder
	b.WriteString("<user_requests>\n")
	n := 0
	for _, m := range st.Buffer.Messages() {
		if m.Role == schema.User {
			n++
			fmt.Fprintf(&b, "%d. %s\n", n, m.Content)
		}
	}
	b.WriteString("</user_requests>")
	st.AggregatedRequest = b.String()
	return nil
}

func (g *Graph) decide(ctx context.Context, instruction string, st *State) (Flag, error) {
	raw, err := llm.Complete(ctx, g.model, g.config.LLMTimeout, []*schema.Message{
		schema.SystemMessage(instruction),
		schema.UserMessage(st.AggregatedRequest),
	})
	if err != nil {
		return FlagUnset, err
	}
	return NormalizeFlag(raw), nil
}

func (g *Graph) nodeDecidePersonal(ctx context.Context, st *State) (*delta, error) {
	flag, err := g.decide(ctx, g.prompts.DecidePersonal, st)
	if err != nil {
		return nil, err
	}
	return &delta{isPersonal: flag}, nil
}

func (g *Graph) nodeDecidePreference(ctx context.Context, st *State) (*delta, error) {
	flag, err := g.decide(ctx, g.prompts.DecidePreference, st)
	if err != nil {
		return nil, err
	}
	return &delta{isPreference: flag}, nil
}

func (g *Graph) nodeDecideSearch(ctx context.Context, st *State) (*delta, error) {
	flag, err := g.decide(ctx, g.prompts.DecideSearch, st)
	if err != nil {
		return nil, err
	}
	return &delta{isSearch: flag}, nil
}

// nodeWriteMemory folds the turn into long-term memory: for each YES flag
// it asks the model to merge the new information into the stored memo, and
// for a search turn it runs the augmentation and stores both contexts.
func (g *Graph) nodeWriteMemory(ctx context.Context, st *State) error {
	query := st.Buffer.LastUserContent()

	if st.IsPersonal == FlagYes {
		if err := g.mergeMemory(ctx, st.UserID, memory.KeyPersonalInfo,
			g.prompts.MergeMemory, "memory", query); err != nil {
			return err
		}
	}
	if st.IsPreference == FlagYes {
		if err := g.mergeMemory(ctx, st.UserID, memory.KeyPersonalPreference,
			g.prompts.MergePreference, "preference", query); err != nil {
			return err
		}
	}
	if g.config.ChatDigest {
		if err := g.mergeDigest(ctx, st); err != nil {
			return err
		}
	}

	if st.IsSearch == FlagYes {
		previous := g.store.Get(st.UserID, memory.KeySearchQuery)
		sc, err := g.searcher.Search(ctx, query, previous)
		if err != nil {
			return err
		}
		g.store.Put(st.UserID, memory.KeySearchQuery, sc.Query)
		g.store.Put(st.UserID, memory.KeyMainContext, sc.Main)
		g.store.Put(st.UserID, memory.KeySuffixContext, sc.Suffix)
		st.SearchMain = sc.Main
		st.SearchSuffix = sc.Suffix
	}
	return nil
}

func (g *Graph) mergeMemory(ctx context.Context, userID, key, template, placeholder, query string) error {
	current := g.store.Get(userID, key)
	system := prompts.Render(template, map[string]string{placeholder: current})
	merged, err := llm.Complete(ctx, g.model, g.config.LLMTimeout, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(query),
	})
	if err != nil {
		return fmt.Errorf("merge %s: %w", key, err)
	}
	g.store.Put(userID, key, merged)
	return nil
}

// mergeDigest maintains the running chat_user_memory digest over the whole
// conversation, independent of the per-flag memos.
func (g *Graph) mergeDigest(ctx context.Context, st *State) error {
	current := g.store.Get(st.UserID, memory.KeyChatUserMemory)
	system := prompts.Render(g.prompts.MergeMemory, map[string]string{"memory": current})
	messages := append([]*schema.Message{schema.SystemMessage(system)},
		conversation.ToSchema(st.Buffer.Messages())...)
	merged, err := llm.Complete(ctx, g.model, g.config.LLMTimeout, messages)
	if err != nil {
		return fmt.Errorf("merge %s: %w", memory.KeyChatUserMemory, err)
	}
	g.store.Put(st.UserID, memory.KeyChatUserMemory, merged)
	return nil
}

// nodeAnswer composes the reply: persona plus retrieved memory always, the
// search grounding when the turn asked for it. The raw completion is
// stripped of markdown emphasis and, on search turns, the citation block
// is appended verbatim.
func (g *Graph) nodeAnswer(ctx context.Context, st *State) error {
	info := g.store.Get(st.UserID, memory.KeyPersonalInfo)
	preference := g.store.Get(st.UserID, memory.KeyPersonalPreference)

	system := g.prompts.Persona + prompts.Render(g.prompts.Answer, map[string]string{
		"memory":     info,
		"preference": preference,
	})
	if g.config.ChatDigest {
		if digest := g.store.Get(st.UserID, memory.KeyChatUserMemory); digest != "" {
			system += "\n<conversation_memory>\n" + digest + "\n</conversation_memory>\n"
		}
	}

	var answer string
	if st.IsSearch == FlagYes {
		user := prompts.Render(g.prompts.AnswerWithContext, map[string]string{
			"context": st.SearchMain,
			"query":   st.Buffer.LastUserContent(),
		})
		raw, err := llm.Complete(ctx, g.model, g.config.LLMTimeout, []*schema.Message{
			schema.SystemMessage(system),
			schema.UserMessage(user),
		})
		if err != nil {
			return err
		}
		answer = Postprocess(raw)
		if st.SearchSuffix != "" {
			answer += "\n" + st.SearchSuffix
		}
	} else {
		messages := append([]*schema.Message{schema.SystemMessage(system)},
			conversation.ToSchema(st.Buffer.Messages())...)
		raw, err := llm.Complete(ctx, g.model, g.config.LLMTimeout, messages)
		if err != nil {
			return err
		}
		answer = Postprocess(raw)
	}

	st.Answer = answer
	st.Buffer.Append(conversation.NewAssistantMessage(answer))
	return nil
}

func (g *Graph) nodeOptimizeMemory(ctx context.Context, st *State) error {
	removed := st.Buffer.Trim(g.config.HistoryLimit)
	if removed > 0 {
		logger.Debug().
			Str("user_id", st.UserID).
			Int("removed", removed).
			Int("remaining", st.Buffer.Len()).
			Msg("conversation buffer trimmed")
	}
	return nil
}

var emphasisStripper = strings.NewReplacer("*", "", "_", "")

// Postprocess strips markdown emphasis markers from a raw completion.
func Postprocess(raw string) string {
	return emphasisStripper.Replace(raw)
}
