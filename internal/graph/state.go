package graph

import (
	"strings"

	"minerva/internal/conversation"
)

// Flag is the tri-state result of a classifier node.
type Flag string

const (
	FlagUnset Flag = ""
	FlagYes   Flag = "YES"
	FlagNo    Flag = "NO"
)

// NormalizeFlag maps raw model output onto the flag domain. Anything that
// does not affirmatively say YES is NO; there is no ambiguous state.
func NormalizeFlag(raw string) Flag {
	if strings.Contains(strings.ToUpper(raw), "YES") {
		return FlagYes
	}
	return FlagNo
}

// State is owned by a single graph invocation. Fan-out branches must treat
// it as read-only and report their outcome through a delta.
type State struct {
	UserID string
	Buffer *conversation.Buffer

	// AggregatedRequest is the numbered view of all user utterances,
	// built by the initialize node for the classifiers.
	AggregatedRequest string

	IsPersonal   Flag
	IsPreference Flag
	IsSearch     Flag

	SearchMain   string
	SearchSuffix string

	Answer string
}

// delta is the partial output of one fan-out branch. Each branch fills in
// only its own field; merge applies them in fixed branch order so the
// outcome does not depend on completion order.
type delta struct {
	isPersonal   Flag
	isPreference Flag
	isSearch     Flag
}

func (d *delta) apply(st *State) {
	if d == nil {
		return
	}
	if d.isPersonal != FlagUnset {
		st.IsPersonal = d.isPersonal
	}
	if d.isPreference != FlagUnset {
		st.IsPreference = d.isPreference
	}
	if d.isSearch != FlagUnset {
		st.IsSearch = d.isSearch
	}
}
