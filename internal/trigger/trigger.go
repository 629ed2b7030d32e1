// Package trigger models the events that start a run and matches them
// against a pipeline's declared trigger rules.
package trigger

import (
	"fmt"
	"slices"

	"github.com/gridci/gridci/internal/config"
)

// Kind is the category of triggering event.
type Kind string

const (
	KindPush        Kind = "push"
	KindPullRequest Kind = "pull_request"
	// KindManual always matches; it exists so an operator can force a run
	// without synthesizing a push or merge-request event.
	KindManual Kind = "manual"
)

// ParseKind validates a user-supplied event kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPush, KindPullRequest, KindManual:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown event kind %q (expected push, pull_request, or manual)", s)
	}
}

// Event is one concrete trigger occurrence. Branch carries the pushed
// branch for pushes and the target branch for merge requests. Action is
// the merge-request lifecycle action (opened, synchronize, reopened).
type Event struct {
	Kind   Kind
	Branch string
	Action string
}

// Match reports whether the event starts a run under the given trigger
// rules. A nil rule for the event's kind means the kind never triggers.
func Match(rules config.Triggers, ev Event) bool {
	switch ev.Kind {
	case KindManual:
		return true
	case KindPush:
		if rules.Push == nil {
			return false
		}
		return slices.Contains(rules.Push.Branches, ev.Branch)
	case KindPullRequest:
		if rules.PullRequest == nil {
			return false
		}
		// An empty action list matches every merge-request action.
		if len(rules.PullRequest.Actions) == 0 {
			return true
		}
		return slices.Contains(rules.PullRequest.Actions, ev.Action)
	}
	return false
}
