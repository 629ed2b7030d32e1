package trigger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridci/gridci/internal/config"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{input: "push", want: KindPush},
		{input: "pull_request", want: KindPullRequest},
		{input: "manual", want: KindManual},
		{input: "cron", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			kind, err := ParseKind(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, kind)
		})
	}
}

func TestMatch_ManualAlwaysMatches(t *testing.T) {
	t.Parallel()

	// A manual run matches even when the pipeline declares no triggers.
	require.True(t, Match(config.Triggers{}, Event{Kind: KindManual}))
}

func TestMatch_Push(t *testing.T) {
	t.Parallel()

	rules := config.Triggers{
		Push: &config.PushTrigger{Branches: []string{"master", "develop"}},
	}

	require.True(t, Match(rules, Event{Kind: KindPush, Branch: "master"}))
	require.True(t, Match(rules, Event{Kind: KindPush, Branch: "develop"}))
	require.False(t, Match(rules, Event{Kind: KindPush, Branch: "feature/x"}))
	require.False(t, Match(rules, Event{Kind: KindPush}))
}

func TestMatch_PushWithoutRule(t *testing.T) {
	t.Parallel()

	rules := config.Triggers{
		PullRequest: &config.PullRequestTrigger{},
	}

	require.False(t, Match(rules, Event{Kind: KindPush, Branch: "master"}))
}

func TestMatch_PullRequestActions(t *testing.T) {
	t.Parallel()

	rules := config.Triggers{
		PullRequest: &config.PullRequestTrigger{Actions: []string{"opened", "reopened"}},
	}

	require.True(t, Match(rules, Event{Kind: KindPullRequest, Action: "opened"}))
	require.True(t, Match(rules, Event{Kind: KindPullRequest, Action: "reopened"}))
	require.False(t, Match(rules, Event{Kind: KindPullRequest, Action: "synchronize"}))
}

// TestMatch_PullRequestEmptyActions verifies that declaring a pull_request
// trigger without actions matches every lifecycle action.
func TestMatch_PullRequestEmptyActions(t *testing.T) {
	t.Parallel()

	rules := config.Triggers{
		PullRequest: &config.PullRequestTrigger{},
	}

	require.True(t, Match(rules, Event{Kind: KindPullRequest, Action: "opened"}))
	require.True(t, Match(rules, Event{Kind: KindPullRequest, Action: "synchronize"}))
}

func TestMatch_PullRequestWithoutRule(t *testing.T) {
	t.Parallel()

	rules := config.Triggers{
		Push: &config.PushTrigger{Branches: []string{"master"}},
	}

	require.False(t, Match(rules, Event{Kind: KindPullRequest, Action: "opened"}))
}
