package adapter

import (
	"testing"
)

func TestReplaceFragmentByID(t *testing.T) {
	fragments := []Fragment{
		{Text: "the answer"},
		{ID: "prompt_human_score", Text: "How did I do?"},
	}

	out, replaced := ReplaceFragmentByID(fragments, "prompt_human_score",
		Fragment{ID: "prompt_human_score", Text: "<@U2> upvoted this answer :thumbsup:"})
	if !replaced {
		t.Fatal("expected fragment to be replaced")
	}
	if out[1].Text != "<@U2> upvoted this answer :thumbsup:" {
		t.Errorf("unexpected replacement text: %q", out[1].Text)
	}
	if fragments[1].Text != "How did I do?" {
		t.Error("input slice must not be mutated")
	}
}

func TestReplaceFragmentByID_NoMatch(t *testing.T) {
	fragments := []Fragment{{Text: "plain"}}

	out, replaced := ReplaceFragmentByID(fragments, "prompt_human_score", Fragment{ID: "prompt_human_score"})
	if replaced {
		t.Error("expected no replacement")
	}
	if len(out) != 1 || out[0].Text != "plain" {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestPlaceholderFragments(t *testing.T) {
	tests := []struct {
		name      string
		newThread bool
		greeting  string
	}{
		{"new thread", true, "Hi <@U1>, working on your request now :rocket:"},
		{"existing thread", false, "Let me check that for you. One moment! :books:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragments := PlaceholderFragments("U1", "prm_abc", tt.newThread)
			if len(fragments) != 3 {
				t.Fatalf("expected 3 fragments, got %d", len(fragments))
			}
			if fragments[0].Text != tt.greeting {
				t.Errorf("greeting = %q, want %q", fragments[0].Text, tt.greeting)
			}
			if fragments[1].Text != "It can take up to 15s to get a response." {
				t.Errorf("unexpected hint: %q", fragments[1].Text)
			}
			if fragments[2].Text != "Reference: prm_abc" {
				t.Errorf("unexpected reference line: %q", fragments[2].Text)
			}
		})
	}
}

func TestFeedbackFragment(t *testing.T) {
	up := FeedbackFragment("prompt_human_score", "U2", true)
	if up.Text != "<@U2> upvoted this answer :thumbsup:" {
		t.Errorf("unexpected upvote text: %q", up.Text)
	}
	if up.ID != "prompt_human_score" {
		t.Errorf("unexpected fragment id: %q", up.ID)
	}

	down := FeedbackFragment("prompt_human_score", "U3", false)
	if down.Text != "<@U3> downvoted this answer :thumbsdown:" {
		t.Errorf("unexpected downvote text: %q", down.Text)
	}
}
