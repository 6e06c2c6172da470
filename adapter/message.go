package adapter

import "fmt"

// Fragment is one addressable block of a platform message. Fragments with
// an ID can be replaced in place after the message is posted.
type Fragment struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// ReplaceFragmentByID returns a copy of fragments with the fragment whose
// ID matches replaced. The second return reports whether a match was found.
func ReplaceFragmentByID(fragments []Fragment, id string, replacement Fragment) ([]Fragment, bool) {
	out := make([]Fragment, len(fragments))
	copy(out, fragments)

	for i, f := range out {
		if f.ID != "" && f.ID == id {
			out[i] = replacement
			return out, true
		}
	}
	return out, false
}

// PlaceholderFragments builds the immediate reply posted while the answer
// pipeline works. The greeting depends on whether the prompt started a new
// thread; the reference line lets users correlate the reply with a prompt
// record.
func PlaceholderFragments(userID, promptID string, newThread bool) []Fragment {
	greeting := "Let me check that for you. One moment! :books:"
	if newThread {
		greeting = fmt.Sprintf("Hi <@%s>, working on your request now :rocket:", userID)
	}

	return []Fragment{
		{Text: greeting},
		{Text: "It can take up to 15s to get a response."},
		{Text: fmt.Sprintf("Reference: %s", promptID)},
	}
}

// FeedbackFragment renders the replacement for the score fragment once a
// user has voted.
func FeedbackFragment(fragmentID, actorID string, upvoted bool) Fragment {
	if upvoted {
		return Fragment{
			ID:   fragmentID,
			Text: fmt.Sprintf("<@%s> upvoted this answer :thumbsup:", actorID),
		}
	}
	return Fragment{
		ID:   fragmentID,
		Text: fmt.Sprintf("<@%s> downvoted this answer :thumbsdown:", actorID),
	}
}
