package emotion

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// IntroTemplates follow the user's name at the start of a comment.
var IntroTemplates = []string{
	", I read today's diary.",
	", thank you for sharing your day.",
	", here is a note on today.",
	", I'm glad you wrote today.",
}

// WarmthTemplates close a comment. Labels without an entry use Neutral's.
var WarmthTemplates = map[Label][]string{
	Angry: {
		"It's okay to be upset. Take a slow breath tonight.",
		"Your frustration makes sense. Be gentle with yourself.",
	},
	Fear: {
		"You don't have to face it all at once.",
		"Worry means you care. One step at a time.",
	},
	Happy: {
		"Hold on to this feeling!",
		"I hope tomorrow brings more days like this.",
	},
	Tender: {
		"What a warm moment to keep.",
		"Moments like this are worth remembering.",
	},
	Sad: {
		"It's okay to feel down. Rest well tonight.",
		"Tomorrow can be a little lighter.",
	},
	Neutral: {
		"Thank you for writing today down.",
		"Every day you record counts.",
	},
}

const fallbackCommentFormat = "Today %s had a day of many mixed feelings."

// FallbackComment is stored when no generated comment is available.
func FallbackComment(name string) string {
	return fmt.Sprintf(fallbackCommentFormat, displayName(name))
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "you"
	}
	return name
}

// composeComment wraps a generated comment with an intro naming the user and
// a closing phrase for the label. pick chooses an index in [0, n).
func composeComment(name, generated string, label Label, pick func(n int) int) string {
	warmth, ok := WarmthTemplates[label]
	if !ok {
		warmth = WarmthTemplates[Neutral]
	}
	intro := IntroTemplates[pick(len(IntroTemplates))]
	return displayName(name) + intro + " " + generated + " " + warmth[pick(len(warmth))]
}

func randomIndex(n int) int {
	return rand.IntN(n)
}
