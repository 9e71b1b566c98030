// Package ideas resolves a topic into script ideas. It consults a two-tier
// TTL cache, retries a possibly cold backend within a time budget, and falls
// back to synthesized ideas when the backend never answers.
package ideas

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/constants"
)

var (
	// ErrEmptyTopic is returned for a blank topic; no request is made.
	ErrEmptyTopic = errors.New("topic is required")
	// ErrSignInRequired means the backend rejected the credential, which has
	// been cleared. The user has to sign in again.
	ErrSignInRequired = errors.New("sign in required")
)

const missingDescription = "No description available."

// Idea is one rendered idea card.
type Idea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ID          int    `json:"id"`
}

// Entry is the cached resolution of a topic. ErrorMessage is set when Ideas
// are fallback ideas. Timestamp is in Unix milliseconds.
type Entry struct {
	Key          string `json:"key"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Ideas        []Idea `json:"ideas"`
	Timestamp    int64  `json:"timestamp"`
}

// NormalizeTopic decodes percent-escapes once. A value that fails to decode
// is used as-is.
func NormalizeTopic(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// FromResponse maps the backend's parallel arrays into idea records.
func FromResponse(resp *api.ProcessTopicResponse) []Idea {
	out := make([]Idea, 0, len(resp.Ideas))
	for idx, title := range resp.Ideas {
		description := missingDescription
		if idx < len(resp.Descriptions) && resp.Descriptions[idx] != "" {
			description = resp.Descriptions[idx]
		}
		out = append(out, Idea{
			ID:          idx + 1,
			Title:       title,
			Description: description,
			Category:    constants.Categories[idx%len(constants.Categories)],
		})
	}
	return out
}

// FallbackIdeas synthesizes three ideas that embed topic.
func FallbackIdeas(topic string) []Idea {
	return []Idea{
		{
			ID:          1,
			Title:       fmt.Sprintf("Understanding %s: A Comprehensive Analysis", topic),
			Description: fmt.Sprintf("Dive deep into the world of %s and explore its various aspects, implications, and real-world applications.", topic),
			Category:    "Technology",
		},
		{
			ID:          2,
			Title:       fmt.Sprintf("The Impact of %s on Modern Society", topic),
			Description: fmt.Sprintf("Explore how %s is shaping our world today and what it means for the future.", topic),
			Category:    "Social Impact",
		},
		{
			ID:          3,
			Title:       fmt.Sprintf("Future Trends: Where %s is Heading", topic),
			Description: fmt.Sprintf("Get a glimpse into the future of %s and discover what experts predict will happen next.", topic),
			Category:    "Future Analysis",
		},
	}
}

// Advisory explains why fallback ideas are shown.
func Advisory(cause error) string {
	msg := ""
	if cause != nil {
		msg = strings.ToLower(cause.Error())
	}
	switch {
	case strings.Contains(msg, "timeout"):
		return "API request timed out after waiting. Using sample data."
	case strings.Contains(msg, "502"):
		return "API server returned 502 for an extended period. Using sample data."
	default:
		return "API temporarily unavailable. Using sample data."
	}
}
