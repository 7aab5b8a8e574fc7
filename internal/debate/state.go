package debate

import (
	"sort"
	"strings"
)

// Topic is a company-note subject that may be raised only once per debate.
type Topic string

const (
	TopicSalary       Topic = "salaris"
	TopicAvailability Topic = "beschikbaarheid"
	TopicNoticePeriod Topic = "opzegtermijn"
)

// topicKeywords are phrases, not loose words: "de informatie is beschikbaar"
// is not about availability.
var topicKeywords = map[Topic][]string{
	TopicSalary:       {"salaris", "salary", "loon", "beloning", "bruto per maand", "per maand bruto"},
	TopicAvailability: {"beschikbaarheid", "beschikbaar per", "beschikbaar vanaf", "direct beschikbaar", "uur per week", "per direct", "availability"},
	TopicNoticePeriod: {"opzegtermijn", "opzeg", "notice period"},
}

// ConversationState carries what has already been said.
type ConversationState struct {
	mentioned map[Topic]struct{}
}

func NewConversationState() *ConversationState {
	return &ConversationState{mentioned: make(map[Topic]struct{})}
}

// Observe marks every topic text touches as mentioned.
func (s *ConversationState) Observe(text string) {
	for _, t := range topicsIn(text) {
		s.mentioned[t] = struct{}{}
	}
}

func (s *ConversationState) Mentioned(t Topic) bool {
	_, ok := s.mentioned[t]
	return ok
}

// Topics returns the mentioned topics in a stable order.
func (s *ConversationState) Topics() []Topic {
	out := make([]Topic, 0, len(s.mentioned))
	for t := range s.mentioned {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy, used as the round snapshot.
func (s *ConversationState) Clone() *ConversationState {
	c := NewConversationState()
	for t := range s.mentioned {
		c.mentioned[t] = struct{}{}
	}
	return c
}

// repeats reports whether text touches an already mentioned topic.
func (s *ConversationState) repeats(text string) bool {
	for _, t := range topicsIn(text) {
		if s.Mentioned(t) {
			return true
		}
	}
	return false
}

func topicsIn(text string) []Topic {
	lower := strings.ToLower(text)
	var out []Topic
	for topic, keywords := range topicKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				out = append(out, topic)
				break
			}
		}
	}
	return out
}
