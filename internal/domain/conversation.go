package domain

import "time"

// Sender identifies who authored a chat turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single chat turn as recorded by the chat front-end.
// EmotionProbabilities maps an emotion label to a probability in [0,1].
type Message struct {
	Sender               Sender             `json:"sender"`
	Text                 string             `json:"text"`
	Timestamp            time.Time          `json:"timestamp"`
	EmotionProbabilities map[string]float64 `json:"emotionProbabilities,omitempty"`
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Conversation is an ordered sequence of messages. Timestamp, when set, is the
// last-activity time and takes precedence over CreatedAt.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Timestamp time.Time `json:"timestamp"`
	Messages  []Message `json:"messages"`
}

// When resolves the time a conversation is attributed to: Timestamp, then
// CreatedAt, then now.
func (c Conversation) When(now time.Time) time.Time {
	if !c.Timestamp.IsZero() {
		return c.Timestamp
	}
	if !c.CreatedAt.IsZero() {
		return c.CreatedAt
	}
	return now
}

// UserMessages returns the user-authored messages in order.
func (c Conversation) UserMessages() []Message {
	out := make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.IsUser() {
			out = append(out, m)
		}
	}
	return out
}
