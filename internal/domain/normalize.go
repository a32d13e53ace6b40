package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Conversations arrive from the browser with optional and occasionally
// malformed fields. Decoding never rejects an entry it can recognize as an
// object; unusable fields fall back to zero values and the analyzers apply
// their own defaults.

type wireConversation struct {
	ID        json.RawMessage `json:"id"`
	CreatedAt json.RawMessage `json:"createdAt"`
	Timestamp json.RawMessage `json:"timestamp"`
	Messages  json.RawMessage `json:"messages"`
}

type wireMessage struct {
	Sender               json.RawMessage `json:"sender"`
	Text                 json.RawMessage `json:"text"`
	Timestamp            json.RawMessage `json:"timestamp"`
	EmotionProbabilities json.RawMessage `json:"emotionProbabilities"`
	Analysis             json.RawMessage `json:"analysis"`
}

type wireProfile struct {
	Name        json.RawMessage `json:"name"`
	Personality json.RawMessage `json:"personality"`
}

type wireAnalysis struct {
	Probs json.RawMessage `json:"probs"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeConversations accepts either a JSON array of conversations or an
// object keyed by conversation id. Object entries are returned in key order;
// callers wanting chronological order use SortConversations.
func DecodeConversations(raw []byte) ([]Conversation, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Conversation{}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("domain: decode conversation list: %w", err)
		}
		out := make([]Conversation, 0, len(items))
		for _, item := range items {
			if c, ok := decodeConversation(item, ""); ok {
				out = append(out, c)
			}
		}
		return out, nil
	case '{':
		var byID map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &byID); err != nil {
			return nil, fmt.Errorf("domain: decode conversation map: %w", err)
		}
		keys := make([]string, 0, len(byID))
		for k := range byID {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Conversation, 0, len(keys))
		for _, k := range keys {
			if c, ok := decodeConversation(byID[k], k); ok {
				out = append(out, c)
			}
		}
		return out, nil
	default:
		return nil, errors.New("domain: conversations must be a JSON array or object")
	}
}

// ConversationsFromMap flattens an id-keyed mapping into a sequence in key
// order, filling missing ids from the keys.
func ConversationsFromMap(byID map[string]Conversation) []Conversation {
	keys := make([]string, 0, len(byID))
	for k := range byID {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Conversation, 0, len(keys))
	for _, k := range keys {
		c := byID[k]
		if c.ID == "" {
			c.ID = k
		}
		out = append(out, c)
	}
	return out
}

// SortConversations returns a copy ordered by resolved time, oldest first.
// Ties keep their input order.
func SortConversations(convs []Conversation, now time.Time) []Conversation {
	out := make([]Conversation, len(convs))
	copy(out, convs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].When(now).Before(out[j].When(now))
	})
	return out
}

func decodeConversation(raw json.RawMessage, fallbackID string) (Conversation, bool) {
	if isNull(raw) {
		return Conversation{}, false
	}
	var w wireConversation
	if err := json.Unmarshal(raw, &w); err != nil {
		return Conversation{}, false
	}
	c := Conversation{
		ID:        rawString(w.ID),
		CreatedAt: rawTime(w.CreatedAt),
		Timestamp: rawTime(w.Timestamp),
	}
	if c.ID == "" {
		c.ID = fallbackID
	}

	var items []json.RawMessage
	if err := json.Unmarshal(w.Messages, &items); err != nil {
		items = nil
	}
	c.Messages = make([]Message, 0, len(items))
	for _, item := range items {
		if m, ok := decodeMessage(item); ok {
			c.Messages = append(c.Messages, m)
		}
	}
	return c, true
}

func decodeMessage(raw json.RawMessage) (Message, bool) {
	if isNull(raw) {
		return Message{}, false
	}
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return Message{}, false
	}
	m := Message{
		Sender:               Sender(strings.ToLower(strings.TrimSpace(rawString(w.Sender)))),
		Text:                 rawString(w.Text),
		Timestamp:            rawTime(w.Timestamp),
		EmotionProbabilities: rawProbabilities(w.EmotionProbabilities),
	}
	if len(m.EmotionProbabilities) == 0 && len(w.Analysis) > 0 {
		var a wireAnalysis
		if err := json.Unmarshal(w.Analysis, &a); err == nil {
			m.EmotionProbabilities = rawProbabilities(a.Probs)
		}
	}
	return m, true
}

// DecodeUserProfile reads a profile without ever failing. An object yields
// its name and personality fields, a bare string is taken as the
// personality, and anything else is the zero profile.
func DecodeUserProfile(raw json.RawMessage) UserProfile {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return UserProfile{}
	}
	switch trimmed[0] {
	case '{':
		var w wireProfile
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return UserProfile{}
		}
		return UserProfile{
			Name:        rawString(w.Name),
			Personality: Personality(rawString(w.Personality)),
		}
	case '"':
		return UserProfile{Personality: Personality(rawString(trimmed))}
	default:
		return UserProfile{}
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// rawTime parses RFC 3339 style strings or epoch milliseconds. Anything else
// yields the zero time.
func rawTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return time.Time{}
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 && !math.IsInf(ms, 0) {
		return time.UnixMilli(int64(ms)).UTC()
	}
	return time.Time{}
}

func rawProbabilities(raw json.RawMessage) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	var byLabel map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byLabel); err != nil {
		return nil
	}
	out := make(map[string]float64, len(byLabel))
	for label, v := range byLabel {
		var p float64
		if err := json.Unmarshal(v, &p); err != nil || math.IsNaN(p) {
			continue
		}
		out[strings.ToLower(label)] = math.Max(0, math.Min(1, p))
	}
	return out
}
