package analysis

import (
	"time"

	"early-warning/internal/domain"
	"early-warning/internal/rules"
)

type MessagingFrequency struct {
	Recent   int                     `json:"recent"`
	Baseline int                     `json:"baseline"`
	Change   float64                 `json:"change"`
	Pattern  domain.FrequencyPattern `json:"pattern"`
}

type ResponseLength struct {
	Average  float64 `json:"average"`
	Variance float64 `json:"variance"`
	Trend    string  `json:"trend"`
}

type EngagementLevel struct {
	TotalMessages           int     `json:"totalMessages"`
	ConversationsPerDay     float64 `json:"conversationsPerDay"`
	MessagesPerConversation float64 `json:"messagesPerConversation"`
}

type BehavioralPatterns struct {
	MessagingFrequency MessagingFrequency `json:"messagingFrequency"`
	ResponseLength     ResponseLength     `json:"responseLength"`
	EngagementLevel    EngagementLevel    `json:"engagementLevel"`
}

type BehavioralAnalysis struct {
	Patterns BehavioralPatterns `json:"patterns"`
	Changes  []string           `json:"changes"`
	Insights []string           `json:"insights"`
}

type BehavioralAnalyzer struct {
	rules rules.Behavioral
}

func NewBehavioralAnalyzer(r rules.Behavioral) *BehavioralAnalyzer {
	return &BehavioralAnalyzer{rules: r}
}

func (a *BehavioralAnalyzer) Analyze(convs []domain.Conversation, now time.Time) BehavioralAnalysis {
	patterns := BehavioralPatterns{
		MessagingFrequency: a.MessagingFrequency(convs, now),
		ResponseLength:     a.ResponseLength(convs, now),
		EngagementLevel:    a.EngagementLevel(convs, now),
	}
	return BehavioralAnalysis{
		Patterns: patterns,
		Changes:  a.DetectChanges(patterns),
		Insights: a.Insights(patterns),
	}
}

// MessagingFrequency compares the recent window against the window that
// immediately precedes it.
func (a *BehavioralAnalyzer) MessagingFrequency(convs []domain.Conversation, now time.Time) MessagingFrequency {
	recent := len(recentConversations(convs, now, a.rules.RecentDays))
	baseline := len(recentConversations(convs, now, a.rules.BaselineDays)) - recent

	out := MessagingFrequency{Recent: recent, Baseline: baseline, Pattern: domain.FrequencyStable}
	if baseline > 0 {
		out.Change = float64(recent-baseline) / float64(baseline)
	}
	switch {
	case float64(recent) > float64(baseline)*a.rules.IncreaseFactor:
		out.Pattern = domain.FrequencyIncreased
	case float64(recent) < float64(baseline)*a.rules.DecreaseFactor:
		out.Pattern = domain.FrequencyDecreased
	}
	return out
}

func (a *BehavioralAnalyzer) ResponseLength(convs []domain.Conversation, now time.Time) ResponseLength {
	mean, variance := meanVariance(userMessageLengths(recentConversations(convs, now, a.rules.RecentDays)))
	return ResponseLength{Average: mean, Variance: variance, Trend: string(domain.FrequencyStable)}
}

// EngagementLevel counts messages from both senders.
func (a *BehavioralAnalyzer) EngagementLevel(convs []domain.Conversation, now time.Time) EngagementLevel {
	recent := recentConversations(convs, now, a.rules.RecentDays)
	total := 0
	for _, c := range recent {
		total += len(c.Messages)
	}
	out := EngagementLevel{
		TotalMessages:       total,
		ConversationsPerDay: float64(len(recent)) / float64(a.rules.RecentDays),
	}
	if len(recent) > 0 {
		out.MessagesPerConversation = float64(total) / float64(len(recent))
	}
	return out
}

func (a *BehavioralAnalyzer) DetectChanges(p BehavioralPatterns) []string {
	out := []string{}
	switch p.MessagingFrequency.Pattern {
	case domain.FrequencyDecreased:
		out = append(out, a.rules.DecreasedChange)
	case domain.FrequencyIncreased:
		out = append(out, a.rules.IncreasedChange)
	}
	return out
}

func (a *BehavioralAnalyzer) Insights(p BehavioralPatterns) []string {
	out := []string{}
	if p.EngagementLevel.ConversationsPerDay < a.rules.LowEngagement {
		out = append(out, a.rules.LowEngagementTip)
	}
	return out
}
