package analysis

import (
	"fmt"
	"math"
	"time"

	"early-warning/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return testNow.Add(-time.Duration(d * float64(24*time.Hour)))
}

func userMsg(text string, probs map[string]float64) domain.Message {
	return domain.Message{Sender: domain.SenderUser, Text: text, EmotionProbabilities: probs}
}

func botMsg(text string) domain.Message {
	return domain.Message{Sender: domain.SenderBot, Text: text}
}

func convAt(at time.Time, msgs ...domain.Message) domain.Conversation {
	return domain.Conversation{ID: fmt.Sprintf("conv-%d", at.UnixNano()), CreatedAt: at, Messages: msgs}
}

// probsForScore returns emotion probabilities whose mood score is target
// under the default rules.
func probsForScore(target float64) map[string]float64 {
	if target >= 0.5 {
		return splitProbs((target-0.5)/0.3, "joy", "optimism")
	}
	return splitProbs((0.5-target)/0.3, "sadness", "fear")
}

func splitProbs(total float64, first, second string) map[string]float64 {
	p := math.Min(1, total)
	return map[string]float64{first: p, second: total - p}
}
