package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"early-warning/internal/domain"
	"early-warning/internal/rules"
)

func newLinguistic() *LinguisticAnalyzer {
	return NewLinguisticAnalyzer(rules.Default().Linguistic)
}

func TestLinguisticAnalyze_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   \n\t"} {
		out := newLinguistic().Analyze(text)
		require.Equal(t, 0.0, out.RiskScore)
		require.Empty(t, out.Insights)
		require.Equal(t, 0, out.Markers.TokenCount)
		require.Equal(t, 0, out.Markers.Absolutist.Count)
		require.Equal(t, 0.0, out.Markers.Absolutist.Ratio)
		require.Equal(t, SelfReferenceMarker{}, out.Markers.SelfReference)
		require.Equal(t, FutureTenseMarker{}, out.Markers.FutureTense)
		require.Equal(t, 0, out.Markers.DistortionTotal())
		require.Len(t, out.Markers.CognitiveDistortions, 4)
	}
}

func TestLinguisticAnalyze_AbsolutistSentence(t *testing.T) {
	out := newLinguistic().Analyze("I always fail at everything and nothing ever works")

	require.Equal(t, 9, out.Markers.TokenCount)
	require.Equal(t, 3, out.Markers.Absolutist.Count)
	require.InDelta(t, 1.0/3.0, out.Markers.Absolutist.Ratio, 1e-9)
	require.Greater(t, out.Markers.Absolutist.Ratio, 0.1)
	require.Equal(t, []string{"always", "everything", "nothing"}, out.Markers.Absolutist.Words)
	require.Equal(t, 1, out.Markers.CognitiveDistortions["allOrNothing"].Count)
	require.Equal(t, 2, out.Markers.CognitiveDistortions["overgeneralization"].Count)
	require.Greater(t, out.Markers.DistortionTotal(), 0)
	require.True(t, out.Markers.FutureTense.Reduced)
	require.False(t, out.Markers.SelfReference.Excessive)

	require.GreaterOrEqual(t, out.RiskScore, 0.3)
	require.InDelta(t, 0.5, out.RiskScore, 1e-9)
	require.Contains(t, out.Insights, rules.Default().Linguistic.Insights.Absolutist)
}

func TestDetectAbsolutistLanguage_StripsPunctuation(t *testing.T) {
	m := newLinguistic().DetectAbsolutistLanguage("Never! It's ALL, totally... fine")
	require.Equal(t, 3, m.Count)
	require.InDelta(t, 0.6, m.Ratio, 1e-9)
}

func TestAnalyzeSelfReference(t *testing.T) {
	a := newLinguistic()

	m := a.AnalyzeSelfReference("I told myself my plan was mine")
	require.Equal(t, 4, m.Count)
	require.True(t, m.Excessive)

	m = a.AnalyzeSelfReference("the weather is lovely and the garden is blooming")
	require.Equal(t, 0, m.Count)
	require.False(t, m.Excessive)
}

func TestAnalyzeFutureTense_SubstringMarkers(t *testing.T) {
	a := newLinguistic()

	m := a.AnalyzeFutureTense("I will go planning tomorrow")
	require.Equal(t, 3, m.Count)
	require.InDelta(t, 0.6, m.Ratio, 1e-9)
	require.False(t, m.Reduced)

	m = a.AnalyzeFutureTense("today was grey")
	require.Equal(t, 0, m.Count)
	require.True(t, m.Reduced)
}

func TestDetectCognitiveDistortions(t *testing.T) {
	d := newLinguistic().DetectCognitiveDistortions("I should fix it and I have to, everyone says it is Terrible and awful")
	require.Equal(t, 2, d["shouldStatements"].Count)
	require.Equal(t, []string{"should", "have to"}, d["shouldStatements"].Matches)
	require.Equal(t, 1, d["overgeneralization"].Count)
	require.Equal(t, 2, d["catastrophizing"].Count)
	require.Equal(t, []string{"Terrible", "awful"}, d["catastrophizing"].Matches)
	require.Equal(t, 0, d["allOrNothing"].Count)
	require.NotNil(t, d["allOrNothing"].Matches)
}

func TestDetectCognitiveDistortions_WholeWordsOnly(t *testing.T) {
	d := newLinguistic().DetectCognitiveDistortions("mustard is shouldered nevertheless")
	require.Equal(t, 0, d["shouldStatements"].Count)
	require.Equal(t, 0, d["allOrNothing"].Count)
}

func TestCalculateRisk_AllMarkersCapAtOne(t *testing.T) {
	out := newLinguistic().Analyze("I always never totally completely fail")
	require.True(t, out.Markers.SelfReference.Excessive)
	require.True(t, out.Markers.FutureTense.Reduced)
	require.Greater(t, out.Markers.DistortionTotal(), 3)
	require.InDelta(t, 1.0, out.RiskScore, 1e-9)
	require.LessOrEqual(t, out.RiskScore, 1.0)
	require.Len(t, out.Insights, 4)
}

func TestCalculateRisk_Thresholds(t *testing.T) {
	a := newLinguistic()
	cases := []struct {
		name    string
		markers LinguisticMarkers
		want    float64
	}{
		{name: "none", markers: LinguisticMarkers{}, want: 0},
		{name: "absolutist at threshold", markers: LinguisticMarkers{Absolutist: AbsolutistMarker{Ratio: 0.1}}, want: 0},
		{name: "absolutist above", markers: LinguisticMarkers{Absolutist: AbsolutistMarker{Ratio: 0.11}}, want: 0.3},
		{name: "self reference", markers: LinguisticMarkers{SelfReference: SelfReferenceMarker{Excessive: true}}, want: 0.2},
		{name: "future reduced", markers: LinguisticMarkers{FutureTense: FutureTenseMarker{Reduced: true}}, want: 0.2},
		{name: "distortions at threshold", markers: LinguisticMarkers{CognitiveDistortions: map[string]DistortionMarker{"a": {Count: 3}}}, want: 0},
		{name: "distortions above", markers: LinguisticMarkers{CognitiveDistortions: map[string]DistortionMarker{"a": {Count: 2}, "b": {Count: 2}}}, want: 0.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, a.CalculateRisk(tc.markers), 1e-9)
		})
	}
}

func TestRecentUserText(t *testing.T) {
	convs := []domain.Conversation{
		convAt(daysAgo(4), userMsg("oldest", nil)),
		convAt(daysAgo(3), userMsg("one", nil), botMsg("bot text")),
		convAt(daysAgo(2)),
		convAt(daysAgo(1), userMsg("two", nil), userMsg("three", nil)),
	}
	require.Equal(t, "one two three", RecentUserText(convs, 3))
	require.Equal(t, "", RecentUserText(nil, 3))
	require.Equal(t, "oldest one two three", RecentUserText(convs, 10))
}
