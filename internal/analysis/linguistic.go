package analysis

import (
	"regexp"
	"strings"
	"unicode"

	"early-warning/internal/rules"
)

type AbsolutistMarker struct {
	Count int      `json:"count"`
	Ratio float64  `json:"ratio"`
	Words []string `json:"words"`
}

type SelfReferenceMarker struct {
	Count     int     `json:"count"`
	Ratio     float64 `json:"ratio"`
	Excessive bool    `json:"excessive"`
}

type FutureTenseMarker struct {
	Count   int     `json:"count"`
	Ratio   float64 `json:"ratio"`
	Reduced bool    `json:"reduced"`
}

type DistortionMarker struct {
	Count   int      `json:"count"`
	Matches []string `json:"matches"`
}

// LinguisticMarkers are lexical proxies computed over whitespace tokens.
type LinguisticMarkers struct {
	TokenCount           int                         `json:"tokenCount"`
	Absolutist           AbsolutistMarker            `json:"absolutistLanguage"`
	SelfReference        SelfReferenceMarker         `json:"selfReferentialLanguage"`
	FutureTense          FutureTenseMarker           `json:"futureTenseReduction"`
	CognitiveDistortions map[string]DistortionMarker `json:"cognitiveDistortions"`
}

// DistortionTotal sums matches across all distortion categories.
func (m LinguisticMarkers) DistortionTotal() int {
	total := 0
	for _, d := range m.CognitiveDistortions {
		total += d.Count
	}
	return total
}

type LinguisticAnalysis struct {
	Markers   LinguisticMarkers `json:"markers"`
	RiskScore float64           `json:"riskScore"`
	Insights  []string          `json:"insights"`
}

type distortionMatcher struct {
	name string
	re   *regexp.Regexp
}

type LinguisticAnalyzer struct {
	rules       rules.Linguistic
	absolutist  map[string]struct{}
	selfWords   map[string]struct{}
	distortions []distortionMatcher
}

func NewLinguisticAnalyzer(r rules.Linguistic) *LinguisticAnalyzer {
	a := &LinguisticAnalyzer{
		rules:      r,
		absolutist: wordSet(r.AbsolutistWords),
		selfWords:  wordSet(r.SelfReferenceWords),
	}
	for _, d := range r.Distortions {
		if len(d.Terms) == 0 {
			continue
		}
		quoted := make([]string, len(d.Terms))
		for i, term := range d.Terms {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(term))
		}
		a.distortions = append(a.distortions, distortionMatcher{
			name: d.Name,
			re:   regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
		})
	}
	return a
}

// Analyze computes all biomarkers for text. Empty text yields zero markers,
// a zero risk score and no insights.
func (a *LinguisticAnalyzer) Analyze(text string) LinguisticAnalysis {
	tokens := tokenize(text)
	markers := LinguisticMarkers{
		TokenCount:           len(tokens),
		Absolutist:           a.absolutistLanguage(tokens),
		SelfReference:        a.selfReference(tokens),
		FutureTense:          a.futureTense(tokens),
		CognitiveDistortions: a.DetectCognitiveDistortions(text),
	}
	return LinguisticAnalysis{
		Markers:   markers,
		RiskScore: a.CalculateRisk(markers),
		Insights:  a.insights(markers),
	}
}

func (a *LinguisticAnalyzer) DetectAbsolutistLanguage(text string) AbsolutistMarker {
	return a.absolutistLanguage(tokenize(text))
}

func (a *LinguisticAnalyzer) AnalyzeSelfReference(text string) SelfReferenceMarker {
	return a.selfReference(tokenize(text))
}

func (a *LinguisticAnalyzer) AnalyzeFutureTense(text string) FutureTenseMarker {
	return a.futureTense(tokenize(text))
}

// DetectCognitiveDistortions counts whole-word matches per category. Every
// configured category is present in the result, possibly with a zero count.
func (a *LinguisticAnalyzer) DetectCognitiveDistortions(text string) map[string]DistortionMarker {
	out := make(map[string]DistortionMarker, len(a.distortions))
	for _, d := range a.distortions {
		matches := d.re.FindAllString(text, -1)
		if matches == nil {
			matches = []string{}
		}
		out[d.name] = DistortionMarker{Count: len(matches), Matches: matches}
	}
	return out
}

// CalculateRisk adds the configured weight for each tripped marker and caps
// the sum at 1.
func (a *LinguisticAnalyzer) CalculateRisk(m LinguisticMarkers) float64 {
	w := a.rules.Weights
	risk := 0.0
	if m.Absolutist.Ratio > a.rules.AbsolutistRatio {
		risk += w.Absolutist
	}
	if m.SelfReference.Excessive {
		risk += w.SelfReference
	}
	if m.FutureTense.Reduced {
		risk += w.FutureTense
	}
	if m.DistortionTotal() > a.rules.DistortionCount {
		risk += w.Distortions
	}
	return clamp01(risk)
}

func (a *LinguisticAnalyzer) insights(m LinguisticMarkers) []string {
	out := []string{}
	if m.Absolutist.Ratio > a.rules.AbsolutistRatio {
		out = append(out, a.rules.Insights.Absolutist)
	}
	if m.SelfReference.Excessive {
		out = append(out, a.rules.Insights.SelfReference)
	}
	if m.FutureTense.Reduced {
		out = append(out, a.rules.Insights.FutureTense)
	}
	if m.DistortionTotal() > a.rules.DistortionCount {
		out = append(out, a.rules.Insights.Distortions)
	}
	return out
}

func (a *LinguisticAnalyzer) absolutistLanguage(tokens []string) AbsolutistMarker {
	out := AbsolutistMarker{Words: []string{}}
	for _, tok := range tokens {
		if _, ok := a.absolutist[stripNonWord(tok)]; ok {
			out.Count++
			out.Words = append(out.Words, tok)
		}
	}
	out.Ratio = ratio(out.Count, len(tokens))
	return out
}

func (a *LinguisticAnalyzer) selfReference(tokens []string) SelfReferenceMarker {
	out := SelfReferenceMarker{}
	for _, tok := range tokens {
		if _, ok := a.selfWords[stripNonWord(tok)]; ok {
			out.Count++
		}
	}
	out.Ratio = ratio(out.Count, len(tokens))
	out.Excessive = len(tokens) > 0 && out.Ratio > a.rules.SelfReferenceRatio
	return out
}

// futureTense counts tokens containing any future marker as a substring, so
// "planning" and "hopefully" both count.
func (a *LinguisticAnalyzer) futureTense(tokens []string) FutureTenseMarker {
	out := FutureTenseMarker{}
	for _, tok := range tokens {
		for _, marker := range a.rules.FutureMarkers {
			if strings.Contains(tok, marker) {
				out.Count++
				break
			}
		}
	}
	out.Ratio = ratio(out.Count, len(tokens))
	out.Reduced = len(tokens) > 0 && out.Ratio < a.rules.FutureTenseRatio
	return out
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func stripNonWord(tok string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, tok)
}

func ratio(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

func wordSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[strings.ToLower(w)] = struct{}{}
	}
	return out
}
