package generate

import (
	"strings"

	"ai-examprep-be/internal/constant"
)

// Weights of the explanation quality heuristic. They sum to 1.
const (
	lengthWeight        = 0.3
	connectiveWeight    = 0.25
	domainTermWeight    = 0.25
	answerOverlapWeight = 0.2
)

// ExplanationQuality scores an explanation between 0 and 1 from its
// length, use of reasoning connectives, coverage of the topic's domain
// terms and lexical overlap with the correct answer.
func ExplanationQuality(explanation, topic, correctAnswer string) float64 {
	lower := strings.ToLower(explanation)
	score := lengthScore(len(explanation))*lengthWeight +
		connectiveScore(lower)*connectiveWeight +
		domainTermScore(lower, topic)*domainTermWeight +
		answerOverlap(lower, correctAnswer)*answerOverlapWeight

	if score > 1 {
		return 1
	}
	return score
}

// lengthScore ramps from 40 characters up to full credit at 200.
func lengthScore(n int) float64 {
	switch {
	case n < 40:
		return 0
	case n >= 200:
		return 1
	default:
		return float64(n-40) / 160
	}
}

// connectiveScore gives full credit at three distinct reasoning markers.
func connectiveScore(lower string) float64 {
	found := 0
	for _, c := range constant.LogicalConnectives {
		if strings.Contains(lower, c) {
			found++
			if found == 3 {
				break
			}
		}
	}
	return float64(found) / 3
}

// domainTermScore gives full credit at three domain terms for the
// topic. Topics without a term list score full, there is nothing to
// check against.
func domainTermScore(lower, topic string) float64 {
	terms := domainTerms(topic)
	if len(terms) == 0 {
		return 1
	}

	hits := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			hits++
			if hits == 3 {
				break
			}
		}
	}
	return float64(hits) / 3
}

func domainTerms(topic string) []string {
	lower := strings.ToLower(topic)
	seen := make(map[string]bool)
	var terms []string
	for key, keyTerms := range constant.TopicDomainTerms {
		if !strings.Contains(lower, key) {
			continue
		}
		for _, term := range keyTerms {
			if !seen[term] {
				seen[term] = true
				terms = append(terms, term)
			}
		}
	}
	return terms
}

// answerOverlap is the fraction of the correct answer's content tokens
// that appear in the explanation.
func answerOverlap(explanationLower, correctAnswer string) float64 {
	answerTokens := tokens(correctAnswer)
	if len(answerTokens) == 0 {
		return 0
	}

	explTokens := make(map[string]bool)
	for _, tok := range tokens(explanationLower) {
		explTokens[tok] = true
	}

	hits := 0
	for _, tok := range answerTokens {
		if explTokens[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(answerTokens))
}

// jaccardSimilarity compares the token sets of two strings.
func jaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokens(s) {
		set[tok] = true
	}
	return set
}

// tokens lowercases and splits on non-alphanumeric runes, dropping stop
// words and single characters.
func tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || constant.StopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
