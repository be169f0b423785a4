// Package lexical provides a deterministic entailment scorer based on
// content-word coverage and negation cues. It stands in for a model
// based scorer where reproducibility matters more than recall; the
// scorer contract allows swapping in an NLI model without touching the
// classifier.
package lexical

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// Ensure Scorer implements the interface.
var _ driven.EntailmentScorer = (*Scorer)(nil)

// coverageBoundary is the obligation-keyword coverage at which the
// verdict flips from not-entailed to entailed.
const coverageBoundary = 0.4

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "must": {}, "of": {}, "on": {},
	"or": {}, "shall": {}, "that": {}, "the": {}, "to": {}, "will": {},
	"with": {}, "all": {}, "any": {}, "each": {}, "every": {},
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "without": {}, "neither": {},
	"nor": {}, "lacks": {}, "lacking": {}, "absent": {},
}

// Scorer classifies (statement, obligation) pairs by lexical coverage.
type Scorer struct{}

// New creates a lexical entailment scorer.
func New() *Scorer {
	return &Scorer{}
}

// Score computes obligation-keyword coverage of the statement. High
// coverage means the statement speaks to the obligation's terms;
// negation cues in the statement flip the verdict. Confidence grows
// with distance from the decision boundary, so borderline pairs land
// below typical confidence floors and reach the review gate.
func (s *Scorer) Score(_ context.Context, statement, obligation string) (driven.EntailmentResult, error) {
	obligationTerms := contentWords(obligation)
	if len(obligationTerms) == 0 {
		return driven.EntailmentResult{Entailed: true, Confidence: 0}, nil
	}

	statementTokens := tokens(statement)
	statementSet := make(map[string]struct{}, len(statementTokens))
	negated := false
	for _, tok := range statementTokens {
		statementSet[tok] = struct{}{}
		if _, ok := negations[tok]; ok {
			negated = true
		}
	}

	covered := 0
	for term := range obligationTerms {
		if _, ok := statementSet[term]; ok {
			covered++
		}
	}
	coverage := float64(covered) / float64(len(obligationTerms))

	entailed := coverage >= coverageBoundary
	if negated {
		entailed = !entailed
	}

	confidence := (coverage - coverageBoundary) / coverageBoundary
	if confidence < 0 {
		confidence = -confidence
	}
	if confidence > 1 {
		confidence = 1
	}

	return driven.EntailmentResult{Entailed: entailed, Confidence: confidence}, nil
}

// contentWords returns the stopword-filtered token set of text.
func contentWords(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokens(text) {
		if _, ok := stopwords[tok]; ok {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// tokens lower-cases and splits text on non-alphanumeric runes.
func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
