package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_HighCoverageEntails(t *testing.T) {
	s := New()

	res, err := s.Score(context.Background(),
		"All customer data is stored in Qatar within our Doha data centre.",
		"Customer data must be stored in Qatar.")

	require.NoError(t, err)
	assert.True(t, res.Entailed)
	assert.Greater(t, res.Confidence, 0.5)
}

func TestScore_LowCoverageDoesNotEntail(t *testing.T) {
	s := New()

	res, err := s.Score(context.Background(),
		"Our platform offers peer to peer lending to retail investors.",
		"The firm appoints a dedicated compliance officer approved by the regulator.")

	require.NoError(t, err)
	assert.False(t, res.Entailed)
}

func TestScore_NegationFlipsVerdict(t *testing.T) {
	s := New()

	res, err := s.Score(context.Background(),
		"Customer data is not stored in Qatar.",
		"Customer data must be stored in Qatar.")

	require.NoError(t, err)
	assert.False(t, res.Entailed)
}

func TestScore_BorderlineCoverageHasLowConfidence(t *testing.T) {
	s := New()

	// Two of five obligation content words are covered: coverage 0.4,
	// exactly on the boundary.
	res, err := s.Score(context.Background(),
		"We maintain records internally.",
		"maintain transaction records five years")

	require.NoError(t, err)
	assert.True(t, res.Entailed)
	assert.InDelta(t, 0, res.Confidence, 0.01)
}

func TestScore_EmptyObligation(t *testing.T) {
	s := New()

	res, err := s.Score(context.Background(), "anything", "the must of and")

	require.NoError(t, err)
	assert.True(t, res.Entailed)
	assert.Zero(t, res.Confidence)
}

func TestScore_Deterministic(t *testing.T) {
	s := New()

	statement := "Transactions are capped at 45,000 QAR per customer."
	obligation := "Enhanced due diligence applies to transactions above 50,000 QAR."

	first, err := s.Score(context.Background(), statement, obligation)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := s.Score(context.Background(), statement, obligation)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
