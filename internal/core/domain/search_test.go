package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreBreakdown_Total(t *testing.T) {
	b := ScoreBreakdown{Vector: 1.0, Chunk: 1.0, Lexical: 1.0, Concept: 1.0, Freshness: 0.05}
	assert.InDelta(t, 1.05, b.Total(), 1e-9)
}

func TestScoreBreakdown_MonotoneInEachComponent(t *testing.T) {
	base := ScoreBreakdown{Vector: 0.2, Chunk: 0.2, Lexical: 0.2, Concept: 0.0, Freshness: 0.0}
	higher := base
	higher.Vector = 0.5
	assert.Greater(t, higher.Total(), base.Total())

	higher = base
	higher.Chunk = 0.5
	assert.Greater(t, higher.Total(), base.Total())

	higher = base
	higher.Lexical = 0.5
	assert.Greater(t, higher.Total(), base.Total())

	higher = base
	higher.Concept = 1.0
	assert.Greater(t, higher.Total(), base.Total())

	higher = base
	higher.Freshness = 0.05
	assert.Greater(t, higher.Total(), base.Total())
}

func TestScoreBreakdown_BoundedByOnePointZeroFive(t *testing.T) {
	b := ScoreBreakdown{Vector: 1, Chunk: 1, Lexical: 1, Concept: 1, Freshness: 0.05}
	assert.LessOrEqual(t, b.Total(), 1.05)
}

func TestSearchMode_Values(t *testing.T) {
	assert.Equal(t, SearchMode("semantic"), SearchModeSemantic)
	assert.Equal(t, SearchMode("lexical"), SearchModeLexical)
}
