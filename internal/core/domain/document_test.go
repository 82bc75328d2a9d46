package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocument_ZeroValue(t *testing.T) {
	var d Document
	assert.Equal(t, int64(0), d.ID)
	assert.Empty(t, d.Path)
	assert.Nil(t, d.Headings)
}

func TestDocument_InvariantUpdatedAfterCreated(t *testing.T) {
	now := time.Now().UTC()
	d := Document{CreatedAt: now, UpdatedAt: now.Add(time.Second)}
	assert.True(t, d.UpdatedAt.After(d.CreatedAt) || d.UpdatedAt.Equal(d.CreatedAt))
}

func TestHeading_OrdinalsDensePerDocument(t *testing.T) {
	headings := []Heading{
		{DocumentID: 1, Ordinal: 0, Level: 1, Text: "Intro", Anchor: "intro"},
		{DocumentID: 1, Ordinal: 1, Level: 2, Text: "Setup", Anchor: "setup"},
	}
	for i, h := range headings {
		assert.Equal(t, i, h.Ordinal)
	}
}

func TestLinkStatus_Values(t *testing.T) {
	assert.Equal(t, LinkStatus("unknown"), LinkStatusUnknown)
	assert.Equal(t, LinkStatus("ok"), LinkStatusOK)
	assert.Equal(t, LinkStatus("broken"), LinkStatusBroken)
}

func TestChunk_TokenEstimateNonNegative(t *testing.T) {
	c := Chunk{Content: "hello world", TokenEstimate: 2}
	assert.GreaterOrEqual(t, c.TokenEstimate, 0)
}
