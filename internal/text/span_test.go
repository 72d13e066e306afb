package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanString(t *testing.T) {
	single := NewSpan(
		Position{Filename: "a.bound", Offset: 4, Line: 1, Column: 5},
		Position{Filename: "a.bound", Offset: 5, Line: 1, Column: 6},
	)
	assert.Equal(t, "a.bound:1:5-6", single.String())
	assert.Equal(t, 1, single.Len())

	multi := NewSpan(
		Position{Filename: "a.bound", Offset: 0, Line: 1, Column: 1},
		Position{Filename: "a.bound", Offset: 20, Line: 3, Column: 2},
	)
	assert.Equal(t, "a.bound:1:1-3:2", multi.String())
}

func TestSpanContains(t *testing.T) {
	s := NewSpan(Position{Offset: 10}, Position{Offset: 12})
	assert.True(t, s.Contains(Position{Offset: 10}))
	assert.True(t, s.Contains(Position{Offset: 11}))
	assert.False(t, s.Contains(Position{Offset: 12}))
	assert.False(t, s.Contains(Position{Offset: 9}))
}

func TestSpanIsZero(t *testing.T) {
	assert.True(t, Span{}.IsZero())
	assert.False(t, NewSpan(Position{Line: 1}, Position{Line: 1}).IsZero())
}
