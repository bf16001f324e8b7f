package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"botgreet", "botgreet", 100},
		{"", "", 100},
		{"", "botfoo", 0},
		{"botgret", "botgreet", 93},
		{"botgret", "bothelp", 57},
		{"botbaz", "botbar", 83},
		{"botfoo", "botbar", 50},
		{"botfoo", "botfoo1", 92},
		{"xyz", "botfoo", 0},
		{"hello", "botgreet", 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ratio(tt.a, tt.b), "Ratio(%q, %q)", tt.a, tt.b)
	}
}

func TestCloseness(t *testing.T) {
	assert.True(t, ClosenessBelow.close(89, 90))
	assert.False(t, ClosenessBelow.close(90, 90))
	assert.True(t, ClosenessAtLeast.close(90, 90))
	assert.False(t, ClosenessAtLeast.close(89, 90))

	c, ok := ParseCloseness("at_least")
	assert.True(t, ok)
	assert.Equal(t, ClosenessAtLeast, c)

	c, ok = ParseCloseness("")
	assert.True(t, ok)
	assert.Equal(t, ClosenessBelow, c)

	_, ok = ParseCloseness("sideways")
	assert.False(t, ok)
}
