package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	set := NewSet("post", "user")

	assert.True(t, set.Contains("post"))
	assert.False(t, set.Contains("comment"))

	assert.True(t, set.Add("comment"))
	assert.False(t, set.Add("comment"), "adding a present item reports false")
	assert.True(t, set.Contains("comment"))

	set.Remove("post")
	set.Remove("missing")
	assert.False(t, set.Contains("post"))
	assert.True(t, set.Contains("user"))
}

func TestSortedKeys(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]int
		want []string
	}{
		{name: "nil map", in: nil, want: []string{}},
		{name: "single", in: map[string]int{"a": 1}, want: []string{"a"}},
		{name: "unordered", in: map[string]int{"zeta": 1, "alpha": 2, "mid": 3}, want: []string{"alpha", "mid", "zeta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SortedKeys(tt.in))
		})
	}
}
