package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTechStackScanJSONArray(t *testing.T) {
	var stack TechStack
	require.NoError(t, stack.Scan([]byte(`["Go","PostgreSQL","Redis"]`)))
	assert.Equal(t, TechStack{"Go", "PostgreSQL", "Redis"}, stack)
}

func TestTechStackScanLegacyJSONString(t *testing.T) {
	var stack TechStack
	require.NoError(t, stack.Scan(`"react, next.js, tailwind"`))
	assert.Equal(t, TechStack{"react", "next.js", "tailwind"}, stack)
}

func TestTechStackScanBareText(t *testing.T) {
	var stack TechStack
	require.NoError(t, stack.Scan("vue, nuxt"))
	assert.Equal(t, TechStack{"vue", "nuxt"}, stack)
}

func TestTechStackScanNil(t *testing.T) {
	var stack TechStack
	require.NoError(t, stack.Scan(nil))
	assert.Equal(t, TechStack{}, stack)
}

func TestTechStackValueRoundTrip(t *testing.T) {
	stack := TechStack{"Go", "Docker"}

	value, err := stack.Value()
	require.NoError(t, err)

	var decoded TechStack
	require.NoError(t, decoded.Scan(value.(string)))
	assert.Equal(t, stack, decoded)
}

func TestTechStackValueNilBecomesEmptyArray(t *testing.T) {
	var stack TechStack
	value, err := stack.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)
}

func TestSplitTechStack(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"go, postgres", []string{"go", "postgres"}},
		{" react ,, vue ", []string{"react", "vue"}},
		{"", []string{}},
		{"solo", []string{"solo"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SplitTechStack(tt.input), "input=%q", tt.input)
	}
}
