package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{
			name:     "trims and drops blanks",
			input:    []string{"  VP Sales ", "", "   ", "Director"},
			expected: []string{"VP Sales", "Director"},
		},
		{
			name:     "keeps first occurrence order",
			input:    []string{"Fintech", "SaaS", "Fintech"},
			expected: []string{"Fintech", "SaaS"},
		},
		{
			name:     "is case sensitive",
			input:    []string{"VP Sales", "vp sales"},
			expected: []string{"VP Sales", "vp sales"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeFold(t *testing.T) {
	got := DedupeFold([]string{" VP Sales", "vp sales", "Head of Growth", "HEAD OF GROWTH ", ""})
	assert.Equal(t, []string{"VP Sales", "Head of Growth"}, got)
	assert.Nil(t, DedupeFold(nil))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane.doe@acme.io", NormalizeEmail("  Jane.Doe@ACME.io "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
