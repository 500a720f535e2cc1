package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "503-5494699", want: "503-5494699"},
		{input: "color_design_12", want: `color\_design\_12`},
		{input: "100%", want: `100\%`},
		{input: `a\b`, want: `a\\b`},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeLike(tt.input))
		})
	}
}
