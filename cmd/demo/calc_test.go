package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"2+2", 4},
		{"2 + 2", 4},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-3 + 5", 2},
		{"2 * -3", -6},
		{"1.5 + 2.5", 4},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := evaluate(tc.expr)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}

	t.Run("rejects invalid input", func(t *testing.T) {
		for _, expr := range []string{"", "2 +", "(1", "2 ** 3", "abc"} {
			_, err := evaluate(expr)
			assert.Error(t, err, expr)
		}
	})

	t.Run("division by zero", func(t *testing.T) {
		_, err := evaluate("1 / 0")
		assert.Error(t, err)
	})
}
