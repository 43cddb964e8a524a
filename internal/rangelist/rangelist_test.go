package rangelist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/mbpoll/internal/fault"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"32,33,34,36:40", []int{32, 33, 34, 36, 37, 38, 39, 40}},
		{"9:5", []int{5, 6, 7, 8, 9}},
		{"7", []int{7}},
		{"0x10,3", []int{16, 3}},
		{"5,1:2,5", []int{5, 1, 2, 5}},
		{"-2:1", []int{-2, -1, 0, 1}},
		{"4:4", []int{4}},
		{"", nil},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Expand(tc.in, "slave address")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpandSyntaxErrors(t *testing.T) {
	for _, in := range []string{"1,:3", "1::3", "1:", ":", "1:2:3", "a", "1;2", "1,,2", "0x"} {
		t.Run(in, func(t *testing.T) {
			_, err := Expand(in, "start reference")
			require.Error(t, err)
			assert.True(t, errors.Is(err, fault.ErrSyntax), "got %v", err)
		})
	}
}

func TestExpandTooLong(t *testing.T) {
	_, err := Expand("0:70000", "start reference")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrConfig))
}

func TestFormatIsIdempotentThroughExpand(t *testing.T) {
	for _, in := range []string{"32,33,34,36:40", "9:5", "1,1,2", "0x20:0x22,7"} {
		first, err := Expand(in, "slave address")
		require.NoError(t, err)

		second, err := Expand(Format(first), "slave address")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}
