package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotNil(t *testing.T) {
	var nilPtr *int
	var nilMap map[string]int
	one := 1

	testCases := []struct {
		name   string
		value  any
		panics bool
	}{
		{name: "nil interface", value: nil, panics: true},
		{name: "nil pointer", value: nilPtr, panics: true},
		{name: "nil map", value: nilMap, panics: true},
		{name: "pointer", value: &one, panics: false},
		{name: "zero int", value: 0, panics: false},
		{name: "empty string", value: "", panics: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.panics {
				require.PanicsWithValue(t, "expected value to be not nil", func() { NotNil(tc.value, "value") })
				return
			}
			require.NotPanics(t, func() { NotNil(tc.value, "value") })
		})
	}
}

func TestNotEmptyStr(t *testing.T) {
	require.PanicsWithValue(t, "expected base url to be non-empty", func() { NotEmptyStr("", "base url") })
	require.NotPanics(t, func() { NotEmptyStr("x", "base url") })
}
