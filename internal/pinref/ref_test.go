package pinref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_String(t *testing.T) {
	testCases := []struct {
		name        string
		ref         Ref
		expectedStr string
	}{
		{name: "simple", ref: New("n1", "result"), expectedStr: "n1.result"},
		{name: "uuid node", ref: New("5b8d7c1e-0a4f-4a8e-9d55-1f0c2f3b9a77", "exec_out"), expectedStr: "5b8d7c1e-0a4f-4a8e-9d55-1f0c2f3b9a77.exec_out"},
		{name: "zero", ref: Ref{}, expectedStr: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStr, tc.ref.String())
		})
	}
}

func TestRef_RoundTrip(t *testing.T) {
	for _, raw := range []string{"n1.a", "add_2.result", "5b8d7c1e-0a4f.exec_in"} {
		t.Run(raw, func(t *testing.T) {
			ref, err := Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, ref.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	testCases := []string{
		"",
		"n1",
		".pin",
		"node.",
		"node.pin.extra",
		"no de.pin",
	}

	for _, raw := range testCases {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			assert.Error(t, err)
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("broken") })
	assert.NotPanics(t, func() { MustParse("n1.a") })
}
