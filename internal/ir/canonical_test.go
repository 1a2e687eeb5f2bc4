package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalContext(t *testing.T) {
	ctx := Context{
		"value":    Number(50),
		"disabled": Bool(false),
		"label":    String("volume"),
	}
	data, err := MarshalCanonical(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"disabled":false,"label":"volume","value":50}`, string(data))
}

func TestMarshalCanonicalIntegralNumbers(t *testing.T) {
	data, err := MarshalCanonical(Number(50))
	require.NoError(t, err)
	assert.Equal(t, "50", string(data))

	data, err = MarshalCanonical(Number(-3))
	require.NoError(t, err)
	assert.Equal(t, "-3", string(data))

	data, err = MarshalCanonical(Number(2.5))
	require.NoError(t, err)
	assert.Equal(t, "2.5", string(data))

	data, err = MarshalCanonical(Number(0))
	require.NoError(t, err)
	assert.Equal(t, "0", string(data))
}

func TestMarshalCanonicalSmallAndLargeNumbers(t *testing.T) {
	// ECMAScript number-to-string: decimal notation down to 1e-6 and up
	// to (but excluding) 1e21, exponent notation with an unpadded
	// exponent beyond those bounds.
	cases := []struct {
		in   float64
		want string
	}{
		{0.00001, "0.00001"},
		{0.000001, "0.000001"},
		{0.0000001, "1e-7"},
		{2.5e-8, "2.5e-8"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{-1.5e22, "-1.5e+22"},
	}
	for _, tc := range cases {
		data, err := MarshalCanonical(Number(tc.in))
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(data))
	}
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	data, err := MarshalCanonical(String("<a> & </a>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a> & </a>"`, string(data))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// Decomposed e + combining acute normalizes to composed U+00E9.
	data, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(data))
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as a surrogate pair starting 0xD83D, which sorts
	// before U+FB14 in UTF-16 code units; byte-wise UTF-8 order would
	// put U+FB14 first.
	m := map[string]any{
		"\U0001F600": 1,
		"\uFB14":     2,
	}
	data, err := MarshalCanonical(m)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\uFB14\":2}", string(data))
}

func TestMarshalCanonicalRejectsNullAndNaN(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonicalNested(t *testing.T) {
	m := map[string]any{
		"steps": []any{
			map[string]any{"seq": 0, "handled": true},
		},
		"vector": "demo",
	}
	data, err := MarshalCanonical(m)
	require.NoError(t, err)
	assert.Equal(t, `{"steps":[{"handled":true,"seq":0}],"vector":"demo"}`, string(data))
}
