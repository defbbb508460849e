package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSize_KindSensitiveEquality(t *testing.T) {
	assert.True(t, NumberSize(10).Equal(NumberSize(10)))
	assert.True(t, TextSize("M").Equal(TextSize("M")))
	assert.False(t, NumberSize(5).Equal(TextSize("5")))
	assert.False(t, Size{}.Equal(TextSize("")))
	assert.True(t, Size{}.Equal(Size{}))
}

func TestSize_String(t *testing.T) {
	assert.Equal(t, "10", NumberSize(10).String())
	assert.Equal(t, "10.5", NumberSize(10.5).String())
	assert.Equal(t, "XL", TextSize("XL").String())
	assert.Equal(t, "", Size{}.String())
}

func TestSize_JSONKeepsKind(t *testing.T) {
	cases := []struct {
		in      string
		numeric bool
		zero    bool
		out     string
	}{
		{in: `10`, numeric: true, out: `10`},
		{in: `10.0`, numeric: true, out: `10`},
		{in: `9.5`, numeric: true, out: `9.5`},
		{in: `"10"`, out: `"10"`},
		{in: `"M"`, out: `"M"`},
		{in: `null`, zero: true, out: `null`},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			var s Size
			require.NoError(t, json.Unmarshal([]byte(tc.in), &s))
			assert.Equal(t, tc.numeric, s.IsNumber())
			assert.Equal(t, tc.zero, s.IsZero())

			out, err := json.Marshal(s)
			require.NoError(t, err)
			assert.Equal(t, tc.out, string(out))
		})
	}
}

func TestSize_UnmarshalRejectsOtherTypes(t *testing.T) {
	var s Size
	assert.Error(t, json.Unmarshal([]byte(`true`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"v":1}`), &s))
}

func TestSize_MissingFieldIsZero(t *testing.T) {
	var item LineItem
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":1}`), &item))
	assert.True(t, item.SelectedSize.IsZero())
}
