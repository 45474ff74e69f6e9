package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	raw := []byte(`
profiles:
  - name: usd
    denominations: ["100", "50", "20", "10", "5", "1", "0.25", "0.10", "0.05", "0.01"]
  - name: bills-only
    denominations: ["20", "10", "5", "1"]
`)
	r, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"usd", "bills-only"}, r.Names())

	set, ok := r.Get("bills-only")
	require.True(t, ok)
	require.Len(t, set, 4)
	assert.Equal(t, int64(2000), set[0].Cents)
	assert.Equal(t, int64(100), set[3].Cents)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestParseRejectsBadProfiles(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty file", `profiles: []`},
		{"ascending set", "profiles:\n  - name: x\n    denominations: [\"1\", \"5\"]"},
		{"bad value", "profiles:\n  - name: x\n    denominations: [\"twenty\"]"},
		{"duplicate name", "profiles:\n  - name: x\n    denominations: [\"1\"]\n  - name: x\n    denominations: [\"5\", \"1\"]"},
		{"empty name", "profiles:\n  - name: \"\"\n    denominations: [\"1\"]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	r := Default()
	set, ok := r.Get("usd")
	require.True(t, ok)
	assert.Equal(t, int64(10000), set[0].Cents)
	assert.Equal(t, int64(1), set[len(set)-1].Cents)
}
