package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestParsePartnerSpecs(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		wantErr bool
	}{
		{name: "simple", specs: []string{"Alice:10", "Bob:7.5"}},
		{name: "name with colon", specs: []string{"Smith: Jr.:4"}},
		{name: "missing hours", specs: []string{"Alice:"}, wantErr: true},
		{name: "missing name", specs: []string{":10"}, wantErr: true},
		{name: "no separator", specs: []string{"Alice 10"}, wantErr: true},
		{name: "bad hours", specs: []string{"Alice:ten"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partners, err := parsePartnerSpecs(tt.specs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, partners, len(tt.specs))
		})
	}
}

func TestComputeCommand(t *testing.T) {
	out, err := runCommand(t, "compute",
		"--amount", "100.00",
		"--partner", "Alice:10",
		"--partner", "Bob:10",
		"--partner", "Carol:10")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "$33.34")
	assert.Contains(t, out, "$33.33")
}

func TestComputeCommandJSON(t *testing.T) {
	out, err := runCommand(t, "compute",
		"--amount", "47.00",
		"--partner", "Alice:1",
		"--breakdown", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"partner_payouts"`)
	assert.Contains(t, out, `"bill_breakdown"`)
}

func TestComputeCommandRejectsBadInput(t *testing.T) {
	_, err := runCommand(t, "compute", "--amount", "0", "--partner", "Alice:10")
	require.Error(t, err)

	_, err = runCommand(t, "compute", "--amount", "10.00", "--partner", "Alice:-2")
	require.Error(t, err)

	_, err = runCommand(t, "compute",
		"--amount", "10.00", "--partner", "Alice:1",
		"--breakdown", "--profile", "nope")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown profile"))
}

func TestProfilesCommand(t *testing.T) {
	out, err := runCommand(t, "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "usd")
	assert.Contains(t, out, "$100.00")
}

func TestParseCommand(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetIn(strings.NewReader("Weekly totals\nAlice: 12\nBob - 7.5\n"))
	cmd.SetArgs([]string{"parse"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Alice")
	assert.Contains(t, buf.String(), "7.5h")
}
