package prompt

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLine(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("  /data/fleet  \nsecond\nlast"), &out)

	answer, err := p.Line("Folder: ")
	require.NoError(t, err)
	assert.Equal(t, "/data/fleet", answer)
	assert.Equal(t, "Folder: ", out.String())

	answer, err = p.Line("> ")
	require.NoError(t, err)
	assert.Equal(t, "second", answer)

	answer, err = p.Line("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", answer, "final line without newline")

	_, err = p.Line("> ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestLine_WindowsLineEnding(t *testing.T) {
	p := New(strings.NewReader("C:\\fleet\r\n"), io.Discard)

	answer, err := p.Line("> ")
	require.NoError(t, err)
	assert.Equal(t, "C:\\fleet", answer)
}

func TestRequired(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("\n   \nlocalhost\n"), &out)

	answer, err := p.Required("Host: ")
	require.NoError(t, err)
	assert.Equal(t, "localhost", answer)
	assert.Equal(t, 2, strings.Count(out.String(), "A value is required."))
}

func TestRequired_EOF(t *testing.T) {
	p := New(strings.NewReader("\n"), io.Discard)

	_, err := p.Required("Host: ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestYesNo(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{" YES \n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := New(strings.NewReader(tt.input), &out)
			assert.Equal(t, tt.expected, p.YesNo("Proceed?"))
			assert.True(t, strings.HasPrefix(out.String(), "Proceed? (y/n): "))
		})
	}
}

func TestPassword_NonTerminal(t *testing.T) {
	p := New(strings.NewReader("s3cret\n"), io.Discard)

	secret, err := p.Password("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)
}
