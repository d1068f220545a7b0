package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitEmptyText(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)
	require.Empty(t, c.Split(""))
}

func TestSplitShortText(t *testing.T) {
	c, err := New(100, 10)
	require.NoError(t, err)
	chunks := c.Split("hello world")
	require.Equal(t, []string{"hello world"}, chunks)
}

func TestSplitCoverage(t *testing.T) {
	// Concatenating chunks with the overlap trimmed must reconstruct the
	// input exactly, and the last chunk must reach the end of the text.
	cases := []struct {
		name     string
		maxChars int
		overlap  int
		textLen  int
	}{
		{"exact multiple", 100, 20, 400},
		{"ragged tail", 100, 20, 415},
		{"no overlap", 50, 0, 123},
		{"tiny windows", 10, 3, 97},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := strings.Repeat("abcdefghij", tc.textLen/10+1)[:tc.textLen]
			c, err := New(tc.maxChars, tc.overlap)
			require.NoError(t, err)
			chunks := c.Split(text)
			require.NotEmpty(t, chunks)

			var sb strings.Builder
			sb.WriteString(chunks[0])
			for _, chunk := range chunks[1:] {
				sb.WriteString(chunk[tc.overlap:])
			}
			require.Equal(t, text, sb.String())
			require.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
		})
	}
}

func TestSplitOverlappingWindows(t *testing.T) {
	c, err := New(10, 4)
	require.NoError(t, err)
	chunks := c.Split("0123456789abcdefghij")
	require.Equal(t, "0123456789", chunks[0])
	// Next window starts at 10-4=6.
	require.Equal(t, "6789abcdef", chunks[1])
}

func TestNewRejectsBadParams(t *testing.T) {
	_, err := New(0, 0)
	require.Error(t, err)
	_, err = New(100, -1)
	require.Error(t, err)
	_, err = New(100, 100)
	require.Error(t, err)
}
