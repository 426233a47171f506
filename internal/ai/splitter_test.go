package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "hello world", want: "hello world"},
		{name: "space runs", in: "hello\t\t  world", want: "hello world"},
		{name: "blank lines", in: "first\n\n\nsecond", want: "first\nsecond"},
		{name: "surrounding whitespace", in: "  \n padded \n  ", want: "padded"},
		{name: "windows line endings", in: "a\r\n\r\nb", want: "a\nb"},
		{name: "spaces around blank line", in: "para one.   \n\n   para two.", want: "para one.\npara two."},
		{name: "tabs around newline", in: "a\t\n\tb", want: "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestSplitWithOverlapEmpty(t *testing.T) {
	require.Nil(t, SplitWithOverlap("", 2000, 200))
	require.Nil(t, SplitWithOverlap("   ", 2000, 200))
}

func TestSplitWithOverlapShortInput(t *testing.T) {
	text := "short text, well under one chunk."
	chunks := SplitWithOverlap(text, 2000, 200)
	require.Equal(t, []string{text}, chunks)
}

func TestSplitWithOverlapNoTerminators(t *testing.T) {
	// Without sentence terminators every window must end exactly at chunkSize.
	text := strings.Repeat("abcdefghij", 500) // 5000 chars
	chunks := SplitWithOverlap(text, 2000, 200)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], 2000)
	require.Len(t, chunks[1], 2000)
	require.Len(t, chunks[2], 1400)
}

func TestSplitWithOverlapOverlapInvariant(t *testing.T) {
	text := strings.Repeat("abcdefghij", 500)
	overlap := 200
	chunks := SplitWithOverlap(text, 2000, overlap)
	require.Greater(t, len(chunks), 1)
	for i := 0; i+1 < len(chunks); i++ {
		tail := chunks[i][len(chunks[i])-overlap:]
		head := chunks[i+1][:overlap]
		require.Equal(t, tail, head, "chunks %d and %d must share the overlap span", i, i+1)
	}
}

func TestSplitWithOverlapCoverage(t *testing.T) {
	text := strings.Repeat("abcdefghij", 500)
	overlap := 200
	chunks := SplitWithOverlap(text, 2000, overlap)
	rebuilt := chunks[0]
	for _, chunk := range chunks[1:] {
		rebuilt += chunk[overlap:]
	}
	require.Equal(t, text, rebuilt)
}

func TestSplitWithOverlapSentenceBoundaries(t *testing.T) {
	text := "abcdefgh. jklmnopqrstuv."
	chunks := SplitWithOverlap(text, 10, 2)
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		require.True(t, strings.HasSuffix(chunk, "."), "chunk %d should end on a sentence boundary: %q", i, chunk)
	}
}

func TestSplitWithOverlapLookaheadCapped(t *testing.T) {
	// One giant sentence: the terminator is far beyond one chunkSize of
	// lookahead, so windows fall back to exact chunkSize cuts.
	text := strings.Repeat("x", 95) + "."
	chunks := SplitWithOverlap(text, 10, 0)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks[:len(chunks)-1] {
		require.LessOrEqual(t, len(chunk), 20)
	}
}

func TestSplitWithOverlapOrdinalsCoverInput(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one closes."
	chunks := SplitWithOverlap(text, 25, 5)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		require.NotEmpty(t, chunk)
		require.Contains(t, text, chunk)
	}
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, TokenEstimate(0), EstimateTokens(""))

	// "aaaa": 1 word, 4 chars -> (1/0.75 + 4/4) / 2 = 1.17 -> 1
	require.Equal(t, TokenEstimate(1), EstimateTokens("aaaa"))

	// "hello world": 2 words, 11 chars -> (2.67 + 2.75) / 2 = 2.71 -> 3
	require.Equal(t, TokenEstimate(3), EstimateTokens("hello world"))

	long := strings.Repeat("word ", 100)
	require.Greater(t, int(EstimateTokens(long)), 50)
}
