package ai

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Defaults used by ingestion when the config leaves them unset.
const (
	DefaultChunkSize   = 2000
	DefaultOverlapSize = 200
)

var (
	spaceRunRegex    = regexp.MustCompile(`[ \t\r\f\v]+`)
	newlineEdgeRegex = regexp.MustCompile(`[^\S\n]*\n[^\S\n]*`)
	blankLineRegex   = regexp.MustCompile(`\n{2,}`)
)

// CleanText collapses runs of whitespace to a single space, collapses blank
// lines, and trims the result. Spaces left stranded next to a newline by the
// first pass (e.g. from \r\n) are stripped before blank lines collapse.
func CleanText(text string) string {
	text = spaceRunRegex.ReplaceAllString(text, " ")
	text = newlineEdgeRegex.ReplaceAllString(text, "\n")
	text = blankLineRegex.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// SplitWithOverlap cuts text into windows of roughly chunkSize characters.
// When a window's right edge falls inside the text, it is extended to the
// nearest sentence terminator so chunks end on sentence boundaries; the
// lookahead is capped at one chunkSize to bound chunk growth on texts with
// no terminators. Consecutive chunks share an overlap of about overlap
// characters so context survives the boundary.
func SplitWithOverlap(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}
	var chunks []string
	start := 0
	for start < total {
		end := start + chunkSize
		if end >= total {
			end = total
		} else {
			limit := end + chunkSize
			if limit > total {
				limit = total
			}
			for i := end - 1; i < limit; i++ {
				if isSentenceEnd(runes[i]) {
					end = i + 1
					break
				}
			}
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		if end >= total {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

// TokenEstimate is a heuristic count, never a verified tokenizer result.
// It must not be used to hard-truncate provider payloads.
type TokenEstimate int

// EstimateTokens averages two rough heuristics: one token per 0.75 words
// and one token per 4 characters.
func EstimateTokens(text string) TokenEstimate {
	words := float64(len(strings.Fields(text)))
	chars := float64(utf8.RuneCountInString(text))
	est := (words/0.75 + chars/4) / 2
	return TokenEstimate(math.Round(est))
}
