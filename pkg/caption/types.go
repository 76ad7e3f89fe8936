// Package caption converts raw word-level transcript timing data, as emitted
// by the Mux auto-generated text track endpoint, into readable, time-aligned
// caption segments.
//
// The package is pure: [Build] performs no I/O and is deterministic, so the
// same raw payload always yields the same segment sequence. Persistence and
// retrieval live in internal/store and internal/transcripts respectively.
//
// Segmentation follows three rules:
//
//  1. A pause of more than 0.5 s between consecutive words starts a new
//     segment (approximates sentence and phrase boundaries).
//  2. A segment never holds more than 15 words (bounds caption line length
//     for readability).
//  3. A trailing pass absorbs segments of up to 3 words into their successor
//     when the gap between them is under 0.3 s (orphaned one-to-three-word
//     fragments are visually jarring as standalone captions).
package caption

// TokenKind discriminates the entry types found in a Mux transcript word
// stream.
type TokenKind string

const (
	// TokenWord is a recognised spoken word carrying text and timing.
	TokenWord TokenKind = "word"

	// TokenSpacing is a non-content spacing marker between words. Spacing
	// tokens never contribute text, never start a segment, and do not
	// advance timing.
	TokenSpacing TokenKind = "spacing"
)

// Token is a single entry of the raw transcript word stream. Tokens are
// ephemeral: they exist only during segmentation and are never persisted.
type Token struct {
	// Kind classifies the token. Only [TokenWord] tokens carry content.
	Kind TokenKind

	// Text is the token's text content.
	Text string

	// Start is the token's start time in seconds from the beginning of the
	// video. Start <= End.
	Start float64

	// End is the token's end time in seconds.
	End float64
}

// Segment is a displayable caption unit: a contiguous, time-bounded span of
// text intended for simultaneous on-screen display during playback.
//
// The JSON field names match the persisted record shape consumed by the web
// front-end.
type Segment struct {
	// Text is the space-joined text of one or more word tokens. Non-empty
	// for every segment produced by [Build].
	Text string `json:"text"`

	// StartTime is the start time of the first constituent word, in seconds.
	StartTime float64 `json:"startTime"`

	// EndTime is the end time of the last constituent word, in seconds.
	// StartTime <= EndTime for every segment.
	EndTime float64 `json:"endTime"`
}
