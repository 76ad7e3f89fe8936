package caption

import (
	"encoding/json"
	"fmt"
)

// rawPayload mirrors the minimal schema of a Mux transcript JSON document.
// Fields other than "words" are ignored.
type rawPayload struct {
	Words []rawWord `json:"words"`
}

// rawWord is a single entry of the "words" array.
type rawWord struct {
	Type  string  `json:"type"`
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// DecodeWords parses a raw transcript payload into a token stream.
//
// The payload is validated defensively: a payload without a "words" field
// decodes to an empty (non-nil) token slice. Only syntactically invalid JSON
// returns an error.
func DecodeWords(data []byte) ([]Token, error) {
	var p rawPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("caption: decode payload: %w", err)
	}

	tokens := make([]Token, 0, len(p.Words))
	for _, w := range p.Words {
		tokens = append(tokens, Token{
			Kind:  TokenKind(w.Type),
			Text:  w.Text,
			Start: w.Start,
			End:   w.End,
		})
	}
	return tokens, nil
}

// FromRaw decodes a raw transcript payload and segments it in one step.
// Equivalent to [DecodeWords] followed by [Build].
func FromRaw(data []byte) ([]Segment, error) {
	tokens, err := DecodeWords(data)
	if err != nil {
		return nil, err
	}
	return Build(tokens), nil
}
