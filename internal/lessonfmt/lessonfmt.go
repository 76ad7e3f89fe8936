// Package lessonfmt turns free-form lesson description text into a typed
// block sequence that display layers can render without re-parsing.
//
// Paragraphs are separated by blank lines. Each paragraph is classified by
// shape: a leading "1. " marks a numbered list item, a short line without
// sentence punctuation (or one written in all caps) is a section heading,
// and everything else is a plain paragraph.
package lessonfmt

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// BlockKind classifies a formatted paragraph.
type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindListItem  BlockKind = "list_item"
	KindParagraph BlockKind = "paragraph"
)

// Block is one classified paragraph of lesson text.
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// headingMaxLen is the length under which a dot-free paragraph counts as a
// heading rather than a sentence.
const headingMaxLen = 100

var listItemRe = regexp.MustCompile(`^\d+\.\s`)

// Format splits text into paragraphs on blank lines and classifies each one.
// The returned slice is never nil; empty input yields zero blocks.
func Format(text string) []Block {
	blocks := []Block{}
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		blocks = append(blocks, Block{Kind: classify(paragraph), Text: paragraph})
	}
	return blocks
}

func classify(paragraph string) BlockKind {
	if listItemRe.MatchString(paragraph) {
		return KindListItem
	}
	if utf8.RuneCountInString(paragraph) < headingMaxLen && !strings.Contains(paragraph, ".") {
		return KindHeading
	}
	if strings.ToUpper(paragraph) == paragraph {
		return KindHeading
	}
	return KindParagraph
}
