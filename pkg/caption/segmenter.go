package caption

import "strings"

const (
	// maxWordsPerSegment caps segment length for readability.
	maxWordsPerSegment = 15

	// pauseThreshold is the gap, in seconds, between consecutive words that
	// forces a new segment boundary.
	pauseThreshold = 0.5

	// shortSegmentWords is the maximum word count of a segment eligible for
	// absorption into its successor.
	shortSegmentWords = 3

	// mergeGap is the maximum gap, in seconds, between a short segment and
	// its successor for the two to be merged.
	mergeGap = 0.3
)

// Build transforms a flat, time-ordered token stream into caption segments.
//
// A new segment starts at the first word overall, after a pause longer than
// 0.5 s, or once the open segment holds 15 words. Spacing tokens are skipped
// entirely: they contribute no text, never open a segment, and do not advance
// the pause clock. A trailing pass merges short fragments (see the package
// documentation).
//
// Build never fails: an empty or nil token stream yields an empty slice.
// Segments are emitted in non-decreasing start-time order and, concatenated,
// reconstruct the spoken content in original order.
func Build(tokens []Token) []Segment {
	segments := []Segment{}

	var (
		current     strings.Builder
		segStart    float64
		wordCount   int
		lastWordEnd float64
		started     bool
	)

	for _, tok := range tokens {
		if tok.Kind != TokenWord {
			continue
		}

		boundary := !started ||
			tok.Start-lastWordEnd > pauseThreshold ||
			wordCount >= maxWordsPerSegment

		if boundary {
			if current.Len() > 0 {
				segments = append(segments, Segment{
					Text:      current.String(),
					StartTime: segStart,
					EndTime:   lastWordEnd,
				})
			}
			current.Reset()
			current.WriteString(tok.Text)
			segStart = tok.Start
			wordCount = 1
			started = true
		} else {
			current.WriteString(" ")
			current.WriteString(tok.Text)
			wordCount++
		}

		lastWordEnd = tok.End
	}

	if current.Len() > 0 {
		segments = append(segments, Segment{
			Text:      current.String(),
			StartTime: segStart,
			EndTime:   lastWordEnd,
		})
	}

	return mergeShort(segments)
}

// mergeShort absorbs segments of at most shortSegmentWords words into their
// immediate successor when the gap between them is under mergeGap seconds.
// The successor inherits the absorbed segment's start time and gains its text
// as a prefix.
//
// The scan is single-pass and non-recursive: a segment that has just absorbed
// its predecessor is emitted as-is and is not itself a merge candidate. A
// short segment with no successor is kept unchanged.
func mergeShort(segments []Segment) []Segment {
	refined := make([]Segment, 0, len(segments))
	absorbed := false

	for i := range segments {
		cur := segments[i]

		if absorbed {
			refined = append(refined, cur)
			absorbed = false
			continue
		}

		if i+1 < len(segments) &&
			len(strings.Fields(cur.Text)) <= shortSegmentWords &&
			segments[i+1].StartTime-cur.EndTime < mergeGap {
			segments[i+1].Text = cur.Text + " " + segments[i+1].Text
			segments[i+1].StartTime = cur.StartTime
			absorbed = true
			continue
		}

		refined = append(refined, cur)
	}

	return refined
}
