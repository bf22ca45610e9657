// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// Citation patterns. The label word is case-insensitive; a figure number
// may carry one uppercase sub-panel letter ("1A").
var (
	figureCitePatterns = []*regexp.Regexp{
		// (Fig. 1), (Fig 1A)
		regexp.MustCompile(`\(\s*\*{0,2}(?i:fig)\.?\s+(\d+[A-Z]?)\s*\)`),
		// Figure 1, **Figure 1A**
		regexp.MustCompile(`\*{0,2}(?i:figure)\s+(\d+[A-Z]?)\*{0,2}`),
		// (Figure 1)
		regexp.MustCompile(`\(\s*\*{0,2}(?i:figure)\s+(\d+[A-Z]?)\s*\)`),
	}

	tableCitePatterns = []*regexp.Regexp{
		// (Tab. 1)
		regexp.MustCompile(`\(\s*\*{0,2}(?i:tab)\.?\s+(\d+)\s*\)`),
		// Table 1, **Table 1**
		regexp.MustCompile(`\*{0,2}(?i:table)\s+(\d+)\*{0,2}`),
		// (Table 1)
		regexp.MustCompile(`\(\s*\*{0,2}(?i:table)\s+(\d+)\s*\)`),
	}
)

// LocateCitations scans the body paragraphs for figure and table mentions.
// Every pattern is applied to every paragraph; the result is de-duplicated
// by (kind, number, position), keeping the first occurrence, and stably
// sorted by position.
func LocateCitations(body []types.BodyParagraph) []types.Citation {
	var found []types.Citation
	for _, p := range body {
		found = appendMatches(found, p, types.CitationFigure, figureCitePatterns)
		found = appendMatches(found, p, types.CitationTable, tableCitePatterns)
	}

	seen := make(map[string]bool, len(found))
	citations := make([]types.Citation, 0, len(found))
	for _, c := range found {
		if seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		citations = append(citations, c)
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].Position < citations[j].Position
	})
	return citations
}

func appendMatches(dst []types.Citation, p types.BodyParagraph, kind types.CitationKind, patterns []*regexp.Regexp) []types.Citation {
	for _, re := range patterns {
		for _, match := range re.FindAllStringSubmatchIndex(p.Text, -1) {
			dst = append(dst, types.Citation{
				Kind:        kind,
				Number:      p.Text[match[2]:match[3]],
				Position:    p.Position,
				MatchedText: p.Text[match[0]:match[1]],
				Context:     extractContext(p.Text, match[0], match[1]),
			})
		}
	}
	return dst
}

// extractContext returns a snippet of surrounding text around a citation.
// It takes up to 40 characters before and after the match boundaries.
func extractContext(text string, start, end int) string {
	const window = 40
	ctxStart := start - window
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + window
	if ctxEnd > len(text) {
		ctxEnd = len(text)
	}
	snippet := strings.ToValidUTF8(text[ctxStart:ctxEnd], "")
	// Trim to word boundaries.
	if ctxStart > 0 {
		if i := strings.IndexByte(snippet, ' '); i >= 0 && i < window {
			snippet = snippet[i+1:]
		}
	}
	if ctxEnd < len(text) {
		if i := strings.LastIndexByte(snippet, ' '); i >= 0 && i > len(snippet)-window {
			snippet = snippet[:i]
		}
	}
	return strings.TrimSpace(snippet)
}
