// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

func body(texts ...string) []types.BodyParagraph {
	out := make([]types.BodyParagraph, len(texts))
	for i, text := range texts {
		out[i] = types.BodyParagraph{Position: i, SourceIndex: i, Text: text}
	}
	return out
}

func citationKeys(cs []types.Citation) []string {
	keys := make([]string, len(cs))
	for i, c := range cs {
		keys[i] = c.Key()
	}
	return keys
}

func TestLocateCitationsForms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "bare figure", text: "as shown in Figure 1.", want: []string{"figure|1|0"}},
		{name: "bold figure", text: "see **Figure 2A** here", want: []string{"figure|2A|0"}},
		{name: "fig abbreviation", text: "growth (Fig. 3) and (fig 4B)", want: []string{"figure|3|0", "figure|4B|0"}},
		{name: "parenthesized figure", text: "growth (Figure 5)", want: []string{"figure|5|0"}},
		{name: "lowercase word", text: "in figure 6", want: []string{"figure|6|0"}},
		{name: "lowercase suffix not a panel", text: "in Figure 7b", want: []string{"figure|7|0"}},
		{name: "bare table", text: "listed in Table 1", want: []string{"table|1|0"}},
		{name: "tab abbreviation", text: "values (Tab. 2)", want: []string{"table|2|0"}},
		{name: "parenthesized table", text: "values (TABLE 3)", want: []string{"table|3|0"}},
		{name: "figures then tables", text: "Table 1 and Figure 1", want: []string{"figure|1|0", "table|1|0"}},
		{name: "no citation", text: "Figures are discussed later.", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocateCitations(body(tt.text))
			assert.Equal(t, tt.want, citationKeys(got))
		})
	}
}

func TestLocateCitationsDeduplicates(t *testing.T) {
	got := LocateCitations(body("Figure 1 shows growth (Figure 1) and Figure 1 again."))
	require.Len(t, got, 1)
	assert.Equal(t, "Figure 1", got[0].MatchedText)
	assert.Equal(t, "1", got[0].Number)
}

func TestLocateCitationsOrdering(t *testing.T) {
	paras := []types.BodyParagraph{
		{Position: 2, Text: "see Figure 2"},
		{Position: 0, Text: "see Figure 1"},
		{Position: 5, Text: "see Table 1"},
	}
	got := LocateCitations(paras)

	positions := make([]int, len(got))
	for i, c := range got {
		positions[i] = c.Position
	}
	assert.Equal(t, []int{0, 2, 5}, positions)
}

func TestLocateCitationsStableWithinPosition(t *testing.T) {
	got := LocateCitations(body("", "Table 2, then Figure 3, then Figure 1"))
	assert.Equal(t, []string{"figure|3|1", "figure|1|1", "table|2|1"}, citationKeys(got))
}

func TestLocateCitationsIdempotent(t *testing.T) {
	paras := body(
		"Intro mentions Figure 1 and (Tab. 1).",
		"Then (Fig. 2A), **Figure 2B** and Table 3.",
		"Nothing here.",
		"Back to Figure 1.",
	)
	first := LocateCitations(paras)
	second := LocateCitations(paras)
	assert.Equal(t, first, second)
	assert.Len(t, first, 6)
}

func TestLocateCitationsContext(t *testing.T) {
	text := "The first experiment measured a remarkable amount of growth as shown in Figure 4 across all the samples that were tested in the lab."
	got := LocateCitations(body(text))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Context, "Figure 4")
	assert.Less(t, len(got[0].Context), len(text))
}

func TestExtractContextShortText(t *testing.T) {
	assert.Equal(t, "see Figure 1", extractContext("see Figure 1", 4, 12))
}
