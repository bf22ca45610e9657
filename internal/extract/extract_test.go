// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/manuscript-formatter/internal/source"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

func sampleManuscript(t *testing.T) *source.Memory {
	t.Helper()
	return source.NewMemory().
		AddParagraph("Cell Growth Under Stress", "Title", true).
		AddParagraph("Authors", "Normal", false).
		AddParagraph("Jane Doe1, John Roe2", "Normal", false).
		AddParagraph("Abstract", "Heading 1", false).
		AddParagraph("We measured growth.", "Normal", false).
		AddParagraph("Introduction", "Heading 1", false).
		AddParagraph("Growth is shown in Figure 1 and Table 1.", "Normal", false).
		AddParagraph("Figure 1: Growth curve", "Caption", false).
		AddParagraph("Table 1: Sample sizes", "Caption", false).
		AddParagraph("References", "Heading 1", false).
		AddParagraph("[1] Doe J. Growth. 2020.", "Normal", false).
		AddImage("word/media/image1.png", pngBytes(t, 1200, 800), nil).
		AddImage("word/media/missing.png", nil, errors.New("missing part")).
		AddTable([][]string{{"Group", "N"}, {"A", "10"}}, nil)
}

func TestExtract(t *testing.T) {
	log, logs := observedLogger()
	model, report, err := Extract(sampleManuscript(t), log)
	require.NoError(t, err)

	assert.Equal(t, "Cell Growth Under Stress", model.Title)
	assert.Equal(t, []string{"Jane Doe1, John Roe2"}, model.Authors)
	assert.Equal(t, "We measured growth.", model.Abstract)
	require.Len(t, model.Body, 2)
	assert.True(t, model.Body[0].IsHeading)
	assert.Equal(t, []string{"[1] Doe J. Growth. 2020."}, model.References)

	require.Len(t, model.Figures, 1)
	assert.Equal(t, "Growth curve", model.Figure(1).Caption)
	require.Len(t, model.Tables, 1)
	assert.Equal(t, "Sample sizes", model.Table(1).Caption)

	assert.Equal(t, 11, report.Paragraphs)
	assert.Equal(t, 2, report.BodyParagraphs)
	assert.Equal(t, 1, report.Figures)
	assert.Equal(t, 1, report.Tables)
	assert.Len(t, report.Warnings, 1)
	assert.Equal(t, 1, logs.Len())
}

func TestAnalyze(t *testing.T) {
	model, citations, report, err := Analyze(sampleManuscript(t), nil)
	require.NoError(t, err)
	require.NotNil(t, model)

	require.Len(t, citations, 2)
	assert.Equal(t, types.CitationFigure, citations[0].Kind)
	assert.Equal(t, types.CitationTable, citations[1].Kind)
	assert.Equal(t, 1, citations[0].Position)
	assert.Equal(t, 2, report.Citations)
}

func TestExtractNilDocument(t *testing.T) {
	_, _, err := Extract(nil, nil)
	assert.ErrorIs(t, err, ErrExtract)
}

type panickingDoc struct{ *source.Memory }

func (panickingDoc) Paragraphs() []types.RawParagraph { panic("reader exploded") }

func TestExtractRecoversPanics(t *testing.T) {
	model, report, err := Extract(panickingDoc{source.NewMemory()}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtract)
	assert.Contains(t, err.Error(), "reader exploded")
	assert.Nil(t, model)
	assert.Nil(t, report)
}
