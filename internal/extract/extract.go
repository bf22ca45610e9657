// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract builds the content model of a manuscript: it classifies
// raw paragraphs into title, authors, abstract, body and references, pulls
// out figures and tables with their captions, and locates in-text figure and
// table citations.
package extract

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/manuscript-formatter/internal/source"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// ErrExtract wraps any fault that escapes the extract phase. It is fatal
// for the run.
var ErrExtract = errors.New("content extraction failed")

// Extract classifies the document's paragraphs and extracts its figures and
// tables. Per-asset failures are logged and recorded in the report; only a
// fault that aborts the whole phase is returned, wrapped in ErrExtract.
func Extract(doc source.Document, log *zap.Logger) (model *types.ContentModel, report *types.RunReport, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	defer func() {
		if r := recover(); r != nil {
			model, report = nil, nil
			err = fmt.Errorf("%w: %v", ErrExtract, r)
		}
	}()

	if doc == nil {
		return nil, nil, fmt.Errorf("%w: no document", ErrExtract)
	}

	paragraphs := doc.Paragraphs()
	sections := Classify(paragraphs)
	captions := BuildCaptionIndex(paragraphs)

	report = &types.RunReport{Paragraphs: len(paragraphs)}
	model = types.NewContentModel()
	model.Title = sections.Title
	model.Authors = sections.Authors
	model.Abstract = sections.Abstract
	model.Body = sections.Body
	model.References = sections.References
	model.Figures = ExtractFigures(doc.Images(), captions, report, log)
	model.Tables = ExtractTables(doc.Tables(), captions, report, log)

	report.BodyParagraphs = len(model.Body)
	report.Figures = len(model.Figures)
	report.Tables = len(model.Tables)

	log.Info("extracted content",
		zap.Int("paragraphs", report.Paragraphs),
		zap.Int("body_paragraphs", report.BodyParagraphs),
		zap.Int("references", len(model.References)),
		zap.Int("figures", report.Figures),
		zap.Int("tables", report.Tables))

	return model, report, nil
}

// Analyze runs Extract and LocateCitations, recording the citation count in
// the report.
func Analyze(doc source.Document, log *zap.Logger) (*types.ContentModel, []types.Citation, *types.RunReport, error) {
	model, report, err := Extract(doc, log)
	if err != nil {
		return nil, nil, nil, err
	}
	citations := LocateCitations(model.Body)
	report.Citations = len(citations)
	return model, citations, report, nil
}
