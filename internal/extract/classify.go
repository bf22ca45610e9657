// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

const (
	// titleWindow and authorWindow bound how far into the document the
	// title and author scanners look.
	titleWindow  = 10
	authorWindow = 30

	// headingMaxRunes is the length below which a bold paragraph counts
	// as a heading.
	headingMaxRunes = 100
)

var (
	titleLabelRe      = regexp.MustCompile(`(?i)^title:\s*`)
	authorMarkerRe    = regexp.MustCompile(`(?i)author|affiliation`)
	affiliationMarkRe = regexp.MustCompile(`\d+\s*,`)
	abstractStartRe   = regexp.MustCompile(`(?i)^abstract:?$`)
	abstractEndRe     = regexp.MustCompile(`(?i)^(introduction|methods|keywords):?$`)
	bodyStartRe       = regexp.MustCompile(`(?i)^(introduction|background|methods)`)
	referencesRe      = regexp.MustCompile(`(?i)^references?:?$`)
	referencesStopRe  = regexp.MustCompile(`(?i)^(figure|table)`)

	// bodySkipRes are label, legend and heading lines that never become body text.
	bodySkipRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(title|authors?|abstract|keywords?):`),
		regexp.MustCompile(`(?i)^figure \d+:`),
		regexp.MustCompile(`(?i)^table \d+:`),
		referencesRe,
	}
)

// scanState is the state of one section scanner.
type scanState int

const (
	stateSeeking scanState = iota
	stateCollecting
	stateDone
)

func (s scanState) String() string {
	switch s {
	case stateSeeking:
		return "seeking"
	case stateCollecting:
		return "collecting"
	default:
		return "done"
	}
}

// Sections holds the five views the classifier derives from the raw
// paragraph stream.
type Sections struct {
	Title      string
	Authors    []string
	Abstract   string
	Body       []types.BodyParagraph
	References []string
}

// Classify scans the raw paragraphs once, feeding every section scanner in
// turn. It never fails: a section that is not found stays empty.
func Classify(paragraphs []types.RawParagraph) Sections {
	title := &titleScanner{}
	authors := &authorScanner{}
	abstract := &abstractScanner{}
	body := &bodyScanner{}
	refs := &referenceScanner{}

	for i, p := range paragraphs {
		text := strings.TrimSpace(p.Text)
		title.step(i, text, p)
		authors.step(i, text)
		abstract.step(text)
		body.step(text, p)
		refs.step(text)
	}

	return Sections{
		Title:      title.result(),
		Authors:    authors.lines,
		Abstract:   strings.Join(abstract.lines, " "),
		Body:       body.paragraphs,
		References: refs.lines,
	}
}

// titleScanner picks the first bold, labelled or Title-styled paragraph in
// the title window, falling back to the first non-empty paragraph.
type titleScanner struct {
	state    scanState
	title    string
	fallback string
}

func (s *titleScanner) step(i int, text string, p types.RawParagraph) {
	if text == "" {
		return
	}
	if s.fallback == "" {
		s.fallback = text
	}
	if s.state != stateSeeking {
		return
	}
	if i >= titleWindow {
		s.state = stateDone
		return
	}
	if p.BoldFirstRun ||
		strings.Contains(strings.ToLower(text), "title:") ||
		strings.Contains(p.StyleName, "Title") {
		s.title = strings.TrimSpace(titleLabelRe.ReplaceAllString(text, ""))
		s.state = stateDone
	}
}

func (s *titleScanner) result() string {
	if s.title != "" {
		return s.title
	}
	return s.fallback
}

// authorScanner collects email and affiliation-marker lines that follow an
// author or affiliation label.
type authorScanner struct {
	state scanState
	lines []string
}

func (s *authorScanner) step(i int, text string) {
	if s.state == stateDone {
		return
	}
	if i >= authorWindow {
		s.state = stateDone
		return
	}
	if authorMarkerRe.MatchString(text) {
		s.state = stateCollecting
		return
	}
	if s.state != stateCollecting {
		return
	}
	switch {
	case strings.Contains(text, "@") || affiliationMarkRe.MatchString(text):
		s.lines = append(s.lines, text)
	case strings.Contains(strings.ToLower(text), "abstract"):
		s.state = stateDone
	}
}

// abstractScanner collects the lines between an "Abstract" heading and the
// next Introduction, Methods or Keywords heading.
type abstractScanner struct {
	state scanState
	lines []string
}

func (s *abstractScanner) step(text string) {
	if s.state == stateDone {
		return
	}
	if abstractStartRe.MatchString(text) {
		s.state = stateCollecting
		return
	}
	if s.state != stateCollecting {
		return
	}
	if abstractEndRe.MatchString(text) {
		s.state = stateDone
		return
	}
	if text != "" {
		s.lines = append(s.lines, text)
	}
}

// bodyScanner collects body paragraphs from the first Introduction,
// Background or Methods line up to the References heading.
type bodyScanner struct {
	state      scanState
	paragraphs []types.BodyParagraph
}

func (s *bodyScanner) step(text string, p types.RawParagraph) {
	if s.state == stateDone {
		return
	}
	if bodyStartRe.MatchString(text) {
		s.state = stateCollecting
	}
	if s.state != stateCollecting {
		return
	}
	if referencesRe.MatchString(text) {
		s.state = stateDone
		return
	}
	if text == "" || matchesAny(bodySkipRes, text) {
		return
	}
	s.paragraphs = append(s.paragraphs, types.BodyParagraph{
		Position:    len(s.paragraphs),
		SourceIndex: p.Index,
		Text:        text,
		StyleName:   p.StyleName,
		IsHeading:   isHeading(p),
	})
}

// isHeading reports whether a paragraph is a heading: a Heading style, or
// a short paragraph whose first run is bold.
func isHeading(p types.RawParagraph) bool {
	if strings.Contains(p.StyleName, "Heading") {
		return true
	}
	return p.BoldFirstRun && utf8.RuneCountInString(p.Text) < headingMaxRunes
}

// referenceScanner collects every non-empty line after the References
// heading until a figure or table legend begins.
type referenceScanner struct {
	state scanState
	lines []string
}

func (s *referenceScanner) step(text string) {
	if s.state == stateDone {
		return
	}
	if referencesRe.MatchString(text) {
		s.state = stateCollecting
		return
	}
	if s.state != stateCollecting {
		return
	}
	if referencesStopRe.MatchString(text) {
		s.state = stateDone
		return
	}
	if text != "" {
		s.lines = append(s.lines, text)
	}
}

func matchesAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
