// Package plaintext provides a text extractor for plain text and
// markdown files.
//
// Explicit "--- Page N ---" marker lines map content to real page
// numbers. Without markers, content is split into synthetic pages of
// roughly equal size so citations still point at a stable location.
package plaintext

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// syntheticPageSize is the target character count of a synthetic page.
const syntheticPageSize = 3000

// pageMarkerRe matches an explicit page boundary line.
var pageMarkerRe = regexp.MustCompile(`(?m)^--- Page (\d+) ---$`)

// Extractor extracts text content from plain text formats.
type Extractor struct{}

// NewExtractor creates a new plain text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses content and returns a document with pages populated.
func (e *Extractor) Extract(_ context.Context, content []byte, fileType string) (*domain.Document, error) {
	if !e.supports(fileType) {
		return nil, &domain.ExtractionError{
			Reason: domain.ExtractionUnsupportedFormat,
			Detail: "file type " + strconv.Quote(fileType) + " is not supported",
		}
	}
	if !utf8.Valid(content) {
		return nil, &domain.ExtractionError{
			Reason: domain.ExtractionCorruptFile,
			Detail: "content is not valid UTF-8 text",
		}
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	pages := markedPages(text)
	if pages == nil {
		pages = syntheticPages(text)
	}
	return &domain.Document{Pages: pages}, nil
}

// SupportedTypes returns the file extensions this extractor handles.
func (e *Extractor) SupportedTypes() []string {
	return []string{"txt", "md", "markdown", "text"}
}

func (e *Extractor) supports(fileType string) bool {
	fileType = strings.ToLower(strings.TrimSpace(fileType))
	for _, t := range e.SupportedTypes() {
		if t == fileType {
			return true
		}
	}
	return false
}

// markedPages splits text at explicit page marker lines. Returns nil
// when the text carries no markers.
func markedPages(text string) []domain.Page {
	locs := pageMarkerRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	var pages []domain.Page
	// Text before the first marker belongs to page 1 by convention.
	if lead := strings.TrimSpace(text[:locs[0][0]]); lead != "" {
		pages = append(pages, domain.Page{Number: 1, Text: lead})
	}
	for i, loc := range locs {
		number, _ := strconv.Atoi(text[loc[2]:loc[3]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[1]:end])
		if body == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: number, Text: body})
	}
	return pages
}

// syntheticPages splits text into pages of roughly syntheticPageSize
// characters, breaking at paragraph boundaries where possible.
func syntheticPages(text string) []domain.Page {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	paragraphs := strings.Split(text, "\n\n")
	var pages []domain.Page
	var current []string
	size := 0
	number := 1

	flush := func() {
		if len(current) == 0 {
			return
		}
		body := strings.TrimSpace(strings.Join(current, "\n\n"))
		if body != "" {
			pages = append(pages, domain.Page{Number: number, Text: body})
			number++
		}
		current = nil
		size = 0
	}

	for _, p := range paragraphs {
		if size > 0 && size+len(p) > syntheticPageSize {
			flush()
		}
		current = append(current, p)
		size += len(p) + 2
	}
	flush()
	return pages
}
