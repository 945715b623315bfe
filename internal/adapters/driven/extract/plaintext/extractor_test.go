package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docq/internal/core/domain"
)

func TestExtractWithPageMarkers(t *testing.T) {
	content := []byte("--- Page 1 ---\nfirst page text\n--- Page 2 ---\nsecond page text\n--- Page 5 ---\nfifth page text")
	e := NewExtractor()

	doc, err := e.Extract(context.Background(), content, "txt")
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)
	assert.Equal(t, domain.Page{Number: 1, Text: "first page text"}, doc.Pages[0])
	assert.Equal(t, domain.Page{Number: 2, Text: "second page text"}, doc.Pages[1])
	assert.Equal(t, domain.Page{Number: 5, Text: "fifth page text"}, doc.Pages[2])
}

func TestExtractLeadingTextBeforeFirstMarker(t *testing.T) {
	content := []byte("preamble text\n--- Page 2 ---\nmain text")
	e := NewExtractor()

	doc, err := e.Extract(context.Background(), content, "txt")
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, "preamble text", doc.Pages[0].Text)
	assert.Equal(t, 2, doc.Pages[1].Number)
}

func TestExtractSyntheticPages(t *testing.T) {
	para := strings.Repeat("word ", 300) // ~1500 chars
	content := []byte(strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para))
	e := NewExtractor()

	doc, err := e.Extract(context.Background(), content, "md")
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, 2, doc.Pages[1].Number)

	// No content lost across the page split.
	total := len(doc.Pages[0].Text) + len(doc.Pages[1].Text)
	assert.Greater(t, total, 4000)
}

func TestExtractSmallFileSinglePage(t *testing.T) {
	e := NewExtractor()
	doc, err := e.Extract(context.Background(), []byte("just a short note"), "txt")
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, "just a short note", doc.Pages[0].Text)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract(context.Background(), []byte("content"), "docx")
	require.Error(t, err)

	var extractErr *domain.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, domain.ExtractionUnsupportedFormat, extractErr.Reason)
	assert.False(t, domain.Retryable(err))
}

func TestExtractCorruptContent(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0x00, 0x80}, "txt")
	require.Error(t, err)

	var extractErr *domain.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, domain.ExtractionCorruptFile, extractErr.Reason)
}

func TestExtractNormalizesLineEndings(t *testing.T) {
	e := NewExtractor()
	doc, err := e.Extract(context.Background(), []byte("line one\r\nline two"), "txt")
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "line one\nline two", doc.Pages[0].Text)
}
