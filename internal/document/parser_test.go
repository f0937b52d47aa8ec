package document

import (
	"os"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempFile(t *testing.T, content, ext string) string {
	tmpFile, err := os.CreateTemp(t.TempDir(), "summary-test-*"+ext)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func createTempPDF(t *testing.T, text string) string {
	tmpFile, err := os.CreateTemp(t.TempDir(), "summary-test-*.pdf")
	if err != nil {
		t.Fatalf("Failed to create temp PDF file: %v", err)
	}
	defer tmpFile.Close()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 10, text, "", "", false)
	if err := pdf.Output(tmpFile); err != nil {
		t.Fatalf("Failed to write PDF: %v", err)
	}
	return tmpFile.Name()
}

func TestPlainTextParser(t *testing.T) {
	content := "Hello, this is a plain text file.\nSecond line."
	file := createTempFile(t, content, ".txt")

	parser := NewPlainTextParser()
	text, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Equal(t, content, text)

	text, err = parser.ParseReader(strings.NewReader(content), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, content, text)
}

func TestMarkdownParser(t *testing.T) {
	content := "# Title\n\nThis is a **markdown** file.\n\n- Item 1\n- Item 2"
	file := createTempFile(t, content, ".md")

	parser := NewMarkdownParser()
	text, err := parser.Parse(file)
	require.NoError(t, err)

	assert.Contains(t, text, "markdown file")
	assert.Contains(t, text, "Item 1")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "<p>")

	// 每个块级元素独占一行
	lines := strings.Split(text, "\n")
	assert.Equal(t, []string{"Title", "This is a markdown file.", "Item 1", "Item 2"}, lines)
}

func TestMarkdownParserReader(t *testing.T) {
	parser := NewMarkdownParser()
	result, err := parser.ParseReader(strings.NewReader("# Heading\n\nThis is **bold** text."), "test.md")
	require.NoError(t, err)
	assert.Contains(t, result, "Heading")
	assert.Contains(t, result, "This is bold text.")
}

func TestPDFParser(t *testing.T) {
	file := createTempPDF(t, "This is a PDF test.\nSecond line.")

	parser := NewPDFParser()
	text, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Contains(t, text, "PDF test")

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	text, err = parser.ParseReader(f, "upload.pdf")
	require.NoError(t, err)
	assert.Contains(t, text, "Second line")
}

func TestOfficeParserHTML(t *testing.T) {
	html := "<html><body><article><p>Office conversion works.</p></article></body></html>"

	parser := NewOfficeParser()
	text, err := parser.ParseReader(strings.NewReader(html), "page.html")
	require.NoError(t, err)
	assert.Contains(t, text, "Office conversion works.")
}

func TestParserFactory(t *testing.T) {
	txtFile := createTempFile(t, "plain text", ".txt")
	mdFile := createTempFile(t, "# Markdown", ".md")
	pdfFile := createTempPDF(t, "PDF content")

	tests := []struct {
		file     string
		expected string
	}{
		{txtFile, "plain text"},
		{mdFile, "Markdown"},
		{pdfFile, "PDF content"},
	}

	for _, tt := range tests {
		parser, err := ParserFactory(tt.file)
		require.NoError(t, err, tt.file)
		text, err := parser.Parse(tt.file)
		require.NoError(t, err, tt.file)
		assert.Contains(t, text, tt.expected)
	}

	_, err := ParserFactory("movie.mp4")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDetectContentType(t *testing.T) {
	tests := map[string]ContentType{
		"report.PDF":  PDF,
		"notes.md":    Markdown,
		"readme.txt":  PlainText,
		"letter.docx": Office,
		"page.html":   Office,
		"song.mp3":    Unknown,
		"noext":       Unknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, DetectContentType(name), name)
	}

	assert.True(t, IsLocallyParsable("a.txt"))
	assert.True(t, IsLocallyParsable("a.docx"))
	assert.False(t, IsLocallyParsable("a.pdf"))
	assert.False(t, IsLocallyParsable("a.png"))
}
