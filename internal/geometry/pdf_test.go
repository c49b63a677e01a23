package geometry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type placedText struct {
	x, y, size float64
	text       string
}

// writeTestPDF writes a minimal Helvetica PDF, one content stream per page
func writeTestPDF(t *testing.T, pages [][]placedText) string {
	t.Helper()

	var objects []string
	pageIDs := make([]int, len(pages))
	// 1 catalog, 2 pages, 3 font, then page/content pairs
	for i := range pages {
		pageIDs[i] = 4 + 2*i
	}

	kids := ""
	for _, id := range pageIDs {
		kids += fmt.Sprintf("%d 0 R ", id)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", kids, len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)

	for i, texts := range pages {
		var stream bytes.Buffer
		for _, pt := range texts {
			fmt.Fprintf(&stream, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", pt.size, pt.x, pt.y, pt.text)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageIDs[i]+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", stream.Len(), stream.String()),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "test.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestPDFOpener_Lines(t *testing.T) {
	path := writeTestPDF(t, [][]placedText{
		{
			{72, 700, 12, "Introduction"},
			{72, 680, 10, "Body text one"},
			{72, 640, 14, "Coastal Adventures"},
		},
		{
			{72, 720, 10, "Second page"},
		},
	})

	doc, err := PDFOpener{}.Open(path)
	require.NoError(t, err)
	defer func() { assert.NoError(t, doc.Close()) }()

	require.Equal(t, 2, doc.PageCount())

	lines, err := doc.Lines(0)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "Introduction", lines[0].Text)
	assert.InDelta(t, 80, lines[0].Top, 0.01)
	assert.InDelta(t, 92, lines[0].Bottom, 0.01)
	assert.Equal(t, "Body text one", lines[1].Text)
	assert.Equal(t, "Coastal Adventures", lines[2].Text)
	assert.InDelta(t, 152, lines[2].Bottom, 0.01)

	y, err := NewLocator(nil).Locate(doc, 1, "Coastal Adventures")
	require.NoError(t, err)
	assert.InDelta(t, 152, y, 0.01)

	second, err := doc.Lines(1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Second page", second[0].Text)

	_, err = doc.Lines(2)
	assert.Error(t, err)
}

func TestPDFOpener_MissingFile(t *testing.T) {
	_, err := PDFOpener{}.Open(filepath.Join(t.TempDir(), "absent.pdf"))
	assert.Error(t, err)
}

func TestPDFOpener_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a pdf"), 0o644))

	_, err := PDFOpener{}.Open(path)
	assert.Error(t, err)
}

func TestBuildLines(t *testing.T) {
	glyphs := []pdf.Text{
		// Second line, out of order on purpose
		{X: 60, Y: 600, W: 5, FontSize: 10, S: "b"},
		{X: 50, Y: 600, W: 5, FontSize: 10, S: "a"},
		// First line: baseline jitter within tolerance, word gap between "Hi" and "there"
		{X: 10, Y: 700.5, W: 5, FontSize: 12, S: "H"},
		{X: 15, Y: 700, W: 3, FontSize: 12, S: "i"},
		{X: 30, Y: 700, W: 5, FontSize: 12, S: "there"},
		{X: 10, Y: 650, W: 0, FontSize: 12, S: " "},
	}

	lines := buildLines(glyphs, 792)
	require.Len(t, lines, 2, "blank lines are dropped")

	assert.Equal(t, "Hi there", lines[0].Text)
	assert.InDelta(t, 792-(700.5+12), lines[0].Top, 1e-9)
	assert.InDelta(t, 792-700.5, lines[0].Bottom, 1e-9)

	assert.Equal(t, "a b", lines[1].Text)
	assert.Less(t, lines[0].Top, lines[1].Top)
}
