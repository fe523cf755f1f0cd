package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postings() Dataset {
	return Dataset{
		Title:    "Internships",
		Subtitle: "2 postings",
		Columns:  []Column{{Header: "id"}, {Header: "title", Weight: 3}},
		Rows: [][]string{
			{"i-1", "Backend Intern"},
			{"i-2", "Data, Analytics"},
		},
	}
}

func TestCSVQuotesCells(t *testing.T) {
	out, err := CSV{}.Render(postings())
	require.NoError(t, err)
	assert.Equal(t, "id,title\ni-1,Backend Intern\ni-2,\"Data, Analytics\"\n", string(out))
}

func TestPDFRendersBothOrientations(t *testing.T) {
	for _, o := range []string{"L", "P", ""} {
		out, err := PDF{Orientation: o}.Render(postings())
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	}
}

func TestRenderRejectsMalformedDataset(t *testing.T) {
	_, err := CSV{}.Render(Dataset{})
	assert.Error(t, err)

	ragged := postings()
	ragged.Rows = append(ragged.Rows, []string{"i-3"})
	_, err = PDF{}.Render(ragged)
	assert.EqualError(t, err, "row 2 has 1 cells, want 2")
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	format, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)

	renderer, err := RendererFor(FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", renderer.ContentType())
}

func TestColumnWidthsFollowWeights(t *testing.T) {
	widths := columnWidths([]Column{{Weight: 1}, {Weight: 3}, {}}, 100)
	assert.InDeltaSlice(t, []float64{20, 60, 20}, widths, 0.001)
	assert.Equal(t, "abcdefghi~", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "short", truncate("short", 10))
}
