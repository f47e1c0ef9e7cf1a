package csvexport

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"sentiscope/internal/domain"
	"sentiscope/internal/export"
)

// ContentType is the MIME type of the CSV download.
const ContentType = "text/csv; charset=utf-8"

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (10 columns).
var columns = []string{
	"Index",
	"Title",
	"Author",
	"Sentiment",
	"Sentiment Score",
	"Likes",
	"Comments",
	"Keywords",
	"Content",
	"Analysis ID",
}

// Writer wraps csv.Writer for exporting report posts as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WritePosts converts the report's posts to CSV rows and writes them.
func (w *Writer) WritePosts(r *domain.Report) error {
	for i := range r.Posts {
		if err := w.csv.Write(postToRow(i, &r.Posts[i], r.AnalysisID)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// Write emits a complete CSV document for r, BOM included.
func Write(out io.Writer, r *domain.Report) error {
	if r == nil {
		return domain.ErrReportNotReady
	}
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WritePosts(r); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// postToRow converts a single post to a row. Missing counts are written as
// empty cells rather than zero.
func postToRow(i int, p *domain.PostInfo, analysisID string) []string {
	row := make([]string, len(columns))
	row[0] = strconv.Itoa(i + 1)
	row[1] = p.Title
	row[2] = p.Author
	row[3] = string(domain.ParseSentiment(string(p.Sentiment)))
	row[4] = formatScore(p.SentimentScore)
	row[5] = formatCount(p.Likes)
	row[6] = formatCount(p.Comments)
	row[7] = strings.Join(p.Keywords, "; ")
	row[8] = strings.TrimSpace(p.Content)
	row[9] = analysisID
	return row
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatCount(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// BuildFilename returns the CSV download name for r, matching the workbook
// name apart from the extension.
func BuildFilename(r *domain.Report, now time.Time) string {
	return strings.TrimSuffix(export.BuildFilename(r, now), ".xlsx") + ".csv"
}
