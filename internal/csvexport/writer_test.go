package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiscope/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 10)
	assert.Equal(t, "Index", row[0])
	assert.Equal(t, "Sentiment", row[3])
	assert.Equal(t, "Analysis ID", row[9])
}

func TestWritePosts(t *testing.T) {
	report := &domain.Report{
		AnalysisID: "a1b2c3d4",
		Posts: []domain.PostInfo{
			{
				Title:          "Great latte",
				Author:         "amy",
				Content:        "  smooth, not bitter  ",
				Likes:          intPtr(12),
				Comments:       intPtr(3),
				Sentiment:      "Positive",
				SentimentScore: 0.856,
				Keywords:       []string{"latte", "smooth"},
			},
			{Title: "meh", Sentiment: domain.SentimentNeutral},
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WritePosts(report))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "Great latte", first[1])
	assert.Equal(t, "amy", first[2])
	assert.Equal(t, "positive", first[3])
	assert.Equal(t, "0.86", first[4])
	assert.Equal(t, "12", first[5])
	assert.Equal(t, "3", first[6])
	assert.Equal(t, "latte; smooth", first[7])
	assert.Equal(t, "smooth, not bitter", first[8])
	assert.Equal(t, "a1b2c3d4", first[9])

	second := rows[1]
	assert.Equal(t, "2", second[0])
	assert.Empty(t, second[5])
	assert.Empty(t, second[6])
	assert.Empty(t, second[7])
}

func TestWrite_BOMAndHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &domain.Report{AnalysisID: "x", Posts: []domain.PostInfo{{Title: "t"}}}))

	require.True(t, bytes.HasPrefix(buf.Bytes(), BOM))
	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "neutral", rows[1][3])
}

func TestWrite_NilReport(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, nil), domain.ErrReportNotReady)
	assert.Zero(t, buf.Len())
}

func TestBuildFilename(t *testing.T) {
	kw := "咖啡 reviews"
	r := &domain.Report{AnalysisID: "a1b2", SearchKeyword: &kw}
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "report_咖啡_reviews_a1b2_20240115.csv", BuildFilename(r, now))
}
