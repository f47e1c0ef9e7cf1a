// Package export renders an analysis report as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sentiscope/internal/domain"
	"sentiscope/internal/report"
)

// Sheet names, in workbook order.
const (
	SheetOverview  = "分析概览"
	SheetPosts     = "帖子详情"
	SheetSentiment = "情感分析"
	SheetKeywords  = "热门关键词"
	SheetAlerts    = "风险预警"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	contentPreviewLen = 100
	postKeywordLimit  = 5
	trendBarWidth     = 20
)

var postColumns = []string{"序号", "标题", "内容摘要", "情感", "点赞数", "评论数", "关键词"}
var sentimentColumns = []string{"情感类型", "数量", "占比", "占比（%）", "趋势"}
var keywordColumns = []string{"排名", "关键词", "出现次数", "情感倾向"}
var alertColumns = []string{"风险等级", "预警描述"}

var sentimentLabels = map[domain.SentimentType]string{
	domain.SentimentPositive: "正面",
	domain.SentimentNeutral:  "中性",
	domain.SentimentNegative: "负面",
}

var sentimentColors = map[domain.SentimentType]string{
	domain.SentimentPositive: "22C55E",
	domain.SentimentNeutral:  "3B82F6",
	domain.SentimentNegative: "EF4444",
}

var riskLabels = map[domain.RiskLevel]string{
	domain.RiskHigh:   "高风险",
	domain.RiskMedium: "中风险",
	domain.RiskLow:    "低风险",
}

var riskColors = map[domain.RiskLevel]string{
	domain.RiskHigh:   "EF4444",
	domain.RiskMedium: "F59E0B",
	domain.RiskLow:    "3B82F6",
}

// Write renders r as an .xlsx workbook to w. The alerts sheet is omitted
// when the report has no alerts.
func Write(w io.Writer, r *domain.Report) error {
	if r == nil {
		return domain.ErrReportNotReady
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	b := &builder{f: f, styles: make(map[string]int)}
	b.overview(r)
	b.posts(r)
	b.sentiment(r)
	b.keywords(r)
	if len(r.RiskAlerts) > 0 {
		b.alerts(r)
	}
	if b.err != nil {
		return fmt.Errorf("building workbook: %w", b.err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// builder records the first excelize error and skips the remaining calls.
type builder struct {
	f      *excelize.File
	styles map[string]int
	err    error
}

func (b *builder) sheet(name string, first bool) {
	if b.err != nil {
		return
	}
	if first {
		b.err = b.f.SetSheetName("Sheet1", name)
		return
	}
	_, b.err = b.f.NewSheet(name)
}

func (b *builder) set(sheet string, col, row int, value any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetCellValue(sheet, cell, value)
}

func (b *builder) style(sheet string, col, row int, key string, st *excelize.Style) {
	b.styleRange(sheet, col, row, col, row, key, st)
}

func (b *builder) styleRange(sheet string, c1, r1, c2, r2 int, key string, st *excelize.Style) {
	if b.err != nil {
		return
	}
	id, ok := b.styles[key]
	if !ok {
		id, b.err = b.f.NewStyle(st)
		if b.err != nil {
			return
		}
		b.styles[key] = id
	}
	from, _ := excelize.CoordinatesToCellName(c1, r1)
	to, _ := excelize.CoordinatesToCellName(c2, r2)
	b.err = b.f.SetCellStyle(sheet, from, to, id)
}

func (b *builder) merge(sheet, from, to string) {
	if b.err != nil {
		return
	}
	b.err = b.f.MergeCell(sheet, from, to)
}

func (b *builder) widths(sheet string, widths ...float64) {
	for i, w := range widths {
		if b.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			b.err = err
			return
		}
		b.err = b.f.SetColWidth(sheet, col, col, w)
	}
}

func (b *builder) freezeHeader(sheet string) {
	if b.err != nil {
		return
	}
	b.err = b.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (b *builder) header(sheet string, row int, cols []string, fill string) {
	for i, c := range cols {
		b.set(sheet, i+1, row, c)
	}
	b.styleRange(sheet, 1, row, len(cols), row, "header-"+fill, headerStyle(fill))
}

func (b *builder) overview(r *domain.Report) {
	const sheet = SheetOverview
	b.sheet(sheet, true)

	b.set(sheet, 1, 1, "舆情分析报告")
	b.style(sheet, 1, 1, "title", &excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
		Fill:      solid("FF2442"),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	b.merge(sheet, "A1", "D1")
	if b.err == nil {
		b.err = b.f.SetRowHeight(sheet, 1, 30)
	}

	keyword := r.Keyword()
	if keyword == "" {
		keyword = "未指定"
	}
	created := report.FormatTimestamp(r.CreatedAt, "")
	info := []struct {
		label string
		value any
	}{
		{"报告 ID", r.AnalysisID},
		{"生成时间", created},
		{"搜索关键词", keyword},
		{"识别帖子数", r.TotalPosts},
		{"评论数", r.TotalComments},
	}
	row := 3
	for _, item := range info {
		b.set(sheet, 1, row, item.label)
		b.set(sheet, 2, row, item.value)
		b.style(sheet, 1, row, "bold", &excelize.Style{Font: &excelize.Font{Bold: true}})
		row++
	}

	row++
	b.set(sheet, 1, row, "情感分布")
	b.style(sheet, 1, row, "section", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}, Fill: solid("E8E8E8")})
	b.merge(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row))

	row++
	b.header(sheet, row, []string{"情感", "数量", "占比"}, "F0F0F0")
	for _, s := range report.DeriveSentimentSlices(r) {
		row++
		b.set(sheet, 1, row, sentimentLabels[s.Label])
		b.set(sheet, 2, row, s.Count)
		b.set(sheet, 3, row, fmt.Sprintf("%.1f%%", s.Ratio*100))
		b.style(sheet, 1, row, "tag-"+string(s.Label), tagStyle(sentimentColors[s.Label]))
	}

	if summary := strings.TrimSpace(r.Summary); summary != "" {
		row += 2
		b.set(sheet, 1, row, "总结")
		b.set(sheet, 2, row, summary)
		b.style(sheet, 1, row, "bold", nil)
	}

	b.widths(sheet, 20, 30, 15, 15)
}

func (b *builder) posts(r *domain.Report) {
	const sheet = SheetPosts
	b.sheet(sheet, false)
	b.header(sheet, 1, postColumns, "4472C4")

	for i, p := range r.Posts {
		row := i + 2
		sentiment := domain.ParseSentiment(string(p.Sentiment))
		b.set(sheet, 1, row, i+1)
		b.set(sheet, 2, row, p.Title)
		b.set(sheet, 3, row, summarize(p.Content))
		b.set(sheet, 4, row, sentimentLabels[sentiment])
		b.style(sheet, 4, row, "tag-"+string(sentiment), tagStyle(sentimentColors[sentiment]))
		b.set(sheet, 5, row, intOrZero(p.Likes))
		b.set(sheet, 6, row, intOrZero(p.Comments))
		b.set(sheet, 7, row, joinLimit(p.Keywords, postKeywordLimit))
	}

	b.widths(sheet, 8, 40, 50, 12, 12, 12, 30)
	b.freezeHeader(sheet)
}

func (b *builder) sentiment(r *domain.Report) {
	const sheet = SheetSentiment
	b.sheet(sheet, false)

	b.set(sheet, 1, 1, "情感分布统计")
	b.style(sheet, 1, 1, "section", nil)
	b.merge(sheet, "A1", "E1")
	b.header(sheet, 2, sentimentColumns, "F0F0F0")

	for i, s := range report.DeriveSentimentSlices(r) {
		row := i + 3
		b.set(sheet, 1, row, sentimentLabels[s.Label])
		b.set(sheet, 2, row, s.Count)
		b.set(sheet, 3, row, fmt.Sprintf("%.2f%%", s.Ratio*100))
		b.set(sheet, 4, row, s.Ratio*100)
		b.set(sheet, 5, row, strings.Repeat("█", int(s.Ratio*trendBarWidth)))
		b.style(sheet, 5, row, "bar-"+string(s.Label), &excelize.Style{
			Font: &excelize.Font{Color: sentimentColors[s.Label]},
		})
	}

	b.widths(sheet, 15, 12, 15, 12, 30)
}

func (b *builder) keywords(r *domain.Report) {
	const sheet = SheetKeywords
	b.sheet(sheet, false)
	b.header(sheet, 1, keywordColumns, "FF6B00")

	for i, kw := range report.KeywordTags(r) {
		row := i + 2
		b.set(sheet, 1, row, i+1)
		b.set(sheet, 2, row, kw.Word)
		b.set(sheet, 3, row, kw.Count)
		b.set(sheet, 4, row, sentimentLabels[kw.Sentiment])
		b.style(sheet, 4, row, "tag-"+string(kw.Sentiment), tagStyle(sentimentColors[kw.Sentiment]))
	}

	b.widths(sheet, 8, 25, 15, 15)
	b.freezeHeader(sheet)
}

func (b *builder) alerts(r *domain.Report) {
	const sheet = SheetAlerts
	b.sheet(sheet, false)
	b.header(sheet, 1, alertColumns, "DC2626")

	for i, a := range report.TagAlerts(r) {
		row := i + 2
		level := domain.ParseRiskLevel(string(a.Level))
		b.set(sheet, 1, row, riskLabels[level])
		b.set(sheet, 2, row, a.Description)
		b.style(sheet, 1, row, "risk-"+string(level), tagStyle(riskColors[level]))
	}

	b.widths(sheet, 15, 80)
}

func solid(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}

func headerStyle(fill string) *excelize.Style {
	font := &excelize.Font{Bold: true}
	if fill != "F0F0F0" {
		font.Color = "FFFFFF"
	}
	return &excelize.Style{
		Font:      font,
		Fill:      solid(fill),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}
}

func tagStyle(fill string) *excelize.Style {
	return &excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      solid(fill),
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}
}

func summarize(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	runes := []rune(content)
	if len(runes) <= contentPreviewLen {
		return content
	}
	return string(runes[:contentPreviewLen]) + "..."
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func joinLimit(words []string, n int) string {
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, ", ")
}

// nonFilename matches runs of characters not allowed in the download name.
var nonFilename = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a keyword for use in Content-Disposition.
// Letters and digits in any script are kept; everything else collapses to
// a single underscore. The result is truncated to 50 runes.
func SanitizeFilename(name string) string {
	s := nonFilename.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50])
	}
	return s
}

// BuildFilename returns the download name for r:
// report_{keyword}_{analysis_id}_{YYYYMMDD}.xlsx, omitting empty parts.
func BuildFilename(r *domain.Report, now time.Time) string {
	parts := []string{"report"}
	if kw := SanitizeFilename(r.Keyword()); kw != "" {
		parts = append(parts, kw)
	}
	if id := SanitizeFilename(r.AnalysisID); id != "" {
		parts = append(parts, id)
	}
	parts = append(parts, now.Format("20060102"))
	return strings.Join(parts, "_") + ".xlsx"
}
