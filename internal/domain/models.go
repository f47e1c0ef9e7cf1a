package domain

import "fmt"

// FileCandidate is a screenshot offered by the user before or after validation.
// It is treated as immutable once read.
type FileCandidate struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// NewFileCandidate builds a candidate whose size is taken from its content.
func NewFileCandidate(name, mimeType string, data []byte) FileCandidate {
	return FileCandidate{
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Data:     data,
	}
}

// DedupKey identifies a candidate for duplicate detection. Only name and size
// are compared, so two distinct files sharing both are treated as duplicates.
func (f FileCandidate) DedupKey() string {
	return fmt.Sprintf("%s\x00%d", f.Name, f.Size)
}

// Rejection pairs a refused candidate with the reason it was refused.
type Rejection struct {
	Candidate FileCandidate   `json:"candidate"`
	Reason    RejectionReason `json:"reason"`
}

// SentimentDistribution holds the per-sentiment post counts and ratios.
type SentimentDistribution struct {
	PositiveCount int     `json:"positive_count" yaml:"positive_count"`
	NegativeCount int     `json:"negative_count" yaml:"negative_count"`
	NeutralCount  int     `json:"neutral_count" yaml:"neutral_count"`
	PositiveRatio float64 `json:"positive_ratio" yaml:"positive_ratio"`
	NegativeRatio float64 `json:"negative_ratio" yaml:"negative_ratio"`
	NeutralRatio  float64 `json:"neutral_ratio" yaml:"neutral_ratio"`
}

// KeywordInfo is a frequently occurring keyword with its dominant sentiment.
type KeywordInfo struct {
	Word      string        `json:"word" yaml:"word"`
	Count     int           `json:"count" yaml:"count"`
	Sentiment SentimentType `json:"sentiment" yaml:"sentiment"`
}

// PostInfo is a single post recognised from a screenshot.
type PostInfo struct {
	Title          string        `json:"title" yaml:"title"`
	Content        string        `json:"content" yaml:"content,omitempty"`
	Author         string        `json:"author" yaml:"author,omitempty"`
	Likes          *int          `json:"likes" yaml:"likes,omitempty"`
	Comments       *int          `json:"comments" yaml:"comments,omitempty"`
	Sentiment      SentimentType `json:"sentiment" yaml:"sentiment"`
	SentimentScore float64       `json:"sentiment_score" yaml:"sentiment_score"`
	Keywords       []string      `json:"keywords" yaml:"keywords,omitempty"`
}

// CommentReply is a reply nested under a comment.
type CommentReply struct {
	Author  string `json:"author" yaml:"author"`
	Content string `json:"content" yaml:"content"`
}

// CommentInfo is a comment recognised from a post-detail screenshot.
type CommentInfo struct {
	Author          string         `json:"author" yaml:"author"`
	Content         string         `json:"content" yaml:"content"`
	Likes           *int           `json:"likes" yaml:"likes,omitempty"`
	Time            *string        `json:"time" yaml:"time,omitempty"`
	IsAuthorReply   bool           `json:"is_author_reply" yaml:"is_author_reply"`
	Replies         []CommentReply `json:"replies" yaml:"replies,omitempty"`
	PostTitle       *string        `json:"post_title" yaml:"post_title,omitempty"`
	ScreenshotIndex *int           `json:"screenshot_index" yaml:"screenshot_index,omitempty"`
}

// RiskAlert flags a potential negative-sentiment risk.
type RiskAlert struct {
	Level        RiskLevel `json:"level" yaml:"level"`
	Description  string    `json:"description" yaml:"description"`
	RelatedPosts []string  `json:"related_posts" yaml:"related_posts,omitempty"`
}

// Report is the structured analysis result returned by the analysis service.
type Report struct {
	AnalysisID            string                `json:"analysis_id" yaml:"analysis_id"`
	SearchKeyword         *string               `json:"search_keyword" yaml:"search_keyword,omitempty"`
	TotalPosts            int                   `json:"total_posts" yaml:"total_posts"`
	TotalComments         int                   `json:"total_comments" yaml:"total_comments"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution" yaml:"sentiment_distribution"`
	TopKeywords           []KeywordInfo         `json:"top_keywords" yaml:"top_keywords"`
	Posts                 []PostInfo            `json:"posts" yaml:"posts"`
	Comments              []CommentInfo         `json:"comments" yaml:"comments,omitempty"`
	RiskAlerts            []RiskAlert           `json:"risk_alerts" yaml:"risk_alerts"`
	Summary               string                `json:"summary" yaml:"summary"`
	Insights              []string              `json:"insights" yaml:"insights"`
	Recommendations       []string              `json:"recommendations" yaml:"recommendations"`
	CreatedAt             string                `json:"created_at" yaml:"created_at"`
}

// Keyword returns the search keyword or an empty string.
func (r *Report) Keyword() string {
	if r == nil || r.SearchKeyword == nil {
		return ""
	}
	return *r.SearchKeyword
}
