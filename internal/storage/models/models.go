package models

import "time"

// Keywords holds the raw extracted keyword lists of one article, one list per
// taxonomy dimension. Field names mirror the stored documents.
type Keywords struct {
	Companies        []string `bson:"companies" json:"companies"`
	Countries        []string `bson:"countries" json:"countries"`
	AttackTechniques []string `bson:"attack_techniques" json:"attack_techniques"`
	Attackers        []string `bson:"attackers" json:"attackers"`
	Sectors          []string `bson:"sectors" json:"sectors"`
}

// NewsArticle is one stored news document. The capitalized bson keys are the
// legacy collection schema and must not change. ClassScores maps ontology
// class URIs to the similarity scores recorded at ingestion time.
type NewsArticle struct {
	ID          string             `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"News Title" json:"News Title"`
	PublishDate string             `bson:"Publish Date" json:"Publish Date"`
	URL         string             `bson:"URL" json:"URL"`
	Keywords    Keywords           `bson:"keywords" json:"keywords"`
	ClassScores map[string]float64 `bson:"Classes and Scores,omitempty" json:"Classes and Scores,omitempty"`
}

// Bookmark is one saved article reference for one user.
type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchRecord is one semantic search kept for history.
type SearchRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Terms          string    `json:"terms"`
	MatchedClasses int       `json:"matched_classes"`
	ResultCount    int       `json:"result_count"`
	LatencyMS      int       `json:"latency_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
