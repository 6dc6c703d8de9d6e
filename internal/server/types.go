package server

import "github.com/askveeva/deepsearch/internal/search"

// searchRequest is the POST /search body. K, Rerank and Deep are pointers
// so absence falls back to configuration.
type searchRequest struct {
	Query     string   `json:"query"`
	K         *int     `json:"k"`
	Role      string   `json:"role"`
	Sector    string   `json:"sector"`
	Rerank    *bool    `json:"rerank"`
	Deep      *bool    `json:"deep"`
	NextTerms []string `json:"next_terms"`
}

// compareRequest is the POST /compare body.
type compareRequest struct {
	Topic    string   `json:"topic"`
	DocIDs   []string `json:"doc_ids"`
	Criteria []string `json:"criteria"`
	KPerCrit *int     `json:"k_per_crit"`
	Role     string   `json:"role"`
	Sector   string   `json:"sector"`
}

type searchResponse struct {
	OK               bool               `json:"ok"`
	AnticipatedTerms []string           `json:"anticipated_terms"`
	Items            []search.Candidate `json:"items"`
}

type compareResponse struct {
	OK            bool                `json:"ok"`
	Topic         string              `json:"topic"`
	Criteria      []string            `json:"criteria"`
	Matrix        []search.CompareRow `json:"matrix"`
	Answerability map[string]string   `json:"answerability"`
}

type reindexResponse struct {
	OK    bool    `json:"ok"`
	Docs  int     `json:"docs"`
	Spans int     `json:"spans"`
	Secs  float64 `json:"secs"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
