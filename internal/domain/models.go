// Package domain defines the persistence models of the search server. The
// document index itself lives in memory (see package search); these GORM
// models hold what the server records about its own traffic.
package domain

import "time"

// QueryLog is one executed search, recorded for the query history endpoints.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Query: raw query text as submitted.
//   - Filter: status name (e.g. "ACTUAL") or "predicate" for custom filters.
//   - Results: number of documents returned after the result cap.
//   - TopDocumentID: id of the best ranked document, nil when nothing matched.
//   - DurationMicros: time spent ranking, in microseconds.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type QueryLog struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	Query          string    `json:"query"           gorm:"type:text;not null;index:idx_query_logs_query"`
	Filter         string    `json:"filter"          gorm:"type:varchar(32);not null"`
	Results        int       `json:"results"         gorm:"not null;check:results >= 0"`
	TopDocumentID  *int      `json:"top_document_id,omitempty"`
	DurationMicros int64     `json:"duration_micros" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_query_logs_created"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for QueryLog.
func (QueryLog) TableName() string { return "query_logs" }

// QueryCount is an aggregate row of the query history: how often a query
// text was searched and when it was last seen.
type QueryCount struct {
	Query    string    `json:"query"`
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}
