package models

import (
	"time"

	"github.com/lib/pq"
)

// IssueCategory classifies a reported civic issue.
type IssueCategory string

const (
	IssueCategoryRoad        IssueCategory = "Road"
	IssueCategoryWater       IssueCategory = "Water"
	IssueCategorySanitation  IssueCategory = "Sanitation"
	IssueCategoryElectricity IssueCategory = "Electricity"
	IssueCategoryOther       IssueCategory = "Other"
)

// IssueStatus tracks the triage lifecycle of an issue.
type IssueStatus string

const (
	IssueStatusPending    IssueStatus = "Pending"
	IssueStatusInProgress IssueStatus = "In Progress"
	IssueStatusResolved   IssueStatus = "Resolved"
)

// ValidIssueCategory reports whether the value is a known issue category.
func ValidIssueCategory(v string) bool {
	switch IssueCategory(v) {
	case IssueCategoryRoad, IssueCategoryWater, IssueCategorySanitation, IssueCategoryElectricity, IssueCategoryOther:
		return true
	}
	return false
}

// ValidIssueStatus reports whether the value is a known issue status.
func ValidIssueStatus(v string) bool {
	switch IssueStatus(v) {
	case IssueStatusPending, IssueStatusInProgress, IssueStatusResolved:
		return true
	}
	return false
}

// Issue represents a civic issue reported by a citizen.
//
// Invariant: HypePoints always equals the cardinality of HypedBy. Both are
// mutated together in a single conditional UPDATE, never independently.
type Issue struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Category    IssueCategory  `db:"category" json:"category"`
	Location    string         `db:"location" json:"location"`
	Pincode     string         `db:"pincode" json:"pincode"`
	Status      IssueStatus    `db:"status" json:"status"`
	HypePoints  int            `db:"hype_points" json:"hypePoints"`
	HypedBy     pq.StringArray `db:"hyped_by" json:"hypedBy"`
	ReportedBy  string         `db:"reported_by" json:"reportedBy"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// IssueFilter captures the issue list query.
type IssueFilter struct {
	Status     string
	Category   string
	Pincode    string
	ReportedBy string
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

// HypeResult is returned by the hype endpoint. It is deliberately not
// wrapped in the common response envelope; existing clients parse it bare.
type HypeResult struct {
	Message      string `json:"message"`
	HypePoints   int    `json:"hypePoints"`
	UserHasHyped bool   `json:"userHasHyped"`
}
