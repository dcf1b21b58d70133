package models

import (
	"encoding/json"
	"time"
)

// AnnouncementCategory classifies an announcement.
type AnnouncementCategory string

const (
	CategoryEmergency   AnnouncementCategory = "Emergency"
	CategoryMaintenance AnnouncementCategory = "Maintenance"
	CategoryGeneral     AnnouncementCategory = "General"
	CategoryFestival    AnnouncementCategory = "Festival"
	CategoryTraffic     AnnouncementCategory = "Traffic"
	CategoryUtility     AnnouncementCategory = "Utility"
)

// AnnouncementPriority defines urgency ordering for announcements.
type AnnouncementPriority string

const (
	PriorityLow      AnnouncementPriority = "Low"
	PriorityMedium   AnnouncementPriority = "Medium"
	PriorityHigh     AnnouncementPriority = "High"
	PriorityCritical AnnouncementPriority = "Critical"
)

// ValidCategory reports whether the value is a known announcement category.
func ValidCategory(v string) bool {
	switch AnnouncementCategory(v) {
	case CategoryEmergency, CategoryMaintenance, CategoryGeneral, CategoryFestival, CategoryTraffic, CategoryUtility:
		return true
	}
	return false
}

// ValidPriority reports whether the value is a known announcement priority.
func ValidPriority(v string) bool {
	switch AnnouncementPriority(v) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Creator is the display projection of the admin who authored an
// announcement. Full user records never leave the API.
type Creator struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Announcement represents a persisted announcement row. Deletion is soft:
// IsActive flips to false and the row stays.
type Announcement struct {
	ID            string               `db:"id" json:"id"`
	Title         string               `db:"title" json:"title"`
	Description   string               `db:"description" json:"description"`
	Location      string               `db:"location" json:"location"`
	Pincode       string               `db:"pincode" json:"pincode"`
	Category      AnnouncementCategory `db:"category" json:"category"`
	Priority      AnnouncementPriority `db:"priority" json:"priority"`
	ScheduledDate *time.Time           `db:"scheduled_date" json:"scheduledDate,omitempty"`
	ExpiryDate    *time.Time           `db:"expiry_date" json:"expiryDate,omitempty"`
	IsActive      bool                 `db:"is_active" json:"isActive"`
	CreatedByID   string               `db:"created_by" json:"-"`
	CreatedBy     Creator              `db:"-" json:"createdBy"`
	CreatedAt     time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updatedAt"`
}

// AnnouncementFilter captures the list query. Category and Priority are
// already stripped of the "All" sentinel by the service; Now is captured once
// per request so the liveness window is a consistent snapshot.
type AnnouncementFilter struct {
	Pincode   string
	Category  string
	Priority  string
	Search    string
	Now       time.Time
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// CategoryTally is one stats entry. The stats endpoint emits one entry per
// document rather than a grouped histogram; consumers depend on the array
// length matching the document count.
type CategoryTally struct {
	Category AnnouncementCategory `db:"category" json:"category"`
	Count    int                  `db:"count" json:"count"`
}

// PriorityTally mirrors CategoryTally for priorities.
type PriorityTally struct {
	Priority AnnouncementPriority `db:"priority" json:"priority"`
	Count    int                  `db:"count" json:"count"`
}

// AnnouncementStats aggregates over all announcements, active and expired.
type AnnouncementStats struct {
	Total      int             `json:"total"`
	Active     int             `json:"active"`
	ByCategory []CategoryTally `json:"byCategory"`
	ByPriority []PriorityTally `json:"byPriority"`
}

// NullableTime distinguishes an absent JSON key from an explicit null or
// empty string, so an update can clear a date without tripping over the
// "falsy means not provided" convention used for text fields.
type NullableTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON marks the field as present and treats null/"" as a clear.
func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	raw := string(data)
	if raw == "null" || raw == `""` {
		n.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	n.Value = &t
	return nil
}
