package models

import "time"

// SearchField names the game column a search filter targets. Anything
// outside the known set falls back to a title substring match.
type SearchField string

const (
	SearchTitle     SearchField = "title"
	SearchRating    SearchField = "rating"
	SearchTimeSpent SearchField = "timespent"
	SearchDateAdded SearchField = "dateadded"
)

// Game represents one played-game entry owned by a user. Ownership is the
// plain email string on the row; there is no foreign key to the users table.
type Game struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Rating    float64   `json:"rating" validate:"gte=0,lte=10"`
	TimeSpent float64   `json:"timespent" gorm:"column:timespent" validate:"gte=0"`
	Email     string    `json:"email,omitempty" gorm:"type:varchar(255);index" validate:"required"`
	DateAdded time.Time `json:"dateadded" gorm:"column:dateadded;autoCreateTime"`
	ImagePath string    `json:"image_path,omitempty" gorm:"column:image_path"`
}

// TableName pins the table name so AutoMigrate and raw column references
// agree on "games".
func (Game) TableName() string {
	return "games"
}

// GameFilter carries an optional per-field search filter for listing queries.
type GameFilter struct {
	Field SearchField
	Value string
}

// Empty reports whether the filter adds no predicate at all.
func (f GameFilter) Empty() bool {
	return f.Field == "" || f.Value == ""
}

// PaginatedGames is one page of results together with the total number of
// rows matching the same filter, regardless of page.
type PaginatedGames struct {
	Results []Game `json:"results"`
	Total   int64  `json:"total"`
}

// StatsSummary holds derived aggregates over a set of games. It is computed
// on every request and never persisted. All fields are zero for an empty set.
type StatsSummary struct {
	TotalGames int64   `json:"totalGames"`
	TotalTime  float64 `json:"totalTime"`
	AvgRating  float64 `json:"avgRating"`
	AvgTime    float64 `json:"avgTime"`
}
