package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Display statuses derived from the confirmed flag.
const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
)

// Application is one viewer sign-up for a raid on a given local day.
// Rows are created by gated viewer submissions; confirmed and comment are
// mutated only by the operator.
type Application struct {
	bun.BaseModel `bun:"table:applications"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	DateLocal   string    `bun:"date_local,notnull" json:"date_local"`
	RaidKey     string    `bun:"raid_key,notnull" json:"raid_key"`
	ViewerGrade string    `bun:"viewer_grade,notnull" json:"viewer_grade"`
	Nickname    string    `bun:"nickname,notnull" json:"nickname"`
	GroupName   string    `bun:"group_name,notnull" json:"group_name"`
	DealerCount int       `bun:"dealer_count,notnull" json:"dealer_count"`
	BufferCount int       `bun:"buffer_count,notnull" json:"buffer_count"`
	Confirmed   bool      `bun:"confirmed,notnull,default:false" json:"confirmed"`
	Comment     string    `bun:"comment,notnull,default:''" json:"comment"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Status is the viewer-facing display status.
func (a Application) Status() string {
	if a.Confirmed {
		return StatusConfirmed
	}
	return StatusPending
}

// GradeDisplay is the label shown in listings.
func (a Application) GradeDisplay() string {
	return GradeLabel(a.ViewerGrade)
}

// DayCode is the daily access code for one raid. Saving a new code for the
// same (date, raid) overwrites the previous value.
type DayCode struct {
	bun.BaseModel `bun:"table:day_codes"`

	DateLocal string `bun:"date_local,pk" json:"date_local"`
	RaidKey   string `bun:"raid_key,pk" json:"raid_key"`
	Code      string `bun:"code,notnull" json:"-"`
}
