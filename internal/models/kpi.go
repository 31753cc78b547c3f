package models

import (
	"time"

	"gorm.io/datatypes"
)

type KpiScope string

const (
	KpiScopeOrg  KpiScope = "org"
	KpiScopeTeam KpiScope = "team"
)

// Kpi is a periodic pre-aggregated snapshot of completion metrics for the
// organization or a single team, keyed uniquely by (scope, scope_ref, date).
type Kpi struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	Scope    KpiScope   `json:"scope" gorm:"not null;size:10;uniqueIndex:idx_kpis_scope_ref_date"`
	ScopeRef *uint      `json:"scope_ref" gorm:"uniqueIndex:idx_kpis_scope_ref_date"`
	Date     time.Time  `json:"date" gorm:"not null;uniqueIndex:idx_kpis_scope_ref_date;index"`

	CompletionRate int            `json:"completion_rate" gorm:"not null;default:0"`
	AvgProgress    float64        `json:"avg_progress" gorm:"not null;default:0"`
	Breakdown      datatypes.JSON `json:"breakdown,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Kpi) TableName() string {
	return "kpis"
}
