package models

import "time"

// Account mirrors one marketplace subscriber (a repository owner). ExternalID
// is the remote catalog's account ID and the natural key for reconciliation
// upserts. PlanID always references an existing local Plan and is the single
// source of truth for the owner's current entitlement.
type Account struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID int64     `gorm:"uniqueIndex:ux_accounts_external_id;not null" json:"external_id"`
	Login      string    `gorm:"type:varchar(191);not null;index" json:"login"`
	PlanID     uint      `gorm:"not null;index" json:"plan_id"`
	Plan       Plan      `gorm:"foreignKey:PlanID" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
