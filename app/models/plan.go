package models

import (
	"time"

	"gorm.io/gorm"
)

// Protected discount plan constants. The discount plan is managed by hand and
// never appears in the remote marketplace catalog, so external ID 0 is safe as
// its synthetic natural key.
const (
	DiscountPlanExternalID  int64 = 0
	DiscountPlanName              = "Friends & Family"
	DiscountPlanDescription       = "Manually managed discount plan"
)

// Plan mirrors one marketplace billing plan. ExternalID is the remote
// catalog's plan ID and the natural key for reconciliation upserts.
type Plan struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExternalID  int64     `gorm:"uniqueIndex:ux_plans_external_id;not null" json:"external_id"`
	Name        string    `gorm:"type:varchar(191);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsDiscountPlan reports whether this is the protected, manually managed plan.
func (p *Plan) IsDiscountPlan() bool {
	return p != nil && p.ExternalID == DiscountPlanExternalID
}

// GetOrCreateDiscountPlan returns the protected discount plan, creating it on
// first access. Creation is keyed on external ID 0 so repeated calls always
// resolve to the same row.
func GetOrCreateDiscountPlan(db *gorm.DB) (*Plan, error) {
	var plan Plan
	if err := db.Where("external_id = ?", DiscountPlanExternalID).First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			plan = Plan{
				ExternalID:  DiscountPlanExternalID,
				Name:        DiscountPlanName,
				Description: DiscountPlanDescription,
			}
			if err := db.Create(&plan).Error; err != nil {
				return nil, err
			}
			return &plan, nil
		}
		return nil, err
	}
	return &plan, nil
}
