package marketsync

import (
	"github.com/ManuelReschke/PlanFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the catalog sync service.
type Repository interface {
	UpsertPlan(plan *models.Plan) error
	UpsertAccount(account *models.Account) error
	GetOrCreateDiscountPlan() (*models.Plan, error)
	DeleteAccountsNotIn(keepIDs []uint, protectedPlanID uint) (int64, error)
	GetAccountByLogin(login string) (*models.Account, error)
	CountPlans() (int64, error)
	CountAccounts() (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a catalog repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UpsertPlan(plan *models.Plan) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "external_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"description",
			"updated_at",
		}),
	}).Create(plan).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("external_id = ?", plan.ExternalID).First(plan).Error
}

func (r *gormRepository) UpsertAccount(account *models.Account) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "external_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"login",
			"plan_id",
			"updated_at",
		}),
	}).Create(account).Error; err != nil {
		return err
	}

	return r.db.Where("external_id = ?", account.ExternalID).First(account).Error
}

func (r *gormRepository) GetOrCreateDiscountPlan() (*models.Plan, error) {
	return models.GetOrCreateDiscountPlan(r.db)
}

func (r *gormRepository) DeleteAccountsNotIn(keepIDs []uint, protectedPlanID uint) (int64, error) {
	tx := r.db.Where("plan_id <> ?", protectedPlanID)
	if len(keepIDs) > 0 {
		tx = tx.Where("id NOT IN ?", keepIDs)
	}
	result := tx.Delete(&models.Account{})
	return result.RowsAffected, result.Error
}

func (r *gormRepository) GetAccountByLogin(login string) (*models.Account, error) {
	var account models.Account
	err := r.db.Preload("Plan").Where("login = ?", login).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) CountPlans() (int64, error) {
	var count int64
	err := r.db.Model(&models.Plan{}).Count(&count).Error
	return count, err
}

func (r *gormRepository) CountAccounts() (int64, error) {
	var count int64
	err := r.db.Model(&models.Account{}).Count(&count).Error
	return count, err
}
