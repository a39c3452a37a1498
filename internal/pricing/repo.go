package pricing

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/storelane/storelane-backend/pkg/db/models"
)

// RuleRepository resolves discount codes against the discount_rules table.
type RuleRepository interface {
	FindActiveByCode(ctx context.Context, code string) (*models.DiscountRule, error)
}

type ruleRepository struct {
	db *gorm.DB
}

// NewRuleRepository builds a rule repository bound to the provided DB.
func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) FindActiveByCode(ctx context.Context, code string) (*models.DiscountRule, error) {
	var rule models.DiscountRule
	err := r.db.WithContext(ctx).
		Where("code = ? AND active = ?", strings.ToUpper(strings.TrimSpace(code)), true).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}
