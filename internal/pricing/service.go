package pricing

import (
	"context"
	"fmt"

	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
)

// Service resolves discount codes and delegates arithmetic to Quote.
type Service interface {
	Price(ctx context.Context, lines []CartLine, discountCode string) (Totals, error)
}

type service struct {
	rules         RuleRepository
	shippingCents int64
}

// NewService builds the pricing service with the configured flat shipping rate.
func NewService(rules RuleRepository, shippingCents int64) (Service, error) {
	if rules == nil {
		return nil, fmt.Errorf("rule repository required")
	}
	if shippingCents < 0 {
		return nil, fmt.Errorf("shipping rate cannot be negative")
	}
	return &service{rules: rules, shippingCents: shippingCents}, nil
}

func (s *service) Price(ctx context.Context, lines []CartLine, discountCode string) (Totals, error) {
	var rule *Rule
	if discountCode != "" {
		stored, err := s.rules.FindActiveByCode(ctx, discountCode)
		if err != nil {
			return Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve discount code")
		}
		if stored == nil {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount code")
		}
		rule = &Rule{
			Code:        stored.Code,
			Kind:        stored.Kind,
			AmountCents: stored.AmountCents,
			Percent:     stored.Percent,
		}
	}
	return Quote(lines, s.shippingCents, rule)
}
