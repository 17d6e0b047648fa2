package rule

import (
	"fmt"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
)

// Validate checks a rule before it is persisted. A rule with zero conditions
// is rejected outright since it would match every transaction.
func Validate(r *model.Rule) error {
	if r == nil {
		return fmt.Errorf("%w: rule is nil", common.ErrInvalidRule)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: rule name is required", common.ErrInvalidRule)
	}
	if r.Account == "" {
		return fmt.Errorf("%w: rule target account is required", common.ErrInvalidRule)
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("%w: rule must have at least one condition", common.ErrInvalidRule)
	}
	if r.Source != model.RuleSourceUser && r.Source != model.RuleSourceLearned {
		return fmt.Errorf("%w: unknown rule source %q", common.ErrInvalidRule, r.Source)
	}

	for i, cond := range r.Conditions {
		if err := validateCondition(cond); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}

	r.Confidence = model.ClampConfidence(r.Confidence)

	return nil
}

func validateCondition(cond model.Condition) error {
	switch cond.Field {
	case model.FieldPeer, model.FieldItem, model.FieldCategory, model.FieldType:
		switch cond.Operator {
		case model.OpEquals:
			if cond.Value == "" {
				return fmt.Errorf("%w: eq condition requires a value", common.ErrInvalidRule)
			}
		case model.OpIn:
			if len(cond.Values) == 0 {
				return fmt.Errorf("%w: in condition requires a value set", common.ErrInvalidRule)
			}
		default:
			return fmt.Errorf("%w: operator %q not valid for field %q", common.ErrInvalidRule, cond.Operator, cond.Field)
		}
	case model.FieldAmount, model.FieldTimeOfDay:
		if cond.Operator != model.OpRange {
			return fmt.Errorf("%w: operator %q not valid for field %q", common.ErrInvalidRule, cond.Operator, cond.Field)
		}
		if cond.Min == nil && cond.Max == nil {
			return fmt.Errorf("%w: range condition requires min or max", common.ErrInvalidRule)
		}
		if cond.Min != nil && cond.Max != nil && *cond.Min > *cond.Max {
			return fmt.Errorf("%w: range min exceeds max", common.ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: unknown condition field %q", common.ErrInvalidRule, cond.Field)
	}

	return nil
}
