package analysis

import (
	"strings"

	"dealgrade/server/internal/models"
)

// NormalizeProperty validates attrs and returns a copy with the condition
// defaulted to fair and the state upper-cased.
func NormalizeProperty(attrs models.PropertyAttributes, valuationYear int) (models.PropertyAttributes, error) {
	if attrs.LivingArea <= 0 {
		return attrs, &ValidationError{Field: "living_area", Reason: "must be greater than zero"}
	}
	if attrs.ListPrice < 0 {
		return attrs, &ValidationError{Field: "list_price", Reason: "cannot be negative"}
	}
	if attrs.YearBuilt <= 0 {
		return attrs, &ValidationError{Field: "year_built", Reason: "must be set"}
	}
	if attrs.YearBuilt > valuationYear {
		return attrs, &ValidationError{Field: "year_built", Reason: "is in the future"}
	}
	if attrs.Bedrooms < 0 || attrs.Bathrooms < 0 {
		return attrs, &ValidationError{Field: "rooms", Reason: "cannot be negative"}
	}
	if attrs.HOAFee != nil && *attrs.HOAFee < 0 {
		return attrs, &ValidationError{Field: "hoa_fee", Reason: "cannot be negative"}
	}
	if attrs.AnnualPropertyTax != nil && *attrs.AnnualPropertyTax < 0 {
		return attrs, &ValidationError{Field: "annual_property_tax", Reason: "cannot be negative"}
	}
	if attrs.ConditionScore != nil && (*attrs.ConditionScore < 0 || *attrs.ConditionScore > 100) {
		return attrs, &ValidationError{Field: "condition_score", Reason: "must be between 0 and 100"}
	}

	attrs.Condition = models.Condition(strings.ToLower(strings.TrimSpace(string(attrs.Condition))))
	if attrs.Condition == "" {
		attrs.Condition = models.ConditionFair
	}
	if !attrs.Condition.Valid() {
		return attrs, &ValidationError{Field: "condition", Reason: "unknown condition " + string(attrs.Condition)}
	}
	attrs.State = strings.ToUpper(strings.TrimSpace(attrs.State))
	attrs.City = strings.TrimSpace(attrs.City)
	return attrs, nil
}
