package buyer

import (
	"buyerleads/internal/pkg/validator"
)

const (
	MaxNotesLength = 1000
	MaxTagLength   = 50
)

// buyerRules is the tag-validated projection of a Buyer.
type buyerRules struct {
	FullName     string   `json:"fullName" validate:"required,min=2,max=80"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Phone        string   `json:"phone" validate:"required,digits"`
	City         string   `json:"city" validate:"required,oneof=Chandigarh Mohali Zirakpur Panchkula Other"`
	PropertyType string   `json:"propertyType" validate:"required,oneof=Apartment Villa Plot Office Retail"`
	BHK          string   `json:"bhk" validate:"omitempty,oneof=Studio One Two Three Four"`
	Purpose      string   `json:"purpose" validate:"required,oneof=Buy Rent"`
	BudgetMin    *int     `json:"budgetMin" validate:"omitempty,gt=0"`
	BudgetMax    *int     `json:"budgetMax" validate:"omitempty,gt=0"`
	Timeline     string   `json:"timeline" validate:"required,oneof=ZeroToThree ThreeToSix SixPlus Exploring"`
	Source       string   `json:"source" validate:"required,oneof=Website Referral WalkIn Call Other"`
	Status       string   `json:"status" validate:"required,oneof=New Qualified Contacted Visited Negotiation Converted Dropped"`
	Notes        string   `json:"notes" validate:"max=1000"`
	Tags         []string `json:"tags" validate:"dive,max=50"`
}

var ruleMessages = map[string]string{
	"required": "is required",
	"min":      "is too short",
	"max":      "is too long",
	"email":    "must be a valid email address",
	"digits":   "must be 10-15 digits",
	"oneof":    "is not an allowed value",
	"gt":       "must be a positive integer",
}

// Validate checks every attribute constraint, including the cross-field
// rules, and returns a *ValidationError listing all failures.
func (b *Buyer) Validate() error {
	r := buyerRules{
		FullName:     b.FullName,
		Phone:        b.Phone,
		City:         string(b.City),
		PropertyType: string(b.PropertyType),
		Purpose:      string(b.Purpose),
		BudgetMin:    b.BudgetMin,
		BudgetMax:    b.BudgetMax,
		Timeline:     string(b.Timeline),
		Source:       string(b.Source),
		Status:       string(b.Status),
		Tags:         b.Tags,
	}
	if b.Email != nil {
		r.Email = *b.Email
	}
	if b.BHK != nil {
		r.BHK = string(*b.BHK)
	}
	if b.Notes != nil {
		r.Notes = *b.Notes
	}

	fields := map[string]string{}
	for field, tag := range validator.Validate(r) {
		msg, ok := ruleMessages[tag]
		if !ok {
			msg = "is invalid"
		}
		fields[baseField(field)] = msg
	}

	if b.PropertyType.NeedsBHK() && b.BHK == nil {
		fields["bhk"] = "is required for Apartments and Villas"
	}
	if b.BudgetMin != nil && b.BudgetMax != nil && *b.BudgetMax < *b.BudgetMin {
		fields["budgetMax"] = "must be greater than or equal to budgetMin"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// baseField folds "tags[3]" into "tags".
func baseField(f string) string {
	for i, r := range f {
		if r == '[' {
			return f[:i]
		}
	}
	return f
}
