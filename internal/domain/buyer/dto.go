package buyer

import "strings"

type CreateInput struct {
	FullName     string       `json:"fullName"`
	Email        *string      `json:"email"`
	Phone        string       `json:"phone"`
	City         City         `json:"city"`
	PropertyType PropertyType `json:"propertyType"`
	BHK          *BHK         `json:"bhk"`
	Purpose      Purpose      `json:"purpose"`
	BudgetMin    *int         `json:"budgetMin"`
	BudgetMax    *int         `json:"budgetMax"`
	Timeline     Timeline     `json:"timeline"`
	Source       Source       `json:"source"`
	Status       Status       `json:"status"`
	Notes        *string      `json:"notes"`
	Tags         []string     `json:"tags"`
}

// ToBuyer builds an unsaved Buyer owned by ownerID. Empty optional strings
// become nil and a missing status defaults to New.
func (in CreateInput) ToBuyer(ownerID string) *Buyer {
	b := &Buyer{
		OwnerID:      ownerID,
		FullName:     strings.TrimSpace(in.FullName),
		Email:        blankToNil(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		City:         in.City,
		PropertyType: in.PropertyType,
		BHK:          blankBHKToNil(in.BHK),
		Purpose:      in.Purpose,
		BudgetMin:    clonePtr(in.BudgetMin),
		BudgetMax:    clonePtr(in.BudgetMax),
		Timeline:     in.Timeline,
		Source:       in.Source,
		Status:       in.Status,
		Notes:        blankToNil(in.Notes),
		Tags:         cleanTags(in.Tags),
	}
	if b.Status == "" {
		b.Status = StatusNew
	}
	return b
}

// UpdateInput is a partial update. Nil pointers and a nil Tags slice leave
// the stored value untouched. Clear* flags null out optional attributes.
type UpdateInput struct {
	FullName     *string       `json:"fullName"`
	Email        *string       `json:"email"`
	Phone        *string       `json:"phone"`
	City         *City         `json:"city"`
	PropertyType *PropertyType `json:"propertyType"`
	BHK          *BHK          `json:"bhk"`
	Purpose      *Purpose      `json:"purpose"`
	BudgetMin    *int          `json:"budgetMin"`
	BudgetMax    *int          `json:"budgetMax"`
	Timeline     *Timeline     `json:"timeline"`
	Source       *Source       `json:"source"`
	Status       *Status       `json:"status"`
	Notes        *string       `json:"notes"`
	Tags         []string      `json:"tags"`

	ClearBHK       bool `json:"clearBhk"`
	ClearBudgetMin bool `json:"clearBudgetMin"`
	ClearBudgetMax bool `json:"clearBudgetMax"`

	// Version, when non-zero, must match the stored version.
	Version int64 `json:"version"`
}

// Fields returns only the attributes the update touches, in the same
// shape as Buyer.Fields. An empty email or notes string clears the value.
func (in *UpdateInput) Fields() Fields {
	f := Fields{}
	if in.FullName != nil {
		f["fullName"] = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		f["email"] = optString(blankToNil(in.Email))
	}
	if in.Phone != nil {
		f["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.City != nil {
		f["city"] = string(*in.City)
	}
	if in.PropertyType != nil {
		f["propertyType"] = string(*in.PropertyType)
	}
	switch {
	case in.ClearBHK:
		f["bhk"] = nil
	case in.BHK != nil:
		if b := blankBHKToNil(in.BHK); b != nil {
			f["bhk"] = string(*b)
		} else {
			f["bhk"] = nil
		}
	}
	if in.Purpose != nil {
		f["purpose"] = string(*in.Purpose)
	}
	switch {
	case in.ClearBudgetMin:
		f["budgetMin"] = nil
	case in.BudgetMin != nil:
		f["budgetMin"] = *in.BudgetMin
	}
	switch {
	case in.ClearBudgetMax:
		f["budgetMax"] = nil
	case in.BudgetMax != nil:
		f["budgetMax"] = *in.BudgetMax
	}
	if in.Timeline != nil {
		f["timeline"] = string(*in.Timeline)
	}
	if in.Source != nil {
		f["source"] = string(*in.Source)
	}
	if in.Status != nil {
		f["status"] = string(*in.Status)
	}
	if in.Notes != nil {
		f["notes"] = optString(blankToNil(in.Notes))
	}
	if in.Tags != nil {
		f["tags"] = cleanTags(in.Tags)
	}
	return f
}

// Apply merges the update into b.
func (in *UpdateInput) Apply(b *Buyer) {
	if in.FullName != nil {
		b.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		b.Email = blankToNil(in.Email)
	}
	if in.Phone != nil {
		b.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.City != nil {
		b.City = *in.City
	}
	if in.PropertyType != nil {
		b.PropertyType = *in.PropertyType
	}
	switch {
	case in.ClearBHK:
		b.BHK = nil
	case in.BHK != nil:
		b.BHK = blankBHKToNil(in.BHK)
	}
	if in.Purpose != nil {
		b.Purpose = *in.Purpose
	}
	switch {
	case in.ClearBudgetMin:
		b.BudgetMin = nil
	case in.BudgetMin != nil:
		b.BudgetMin = clonePtr(in.BudgetMin)
	}
	switch {
	case in.ClearBudgetMax:
		b.BudgetMax = nil
	case in.BudgetMax != nil:
		b.BudgetMax = clonePtr(in.BudgetMax)
	}
	if in.Timeline != nil {
		b.Timeline = *in.Timeline
	}
	if in.Source != nil {
		b.Source = *in.Source
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	if in.Notes != nil {
		b.Notes = blankToNil(in.Notes)
	}
	if in.Tags != nil {
		b.Tags = cleanTags(in.Tags)
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func blankBHKToNil(b *BHK) *BHK {
	if b == nil || strings.TrimSpace(string(*b)) == "" {
		return nil
	}
	v := BHK(strings.TrimSpace(string(*b)))
	return &v
}

// cleanTags trims each tag and drops empty ones. Order and duplicates are
// preserved.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
