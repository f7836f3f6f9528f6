package buyer

import (
	"time"
)

type City string

const (
	CityChandigarh City = "Chandigarh"
	CityMohali     City = "Mohali"
	CityZirakpur   City = "Zirakpur"
	CityPanchkula  City = "Panchkula"
	CityOther      City = "Other"
)

type PropertyType string

const (
	PropertyApartment PropertyType = "Apartment"
	PropertyVilla     PropertyType = "Villa"
	PropertyPlot      PropertyType = "Plot"
	PropertyOffice    PropertyType = "Office"
	PropertyRetail    PropertyType = "Retail"
)

// NeedsBHK reports whether a bedroom count is mandatory for the type.
func (p PropertyType) NeedsBHK() bool {
	return p == PropertyApartment || p == PropertyVilla
}

type BHK string

const (
	BHKStudio BHK = "Studio"
	BHKOne    BHK = "One"
	BHKTwo    BHK = "Two"
	BHKThree  BHK = "Three"
	BHKFour   BHK = "Four"
)

type Purpose string

const (
	PurposeBuy  Purpose = "Buy"
	PurposeRent Purpose = "Rent"
)

type Timeline string

const (
	TimelineZeroToThree Timeline = "ZeroToThree"
	TimelineThreeToSix  Timeline = "ThreeToSix"
	TimelineSixPlus     Timeline = "SixPlus"
	TimelineExploring   Timeline = "Exploring"
)

type Source string

const (
	SourceWebsite  Source = "Website"
	SourceReferral Source = "Referral"
	SourceWalkIn   Source = "WalkIn"
	SourceCall     Source = "Call"
	SourceOther    Source = "Other"
)

// Status is the lead pipeline stage. Any status may move to any other.
type Status string

const (
	StatusNew         Status = "New"
	StatusQualified   Status = "Qualified"
	StatusContacted   Status = "Contacted"
	StatusVisited     Status = "Visited"
	StatusNegotiation Status = "Negotiation"
	StatusConverted   Status = "Converted"
	StatusDropped     Status = "Dropped"
)

var (
	Cities        = []City{CityChandigarh, CityMohali, CityZirakpur, CityPanchkula, CityOther}
	PropertyTypes = []PropertyType{PropertyApartment, PropertyVilla, PropertyPlot, PropertyOffice, PropertyRetail}
	BHKs          = []BHK{BHKStudio, BHKOne, BHKTwo, BHKThree, BHKFour}
	Purposes      = []Purpose{PurposeBuy, PurposeRent}
	Timelines     = []Timeline{TimelineZeroToThree, TimelineThreeToSix, TimelineSixPlus, TimelineExploring}
	Sources       = []Source{SourceWebsite, SourceReferral, SourceWalkIn, SourceCall, SourceOther}
	Statuses      = []Status{StatusNew, StatusQualified, StatusContacted, StatusVisited, StatusNegotiation, StatusConverted, StatusDropped}
)

func (c City) Valid() bool         { return contains(Cities, c) }
func (p PropertyType) Valid() bool { return contains(PropertyTypes, p) }
func (b BHK) Valid() bool          { return contains(BHKs, b) }
func (p Purpose) Valid() bool      { return contains(Purposes, p) }
func (t Timeline) Valid() bool     { return contains(Timelines, t) }
func (s Source) Valid() bool       { return contains(Sources, s) }
func (s Status) Valid() bool       { return contains(Statuses, s) }

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Buyer is a real-estate lead owned by exactly one user.
type Buyer struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"ownerId"`
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
	Version      int64        `json:"version"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Fields flattens the comparable attributes into the map shape used by Diff.
// Enums are plain strings and unset optionals are nil.
func (b *Buyer) Fields() Fields {
	f := Fields{
		"fullName":     b.FullName,
		"email":        optString(b.Email),
		"phone":        b.Phone,
		"city":         string(b.City),
		"propertyType": string(b.PropertyType),
		"bhk":          nil,
		"purpose":      string(b.Purpose),
		"budgetMin":    optInt(b.BudgetMin),
		"budgetMax":    optInt(b.BudgetMax),
		"timeline":     string(b.Timeline),
		"source":       string(b.Source),
		"status":       string(b.Status),
		"notes":        optString(b.Notes),
		"tags":         append([]string{}, b.Tags...),
	}
	if b.BHK != nil {
		f["bhk"] = string(*b.BHK)
	}
	return f
}

// Clone returns a deep copy safe to mutate.
func (b *Buyer) Clone() *Buyer {
	c := *b
	c.Email = clonePtr(b.Email)
	c.BHK = clonePtr(b.BHK)
	c.BudgetMin = clonePtr(b.BudgetMin)
	c.BudgetMax = clonePtr(b.BudgetMax)
	c.Notes = clonePtr(b.Notes)
	if b.Tags != nil {
		c.Tags = append([]string{}, b.Tags...)
	}
	return &c
}

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// HistoryEntry is an immutable audit record of one buyer mutation.
type HistoryEntry struct {
	ID        string    `json:"id"`
	BuyerID   string    `json:"buyerId"`
	ChangedBy string    `json:"changedBy"`
	Action    Action    `json:"action"`
	Diff      Changes   `json:"diff"`
	CreatedAt time.Time `json:"createdAt"`
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
