package buyer

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type SortField string

const (
	SortFullName  SortField = "fullName"
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortBudgetMax SortField = "budgetMax"
)

func (s SortField) Valid() bool {
	switch s {
	case SortFullName, SortCreatedAt, SortUpdatedAt, SortBudgetMax:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterSpec is a normalized, owner-scoped buyer query. Zero-valued enum
// fields and nil budgets mean "no constraint".
type FilterSpec struct {
	OwnerID string

	City         City
	PropertyType PropertyType
	Status       Status
	Timeline     Timeline
	Source       Source

	Search    string
	BudgetMin *int
	BudgetMax *int

	Page      int
	Limit     int
	SortBy    SortField
	SortOrder SortOrder
}

// BuildFilter turns raw query parameters into a FilterSpec. It is lenient:
// unparsable numbers, unknown enum values and the literal "all" are
// dropped rather than rejected. OwnerID is never taken from the query.
func BuildFilter(q url.Values) FilterSpec {
	spec := FilterSpec{
		City:         City(enumParam(q, "city")),
		PropertyType: PropertyType(enumParam(q, "propertyType")),
		Status:       Status(enumParam(q, "status")),
		Timeline:     Timeline(enumParam(q, "timeline")),
		Source:       Source(enumParam(q, "source")),
		Search:       strings.TrimSpace(q.Get("search")),
		BudgetMin:    intParam(q, "budgetMin"),
		BudgetMax:    intParam(q, "budgetMax"),
		SortBy:       SortField(q.Get("sortBy")),
		SortOrder:    SortOrder(strings.ToLower(q.Get("sortOrder"))),
	}
	if p := intParam(q, "page"); p != nil {
		spec.Page = *p
	}
	if l := intParam(q, "limit"); l != nil {
		spec.Limit = *l
	}

	if !spec.City.Valid() {
		spec.City = ""
	}
	if !spec.PropertyType.Valid() {
		spec.PropertyType = ""
	}
	if !spec.Status.Valid() {
		spec.Status = ""
	}
	if !spec.Timeline.Valid() {
		spec.Timeline = ""
	}
	if !spec.Source.Valid() {
		spec.Source = ""
	}

	return spec.Normalize()
}

// Normalize fills defaults and clamps pagination into range.
func (f FilterSpec) Normalize() FilterSpec {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	switch {
	case f.Limit == 0:
		f.Limit = DefaultLimit
	case f.Limit < 1:
		f.Limit = 1
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}
	if !f.SortBy.Valid() {
		f.SortBy = SortUpdatedAt
	}
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		f.SortOrder = SortDesc
	}
	return f
}

func (f FilterSpec) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes where a page sits within the full result.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

type Page struct {
	Data       []Buyer    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Stats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"byStatus"`
	ByCity         map[string]int64 `json:"byCity"`
	ByPropertyType map[string]int64 `json:"byPropertyType"`
}

func enumParam(q url.Values, key string) string {
	v := strings.TrimSpace(q.Get(key))
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

func intParam(q url.Values, key string) *int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
