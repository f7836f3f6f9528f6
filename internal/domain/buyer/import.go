package buyer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"buyerleads/internal/metrics"
)

const DefaultMaxImportFailures = 10

// CSV display headers, in export order.
const (
	ColFullName     = "Full Name"
	ColEmail        = "Email"
	ColPhone        = "Phone"
	ColCity         = "City"
	ColPropertyType = "Property Type"
	ColBHK          = "BHK"
	ColPurpose      = "Purpose"
	ColBudgetMin    = "Budget Min"
	ColBudgetMax    = "Budget Max"
	ColTimeline     = "Timeline"
	ColSource       = "Source"
	ColStatus       = "Status"
	ColNotes        = "Notes"
	ColTags         = "Tags"
	ColCreatedAt    = "Created At"
	ColUpdatedAt    = "Updated At"
)

var headerToField = map[string]string{
	ColFullName:     "fullName",
	ColEmail:        "email",
	ColPhone:        "phone",
	ColCity:         "city",
	ColPropertyType: "propertyType",
	ColBHK:          "bhk",
	ColPurpose:      "purpose",
	ColBudgetMin:    "budgetMin",
	ColBudgetMax:    "budgetMax",
	ColTimeline:     "timeline",
	ColSource:       "source",
	ColStatus:       "status",
	ColNotes:        "notes",
	ColTags:         "tags",
}

type ImportOptions struct {
	SkipErrors bool
	// MaxFailures stops the run once reached unless SkipErrors is set.
	// Zero means DefaultMaxImportFailures.
	MaxFailures int
}

type ImportRowError struct {
	Row    int               `json:"row"`
	Errors []string          `json:"errors"`
	Data   map[string]string `json:"data"`
}

type ImportResult struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors"`
	Created    []Buyer          `json:"created"`
}

// Import creates one buyer per row. Rows are independent: each gets its
// own transaction and a bad row is reported without affecting the others.
func (s *Service) Import(ctx context.Context, rows []map[string]string, ownerID string, opts ImportOptions) (*ImportResult, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	maxFailures := opts.MaxFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxImportFailures
	}

	res := &ImportResult{
		Total:   len(rows),
		Errors:  []ImportRowError{},
		Created: []Buyer{},
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		b, msgs := s.importRow(ctx, row, ownerID)
		if len(msgs) == 0 {
			res.Successful++
			res.Created = append(res.Created, *b)
			metrics.ImportRows.WithLabelValues("created").Inc()
			continue
		}

		res.Failed++
		res.Errors = append(res.Errors, ImportRowError{Row: i + 1, Errors: msgs, Data: row})
		metrics.ImportRows.WithLabelValues("failed").Inc()

		if !opts.SkipErrors && res.Failed >= maxFailures {
			s.log.Info("import stopped at failure limit",
				zap.String("owner_id", ownerID),
				zap.Int("row", i+1),
				zap.Int("failed", res.Failed),
			)
			break
		}
	}
	return res, nil
}

func (s *Service) importRow(ctx context.Context, row map[string]string, ownerID string) (*Buyer, []string) {
	in, msgs := RowToInput(row)
	if len(msgs) > 0 {
		return nil, msgs
	}

	b, err := s.Create(ctx, in, ownerID)
	if err == nil {
		return b, nil
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return nil, verr.Messages()
	}
	return nil, []string{err.Error()}
}

// RowToInput maps a CSV row keyed by display headers or attribute names
// onto a CreateInput. It reports conversion problems; attribute rules are
// left to Buyer.Validate.
func RowToInput(row map[string]string) (CreateInput, []string) {
	v := make(map[string]string, len(row))
	for k, val := range row {
		key := strings.TrimSpace(k)
		if f, ok := headerToField[key]; ok {
			key = f
		}
		v[key] = strings.TrimSpace(val)
	}

	in := CreateInput{
		FullName:     v["fullName"],
		Phone:        v["phone"],
		City:         City(v["city"]),
		PropertyType: PropertyType(v["propertyType"]),
		Purpose:      Purpose(v["purpose"]),
		Timeline:     Timeline(v["timeline"]),
		Source:       Source(v["source"]),
		Status:       Status(v["status"]),
	}
	if e := v["email"]; e != "" {
		in.Email = &e
	}
	if n := v["notes"]; n != "" {
		in.Notes = &n
	}
	if b := v["bhk"]; b != "" {
		bhk := BHK(b)
		in.BHK = &bhk
	}
	if t := v["tags"]; t != "" {
		in.Tags = strings.Split(t, ",")
	}

	var msgs []string
	for _, f := range []struct {
		key string
		dst **int
	}{{"budgetMin", &in.BudgetMin}, {"budgetMax", &in.BudgetMax}} {
		raw := strings.ReplaceAll(v[f.key], ",", "")
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("%s: must be a whole number", f.key))
			continue
		}
		*f.dst = &n
	}
	return in, msgs
}
