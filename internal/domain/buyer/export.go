package buyer

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"buyerleads/internal/pkg/csvutil"
)

const exportPageSize = 100

var ExportHeaders = []string{
	ColFullName, ColEmail, ColPhone, ColCity, ColPropertyType, ColBHK,
	ColPurpose, ColBudgetMin, ColBudgetMax, ColTimeline, ColSource,
	ColStatus, ColNotes, ColTags, ColCreatedAt, ColUpdatedAt,
}

// Export streams every buyer matching spec and owned by ownerID as CSV.
// It returns the number of rows written.
func (s *Service) Export(ctx context.Context, spec FilterSpec, ownerID string, w io.Writer) (int, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	cw := csvutil.NewWriter(w, ExportHeaders)
	if err := cw.WriteHeader(); err != nil {
		return 0, err
	}

	spec.Limit = exportPageSize
	spec.Page = 1
	written := 0
	for {
		page, err := s.List(ctx, spec, ownerID)
		if err != nil {
			return written, err
		}
		for i := range page.Data {
			if err := cw.WriteRow(ExportRow(&page.Data[i])); err != nil {
				return written, err
			}
			written++
		}
		if !page.Pagination.HasNext {
			break
		}
		spec.Page++
	}
	return written, cw.Flush()
}

// ExportRow renders b in ExportHeaders order.
func ExportRow(b *Buyer) []string {
	bhk := ""
	if b.BHK != nil {
		bhk = string(*b.BHK)
	}
	return []string{
		b.FullName,
		strCell(b.Email),
		b.Phone,
		string(b.City),
		string(b.PropertyType),
		bhk,
		string(b.Purpose),
		intCell(b.BudgetMin),
		intCell(b.BudgetMax),
		string(b.Timeline),
		string(b.Source),
		string(b.Status),
		strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(strCell(b.Notes)),
		strings.Join(b.Tags, ", "),
		b.CreatedAt.UTC().Format(time.RFC3339),
		b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func strCell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intCell(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
