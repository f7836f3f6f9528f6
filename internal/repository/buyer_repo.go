package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buyerleads/internal/domain/buyer"
)

type BuyerRepository struct {
	db *gorm.DB
	// concurrent allows independent reads to run in parallel. It is off
	// inside a transaction, which is bound to a single connection.
	concurrent bool
}

func NewBuyerRepository(db *gorm.DB) *BuyerRepository {
	return &BuyerRepository{db: db, concurrent: true}
}

type buyerModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	OwnerID      string    `gorm:"column:owner_id"`
	FullName     string    `gorm:"column:full_name"`
	Email        *string   `gorm:"column:email"`
	Phone        string    `gorm:"column:phone"`
	City         string    `gorm:"column:city"`
	PropertyType string    `gorm:"column:property_type"`
	BHK          *string   `gorm:"column:bhk"`
	Purpose      string    `gorm:"column:purpose"`
	BudgetMin    *int      `gorm:"column:budget_min"`
	BudgetMax    *int      `gorm:"column:budget_max"`
	Timeline     string    `gorm:"column:timeline"`
	Source       string    `gorm:"column:source"`
	Status       string    `gorm:"column:status"`
	Notes        *string   `gorm:"column:notes"`
	Tags         []string  `gorm:"column:tags;serializer:json"`
	Version      int64     `gorm:"column:version"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (buyerModel) TableName() string { return "buyers" }

func toDomainBuyer(m buyerModel) *buyer.Buyer {
	b := &buyer.Buyer{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		FullName:     m.FullName,
		Email:        m.Email,
		Phone:        m.Phone,
		City:         buyer.City(m.City),
		PropertyType: buyer.PropertyType(m.PropertyType),
		Purpose:      buyer.Purpose(m.Purpose),
		BudgetMin:    m.BudgetMin,
		BudgetMax:    m.BudgetMax,
		Timeline:     buyer.Timeline(m.Timeline),
		Source:       buyer.Source(m.Source),
		Status:       buyer.Status(m.Status),
		Notes:        m.Notes,
		Tags:         m.Tags,
		Version:      m.Version,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.BHK != nil {
		v := buyer.BHK(*m.BHK)
		b.BHK = &v
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b
}

func toBuyerModel(b *buyer.Buyer) buyerModel {
	m := buyerModel{
		ID:           b.ID,
		OwnerID:      b.OwnerID,
		FullName:     b.FullName,
		Email:        b.Email,
		Phone:        b.Phone,
		City:         string(b.City),
		PropertyType: string(b.PropertyType),
		Purpose:      string(b.Purpose),
		BudgetMin:    b.BudgetMin,
		BudgetMax:    b.BudgetMax,
		Timeline:     string(b.Timeline),
		Source:       string(b.Source),
		Status:       string(b.Status),
		Notes:        b.Notes,
		Tags:         b.Tags,
		Version:      b.Version,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if b.BHK != nil {
		v := string(*b.BHK)
		m.BHK = &v
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m
}

func (r *BuyerRepository) now() time.Time {
	return r.db.NowFunc()
}

func (r *BuyerRepository) Create(ctx context.Context, b *buyer.Buyer) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = buyer.StatusNew
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%w: %w", buyer.ErrConstraintViolation, err)
	}

	now := r.now()
	b.Version = 1
	b.CreatedAt = now
	b.UpdatedAt = now

	m := toBuyerModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return wrapBuyerErr("create buyer", err)
	}
	*b = *toDomainBuyer(m)
	return nil
}

func (r *BuyerRepository) FindByID(ctx context.Context, id, ownerID string) (*buyer.Buyer, error) {
	var m buyerModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find buyer: %w", err)
	}
	// Someone else's buyer looks exactly like a missing one.
	if ownerID != "" && m.OwnerID != ownerID {
		return nil, nil
	}
	return toDomainBuyer(m), nil
}

var sortColumns = map[buyer.SortField]string{
	buyer.SortFullName:  "full_name",
	buyer.SortCreatedAt: "created_at",
	buyer.SortUpdatedAt: "updated_at",
	buyer.SortBudgetMax: "budget_max",
}

func (r *BuyerRepository) FindMany(ctx context.Context, spec buyer.FilterSpec) (*buyer.Page, error) {
	spec = spec.Normalize()

	var (
		total int64
		rows  []buyerModel
	)

	count := func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Model(&buyerModel{}).
			Scopes(filterScope(spec)).
			Count(&total).Error
	}
	page := func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Model(&buyerModel{}).
			Scopes(filterScope(spec)).
			Order(clause.OrderByColumn{
				Column: clause.Column{Name: sortColumns[spec.SortBy]},
				Desc:   spec.SortOrder == buyer.SortDesc,
			}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
			Offset(spec.Offset()).
			Limit(spec.Limit).
			Find(&rows).Error
	}

	if err := r.parallel(ctx, count, page); err != nil {
		return nil, fmt.Errorf("find buyers: %w", err)
	}

	out := &buyer.Page{
		Data:       make([]buyer.Buyer, 0, len(rows)),
		Pagination: buyer.NewPagination(spec.Page, spec.Limit, total),
	}
	for _, m := range rows {
		out.Data = append(out.Data, *toDomainBuyer(m))
	}
	return out, nil
}

// filterScope applies every predicate of spec. Each group is ANDed, so the
// search OR-group and the budget conditions never mix.
func filterScope(spec buyer.FilterSpec) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if spec.OwnerID != "" {
			db = db.Where("owner_id = ?", spec.OwnerID)
		}
		if spec.City != "" {
			db = db.Where("city = ?", string(spec.City))
		}
		if spec.PropertyType != "" {
			db = db.Where("property_type = ?", string(spec.PropertyType))
		}
		if spec.Status != "" {
			db = db.Where("status = ?", string(spec.Status))
		}
		if spec.Timeline != "" {
			db = db.Where("timeline = ?", string(spec.Timeline))
		}
		if spec.Source != "" {
			db = db.Where("source = ?", string(spec.Source))
		}

		if s := strings.TrimSpace(spec.Search); s != "" {
			p := "%" + escapeLike(strings.ToLower(s)) + "%"
			db = db.Where(
				`(LOWER(full_name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' OR LOWER(COALESCE(email, '')) LIKE ? ESCAPE '\' OR LOWER(COALESCE(notes, '')) LIKE ? ESCAPE '\')`,
				p, p, p, p,
			)
		}

		if spec.BudgetMin != nil {
			db = db.Where("(budget_max IS NULL OR budget_max >= ?)", *spec.BudgetMin)
		}
		if spec.BudgetMax != nil {
			db = db.Where("(budget_min IS NULL OR budget_min <= ?)", *spec.BudgetMax)
		}
		return db
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *BuyerRepository) Update(ctx context.Context, id, ownerID string, in *buyer.UpdateInput, expectedVersion int64) (*buyer.Buyer, error) {
	var m buyerModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, buyer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load buyer: %w", err)
	}
	if ownerID != "" && m.OwnerID != ownerID {
		return nil, buyer.ErrUnauthorized
	}
	if m.Version != expectedVersion {
		return nil, buyer.ErrConflict
	}

	b := toDomainBuyer(m)
	if in != nil {
		in.Apply(b)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", buyer.ErrConstraintViolation, err)
	}
	b.Version = expectedVersion + 1
	b.UpdatedAt = r.now()

	next := toBuyerModel(b)
	res := r.db.WithContext(ctx).
		Model(&next).
		Where("version = ?", expectedVersion).
		Select("*").
		Omit("id", "owner_id", "created_at").
		Updates(&next)
	if res.Error != nil {
		return nil, wrapBuyerErr("update buyer", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, buyer.ErrConflict
	}
	return toDomainBuyer(next), nil
}

func (r *BuyerRepository) Delete(ctx context.Context, id, ownerID string) error {
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	res := q.Delete(&buyerModel{})
	if res.Error != nil {
		return fmt.Errorf("delete buyer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return buyer.ErrNotFound
	}
	return nil
}

type bucketCount struct {
	Bucket string
	Total  int64
}

func (r *BuyerRepository) GetStats(ctx context.Context, ownerID string) (*buyer.Stats, error) {
	stats := &buyer.Stats{
		ByStatus:       zeroBuckets(buyer.Statuses),
		ByCity:         zeroBuckets(buyer.Cities),
		ByPropertyType: zeroBuckets(buyer.PropertyTypes),
	}

	scoped := func(ctx context.Context) *gorm.DB {
		q := r.db.WithContext(ctx).Model(&buyerModel{})
		if ownerID != "" {
			q = q.Where("owner_id = ?", ownerID)
		}
		return q
	}
	group := func(col string, into map[string]int64) func(context.Context) error {
		return func(ctx context.Context) error {
			var rows []bucketCount
			err := scoped(ctx).
				Select(col + " AS bucket, COUNT(*) AS total").
				Group(col).
				Scan(&rows).Error
			if err != nil {
				return err
			}
			for _, row := range rows {
				into[row.Bucket] = row.Total
			}
			return nil
		}
	}

	err := r.parallel(ctx,
		func(ctx context.Context) error { return scoped(ctx).Count(&stats.Total).Error },
		group("status", stats.ByStatus),
		group("city", stats.ByCity),
		group("property_type", stats.ByPropertyType),
	)
	if err != nil {
		return nil, fmt.Errorf("buyer stats: %w", err)
	}
	return stats, nil
}

// parallel runs fns concurrently outside transactions and in order inside.
func (r *BuyerRepository) parallel(ctx context.Context, fns ...func(context.Context) error) error {
	if !r.concurrent {
		for _, fn := range fns {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

func zeroBuckets[T ~string](values []T) map[string]int64 {
	m := make(map[string]int64, len(values))
	for _, v := range values {
		m[string(v)] = 0
	}
	return m
}

func wrapBuyerErr(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, buyer.ErrConflict, err)
	case isConstraintViolation(err):
		return fmt.Errorf("%s: %w: %w", op, buyer.ErrConstraintViolation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
