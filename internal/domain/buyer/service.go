package buyer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"buyerleads/internal/metrics"
)

const (
	DefaultActivityLimit = 20
	DetailHistoryLimit   = 5
)

// ErrNoOwner is returned when a call carries no caller identity. Storage
// treats an empty owner as unscoped, so it never gets that far.
var ErrNoOwner = fmt.Errorf("%w: missing owner", ErrUnauthorized)

// Detail is a buyer together with its most recent history entries.
type Detail struct {
	*Buyer
	History []HistoryEntry `json:"history"`
}

// Service runs buyer lifecycle operations. Each mutation and its history
// entry commit together or not at all.
type Service struct {
	store  Store
	events EventPublisher
	log    *zap.Logger
}

// NewService creates buyer service. events and log may be nil.
func NewService(store Store, events EventPublisher, log *zap.Logger) *Service {
	if events == nil {
		events = noopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  store,
		events: events,
		log:    log.Named("buyer"),
	}
}

// Create stores a new buyer owned by ownerID and records a created entry.
func (s *Service) Create(ctx context.Context, in CreateInput, ownerID string) (*Buyer, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	b := in.ToBuyer(ownerID)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	var entry HistoryEntry
	err := s.store.WithinTx(ctx, func(tx Store) error {
		if err := tx.Buyers().Create(ctx, b); err != nil {
			return err
		}
		entry = HistoryEntry{
			BuyerID:   b.ID,
			ChangedBy: ownerID,
			Action:    ActionCreated,
			Diff:      Changes{"status": {From: nil, To: string(b.Status)}},
		}
		return tx.History().Append(ctx, &entry)
	})
	if err != nil {
		return nil, s.storageErr("create", err)
	}

	s.committed(ownerID, entry)
	return b, nil
}

// GetOne returns nil, nil when the buyer is not visible to ownerID.
func (s *Service) GetOne(ctx context.Context, id, ownerID string) (*Buyer, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	b, err := s.store.Buyers().FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, s.storageErr("get", err)
	}
	return b, nil
}

// GetDetail returns the buyer with its DetailHistoryLimit newest history
// entries, or nil, nil when the buyer is not visible to ownerID.
func (s *Service) GetDetail(ctx context.Context, id, ownerID string) (*Detail, error) {
	b, err := s.GetOne(ctx, id, ownerID)
	if err != nil || b == nil {
		return nil, err
	}
	entries, err := s.GetHistory(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if len(entries) > DetailHistoryLimit {
		entries = entries[:DetailHistoryLimit]
	}
	return &Detail{Buyer: b, History: entries}, nil
}

// List always scopes the query to ownerID, whatever spec carries.
func (s *Service) List(ctx context.Context, spec FilterSpec, ownerID string) (*Page, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	spec = spec.Normalize()
	spec.OwnerID = ownerID

	page, err := s.store.Buyers().FindMany(ctx, spec)
	if err != nil {
		return nil, s.storageErr("list", err)
	}
	return page, nil
}

// Update applies a partial update. An update that changes nothing is
// persisted without a history entry.
func (s *Service) Update(ctx context.Context, id string, in *UpdateInput, ownerID string) (*Buyer, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if in == nil {
		in = &UpdateInput{}
	}

	var (
		updated *Buyer
		entry   HistoryEntry
		changes Changes
	)
	err := s.store.WithinTx(ctx, func(tx Store) error {
		existing, err := tx.Buyers().FindByID(ctx, id, ownerID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		if in.Version != 0 && in.Version != existing.Version {
			return ErrConflict
		}

		candidate := existing.Clone()
		in.Apply(candidate)
		if err := candidate.Validate(); err != nil {
			return err
		}

		changes = Diff(existing.Fields(), in.Fields())

		updated, err = tx.Buyers().Update(ctx, id, ownerID, in, existing.Version)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}

		entry = HistoryEntry{
			BuyerID:   id,
			ChangedBy: ownerID,
			Action:    ActionUpdated,
			Diff:      changes,
		}
		return tx.History().Append(ctx, &entry)
	})
	if err != nil {
		return nil, s.storageErr("update", err)
	}

	if len(changes) > 0 {
		s.committed(ownerID, entry)
	}
	return updated, nil
}

// Delete records the terminal status and then removes the buyer. The
// history rows outlive the buyer.
func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	var entry HistoryEntry
	err := s.store.WithinTx(ctx, func(tx Store) error {
		existing, err := tx.Buyers().FindByID(ctx, id, ownerID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}

		entry = HistoryEntry{
			BuyerID:   id,
			ChangedBy: ownerID,
			Action:    ActionDeleted,
			Diff:      Changes{"status": {From: string(existing.Status), To: nil}},
		}
		if err := tx.History().Append(ctx, &entry); err != nil {
			return err
		}
		return tx.Buyers().Delete(ctx, id, ownerID)
	})
	if err != nil {
		return s.storageErr("delete", err)
	}

	s.committed(ownerID, entry)
	return nil
}

func (s *Service) GetHistory(ctx context.Context, id, ownerID string) ([]HistoryEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	entries, err := s.store.History().ListForBuyer(ctx, id, ownerID)
	if err != nil {
		return nil, s.storageErr("history", err)
	}
	return entries, nil
}

func (s *Service) GetStats(ctx context.Context, ownerID string) (*Stats, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	stats, err := s.store.Buyers().GetStats(ctx, ownerID)
	if err != nil {
		return nil, s.storageErr("stats", err)
	}
	return stats, nil
}

// RecentActivity lists the newest entries authored by ownerID, including
// those of buyers that have since been deleted.
func (s *Service) RecentActivity(ctx context.Context, ownerID string, limit int) ([]HistoryEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultActivityLimit
	}
	entries, err := s.store.History().ListByActor(ctx, ownerID, limit)
	if err != nil {
		return nil, s.storageErr("activity", err)
	}
	return entries, nil
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrNoOwner
	}
	return nil
}

func (s *Service) committed(ownerID string, e HistoryEntry) {
	metrics.BuyerMutations.WithLabelValues(string(e.Action)).Inc()
	s.log.Debug("buyer mutated",
		zap.String("action", string(e.Action)),
		zap.String("buyer_id", e.BuyerID),
		zap.String("owner_id", ownerID),
		zap.Int("changed_fields", len(e.Diff)),
	)
	s.events.Publish(ownerID, e)
}

// storageErr passes domain errors through and logs anything unexpected.
func (s *Service) storageErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrConstraintViolation),
		errors.Is(err, context.Canceled):
		return err
	}
	s.log.Error("buyer storage failure", zap.String("op", op), zap.Error(err))
	return err
}
