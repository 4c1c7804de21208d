package deals

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fintaar/crossrail/internal/domain"
)

// entry pairs a deal with its serialisation lock. Utilisations and
// transitions against the same deal take the lock; the linearisation
// point is the compare-and-set on RemainingAmount under it.
type entry struct {
	mu   sync.Mutex
	deal domain.Deal
}

// Service owns the deal book.
type Service struct {
	mu          sync.RWMutex // guards the map, not individual deals
	deals       map[string]*entry
	store       DurableStore
	maxValidity time.Duration

	seqMu  sync.Mutex
	seqDay string
	seq    int
}

// NewService loads the durable book and serves it.
func NewService(ctx context.Context, store DurableStore, maxValidity time.Duration) (*Service, error) {
	if maxValidity <= 0 {
		maxValidity = 7 * 24 * time.Hour
	}
	s := &Service{deals: map[string]*entry{}, store: store, maxValidity: maxValidity}
	persisted, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load deal book: %w", err)
	}
	for _, d := range persisted {
		s.deals[d.DealID] = &entry{deal: d}
	}
	log.Info().Int("deals", len(persisted)).Msg("deal book loaded")
	return s, nil
}

// CreateRequest carries the fields of a new draft deal.
type CreateRequest struct {
	Pair       string      `json:"pair"`
	Side       domain.Side `json:"side"`
	BuyRate    float64     `json:"buy_rate"`
	SellRate   float64     `json:"sell_rate"`
	Amount     float64     `json:"amount"`
	MinAmount  float64     `json:"min_amount"`
	ValidFrom  time.Time   `json:"valid_from"`
	ValidUntil time.Time   `json:"valid_until"`
	CreatedBy  string      `json:"created_by"`
	Notes      string      `json:"notes,omitempty"`
}

func (s *Service) validateCreate(req CreateRequest) error {
	if req.Pair == "" {
		return domain.Validationf("pair", "required")
	}
	if _, err := domain.ParseSide(string(req.Side)); err != nil {
		return err
	}
	if req.BuyRate <= 0 || req.SellRate <= 0 {
		return domain.Validationf("rates", "buy and sell rates must be positive")
	}
	if req.BuyRate > req.SellRate {
		return domain.Validationf("rates", "buy_rate %.6f exceeds sell_rate %.6f", req.BuyRate, req.SellRate)
	}
	if req.Amount <= 0 {
		return domain.Validationf("amount", "must be positive")
	}
	if req.MinAmount < 0 || req.MinAmount > req.Amount {
		return domain.Validationf("min_amount", "must be in [0, amount]")
	}
	if !req.ValidFrom.Before(req.ValidUntil) {
		return domain.Validationf("validity", "valid_from must precede valid_until")
	}
	if req.ValidUntil.Sub(req.ValidFrom) > s.maxValidity {
		return domain.Validationf("validity", "window exceeds maximum of %s", s.maxValidity)
	}
	if req.CreatedBy == "" {
		return domain.Validationf("created_by", "required")
	}
	return nil
}

// Create registers a new DRAFT deal and persists it before returning.
func (s *Service) Create(ctx context.Context, req CreateRequest) (domain.Deal, error) {
	if err := s.validateCreate(req); err != nil {
		return domain.Deal{}, err
	}
	now := time.Now().UTC()
	d := domain.Deal{
		DealID:          s.nextID(now),
		Pair:            req.Pair,
		Side:            req.Side,
		BuyRate:         req.BuyRate,
		SellRate:        req.SellRate,
		Amount:          req.Amount,
		MinAmount:       req.MinAmount,
		RemainingAmount: req.Amount,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		Status:          domain.DealDraft,
		CreatedBy:       req.CreatedBy,
		CreatedAt:       now,
		Notes:           req.Notes,
		Audit: []domain.AuditEntry{
			{Timestamp: now, From: "", To: domain.DealDraft, Actor: req.CreatedBy, Reason: "created"},
		},
	}
	if err := s.store.Save(ctx, d); err != nil {
		return domain.Deal{}, err
	}
	s.mu.Lock()
	s.deals[d.DealID] = &entry{deal: d}
	s.mu.Unlock()
	log.Info().Str("deal", d.DealID).Str("pair", d.Pair).Float64("amount", d.Amount).Msg("deal created")
	return d, nil
}

// nextID mints ids of the form DEAL-YYYYMMDD-NNNN.
func (s *Service) nextID(now time.Time) string {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	day := now.Format("20060102")
	if day != s.seqDay {
		s.seqDay = day
		s.seq = 0
	}
	s.seq++
	return fmt.Sprintf("DEAL-%s-%04d", day, s.seq)
}

func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.deals[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &domain.NotFoundError{Kind: "deal", ID: id}
	}
	return e, nil
}

// Get returns a deal, lazily expiring it when past valid_until.
func (s *Service) Get(ctx context.Context, id string) (domain.Deal, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.Deal{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.expireLocked(ctx, e); err != nil {
		return domain.Deal{}, err
	}
	return e.deal, nil
}

// expireLocked applies the lazy ACTIVE -> EXPIRED transition. At
// exactly valid_until the deal is still active. Callers hold e.mu.
func (s *Service) expireLocked(ctx context.Context, e *entry) error {
	if e.deal.Status != domain.DealActive {
		return nil
	}
	now := time.Now()
	if !now.After(e.deal.ValidUntil) {
		return nil
	}
	next := cloneDeal(e.deal)
	next.Status = domain.DealExpired
	next.Audit = append(next.Audit, domain.AuditEntry{
		Timestamp: now.UTC(), From: domain.DealActive, To: domain.DealExpired, Actor: "system", Reason: "validity window elapsed",
	})
	if err := s.store.Save(ctx, next); err != nil {
		return err
	}
	e.deal = next
	return nil
}

// List returns a point-in-time snapshot of the book, lazily expiring
// as it goes, optionally filtered by status and pair.
func (s *Service) List(ctx context.Context, status domain.DealStatus, pair string) ([]domain.Deal, error) {
	s.mu.RLock()
	all := make([]*entry, 0, len(s.deals))
	for _, e := range s.deals {
		all = append(all, e)
	}
	s.mu.RUnlock()

	out := make([]domain.Deal, 0, len(all))
	for _, e := range all {
		e.mu.Lock()
		if err := s.expireLocked(ctx, e); err != nil {
			e.mu.Unlock()
			return nil, err
		}
		d := e.deal
		e.mu.Unlock()
		if status != "" && d.Status != status {
			continue
		}
		if pair != "" && d.Pair != pair {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DealID < out[j].DealID })
	return out, nil
}

// UpdateRequest carries the DRAFT-only editable fields. Nil pointers
// leave the field unchanged.
type UpdateRequest struct {
	BuyRate    *float64   `json:"buy_rate,omitempty"`
	SellRate   *float64   `json:"sell_rate,omitempty"`
	Amount     *float64   `json:"amount,omitempty"`
	MinAmount  *float64   `json:"min_amount,omitempty"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// Update edits a DRAFT deal in place.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest, actor string) (domain.Deal, error) {
	return s.transition(ctx, id, "update", func(d *domain.Deal) error {
		if d.Status != domain.DealDraft {
			return &domain.DealStateConflictError{DealID: id, Current: d.Status, Attempt: "update"}
		}
		if req.BuyRate != nil {
			d.BuyRate = *req.BuyRate
		}
		if req.SellRate != nil {
			d.SellRate = *req.SellRate
		}
		if req.Amount != nil {
			d.Amount = *req.Amount
			d.RemainingAmount = *req.Amount
		}
		if req.MinAmount != nil {
			d.MinAmount = *req.MinAmount
		}
		if req.ValidFrom != nil {
			d.ValidFrom = *req.ValidFrom
		}
		if req.ValidUntil != nil {
			d.ValidUntil = *req.ValidUntil
		}
		if req.Notes != nil {
			d.Notes = *req.Notes
		}
		check := CreateRequest{
			Pair: d.Pair, Side: d.Side, BuyRate: d.BuyRate, SellRate: d.SellRate,
			Amount: d.Amount, MinAmount: d.MinAmount, ValidFrom: d.ValidFrom,
			ValidUntil: d.ValidUntil, CreatedBy: d.CreatedBy,
		}
		if err := s.validateCreate(check); err != nil {
			return err
		}
		d.Audit = append(d.Audit, domain.AuditEntry{
			Timestamp: time.Now().UTC(), From: domain.DealDraft, To: domain.DealDraft, Actor: actor, Reason: "updated",
		})
		return nil
	})
}

// Submit moves DRAFT -> PENDING_APPROVAL.
func (s *Service) Submit(ctx context.Context, id, submittedBy string) (domain.Deal, error) {
	return s.transition(ctx, id, "submit", func(d *domain.Deal) error {
		if d.Status != domain.DealDraft {
			return &domain.DealStateConflictError{DealID: id, Current: d.Status, Attempt: "submit"}
		}
		d.Status = domain.DealPendingApproval
		d.Audit = append(d.Audit, domain.AuditEntry{
			Timestamp: time.Now().UTC(), From: domain.DealDraft, To: domain.DealPendingApproval, Actor: submittedBy,
		})
		return nil
	})
}

// Approve moves PENDING_APPROVAL -> ACTIVE. The submitter's own deal
// cannot be self-approved, and approval cannot precede valid_from.
func (s *Service) Approve(ctx context.Context, id, approvedBy string) (domain.Deal, error) {
	return s.transition(ctx, id, "approve", func(d *domain.Deal) error {
		if d.Status != domain.DealPendingApproval {
			return &domain.DealStateConflictError{DealID: id, Current: d.Status, Attempt: "approve"}
		}
		if approvedBy == "" {
			return domain.Validationf("approved_by", "required")
		}
		if approvedBy == d.CreatedBy {
			return domain.Validationf("approved_by", "deal %s cannot be approved by its creator", id)
		}
		if time.Now().Before(d.ValidFrom) {
			return &domain.DealStateConflictError{DealID: id, Current: d.Status, Attempt: "approve before valid_from"}
		}
		d.Status = domain.DealActive
		d.ApprovedBy = approvedBy
		d.Audit = append(d.Audit, domain.AuditEntry{
			Timestamp: time.Now().UTC(), From: domain.DealPendingApproval, To: domain.DealActive, Actor: approvedBy,
		})
		return nil
	})
}

// Reject moves PENDING_APPROVAL -> REJECTED.
func (s *Service) Reject(ctx context.Context, id, rejectedBy, reason string) (domain.Deal, error) {
	return s.transition(ctx, id, "reject", func(d *domain.Deal) error {
		if d.Status != domain.DealPendingApproval {
			return &domain.DealStateConflictError{DealID: id, Current: d.Status, Attempt: "reject"}
		}
		d.Status = domain.DealRejected
		d.Audit = append(d.Audit, domain.AuditEntry{
			Timestamp: time.Now().UTC(), From: domain.DealPendingApproval, To: domain.DealRejected, Actor: rejectedBy, Reason: reason,
		})
		return nil
	})
}

// Cancel moves DRAFT, PENDING_APPROVAL or ACTIVE -> CANCELLED.
func (s *Service) Cancel(ctx context.Context, id, cancelledBy, reason string) (domain.Deal, error) {
	return s.transition(ctx, id, "cancel", func(d *domain.Deal) error {
		switch d.Status {
		case domain.DealDraft, domain.DealPendingApproval, domain.DealActive:
		default:
			return &domain.DealStateConflictError{DealID: id, Current: d.Status, Attempt: "cancel"}
		}
		from := d.Status
		d.Status = domain.DealCancelled
		d.Audit = append(d.Audit, domain.AuditEntry{
			Timestamp: time.Now().UTC(), From: from, To: domain.DealCancelled, Actor: cancelledBy, Reason: reason,
		})
		return nil
	})
}

// Utilize draws amount down from an ACTIVE, in-window deal. Falls to
// FULLY_UTILIZED when the remaining balance drops below the deal's own
// minimum.
func (s *Service) Utilize(ctx context.Context, id string, amount float64, by, customerRef string) (domain.Deal, error) {
	return s.transition(ctx, id, "utilize", func(d *domain.Deal) error {
		if amount <= 0 {
			return domain.Validationf("amount", "utilisation must be positive, got %v", amount)
		}
		if d.Status != domain.DealActive {
			return &domain.DealStateConflictError{DealID: id, Current: d.Status, Attempt: "utilize"}
		}
		now := time.Now()
		if !d.InWindow(now) {
			return &domain.DealStateConflictError{DealID: id, Current: d.Status, Attempt: "utilize outside validity window"}
		}
		if amount > d.RemainingAmount {
			return &domain.InsufficientDealBalanceError{DealID: id, Requested: amount, Remaining: d.RemainingAmount}
		}
		d.RemainingAmount -= amount
		d.Utilizations = append(d.Utilizations, domain.Utilization{
			ID:             uuid.New().String(),
			Timestamp:      now.UTC(),
			Amount:         amount,
			RemainingAfter: d.RemainingAmount,
			RateApplied:    d.Rate(d.Side),
			By:             by,
			CustomerRef:    customerRef,
		})
		if d.RemainingAmount < d.MinAmount || d.RemainingAmount == 0 {
			d.Status = domain.DealFullyUtilized
			d.Audit = append(d.Audit, domain.AuditEntry{
				Timestamp: now.UTC(), From: domain.DealActive, To: domain.DealFullyUtilized, Actor: by,
				Reason: fmt.Sprintf("remaining %.2f below minimum %.2f", d.RemainingAmount, d.MinAmount),
			})
		}
		return nil
	})
}

// transition runs mutate on a copy of the deal under its lock, writes
// ahead to the durable store, then commits to memory. A failed write
// leaves the deal in its prior state.
func (s *Service) transition(ctx context.Context, id, op string, mutate func(*domain.Deal) error) (domain.Deal, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.Deal{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := s.expireLocked(ctx, e); err != nil {
		return domain.Deal{}, err
	}
	next := cloneDeal(e.deal)
	if err := mutate(&next); err != nil {
		return domain.Deal{}, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return domain.Deal{}, err
	}
	e.deal = next
	log.Debug().Str("deal", id).Str("op", op).Str("status", string(next.Status)).Msg("deal transition")
	return next, nil
}

func cloneDeal(d domain.Deal) domain.Deal {
	out := d
	out.Audit = append([]domain.AuditEntry(nil), d.Audit...)
	out.Utilizations = append([]domain.Utilization(nil), d.Utilizations...)
	return out
}
