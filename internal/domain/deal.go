package domain

import "time"

// DealStatus is a node of the deal state machine.
type DealStatus string

const (
	DealDraft           DealStatus = "DRAFT"
	DealPendingApproval DealStatus = "PENDING_APPROVAL"
	DealActive          DealStatus = "ACTIVE"
	DealExpired         DealStatus = "EXPIRED"
	DealFullyUtilized   DealStatus = "FULLY_UTILIZED"
	DealCancelled       DealStatus = "CANCELLED"
	DealRejected        DealStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible.
func (s DealStatus) Terminal() bool {
	switch s {
	case DealExpired, DealFullyUtilized, DealCancelled, DealRejected:
		return true
	}
	return false
}

// AuditEntry records one state transition of a deal.
type AuditEntry struct {
	Timestamp time.Time  `json:"ts" db:"ts"`
	From      DealStatus `json:"from" db:"from_status"`
	To        DealStatus `json:"to" db:"to_status"`
	Actor     string     `json:"actor" db:"actor"`
	Reason    string     `json:"reason,omitempty" db:"reason"`
}

// Utilization records one draw-down against a deal's balance.
type Utilization struct {
	ID             string    `json:"utilization_id"`
	Timestamp      time.Time `json:"ts"`
	Amount         float64   `json:"amount_utilised"`
	RemainingAfter float64   `json:"remaining_after"`
	RateApplied    float64   `json:"rate_applied,omitempty"`
	By             string    `json:"by"`
	CustomerRef    string    `json:"customer_ref,omitempty"`
}

// Deal is a pre-negotiated treasury rate commitment.
// Invariants: RemainingAmount <= Amount, MinAmount <= Amount,
// ValidFrom < ValidUntil, BuyRate <= SellRate.
type Deal struct {
	DealID          string        `json:"deal_id"`
	Pair            string        `json:"pair"`
	Side            Side          `json:"side"`
	BuyRate         float64       `json:"buy_rate"`
	SellRate        float64       `json:"sell_rate"`
	Amount          float64       `json:"amount"`
	MinAmount       float64       `json:"min_amount"`
	RemainingAmount float64       `json:"remaining_amount"`
	ValidFrom       time.Time     `json:"valid_from"`
	ValidUntil      time.Time     `json:"valid_until"`
	Status          DealStatus    `json:"status"`
	CreatedBy       string        `json:"created_by"`
	CreatedAt       time.Time     `json:"created_at"`
	ApprovedBy      string        `json:"approved_by,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	Audit           []AuditEntry  `json:"audit"`
	Utilizations    []Utilization `json:"utilizations"`
}

// Rate returns the deal rate seen by the customer on the given side.
func (d *Deal) Rate(side Side) float64 {
	if side == SideSell {
		return d.SellRate
	}
	return d.BuyRate
}

// InWindow reports whether t is within the validity window, inclusive
// of the endpoints: at exactly ValidUntil the deal is still usable.
func (d *Deal) InWindow(t time.Time) bool {
	return !t.Before(d.ValidFrom) && !t.After(d.ValidUntil)
}

// RateSource tags where a best-rate answer came from.
type RateSourceKind string

const (
	RateFromDeal     RateSourceKind = "DEAL"
	RateFromTreasury RateSourceKind = "TREASURY"
)
