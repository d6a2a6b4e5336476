package requisition

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrInvalidItem       = errors.New("Please enter a valid item name and a positive quantity.")
	ErrNoOpenDraft       = errors.New("no requisition draft is open")
	ErrDraftAlreadyOpen  = errors.New("a requisition draft is already open")
	ErrFieldReadOnly     = errors.New("requisition ID cannot be changed once created")
	ErrUnknownField      = errors.New("unknown requisition field")
	ErrInvalidFieldValue = errors.New("invalid requisition field value")
)

// LineItem is one name and quantity pair on a requisition.
// Items have no identity of their own; they are addressed by position.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Requisition is a committed purchase requisition.
type Requisition struct {
	ID            string     `json:"id"`
	RequisitionID string     `json:"requisitionId"`
	Date          string     `json:"date"` // as entered, YYYY-MM-DD from the form
	Department    string     `json:"department"`
	Employee      string     `json:"employee"`
	Requirement   string     `json:"requirement"`
	Category      string     `json:"category"`
	Details       string     `json:"details"`
	Items         []LineItem `json:"items"`
	Quantity      int        `json:"quantity"` // declared total, not checked against Items
	Enabled       bool       `json:"enabled"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Clone returns a copy of r whose Items slice shares nothing with r.
// POST: mutating the clone's items never affects r
func (r Requisition) Clone() Requisition {
	r.Items = CloneItems(r.Items)
	return r
}

// CloneItems copies an item list by value.
func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// CloneAll deep-copies a snapshot.
func CloneAll(rs []Requisition) []Requisition {
	out := make([]Requisition, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

// ItemTotal sums the item quantities. It is informational only; the declared
// Quantity is never required to match it.
func (r Requisition) ItemTotal() int {
	total := 0
	for _, it := range r.Items {
		total += it.Quantity
	}
	return total
}
