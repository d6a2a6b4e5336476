package requisition

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode says whether a draft creates a new requisition or edits an existing one.
type Mode string

// Draft modes
const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Draft is the uncommitted buffer behind the create/edit form.
// Buffers hold raw user input; a draft may be invalid at any point before submit.
type Draft struct {
	Mode     Mode   `json:"mode"`
	TargetID string `json:"targetId,omitempty"` // set iff Mode == ModeEdit

	RequisitionID string     `json:"requisitionId"`
	Date          string     `json:"date"`
	Department    string     `json:"department"`
	Employee      string     `json:"employee"`
	Requirement   string     `json:"requirement"`
	Details       string     `json:"details"`
	Category      string     `json:"category"`
	Quantity      string     `json:"quantity"`
	Enabled       bool       `json:"enabled"`
	Items         []LineItem `json:"items"`

	PendingItemName     string `json:"pendingItemName"`
	PendingItemQuantity string `json:"pendingItemQuantity"`

	Errors Errors `json:"errors"`
}

// NewDraft returns an empty create-mode draft.
// POST: Enabled is true, every buffer is empty, no items, no errors
func NewDraft() Draft {
	return Draft{
		Mode:    ModeCreate,
		Enabled: true,
		Items:   []LineItem{},
		Errors:  Errors{},
	}
}

// DraftFrom seeds an edit-mode draft from a committed requisition.
// POST: the draft's Items are a copy; editing them never reaches r
func DraftFrom(r Requisition) Draft {
	return Draft{
		Mode:          ModeEdit,
		TargetID:      r.ID,
		RequisitionID: r.RequisitionID,
		Date:          r.Date,
		Department:    r.Department,
		Employee:      r.Employee,
		Requirement:   r.Requirement,
		Details:       r.Details,
		Category:      r.Category,
		Quantity:      strconv.Itoa(r.Quantity),
		Enabled:       r.Enabled,
		Items:         CloneItems(r.Items),
		Errors:        Errors{},
	}
}

// Clone returns a copy that shares no slices or maps with d.
func (d Draft) Clone() Draft {
	d.Items = CloneItems(d.Items)
	d.Errors = d.Errors.Clone()
	return d
}

// SetField writes one buffer by field name.
// PRE: name is one of the Field constants other than itemsList
// POST: the buffer holds value and any error recorded for that field is cleared
// INVARIANT: requisitionId is read-only in edit mode
func (d *Draft) SetField(name, value string) error {
	switch name {
	case FieldRequisitionID:
		if d.Mode == ModeEdit {
			return ErrFieldReadOnly
		}
		d.RequisitionID = value
	case FieldDate:
		d.Date = value
	case FieldDepartment:
		d.Department = value
	case FieldEmployee:
		d.Employee = value
	case FieldRequirement:
		d.Requirement = value
	case FieldDetails:
		d.Details = value
	case FieldCategory:
		d.Category = value
	case FieldQuantity:
		d.Quantity = value
	case FieldEnabled:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: enabled must be true or false", ErrInvalidFieldValue)
		}
		d.Enabled = b
	case FieldItemName:
		d.PendingItemName = value
	case FieldItemQuantity:
		d.PendingItemQuantity = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	delete(d.Errors, name)
	return nil
}

// AppendItem adds a line item to the draft.
// PRE: none
// POST: on success the item is appended, the pending buffers are cleared and the
// itemsList error is removed; on failure Items and Errors are unchanged and
// ErrInvalidItem is returned
func (d *Draft) AppendItem(name, quantityRaw string) error {
	d.PendingItemName = name
	d.PendingItemQuantity = quantityRaw

	item, ok := ValidateItemEntry(name, quantityRaw)
	if !ok {
		return ErrInvalidItem
	}
	d.Items = append(d.Items, item)
	d.PendingItemName = ""
	d.PendingItemQuantity = ""
	delete(d.Errors, FieldItemsList)
	return nil
}

// Build converts a validated draft to a requisition. ID and CreatedAt are left
// for the store to assign (create) or preserve (edit).
// PRE: Validate(d) returned no errors
func (d Draft) Build() Requisition {
	qty, _ := ParsePositiveInt(d.Quantity)
	return Requisition{
		ID:            d.TargetID,
		RequisitionID: strings.TrimSpace(d.RequisitionID),
		Date:          strings.TrimSpace(d.Date),
		Department:    strings.TrimSpace(d.Department),
		Employee:      strings.TrimSpace(d.Employee),
		Requirement:   strings.TrimSpace(d.Requirement),
		Details:       strings.TrimSpace(d.Details),
		Category:      strings.TrimSpace(d.Category),
		Items:         CloneItems(d.Items),
		Quantity:      qty,
		Enabled:       d.Enabled,
	}
}
