package requisition

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names, as used for error keys and UpdateField.
const (
	FieldRequisitionID = "requisitionId"
	FieldDate          = "date"
	FieldDepartment    = "department"
	FieldEmployee      = "employee"
	FieldRequirement   = "requirement"
	FieldDetails       = "details"
	FieldCategory      = "category"
	FieldQuantity      = "quantity"
	FieldItemsList     = "itemsList"
	FieldEnabled       = "enabled"
	FieldItemName      = "itemName"
	FieldItemQuantity  = "itemQuantity"
)

// FieldOrder is the order in which errors are listed back to the user.
var FieldOrder = []string{
	FieldRequisitionID,
	FieldDate,
	FieldDepartment,
	FieldEmployee,
	FieldRequirement,
	FieldDetails,
	FieldCategory,
	FieldItemsList,
	FieldQuantity,
}

var requiredMessages = map[string]string{
	FieldRequisitionID: "Requisition ID is required",
	FieldDate:          "Date is required",
	FieldDepartment:    "Department is required",
	FieldEmployee:      "Employee is required",
	FieldRequirement:   "Requirement is required",
	FieldDetails:       "Details are required",
	FieldCategory:      "Category is required",
}

var enumLabels = map[string]string{
	FieldDepartment:  "Department",
	FieldEmployee:    "Employee",
	FieldRequirement: "Requirement",
	FieldCategory:    "Category",
}

const (
	msgItemsRequired   = "At least one item is required"
	msgQuantityInvalid = "Total quantity must be a positive number"
)

// Errors maps a field name to its validation message. An empty set means valid.
type Errors map[string]string

// Messages returns every message in FieldOrder, followed by any keys FieldOrder
// does not know about.
func (e Errors) Messages() []string {
	msgs := make([]string, 0, len(e))
	seen := make(map[string]bool, len(e))
	for _, f := range FieldOrder {
		if m, ok := e[f]; ok {
			msgs = append(msgs, m)
			seen[f] = true
		}
	}
	for f, m := range e {
		if !seen[f] {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// Clone copies the error set.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// ValidationError is returned by a rejected submit. It carries the full error set.
type ValidationError struct {
	Errors Errors
}

func (v *ValidationError) Error() string {
	return "please correct the following errors: " + strings.Join(v.Errors.Messages(), "; ")
}

// Validate checks a draft's buffers against the committed-record rules.
// PRE: none; a zero catalogue falls back to DefaultCatalogue
// POST: returns an empty set iff the draft can be committed; d is not modified
func Validate(d Draft, c Catalogue) Errors {
	if c.IsZero() {
		c = DefaultCatalogue()
	}
	errs := Errors{}

	values := map[string]string{
		FieldRequisitionID: d.RequisitionID,
		FieldDate:          d.Date,
		FieldDepartment:    d.Department,
		FieldEmployee:      d.Employee,
		FieldRequirement:   d.Requirement,
		FieldDetails:       d.Details,
		FieldCategory:      d.Category,
	}
	for field, msg := range requiredMessages {
		v := strings.TrimSpace(values[field])
		if v == "" {
			errs[field] = msg
			continue
		}
		if label, ok := enumLabels[field]; ok && !c.Contains(field, v) {
			errs[field] = fmt.Sprintf("%s must be one of: %s", label, strings.Join(c.options(field), ", "))
		}
	}

	if len(d.Items) == 0 {
		errs[FieldItemsList] = msgItemsRequired
	}
	if _, ok := ParsePositiveInt(d.Quantity); !ok {
		errs[FieldQuantity] = msgQuantityInvalid
	}
	return errs
}

// ValidateItemEntry checks a pending line item before it is appended.
// POST: ok is true iff the trimmed name is non-empty and quantityRaw is an integer > 0
func ValidateItemEntry(name, quantityRaw string) (LineItem, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return LineItem{}, false
	}
	qty, ok := ParsePositiveInt(quantityRaw)
	if !ok {
		return LineItem{}, false
	}
	return LineItem{Name: trimmed, Quantity: qty}, true
}

// ParsePositiveInt parses a whole number greater than zero.
// Fractions, exponents and trailing characters are rejected rather than truncated.
func ParsePositiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
