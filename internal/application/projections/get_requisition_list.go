package projections

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"requisitions/internal/application/listutil"
	domain "requisitions/internal/domain/requisition"
)

// EmptyListMessage is shown when no requisition matches.
const EmptyListMessage = "No requisitions found."

// Filter keys accepted on the list view.
const (
	FilterDepartment = "department"
	FilterCategory   = "category"
	FilterEnabled    = "enabled"
)

// RequisitionFilterKeys lists the filters ParseFilterParams should keep.
var RequisitionFilterKeys = []string{FilterDepartment, FilterCategory, FilterEnabled}

// RequisitionSortColumns lists the columns the list can be sorted by.
var RequisitionSortColumns = []string{"requisitionId", "date", "department", "employee", "category", "quantity", "createdAt"}

// GetRequisitionListQuery carries query parameters.
type GetRequisitionListQuery struct {
	listutil.ListParams
}

// RequisitionRow is one list row, formatted for display.
type RequisitionRow struct {
	ID            string            `json:"id"`
	RequisitionID string            `json:"requisitionId"`
	Date          string            `json:"date"`        // stored value
	DisplayDate   string            `json:"displayDate"` // DD-MM-YYYY
	Department    string            `json:"department"`
	Employee      string            `json:"employee"`
	Requirement   string            `json:"requirement"`
	Category      string            `json:"category"`
	Details       string            `json:"details"`
	Items         []domain.LineItem `json:"items"`
	ItemSummary   string            `json:"itemSummary"`
	ItemTotal     int               `json:"itemTotal"`
	Quantity      int               `json:"quantity"`
	Enabled       bool              `json:"enabled"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// GetRequisitionListResult carries the query result.
type GetRequisitionListResult struct {
	Rows         []RequisitionRow  `json:"rows"`
	Page         listutil.PageInfo `json:"page"`
	Total        int               `json:"total"` // records in the store before filtering
	EmptyMessage string            `json:"emptyMessage,omitempty"`
}

// GetRequisitionListDeps holds dependencies for GetRequisitionList.
type GetRequisitionListDeps struct {
	Store RequisitionLister
}

// QueryGetRequisitionList returns one page of requisitions after search, filter and sort.
// PRE: query came from listutil.ParseListParams
// POST: rows keep store order unless a sort column is given; EmptyMessage is set iff Rows is empty
func QueryGetRequisitionList(ctx context.Context, query GetRequisitionListQuery, deps GetRequisitionListDeps) (GetRequisitionListResult, error) {
	records, err := deps.Store.List(ctx)
	if err != nil {
		return GetRequisitionListResult{}, err
	}

	matched := FilterRequisitions(records, query.FilterParams)
	SortRequisitions(matched, query.SortParams)

	page, info := listutil.Paginate(matched, query.PageParams)
	rows := make([]RequisitionRow, 0, len(page))
	for _, r := range page {
		rows = append(rows, NewRequisitionRow(r))
	}

	result := GetRequisitionListResult{Rows: rows, Page: info, Total: len(records)}
	if len(rows) == 0 {
		result.EmptyMessage = EmptyListMessage
	}
	return result, nil
}

// FilterRequisitions keeps the records matching the search text and every filter.
// Search covers the requisition ID, employee, details and item names.
func FilterRequisitions(records []domain.Requisition, fp listutil.FilterParams) []domain.Requisition {
	out := make([]domain.Requisition, 0, len(records))
	for _, r := range records {
		if !matchesFilters(r, fp.Filters) {
			continue
		}
		fields := []string{r.RequisitionID, r.Employee, r.Details}
		for _, it := range r.Items {
			fields = append(fields, it.Name)
		}
		if !listutil.ContainsFold(fp.Search, fields...) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesFilters(r domain.Requisition, filters map[string]string) bool {
	if v, ok := filters[FilterDepartment]; ok && !strings.EqualFold(r.Department, v) {
		return false
	}
	if v, ok := filters[FilterCategory]; ok && !strings.EqualFold(r.Category, v) {
		return false
	}
	if v, ok := filters[FilterEnabled]; ok {
		want, err := strconv.ParseBool(v)
		if err == nil && r.Enabled != want {
			return false
		}
	}
	return true
}

// SortRequisitions orders records in place. An empty sort column keeps store order.
func SortRequisitions(records []domain.Requisition, sp listutil.SortParams) {
	if sp.Sort == "" {
		return
	}
	slices.SortStableFunc(records, func(a, b domain.Requisition) int {
		var c int
		switch sp.Sort {
		case "requisitionId":
			c = cmp.Compare(a.RequisitionID, b.RequisitionID)
		case "date":
			c = cmp.Compare(a.Date, b.Date)
		case "department":
			c = cmp.Compare(a.Department, b.Department)
		case "employee":
			c = cmp.Compare(a.Employee, b.Employee)
		case "category":
			c = cmp.Compare(a.Category, b.Category)
		case "quantity":
			c = cmp.Compare(a.Quantity, b.Quantity)
		case "createdAt":
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if sp.Descending() {
			return -c
		}
		return c
	})
}

// NewRequisitionRow formats one record for display.
func NewRequisitionRow(r domain.Requisition) RequisitionRow {
	return RequisitionRow{
		ID:            r.ID,
		RequisitionID: r.RequisitionID,
		Date:          r.Date,
		DisplayDate:   domain.FormatDisplayDate(r.Date),
		Department:    r.Department,
		Employee:      r.Employee,
		Requirement:   r.Requirement,
		Category:      r.Category,
		Details:       r.Details,
		Items:         domain.CloneItems(r.Items),
		ItemSummary:   ItemSummary(r.Items),
		ItemTotal:     r.ItemTotal(),
		Quantity:      r.Quantity,
		Enabled:       r.Enabled,
		CreatedAt:     r.CreatedAt,
	}
}

// ItemSummary renders items as "Pens (50), Notebooks (50)".
func ItemSummary(items []domain.LineItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s (%d)", it.Name, it.Quantity)
	}
	return strings.Join(parts, ", ")
}
