package projections

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"requisitions/internal/application/listutil"
)

// ExportSheetName is the worksheet holding the requisition table.
const ExportSheetName = "Requisitions"

// ExportHeaders are the column titles, in order.
var ExportHeaders = []string{
	"Requisition ID", "Date", "Department", "Employee", "Requirement",
	"Category", "Details", "Items", "Quantity", "Status",
}

// ExportRequisitionsQuery carries the same search and filters as the list view.
// Every matching row is exported; paging is ignored.
type ExportRequisitionsQuery struct {
	listutil.FilterParams
	listutil.SortParams
}

// ExportRequisitionsDeps holds dependencies for ExportRequisitions.
type ExportRequisitionsDeps struct {
	Store RequisitionLister
	Now   func() time.Time
}

// QueryExportRequisitions renders the matching requisitions as an XLSX workbook.
// PRE: none
// POST: returns the workbook bytes with a title row, a generated-at row and one row per requisition
func QueryExportRequisitions(ctx context.Context, query ExportRequisitionsQuery, deps ExportRequisitionsDeps) (*bytes.Buffer, error) {
	records, err := deps.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := FilterRequisitions(records, query.FilterParams)
	SortRequisitions(matched, query.SortParams)

	rows := make([]RequisitionRow, len(matched))
	for i, r := range matched {
		rows[i] = NewRequisitionRow(r)
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	f, err := buildWorkbook(rows, now())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.WriteToBuffer()
}

// header row index; data starts on the row after
const exportHeaderRow = 4

// buildWorkbook returns an open workbook; the caller closes it.
// POST: on error the workbook is already closed
func buildWorkbook(rows []RequisitionRow, generated time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeWorkbook(f, rows, generated); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeWorkbook(f *excelize.File, rows []RequisitionRow, generated time.Time) error {
	index, err := f.NewSheet(ExportSheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	f.SetCellValue(ExportSheetName, "A1", "Purchase Requisitions")
	f.SetCellStyle(ExportSheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(ExportSheetName, 1, 30)
	f.SetCellValue(ExportSheetName, "A2", fmt.Sprintf("Generated: %s", generated.Format("02-01-2006 15:04")))

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}
	for col, title := range ExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, exportHeaderRow)
		f.SetCellValue(ExportSheetName, cell, title)
		f.SetCellStyle(ExportSheetName, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(col + 1)
		f.SetColWidth(ExportSheetName, colName, colName, 20)
	}

	for i, r := range rows {
		status := "Disabled"
		if r.Enabled {
			status = "Enabled"
		}
		values := []any{
			r.RequisitionID, r.DisplayDate, r.Department, r.Employee, r.Requirement,
			r.Category, r.Details, r.ItemSummary, r.Quantity, status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, exportHeaderRow+1+i)
			if err := f.SetCellValue(ExportSheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if len(rows) == 0 {
		cell, _ := excelize.CoordinatesToCellName(1, exportHeaderRow+1)
		return f.SetCellValue(ExportSheetName, cell, EmptyListMessage)
	}
	return nil
}
