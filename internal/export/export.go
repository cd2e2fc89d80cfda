// Package export renders views as spreadsheet downloads.
package export

import (
	"bytes"
	"fmt"

	"tourbook/internal/service"

	"github.com/xuri/excelize/v2"
)

const reservationsSheet = "Reservations"

var reservationColumns = []string{"Number", "Nickname", "Email", "Date", "Tourist", "Amount", "State"}

// ReservationsFileName names the download for a post's reservation list.
func ReservationsFileName(postID string) string {
	return fmt.Sprintf("reservations_%s.xlsx", postID)
}

// ReservationsWorkbook writes the reservation list as an .xlsx workbook:
// a title row with the post, column headers, then one row per reservation.
func ReservationsWorkbook(view *service.ReservationListView) ([]byte, error) {
	if view == nil {
		return nil, fmt.Errorf("reservation view is nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reservationsSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	lastCol, _ := excelize.ColumnNumberToName(len(reservationColumns))

	title := "Reservations"
	if view.Post != nil {
		title = fmt.Sprintf("%s (%s)", view.Post.Title, view.Post.Dates)
	}
	_ = f.SetCellValue(reservationsSheet, "A1", title)
	_ = f.MergeCell(reservationsSheet, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(reservationsSheet, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, name := range reservationColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(reservationsSheet, cell, name)
	}
	_ = f.SetCellStyle(reservationsSheet, "A2", lastCol+"2", headerStyle)

	if len(view.Reservations) == 0 {
		_ = f.SetCellValue(reservationsSheet, "A3", service.MsgNoReservations)
	}
	for i, r := range view.Reservations {
		row := i + 3
		values := []interface{}{r.Number, r.Nickname, r.Email, r.Date, r.Tourist, r.Amount, r.State}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(reservationsSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("error writing row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(reservationsSheet, "A", "B", 15)
	_ = f.SetColWidth(reservationsSheet, "C", "D", 28)
	_ = f.SetColWidth(reservationsSheet, "E", lastCol, 12)

	_ = f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
