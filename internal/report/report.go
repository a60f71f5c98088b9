// Package report renders the admin dashboard as an xlsx workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	StoresSheet  = "Stores"
	SummarySheet = "Summary"
)

var storeHeaders = []string{"ID", "Name", "Address", "Owner", "Average Rating", "Ratings"}

type StoreRow struct {
	ID            uint
	Name          string
	Address       string
	Owner         string
	AverageRating float64
	RatingCount   int64
}

type Summary struct {
	GeneratedAt   time.Time
	Users         int64
	Admins        int64
	StoreOwners   int64
	NormalUsers   int64
	Stores        int64
	Ratings       int64
	AverageRating float64
}

// Build lays out the Stores and Summary sheets. The caller closes the file.
func Build(summary Summary, stores []StoreRow) (*excelize.File, error) {
	f := excelize.NewFile()

	// NewFile starts with "Sheet1"
	if err := f.SetSheetName(f.GetSheetName(0), StoresSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeStores(f, stores); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, summary); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, summary Summary, stores []StoreRow) error {
	f, err := Build(summary, stores)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeStores(f *excelize.File, stores []StoreRow) error {
	header := make([]interface{}, len(storeHeaders))
	for i, h := range storeHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(StoresSheet, "A1", &header); err != nil {
		return fmt.Errorf("write store header: %w", err)
	}

	for i, s := range stores {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{s.ID, s.Name, s.Address, s.Owner, s.AverageRating, s.RatingCount}
		if err := f.SetSheetRow(StoresSheet, cell, &row); err != nil {
			return fmt.Errorf("write store row %d: %w", s.ID, err)
		}
	}

	if err := f.SetPanes(StoresSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, s Summary) error {
	rows := [][]interface{}{
		{"Generated At", s.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Users", s.Users},
		{"Admins", s.Admins},
		{"Store Owners", s.StoreOwners},
		{"Normal Users", s.NormalUsers},
		{"Stores", s.Stores},
		{"Ratings", s.Ratings},
		{"Average Rating", s.AverageRating},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}
