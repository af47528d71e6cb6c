package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"proxtest/domain/travel"

	"github.com/xuri/excelize/v2"
)

// WriteLookup writes lookup rows to a .csv or .xlsx file with the required headers
func WriteLookup(path string, rows []travel.LookupRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = formatRecord(r.Origin, r.Destination, r.Cost)
	}
	return writeTable(path, records)
}

// WriteObserved writes observed replicates to a .csv or .xlsx file
func WriteObserved(path string, pairs []travel.ObservedPair) error {
	records := make([][]string, len(pairs))
	for i, p := range pairs {
		records[i] = formatRecord(p.Origin, p.Destination, p.Cost)
	}
	return writeTable(path, records)
}

func formatRecord(origin, destination travel.Community, cost travel.TravelCost) []string {
	return []string{
		string(origin),
		string(destination),
		strconv.FormatFloat(cost.DistanceKm, 'f', -1, 64),
		strconv.FormatFloat(cost.TimeH, 'f', -1, 64),
	}
}

func writeTable(path string, records [][]string) error {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return writeCSV(path, records)
	}
	return writeXLSX(path, records)
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(travel.RequiredColumns); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return file.Close()
}

func writeXLSX(path string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	header := make([]interface{}, len(travel.RequiredColumns))
	for i, h := range travel.RequiredColumns {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range records {
		distance, _ := strconv.ParseFloat(rec[2], 64)
		hours, _ := strconv.ParseFloat(rec[3], 64)
		row := []interface{}{rec[0], rec[1], distance, hours}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
