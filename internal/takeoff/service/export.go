package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
)

// ownerLabelColumn is the extra leading column used when aggregating
// rows across packages.
const ownerLabelColumn = "Package Name"

// ToRows flattens report rows into a header row plus one value row per
// report row. The header follows the row's natural field order. When
// includeOwnerLabel is set every row is prefixed with ownerLabel under
// a "Package Name" column; that form is used for cross-package export.
func ToRows(rows []entity.RollupRow, style entity.Style, includeOwnerLabel bool, ownerLabel string) [][]string {
	var header []string
	if includeOwnerLabel {
		header = append(header, ownerLabelColumn)
	}
	header = append(header, entity.RollupHeader()...)

	out := [][]string{header}
	for _, r := range rows {
		var row []string
		if includeOwnerLabel {
			row = append(row, ownerLabel)
		}
		row = append(row,
			r.Name,
			strconv.Itoa(r.Count),
			FormatQuantity(r.Quantity, style),
			r.Unit,
			r.Classification,
			r.Document,
		)
		out = append(out, row)
	}
	return out
}

// RawToRows flattens a raw item projection under the given header.
func RawToRows(rows []entity.RawRow, header []string, style entity.Style) [][]string {
	out := [][]string{header}
	for _, r := range rows {
		out = append(out, []string{
			r.TakeoffName,
			FormatQuantity(r.Quantity, style),
			r.Unit,
			r.Document,
		})
	}
	return out
}

// FormatQuantity renders a quantity for emission. Rounding to two
// decimals happens here and only here, on the accumulated float, so
// repeated re-formatting cannot compound rounding error.
func FormatQuantity(q float64, style entity.Style) string {
	if style == entity.StyleHumanReadable {
		return strconv.FormatFloat(q, 'f', 2, 64)
	}
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// CleanForCommas replaces commas inside cell values with spaces. The
// serialized form uses comma and newline as delimiters without quoting,
// so embedded delimiters must be neutralized first. Lossy on purpose.
func CleanForCommas(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cleaned := make([]string, len(row))
		for j, cell := range row {
			cleaned[j] = strings.ReplaceAll(cell, ",", " ")
		}
		out[i] = cleaned
	}
	return out
}

// CSVBytes serializes rows as comma-separated, newline-joined text.
// The first row is expected to be the header.
func CSVBytes(rows [][]string) []byte {
	cleaned := CleanForCommas(rows)
	lines := make([]string, len(cleaned))
	for i, row := range cleaned {
		lines[i] = strings.Join(row, ",")
	}
	return []byte(strings.Join(lines, "\n"))
}

// XLSXFile writes the same tabular rows into a single-sheet workbook
// with a bold header, for callers that want a spreadsheet instead of
// CSV text.
func XLSXFile(rows [][]string, sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, row := range rows {
		for j, cell := range row {
			col, err := excelize.ColumnNumberToName(j + 1)
			if err != nil {
				return nil, fmt.Errorf("column name: %w", err)
			}
			ref := fmt.Sprintf("%s%d", col, i+1)
			if err := f.SetCellValue(sheet, ref, cell); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", ref, err)
			}
			if i == 0 {
				if err := f.SetCellStyle(sheet, ref, ref, boldStyle); err != nil {
					return nil, fmt.Errorf("style cell %s: %w", ref, err)
				}
			}
		}
	}

	return f, nil
}
