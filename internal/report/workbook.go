package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Screens"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Screen is one row of the overview workbook.
type Screen struct {
	Key         string
	ID          string
	Name        string
	Type        string
	Orientation string
	Ratio       string
	// Sections maps a bag name to its key/values; each key becomes a
	// "section.key" column.
	Sections  map[string]map[string]any
	UpdatedAt time.Time
}

var fixedColumns = []string{"screen_key", "id", "name", "type", "orientation", "ratio", "updated_at"}

// BuildScreensWorkbook renders one row per screen with every bag flattened
// into columns.
func BuildScreensWorkbook(screens []Screen) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	paramCols := paramColumns(screens)
	header := make([]interface{}, 0, len(fixedColumns)+len(paramCols))
	for _, c := range fixedColumns {
		header = append(header, c)
	}
	for _, c := range paramCols {
		header = append(header, c.label())
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2E8F0"}},
	})
	if err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for i, s := range screens {
		row := []interface{}{s.Key, s.ID, s.Name, s.Type, s.Orientation, s.Ratio, formatTime(s.UpdatedAt)}
		for _, c := range paramCols {
			row = append(row, cellValue(s.Sections[c.section][c.key]))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type paramColumn struct {
	section string
	key     string
}

func (c paramColumn) label() string { return c.section + "." + c.key }

func paramColumns(screens []Screen) []paramColumn {
	seen := map[paramColumn]struct{}{}
	var cols []paramColumn
	for _, s := range screens {
		for section, params := range s.Sections {
			for key := range params {
				c := paramColumn{section: section, key: key}
				if _, ok := seen[c]; ok {
					continue
				}
				seen[c] = struct{}{}
				cols = append(cols, c)
			}
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].label() < cols[j].label() })
	return cols
}

func cellValue(v any) interface{} {
	switch t := v.(type) {
	case nil:
		return ""
	case string, bool, int, int64, float64:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
