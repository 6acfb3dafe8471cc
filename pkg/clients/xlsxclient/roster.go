package xlsxclient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/NicoB77/ghi/internal/config"
	"github.com/NicoB77/ghi/pkg/core/model"
)

// The duty table is not allowed to run forever to the right or down; a
// real monthly plan has ~31 day columns and a few dozen midwife rows.
const (
	maxDayColumns = 100
	maxNameRows   = 100
)

// monthNumberByName resolves the lowercase German month names used in the
// workbook header. Both spellings of March seen in practice are accepted.
var monthNumberByName = map[string]time.Month{
	"januar":    time.January,
	"februar":   time.February,
	"märz":      time.March,
	"march":     time.March,
	"april":     time.April,
	"mai":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"dezember":  time.December,
}

// LoadDutyRoster reads the monthly duty table from an .xlsx workbook.
//
// The sheet's odd header carries "<month> <year>". The row at StartRow
// lists consecutive day numbers beginning one column right of StartColumn;
// a first day greater than 20 still belongs to the previous month.
// Below that, midwifes come in row pairs: the name row holds the day-shift
// cells, the row beneath (with the phone number under the name) the
// night-shift cells. A cell whose text matches one of PrimaryDutyTags
// assigns that duty. Rows end at the first blank name or non-numeric phone.
func LoadDutyRoster(path string, cfg *config.WorkbookConfig) (*model.DutyRoster, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if cfg.SheetIndex >= len(sheets) {
		return nil, fmt.Errorf("workbook has %d sheets, sheet index %d does not exist", len(sheets), cfg.SheetIndex)
	}
	sheet := sheets[cfg.SheetIndex]

	firstOfMonth, err := monthFromHeader(f, sheet)
	if err != nil {
		return nil, err
	}
	dates, err := readDates(f, sheet, cfg, firstOfMonth)
	if err != nil {
		return nil, err
	}

	roster := model.NewDutyRoster(dates)
	if err := readAssignments(f, sheet, cfg, roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// monthFromHeader parses "<month> <year>" from the left section of the
// sheet's odd page header.
func monthFromHeader(f *excelize.File, sheet string) (time.Time, error) {
	hf, err := f.GetHeaderFooter(sheet)
	if err != nil || hf == nil {
		return time.Time{}, fmt.Errorf("failed to read sheet header of %s: %w", sheet, err)
	}
	text := headerLeftSection(hf.OddHeader)
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return time.Time{}, fmt.Errorf("sheet header %q does not look like \"<month> <year>\"", text)
	}
	month, ok := monthNumberByName[strings.ToLower(fields[0])]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month %q in sheet header", fields[0])
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year %q in sheet header", fields[1])
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
}

// headerLeftSection extracts the &L section from an Excel header string.
func headerLeftSection(header string) string {
	s := strings.TrimPrefix(header, "&L")
	if i := strings.Index(s, "&"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func readDates(f *excelize.File, sheet string, cfg *config.WorkbookConfig, firstOfMonth time.Time) ([]time.Time, error) {
	readDay := func(col int) (int, bool) {
		value, err := cellString(f, sheet, col, cfg.StartRow)
		if err != nil {
			return 0, false
		}
		day, err := strconv.Atoi(strings.TrimSpace(value))
		return day, err == nil
	}

	day, ok := readDay(cfg.StartColumn + 1)
	if !ok {
		return nil, fmt.Errorf("no day number at row %d, column %d", cfg.StartRow, cfg.StartColumn+1)
	}
	var first time.Time
	if day > 20 {
		// The table starts in the tail of the previous month.
		prev := firstOfMonth.AddDate(0, 0, -1)
		first = time.Date(prev.Year(), prev.Month(), day, 0, 0, 0, 0, time.UTC)
	} else {
		first = time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, time.UTC)
	}
	dates := []time.Time{first}

	for col := cfg.StartColumn + 2; ; col++ {
		if col > cfg.StartColumn+maxDayColumns {
			return nil, errors.New("too many day columns in duty table")
		}
		day, ok := readDay(col)
		if !ok {
			break
		}
		next := dates[len(dates)-1].AddDate(0, 0, 1)
		if day != next.Day() {
			return nil, fmt.Errorf("invalid day sequence in duty table: column %d has %d, expected %d", col, day, next.Day())
		}
		dates = append(dates, next)
	}
	return dates, nil
}

func readAssignments(f *excelize.File, sheet string, cfg *config.WorkbookConfig, roster *model.DutyRoster) error {
	tags := make(map[string]struct{}, len(cfg.PrimaryDutyTags))
	for _, tag := range cfg.PrimaryDutyTags {
		tags[strings.ToLower(tag)] = struct{}{}
	}

	for row := cfg.StartRow + 2; row < cfg.StartRow+maxNameRows; row += 2 {
		name, err := cellString(f, sheet, cfg.StartColumn, row)
		if err != nil {
			return err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			break
		}
		phone, err := cellString(f, sheet, cfg.StartColumn, row+1)
		if err != nil {
			return err
		}
		phone = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
		if !isDigits(phone) {
			break
		}
		midwife := model.Midwife{Name: name, Phone: phone}
		if err := roster.AddMidwife(midwife); err != nil {
			return err
		}

		// The name row carries the day-shift cells, the phone row the
		// night-shift cells.
		for j, date := range roster.Dates {
			for offset, shift := range []model.Shift{model.ShiftDay, model.ShiftNight} {
				tag, err := cellString(f, sheet, cfg.StartColumn+1+j, row+offset)
				if err != nil {
					return err
				}
				if _, ok := tags[strings.ToLower(strings.TrimSpace(tag))]; !ok {
					continue
				}
				if err := roster.Add(midwife, model.Duty{Date: date, Shift: shift}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func cellString(f *excelize.File, sheet string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	value, err := f.GetCellValue(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("failed to read cell %s: %w", cell, err)
	}
	return value, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
