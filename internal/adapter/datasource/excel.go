package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eslsoft/lvgames/internal/entity"
)

// ExcelSource reads items from a worksheet whose first row names the columns:
// lv, a translation language per column (en, ru, ...), and optionally id,
// unit, tags and games.
type ExcelSource struct {
	path  string
	sheet string
}

// NewExcelSource reads sheet of the workbook at path; an empty sheet means the first one.
func NewExcelSource(path, sheet string) *ExcelSource {
	return &ExcelSource{path: path, sheet: sheet}
}

func (s *ExcelSource) Name() string { return "xlsx:" + s.path }

func (s *ExcelSource) Load(ctx context.Context) ([]entity.Item, error) {
	result, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// Read loads the sheet and reports how many rows were skipped.
func (s *ExcelSource) Read(ctx context.Context) (DecodeResult, error) {
	if err := ctx.Err(); err != nil {
		return DecodeResult{}, err
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return DecodeResult{}, fmt.Errorf("sheet %q: %w", sheet, entity.ErrNoItems)
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}
	if !containsColumn(header, "lv") {
		return DecodeResult{}, fmt.Errorf("sheet %q: missing lv column", sheet)
	}

	var result DecodeResult
	for _, row := range rows[1:] {
		item := rowItem(header, row)
		if err := item.Normalize(); err != nil {
			result.Skipped++
			continue
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func rowItem(header, row []string) entity.Item {
	item := entity.Item{Translations: make(map[entity.Language]string)}
	for i, cell := range row {
		if i >= len(header) {
			break
		}
		switch col := header[i]; col {
		case "id":
			item.ID = cell
		case "lv":
			item.LV = cell
		case "unit":
			item.Unit = cell
		case "tags":
			item.Tags = splitList(cell)
		case "games":
			item.Games = splitList(cell)
		default:
			if lang := entity.ParseLanguage(col); lang != entity.LanguageUnspecified && lang != entity.LanguageLatvian {
				item.Translations[lang] = cell
			}
		}
	}
	return item
}

func containsColumn(header []string, name string) bool {
	for _, h := range header {
		if h == name {
			return true
		}
	}
	return false
}
