// Package report renders session results for export.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
)

// Header is the column row of a results CSV.
var Header = []string{"mode", "timestamp", "correct", "total", "time_s", "detail"}

// WriteCSV writes results as CSV with a header row. Timestamps are RFC 3339
// in UTC and durations whole seconds.
func WriteCSV(w io.Writer, results []entity.SessionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			string(r.Mode),
			r.Timestamp.UTC().Format(time.RFC3339),
			strconv.Itoa(r.Correct),
			strconv.Itoa(r.Total),
			strconv.FormatInt(int64(r.Duration.Round(time.Second)/time.Second), 10),
			r.Detail,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV lists the results matching query and writes them as CSV.
func ExportCSV(ctx context.Context, repo repository.ResultRepository, query *repository.ListResultQuery, w io.Writer) (int, error) {
	results, _, err := repo.List(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("list results: %w", err)
	}
	if err := WriteCSV(w, results); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return len(results), nil
}
