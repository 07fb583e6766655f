/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/lvgames/internal/entity"
)

const (
	statsGameKey  = "stats.game"
	statsSortKey  = "stats.sort"
	statsLimitKey = "stats.limit"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-word answer statistics of a game",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		container, cleanup, err := initContainer()
		if err != nil {
			return err
		}
		defer cleanup()

		s, err := gameSession(container, statsGameKey)
		if err != nil {
			return err
		}
		if err := s.Start(ctx); err != nil {
			return err
		}

		engine := s.Engine()
		rows, err := statsRows(engine.Stats(), engine.Item, engine.Config().Lang, viper.GetString(statsSortKey))
		if err != nil {
			return err
		}
		if limit := viper.GetInt(statsLimitKey); limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		return writeStats(cmd.OutOrStdout(), rows)
	},
}

type statsRow struct {
	ID          string
	LV          string
	Translation string
	Stats       entity.ItemStats
}

// statsRows joins recorded statistics with deck items. Ids no longer in the
// deck are listed by id.
func statsRows(stats entity.Stats, lookup func(string) (entity.Item, bool), lang entity.Language, order string) ([]statsRow, error) {
	rows := make([]statsRow, 0, len(stats))
	for id, st := range stats {
		row := statsRow{ID: id, LV: id, Stats: st}
		if item, ok := lookup(id); ok {
			row.LV = item.LV
			row.Translation = item.Translation(lang)
		}
		rows = append(rows, row)
	}

	var less func(a, b statsRow) bool
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "misses":
		less = func(a, b statsRow) bool {
			if a.Stats.Incorrect != b.Stats.Incorrect {
				return a.Stats.Incorrect > b.Stats.Incorrect
			}
			return a.Stats.Accuracy() < b.Stats.Accuracy()
		}
	case "accuracy":
		less = func(a, b statsRow) bool { return a.Stats.Accuracy() < b.Stats.Accuracy() }
	case "recent":
		less = func(a, b statsRow) bool { return a.Stats.LastSeen.After(b.Stats.LastSeen) }
	case "word":
		less = func(a, b statsRow) bool { return a.LV < b.LV }
	default:
		return nil, fmt.Errorf("unknown sort order %q (misses, accuracy, recent, word)", order)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if less(rows[i], rows[j]) {
			return true
		}
		if less(rows[j], rows[i]) {
			return false
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

func writeStats(out io.Writer, rows []statsRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "no answers recorded yet")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tTRANSLATION\tCORRECT\tINCORRECT\tACCURACY\tLAST SEEN")
	for _, row := range rows {
		lastSeen := "-"
		if !row.Stats.LastSeen.IsZero() {
			lastSeen = row.Stats.LastSeen.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.0f%%\t%s\n",
			row.LV, row.Translation, row.Stats.Correct, row.Stats.Incorrect, row.Stats.Accuracy()*100, lastSeen)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringP("game", "g", "", "game to report (default: first configured game)")
	statsCmd.Flags().String("sort", "misses", "sort order: misses, accuracy, recent or word")
	statsCmd.Flags().IntP("limit", "n", 0, "show at most this many words")

	bindFlagToViper(statsGameKey, statsCmd.Flags().Lookup("game"))
	bindFlagToViper(statsSortKey, statsCmd.Flags().Lookup("sort"))
	bindFlagToViper(statsLimitKey, statsCmd.Flags().Lookup("limit"))
}
