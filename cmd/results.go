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
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/lvgames/internal/repository"
	"github.com/eslsoft/lvgames/internal/usecase/report"
)

const (
	resultsGameKey   = "results.game"
	resultsSinceKey  = "results.since"
	resultsOutputKey = "results.output"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Export finished sessions as CSV",
	Long: `Write the stored session results as CSV with the columns
mode,timestamp,correct,total,time_s,detail. --since takes a duration
(168h) or a timestamp (2025-01-31 or RFC 3339).`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		since, err := report.ParseSince(viper.GetString(resultsSinceKey), time.Now())
		if err != nil {
			return err
		}

		container, cleanup, err := initContainer()
		if err != nil {
			return err
		}
		defer cleanup()

		query := &repository.ListResultQuery{
			Game:  strings.TrimSpace(viper.GetString(resultsGameKey)),
			Since: since,
		}

		outputPath := viper.GetString(resultsOutputKey)
		writer, closeOutput, err := openOutput(cmd.OutOrStdout(), outputPath, false)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeOutput(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		n, err := report.ExportCSV(ctx, container.Results, query, writer)
		if err != nil {
			return err
		}
		if outputPath != "" && outputPath != "-" {
			cmd.Printf("wrote %d results to %s\n", n, outputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.Flags().StringP("game", "g", "", "only sessions of this game")
	resultsCmd.Flags().String("since", "", "only sessions after this time or duration ago")
	resultsCmd.Flags().StringP("output", "o", "", "csv file path (default stdout)")

	bindFlagToViper(resultsGameKey, resultsCmd.Flags().Lookup("game"))
	bindFlagToViper(resultsSinceKey, resultsCmd.Flags().Lookup("since"))
	bindFlagToViper(resultsOutputKey, resultsCmd.Flags().Lookup("output"))
}
