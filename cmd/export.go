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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/lvgames/internal/usecase/backup"
)

const (
	exportOutputKey = "backup.export.output"
	exportGzipKey   = "backup.export.gzip"
	exportGamesKey  = "backup.export.games"
	exportBatchKey  = "backup.export.batch_size"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export game progress and session results as an NDJSON backup",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		container, cleanup, err := initContainer()
		if err != nil {
			return err
		}
		defer cleanup()

		service, err := backupService(container, viper.GetInt(exportBatchKey))
		if err != nil {
			return fmt.Errorf("create backup service: %w", err)
		}

		outputPath := viper.GetString(exportOutputKey)
		compress := viper.GetBool(exportGzipKey)
		if outputPath == "" {
			outputPath = defaultExportFilename(compress)
		}
		writer, closeOutput, err := openOutput(cmd.OutOrStdout(), outputPath, compress)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeOutput(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		opts := []backup.ExportOption{backup.WithProgressReporter(newCLIProgress(cmd.ErrOrStderr(), "exporting"))}
		if games := gamesFromConfig(exportGamesKey); len(games) > 0 {
			opts = append(opts, backup.WithGames(games))
		}
		if err := service.Export(cmd.Context(), writer, opts...); err != nil {
			return fmt.Errorf("export backup: %w", err)
		}

		if outputPath == "-" {
			cmd.PrintErrln("export finished: written to stdout")
		} else {
			cmd.Printf("export finished: %s\n", outputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "backup file path, - for stdout")
	exportCmd.Flags().Bool("gzip", false, "compress the output with gzip")
	exportCmd.Flags().StringSlice("games", nil, "only export these games, comma separated or repeated")
	exportCmd.Flags().Int("batch-size", 0, "result page size while exporting (default 512)")

	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
	bindFlagToViper(exportGamesKey, exportCmd.Flags().Lookup("games"))
	bindFlagToViper(exportBatchKey, exportCmd.Flags().Lookup("batch-size"))
}

func defaultExportFilename(compress bool) string {
	name := "lvgames-backup-" + time.Now().UTC().Format("20060102-150405") + ".jsonl"
	if compress {
		name += ".gz"
	}
	return name
}
