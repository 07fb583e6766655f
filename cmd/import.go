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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/lvgames/internal/usecase/backup"
)

const (
	importInputKey   = "backup.import.input"
	importGzipKey    = "backup.import.gzip"
	importGamesKey   = "backup.import.games"
	importReplaceKey = "backup.import.replace"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore game progress and session results from a backup",
	Long: `Restore a backup written by export. The whole file is validated before
anything is written. With --replace the stored progress of every imported
game is deleted first.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		inputPath := viper.GetString(importInputKey)
		reader, closeInput, err := openInput(cmd.InOrStdin(), inputPath, viper.GetBool(importGzipKey))
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeInput(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		container, cleanup, err := initContainer()
		if err != nil {
			return err
		}
		defer cleanup()

		var opts []backup.ImportOption
		if games := gamesFromConfig(importGamesKey); len(games) > 0 {
			opts = append(opts, backup.WithImportGames(games))
		}
		if viper.GetBool(importReplaceKey) {
			opts = append(opts, backup.WithReplace())
		}
		if err := container.Backup.Import(cmd.Context(), reader, opts...); err != nil {
			return fmt.Errorf("import backup: %w", err)
		}

		if inputPath == "-" {
			cmd.Println("import finished: read from stdin")
		} else {
			cmd.Printf("import finished: %s\n", inputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "backup file path, - for stdin")
	importCmd.Flags().Bool("gzip", false, "the input is gzip compressed")
	importCmd.Flags().StringSlice("games", nil, "only import these games, comma separated or repeated")
	importCmd.Flags().Bool("replace", false, "delete the stored progress of imported games first")

	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
	bindFlagToViper(importGamesKey, importCmd.Flags().Lookup("games"))
	bindFlagToViper(importReplaceKey, importCmd.Flags().Lookup("replace"))
}
