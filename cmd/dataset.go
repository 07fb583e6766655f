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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/lvgames/internal/adapter/datasource"
	"github.com/eslsoft/lvgames/internal/entity"
)

const (
	datasetInputKey  = "dataset.convert.input"
	datasetSheetKey  = "dataset.convert.sheet"
	datasetOutputKey = "dataset.convert.output"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect and convert vocabulary data",
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the datasets compiled into the binary",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := datasource.EmbeddedDatasets()
		if err != nil {
			return err
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

var datasetCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the configured data sources and summarize the items",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := initContainer()
		if err != nil {
			return err
		}
		defer cleanup()

		items, err := container.Source.Load(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("%s: %d items\n", container.Source.Name(), len(items))

		units := lo.GroupBy(items, func(item entity.Item) string {
			if item.Unit == "" {
				return "(none)"
			}
			return item.Unit
		})
		keys := lo.Keys(units)
		sort.Strings(keys)
		for _, unit := range keys {
			cmd.Printf("  unit %-12s %d\n", unit, len(units[unit]))
		}
		for _, game := range container.Config.GameNames() {
			s, err := container.Sessions.Get(game)
			if err != nil {
				return err
			}
			if err := s.Start(cmd.Context()); err != nil {
				cmd.Printf("  game %-12s %v\n", game, err)
				continue
			}
			cmd.Printf("  game %-12s %d items\n", game, len(s.Engine().Items()))
		}
		return nil
	},
}

var datasetConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an Excel vocabulary sheet into a JSON dataset",
	Long: `Read a worksheet whose first row names the columns (lv, en, ru, de, ...,
optionally id, unit, tags and games) and write the JSON document the data
sources load.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := viper.GetString(datasetInputKey)
		if input == "" {
			return errors.New("set the workbook with --input")
		}

		result, err := datasource.NewExcelSource(input, viper.GetString(datasetSheetKey)).Read(cmd.Context())
		if err != nil {
			return err
		}
		data, err := datasource.EncodeItems(result.Items)
		if err != nil {
			return fmt.Errorf("encode items: %w", err)
		}
		data = append(data, '\n')

		output := viper.GetString(datasetOutputKey)
		if output == "" || output == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write dataset: %w", err)
		}
		cmd.Printf("wrote %d items to %s (%d rows skipped)\n", len(result.Items), output, result.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetListCmd, datasetCheckCmd, datasetConvertCmd)

	datasetConvertCmd.Flags().StringP("input", "i", "", "xlsx workbook to read")
	datasetConvertCmd.Flags().String("sheet", "", "worksheet name (default: the first sheet)")
	datasetConvertCmd.Flags().StringP("output", "o", "", "json file to write, - for stdout")

	bindFlagToViper(datasetInputKey, datasetConvertCmd.Flags().Lookup("input"))
	bindFlagToViper(datasetSheetKey, datasetConvertCmd.Flags().Lookup("sheet"))
	bindFlagToViper(datasetOutputKey, datasetConvertCmd.Flags().Lookup("output"))
}
