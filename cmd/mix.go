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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	mixGameKey = "mix.game"
	mixSizeKey = "mix.size"
)

var mixCmd = &cobra.Command{
	Use:   "mix",
	Short: "Draw a new locked set for a game",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		container, cleanup, err := initContainer()
		if err != nil {
			return err
		}
		defer cleanup()

		s, err := gameSession(container, mixGameKey)
		if err != nil {
			return err
		}
		if err := s.Start(ctx); err != nil {
			return err
		}
		result, err := s.NewMix(ctx, viper.GetInt(mixSizeKey))
		if err != nil {
			return err
		}

		engine := s.Engine()
		for i, id := range result.IDs {
			item, _ := engine.Item(id)
			cmd.Printf("%3d. %s = %s\n", i+1, item.LV, item.Translation(engine.Config().Lang))
		}
		if result.Capped {
			cmd.Printf("only %d of %d requested words available\n", len(result.IDs), result.Requested)
		}
		cmd.Printf("new %s set: %d words\n", s.Game(), len(result.IDs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mixCmd)

	mixCmd.Flags().StringP("game", "g", "", "game to mix (default: first configured game)")
	mixCmd.Flags().IntP("size", "n", 0, "number of words in the set (default: the game's locked size)")

	bindFlagToViper(mixGameKey, mixCmd.Flags().Lookup("game"))
	bindFlagToViper(mixSizeKey, mixCmd.Flags().Lookup("size"))
}
