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
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/lvgames/internal/app"
	"github.com/eslsoft/lvgames/internal/usecase/session"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lvgames",
	Short: "Latvian vocabulary games",
	Long: `lvgames runs Latvian vocabulary mini-games: matching boards served from a
persisted locked set, mistake prioritization and per-word statistics, either in the
terminal or over a JSON HTTP API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json or text)")
	rootCmd.PersistentFlags().String("storage", "", "progress storage driver (memory, sqlite3, postgres, redis)")
	rootCmd.PersistentFlags().String("dsn", "", "progress storage DSN")
	rootCmd.PersistentFlags().String("data-url", "", "base URL of the vocabulary data")

	bindFlagToViper("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlagToViper("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	bindFlagToViper("storage.driver", rootCmd.PersistentFlags().Lookup("storage"))
	bindFlagToViper("storage.dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	bindFlagToViper("data.base_url", rootCmd.PersistentFlags().Lookup("data-url"))
}

func initContainer() (*app.Container, func(), error) {
	container, cleanup, err := app.Initialize()
	if err != nil {
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}
	return container, cleanup, nil
}

// gameSession resolves the session named by the game flag key, defaulting to
// the first configured game.
func gameSession(container *app.Container, key string) (*session.Session, error) {
	name := strings.TrimSpace(viper.GetString(key))
	if name == "" {
		games := container.Config.GameNames()
		name = games[0]
	}
	return container.Sessions.Get(name)
}
