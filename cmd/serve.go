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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP game API",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := initContainer()
		if err != nil {
			return err
		}
		defer cleanup()
		logger := container.Logger

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if err := container.Retention.Start(ctx); err != nil {
			return fmt.Errorf("start retention job: %w", err)
		}
		defer container.Retention.Stop()

		if viper.GetBool(serveStartKey) {
			for _, name := range container.Sessions.Games() {
				s, _ := container.Sessions.Get(name)
				if err := s.Start(ctx); err != nil {
					logger.WithError(err).WithField("game", name).Warn("preload failed")
				}
			}
		}

		errCh := make(chan error, 1)
		go func() { errCh <- container.Server.StartHTTP() }()

		// Graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Infof("received signal: %s, shutting down", sig)
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), container.Config.Server.ShutdownTimeout)
			defer cancelShutdown()
			return container.Server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

const serveStartKey = "server.preload"

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "listen host")
	serveCmd.Flags().Int("port", 0, "listen port")
	serveCmd.Flags().Bool("preload", false, "load every game before accepting requests")

	bindFlagToViper("server.host", serveCmd.Flags().Lookup("host"))
	bindFlagToViper("server.http_port", serveCmd.Flags().Lookup("port"))
	bindFlagToViper(serveStartKey, serveCmd.Flags().Lookup("preload"))
}
