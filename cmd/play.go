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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/usecase/session"
)

const (
	playGameKey    = "play.game"
	playRoundsKey  = "play.rounds"
	playChoicesKey = "play.choices"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game in the terminal",
	Long: `Play rounds in the terminal. Each Latvian word is answered by typing its
translation, or by picking one of --choices options. Enter q to stop; the
session result is stored either way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cleanup, err := initContainer()
		if err != nil {
			return err
		}
		defer cleanup()

		s, err := gameSession(container, playGameKey)
		if err != nil {
			return err
		}
		opts := playOptions{
			Rounds:  viper.GetInt(playRoundsKey),
			Choices: viper.GetInt(playChoicesKey),
		}
		return runPlay(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
	},
}

type playOptions struct {
	// Rounds limits the number of boards; zero plays until the input ends or q.
	Rounds  int
	Choices int
}

var errQuit = errors.New("quit")

func runPlay(ctx context.Context, s *session.Session, in io.Reader, out io.Writer, opts playOptions) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)

	var playErr error
	for n := 0; opts.Rounds <= 0 || n < opts.Rounds; n++ {
		round, err := s.NextRound(ctx)
		if err != nil {
			playErr = err
			break
		}
		fmt.Fprintf(out, "\nround %d\n", round.Number)
		if err := playRound(ctx, s, round, scanner, out, opts); err != nil {
			if !errors.Is(err, errQuit) {
				playErr = err
			}
			break
		}
	}

	result, err := s.Finish(ctx)
	if err != nil {
		return errors.Join(playErr, err)
	}
	fmt.Fprintf(out, "\n%d/%d correct in %s\n", result.Correct, result.Total, result.Duration.Round(time.Second))
	return playErr
}

func playRound(ctx context.Context, s *session.Session, round session.Round, scanner *bufio.Scanner, out io.Writer, opts playOptions) error {
	for _, card := range round.Left {
		fmt.Fprintf(out, "%s = ", card.Text)

		var prompt []string
		if opts.Choices > 1 {
			q, err := s.Question(card.ID, opts.Choices)
			if err != nil && !errors.Is(err, entity.ErrInsufficientDistractors) {
				return err
			}
			if q != nil {
				fmt.Fprintln(out)
				for i, c := range q.Choices {
					fmt.Fprintf(out, "  %d) %s\n", i+1, c.Text)
					prompt = append(prompt, c.Text)
				}
				fmt.Fprint(out, "> ")
			}
		}

		if !scanner.Scan() {
			return errQuit
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "q" {
			return errQuit
		}
		if len(prompt) > 0 {
			if idx, err := strconv.Atoi(text); err == nil && idx >= 1 && idx <= len(prompt) {
				text = prompt[idx-1]
			}
		}

		ans, err := s.Guess(ctx, card.ID, text)
		if err != nil {
			return err
		}
		if ans.Correct {
			fmt.Fprintln(out, "✓")
		} else {
			fmt.Fprintf(out, "✗ %s\n", ans.Expected)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("game", "g", "", "game to play (default: first configured game)")
	playCmd.Flags().IntP("rounds", "r", 0, "number of rounds (0 plays until q)")
	playCmd.Flags().IntP("choices", "c", 0, "offer N multiple-choice options instead of typing")

	bindFlagToViper(playGameKey, playCmd.Flags().Lookup("game"))
	bindFlagToViper(playRoundsKey, playCmd.Flags().Lookup("rounds"))
	bindFlagToViper(playChoicesKey, playCmd.Flags().Lookup("choices"))
}
