package cmd

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eslsoft/lvgames/internal/app"
	"github.com/eslsoft/lvgames/internal/usecase/backup"
)

func gamesFromConfig(key string) []string {
	return normalizeGames(viper.GetStringSlice(key))
}

func normalizeGames(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		name := strings.TrimSpace(value)
		if name == "" {
			continue
		}
		result = append(result, name)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// backupService returns the container's service, rebuilt when a batch size is requested.
func backupService(container *app.Container, batchSize int) (*backup.Service, error) {
	if batchSize <= 0 {
		return container.Backup, nil
	}
	return backup.NewService(
		container.Store,
		container.Config.GameNames(),
		backup.WithResults(container.Results),
		backup.WithBatchSize(batchSize),
	)
}

// openOutput opens path for writing, stdout for "-" or "". A .gz suffix
// turns compression on. The returned close func flushes and closes in order.
func openOutput(stdout io.Writer, path string, compress bool) (io.Writer, func() error, error) {
	if path != "" && path != "-" && strings.HasSuffix(strings.ToLower(path), ".gz") {
		compress = true
	}

	writer := stdout
	var closers []func() error
	if path != "" && path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
		file, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("create %s: %w", path, err)
		}
		writer = file
		closers = append(closers, file.Close)
	}
	if compress {
		gz := gzip.NewWriter(writer)
		writer = gz
		closers = append([]func() error{gz.Close}, closers...)
	}
	return writer, closeAll(closers), nil
}

// openInput mirrors openOutput for reading; "-" reads stdin.
func openInput(stdin io.Reader, path string, compress bool) (io.Reader, func() error, error) {
	if path == "" {
		return nil, nil, errors.New("no input given, use - for stdin")
	}
	if path != "-" && strings.HasSuffix(strings.ToLower(path), ".gz") {
		compress = true
	}

	reader := stdin
	var closers []func() error
	if path != "-" {
		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", path, err)
		}
		reader = file
		closers = append(closers, file.Close)
	}
	if compress {
		gzr, err := gzip.NewReader(reader)
		if err != nil {
			_ = closeAll(closers)()
			return nil, nil, fmt.Errorf("open gzip stream: %w", err)
		}
		reader = gzr
		closers = append([]func() error{gzr.Close}, closers...)
	}
	return reader, closeAll(closers), nil
}

func closeAll(closers []func() error) func() error {
	return func() error {
		var errs []error
		for _, closer := range closers {
			if err := closer(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

type cliProgress struct {
	out         io.Writer
	verb        string
	totals      map[string]int
	counts      map[string]int
	lastPrinted map[string]int
	steps       map[string]int
}

func newCLIProgress(out io.Writer, verb string) *cliProgress {
	return &cliProgress{
		out:         out,
		verb:        verb,
		totals:      make(map[string]int),
		counts:      make(map[string]int),
		lastPrinted: make(map[string]int),
		steps:       make(map[string]int),
	}
}

func (p *cliProgress) StartSection(section string, total int) {
	if total < 0 {
		total = 0
	}
	p.totals[section] = total
	p.counts[section] = 0
	p.lastPrinted[section] = 0
	p.steps[section] = progressStep(total)
	fmt.Fprintf(p.out, "%s %s (%d records)\n", p.verb, section, total)
}

func (p *cliProgress) Increment(section string, delta int) {
	if delta <= 0 {
		return
	}
	current := p.counts[section] + delta
	p.counts[section] = current
	total := p.totals[section]
	step := p.steps[section]
	if step <= 0 {
		step = 1
	}
	last := p.lastPrinted[section]
	if current == total || last == 0 || current-last >= step {
		p.printProgress(section, current, total)
		p.lastPrinted[section] = current
	}
}

func (p *cliProgress) FinishSection(section string) {
	current := p.counts[section]
	total := p.totals[section]
	if current != p.lastPrinted[section] {
		p.printProgress(section, current, total)
	}
	if total > 0 {
		fmt.Fprintf(p.out, "done %s: %d/%d\n", section, current, total)
	} else {
		fmt.Fprintf(p.out, "done %s: %d\n", section, current)
	}
	delete(p.counts, section)
	delete(p.totals, section)
	delete(p.lastPrinted, section)
	delete(p.steps, section)
}

func (p *cliProgress) printProgress(section string, current, total int) {
	if total > 0 {
		fmt.Fprintf(p.out, "  %s: %d/%d\n", section, current, total)
	} else {
		fmt.Fprintf(p.out, "  %s: %d\n", section, current)
	}
}

func progressStep(total int) int {
	if total <= 0 {
		return 1000
	}
	step := total / 20
	if step < 1 {
		step = 1
	}
	if step > 1000 {
		step = 1000
	}
	return step
}
