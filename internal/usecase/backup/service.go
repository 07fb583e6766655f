// Package backup exports and imports persisted game progress as NDJSON.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
	"github.com/eslsoft/lvgames/internal/usecase/matching"
)

const (
	defaultBatchSize = 512
	formatVersion    = 1

	recordMeta   = "meta"
	recordEntry  = "entry"
	recordResult = "result"

	// ResultsSection names the session-result part of a backup in progress callbacks.
	ResultsSection = "results"
)

var errNoGamesSelected = errors.New("backup: no games selected")

// ProgressReporter receives callbacks while a backup is written.
type ProgressReporter interface {
	StartSection(section string, total int)
	Increment(section string, delta int)
	FinishSection(section string)
}

type noopProgress struct{}

func (noopProgress) StartSection(string, int) {}
func (noopProgress) Increment(string, int)    {}
func (noopProgress) FinishSection(string)     {}

// Service moves the keys of the configured games, and optionally the
// session results, between a store and an NDJSON stream.
type Service struct {
	store     repository.KVStore
	results   repository.ResultRepository
	games     []string
	batchSize int
	clock     func() time.Time
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithResults includes session results in exports and imports.
func WithResults(repo repository.ResultRepository) Option {
	return func(s *Service) {
		s.results = repo
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a backup service for the named games.
func NewService(store repository.KVStore, games []string, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("backup: store is required")
	}
	games = normalizeGames(games)
	if len(games) == 0 {
		return nil, errNoGamesSelected
	}
	svc := &Service{
		store:     store,
		games:     games,
		batchSize: defaultBatchSize,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	games    []string
	reporter ProgressReporter
}

// WithGames restricts export to the provided game names.
func WithGames(games []string) ExportOption {
	return func(cfg *exportConfig) {
		if len(games) == 0 {
			return
		}
		cfg.games = append([]string{}, games...)
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	games   []string
	replace bool
}

// WithImportGames restricts import to the provided game names.
func WithImportGames(games []string) ImportOption {
	return func(cfg *importConfig) {
		if len(games) == 0 {
			return
		}
		cfg.games = append([]string{}, games...)
	}
}

// WithReplace deletes the existing keys of every imported game first.
func WithReplace() ImportOption {
	return func(cfg *importConfig) {
		cfg.replace = true
	}
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	KeysHash   string         `json:"keys_hash,omitempty"`
	Games      []string       `json:"games,omitempty"`
	Counts     map[string]int `json:"counts,omitempty"`
	Game       string         `json:"game,omitempty"`
	Key        string         `json:"key,omitempty"`
	Payload    any            `json:"payload,omitempty"`
}

type rawRecord struct {
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	ExportedAt *time.Time      `json:"exported_at"`
	KeysHash   string          `json:"keys_hash"`
	Games      []string        `json:"games"`
	Counts     map[string]int  `json:"counts"`
	Game       string          `json:"game"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
}

type entry struct {
	game  string
	name  string
	value []byte
}

// Export writes a meta record, one record per stored key and one per session result.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	games, err := s.selectGames(cfg.games)
	if err != nil {
		return err
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	keys := make(map[string][]string, len(games))
	counts := make(map[string]int, len(games)+1)
	var allKeys []string
	for _, game := range games {
		list, err := s.store.Keys(ctx, matching.KeyPrefix(game))
		if err != nil {
			return fmt.Errorf("list keys of %s: %w", game, err)
		}
		keys[game] = list
		counts[game] = len(list)
		allKeys = append(allKeys, list...)
	}
	if s.results != nil {
		_, total, err := s.results.List(ctx, &repository.ListResultQuery{Pagination: repository.Pagination{PageNo: 1, PageSize: 1}})
		if err != nil {
			return fmt.Errorf("count results: %w", err)
		}
		counts[ResultsSection] = int(total)
	}

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := s.clock().UTC()
	meta := record{
		Type:       recordMeta,
		Version:    formatVersion,
		ExportedAt: &now,
		KeysHash:   computeKeysHash(allKeys),
		Games:      games,
		Counts:     counts,
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}

	for _, game := range games {
		reporter.StartSection(game, counts[game])
		if err := s.exportGame(ctx, game, keys[game], reporter, writer); err != nil {
			return err
		}
		reporter.FinishSection(game)
	}
	if s.results != nil {
		reporter.StartSection(ResultsSection, counts[ResultsSection])
		if err := s.exportResults(ctx, reporter, writer); err != nil {
			return err
		}
		reporter.FinishSection(ResultsSection)
	}
	return writer.Flush()
}

func (s *Service) exportGame(ctx context.Context, game string, keys []string, reporter ProgressReporter, w io.Writer) error {
	prefix := matching.KeyPrefix(game)
	for _, key := range keys {
		value, err := s.store.Get(ctx, key)
		if errors.Is(err, repository.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		if !json.Valid(value) {
			return fmt.Errorf("backup: value of %s is not valid JSON", key)
		}
		rec := record{
			Type:    recordEntry,
			Game:    game,
			Key:     strings.TrimPrefix(key, prefix),
			Payload: json.RawMessage(value),
		}
		if err := writeRecord(w, rec); err != nil {
			return err
		}
		reporter.Increment(game, 1)
	}
	return nil
}

func (s *Service) exportResults(ctx context.Context, reporter ProgressReporter, w io.Writer) error {
	for page := int32(1); ; page++ {
		query := &repository.ListResultQuery{
			Pagination: repository.Pagination{PageNo: page, PageSize: int32(s.batchSize)},
		}
		results, _, err := s.results.List(ctx, query)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}
		for _, result := range results {
			if err := writeRecord(w, record{Type: recordResult, Payload: result}); err != nil {
				return err
			}
			reporter.Increment(ResultsSection, 1)
		}
		if len(results) < s.batchSize {
			return nil
		}
	}
}

// Import reads a backup written by Export. Every record is validated before
// anything is written to the store.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) error {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	games, err := s.selectGames(cfg.games)
	if err != nil {
		return err
	}

	br := bufio.NewReader(r)
	var (
		metaSeen bool
		meta     rawRecord
		entries  []entry
		results  []entity.SessionResult
	)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read backup: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec rawRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}

			switch rec.Type {
			case recordMeta:
				metaSeen = true
				meta = rec
			case recordEntry:
				if !lo.Contains(games, rec.Game) {
					// Skip games not requested.
					break
				}
				if rec.Key == "" || len(rec.Payload) == 0 {
					return fmt.Errorf("backup: incomplete entry for game %s", rec.Game)
				}
				entries = append(entries, entry{game: rec.Game, name: rec.Key, value: rec.Payload})
			case recordResult:
				var result entity.SessionResult
				if err := json.Unmarshal(rec.Payload, &result); err != nil {
					return fmt.Errorf("decode result: %w", err)
				}
				if lo.Contains(games, result.Game) {
					results = append(results, result)
				}
			default:
				return fmt.Errorf("backup: unknown record type %q", rec.Type)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}

	if !metaSeen {
		return errors.New("backup: missing meta record")
	}
	if meta.Version != formatVersion {
		return fmt.Errorf("backup: unsupported format version %d", meta.Version)
	}

	if cfg.replace {
		for _, game := range games {
			if err := s.clearGame(ctx, game); err != nil {
				return err
			}
		}
	}
	for _, e := range entries {
		key := matching.StorageKey(e.game, e.name)
		if err := s.store.Set(ctx, key, e.value); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	if s.results != nil {
		for i := range results {
			if _, err := s.results.Save(ctx, &results[i]); err != nil {
				return fmt.Errorf("save result %s: %w", results[i].ID, err)
			}
		}
	}
	return nil
}

func (s *Service) clearGame(ctx context.Context, game string) error {
	keys, err := s.store.Keys(ctx, matching.KeyPrefix(game))
	if err != nil {
		return fmt.Errorf("list keys of %s: %w", game, err)
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *Service) selectGames(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string{}, s.games...), nil
	}
	set := normalizeGames(requested)
	for _, name := range set {
		if !lo.Contains(s.games, name) {
			return nil, fmt.Errorf("backup: unsupported game %q", name)
		}
	}
	if len(set) == 0 {
		return nil, errNoGamesSelected
	}
	return set, nil
}

func normalizeGames(games []string) []string {
	out := lo.Uniq(lo.FilterMap(games, func(g string, _ int) (string, bool) {
		g = strings.TrimSpace(g)
		return g, g != ""
	}))
	sort.Strings(out)
	return out
}

func computeKeysHash(keys []string) string {
	sorted := append([]string{}, keys...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return fmt.Sprintf("%x", sum[:])
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}
