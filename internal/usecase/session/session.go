// Package session drives one game from data loading through rounds to a
// stored result, on top of the matching scheduler.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
	"github.com/eslsoft/lvgames/internal/usecase/matching"
	"github.com/eslsoft/lvgames/internal/usecase/quiz"
	"github.com/eslsoft/lvgames/pkg/filterexpr"
	"github.com/eslsoft/lvgames/pkg/rng"
)

// Phase is the lifecycle position of a session.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseRound   Phase = "round"
)

// Card is one side of a matching board.
type Card struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Round is the board served to the player.
type Round struct {
	Number int             `json:"number"`
	Mode   entity.GameMode `json:"mode"`
	Lang   string          `json:"lang"`
	Start  int             `json:"start"`
	Items  []entity.Item   `json:"items"`
	// Left carries the Latvian terms in serving order, Right the shuffled translations.
	Left  []Card `json:"left"`
	Right []Card `json:"right"`
}

// Answer reports the outcome of one match or guess.
type Answer struct {
	ItemID        string           `json:"itemId"`
	Correct       bool             `json:"correct"`
	Expected      string           `json:"expected"`
	Stats         entity.ItemStats `json:"stats"`
	Remaining     int              `json:"remaining"`
	RoundComplete bool             `json:"roundComplete"`
}

// State is a read-only view of a session.
type State struct {
	Game    string           `json:"game"`
	Phase   Phase            `json:"phase"`
	Round   int              `json:"round"`
	Correct int              `json:"correct"`
	Total   int              `json:"total"`
	Pending []string         `json:"pending"`
	Engine  entity.GameState `json:"engine"`
}

// Option customises a Session.
type Option func(*Session)

// WithClock injects the time source for durations and result timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRand injects the random source used to shuffle boards and choices.
func WithRand(src rng.Source) Option {
	return func(s *Session) {
		if src != nil {
			s.rand = src
		}
	}
}

// WithIDGenerator overrides how result ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithResults stores finished sessions in repo.
func WithResults(repo repository.ResultRepository) Option {
	return func(s *Session) { s.results = repo }
}

// WithFilter restricts the loaded items to those matching filter.
func WithFilter(filter *filterexpr.DeckFilter) Option {
	return func(s *Session) { s.filter = filter }
}

// Session is the state machine of a single game. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	engine  *matching.Engine
	source  repository.ItemSource
	results repository.ResultRepository
	filter  *filterexpr.DeckFilter
	log     *logrus.Entry
	clock   func() time.Time
	rand    rng.Source
	newID   func() string

	phase     Phase
	round     int
	current   Round
	pending   []string
	correct   int
	total     int
	missed    []string
	startedAt time.Time
}

// New creates an idle session for engine, loading its items from source.
func New(engine *matching.Engine, source repository.ItemSource, logger *logrus.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Session{
		engine: engine,
		source: source,
		log:    logger.WithField("game", engine.Game()),
		clock:  time.Now,
		rand:   rng.New(0),
		newID:  uuid.NewString,
		phase:  PhaseIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Game returns the game name.
func (s *Session) Game() string { return s.engine.Game() }

// Engine exposes the underlying scheduler.
func (s *Session) Engine() *matching.Engine { return s.engine }

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Start loads the deck and makes the session ready. A locked-mode game
// without a locked set gets a fresh one.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseIdle && s.phase != PhaseReady {
		phase := s.phase
		s.mu.Unlock()
		return phaseError("start", phase)
	}
	s.phase = PhaseLoading
	s.mu.Unlock()

	deck, err := s.loadDeck(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = PhaseIdle
		return err
	}
	s.engine.Load(ctx, deck)

	if s.engine.Config().Mode == entity.GameModeLocked && len(s.engine.Snapshot().LockedOrder) == 0 {
		if _, err := s.engine.NewMix(ctx, 0); err != nil {
			s.phase = PhaseIdle
			return err
		}
	}
	s.resetCounters()
	s.phase = PhaseReady
	s.log.WithFields(logrus.Fields{"source": s.source.Name(), "deck": len(deck)}).Info("session ready")
	return nil
}

func (s *Session) loadDeck(ctx context.Context) ([]entity.Item, error) {
	items, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items for %s: %w", s.engine.Game(), err)
	}
	deck, err := s.filter.Apply(items)
	if err != nil {
		return nil, err
	}
	if len(deck) == 0 {
		return nil, fmt.Errorf("deck %s: %w", s.engine.Game(), entity.ErrNoItems)
	}
	return deck, nil
}

// NextRound serves the next board: the next chunk of the locked order in
// locked mode, a random sample of the deck in random mode.
func (s *Session) NextRound(ctx context.Context) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady && s.phase != PhaseRound {
		return Round{}, phaseError("next round", s.phase)
	}

	config := s.engine.Config()
	var chunk matching.Chunk
	if config.Mode == entity.GameModeRandom {
		chunk = s.engine.SampleRandom(config.BoardSize)
	} else {
		chunk = s.engine.GetChunk(ctx, config.BoardSize)
	}
	if chunk.Empty() {
		if config.Mode == entity.GameModeRandom {
			return Round{}, fmt.Errorf("next round for %s: %w", s.engine.Game(), entity.ErrNoItems)
		}
		return Round{}, fmt.Errorf("next round for %s: %w", s.engine.Game(), entity.ErrNoLockedSet)
	}

	if s.phase == PhaseReady {
		s.startedAt = s.clock()
	}
	s.round++
	s.current = s.buildRound(chunk, config)
	s.pending = append([]string{}, chunk.IDs...)
	s.phase = PhaseRound
	return s.current, nil
}

// Redraw serves the board in play again, optionally in another translation
// language. The cursor and the unanswered items are left as they are.
func (s *Session) Redraw(ctx context.Context, lang entity.Language) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseRound {
		return Round{}, phaseError("redraw", s.phase)
	}

	config := s.engine.Config()
	if lang != entity.LanguageUnspecified && entity.NormalizeLanguage(lang) != config.Lang {
		config.Lang = lang
		updated, err := s.engine.SetConfig(ctx, config)
		if err != nil {
			return Round{}, err
		}
		config = updated
	}

	// The locked order may have changed under the board since it was served
	// (a miss bumps the item), so the board is rebuilt from its own items.
	chunk := matching.Chunk{Items: s.current.Items, IDs: idsOf(s.current.Items), Start: s.current.Start}
	s.current = s.buildRound(chunk, config)
	s.current.Number = s.round
	return s.current, nil
}

// Current returns the board in play.
func (s *Session) Current() (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseRound {
		return Round{}, phaseError("current round", s.phase)
	}
	return s.current, nil
}

func (s *Session) buildRound(chunk matching.Chunk, config entity.GameConfig) Round {
	left := lo.Map(chunk.Items, func(item entity.Item, _ int) Card {
		return Card{ID: item.ID, Text: item.LV}
	})
	right := lo.Map(chunk.Items, func(item entity.Item, _ int) Card {
		return Card{ID: item.ID, Text: item.Translation(config.Lang)}
	})
	rng.Shuffle(s.rand, right)
	return Round{
		Number: s.round,
		Mode:   config.Mode,
		Lang:   config.Lang.Code(),
		Start:  chunk.Start,
		Items:  chunk.Items,
		Left:   left,
		Right:  right,
	}
}

// Match answers a matching board: leftID is the Latvian card, rightID the
// translation card the player paired it with. A wrong pair leaves the item
// on the board.
func (s *Session) Match(ctx context.Context, leftID, rightID string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.pendingItem("match", leftID)
	if err != nil {
		return Answer{}, err
	}
	correct := strings.TrimSpace(rightID) == item.ID
	return s.answer(ctx, item, correct, correct)
}

// Guess answers a typed question for id. Comparison ignores case and extra
// whitespace; any of the slash or comma separated variants is accepted. The
// item leaves the board either way.
func (s *Session) Guess(ctx context.Context, id, text string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.pendingItem("guess", id)
	if err != nil {
		return Answer{}, err
	}
	expected := item.Translation(s.engine.Config().Lang)
	return s.answer(ctx, item, MatchesTranslation(expected, text), true)
}

// MatchesTranslation reports whether answer equals expected or one of its
// slash or comma separated variants, ignoring case and whitespace.
func MatchesTranslation(expected, answer string) bool {
	got := entity.NormalizeWordToken(answer)
	if got == "" {
		return false
	}
	if got == entity.NormalizeWordToken(expected) {
		return true
	}
	variants := strings.FieldsFunc(expected, func(r rune) bool { return r == '/' || r == ',' })
	return lo.ContainsBy(variants, func(v string) bool { return entity.NormalizeWordToken(v) == got })
}

func (s *Session) pendingItem(op, id string) (entity.Item, error) {
	if s.phase != PhaseRound {
		return entity.Item{}, phaseError(op, s.phase)
	}
	id = strings.TrimSpace(id)
	if !lo.Contains(s.pending, id) {
		return entity.Item{}, fmt.Errorf("%s %q: %w", op, id, entity.ErrUnknownItem)
	}
	item, ok := s.engine.Item(id)
	if !ok {
		return entity.Item{}, fmt.Errorf("%s %q: %w", op, id, entity.ErrUnknownItem)
	}
	return item, nil
}

func (s *Session) answer(ctx context.Context, item entity.Item, correct, done bool) (Answer, error) {
	stats, err := s.engine.RecordResult(ctx, item, correct)
	if err != nil {
		return Answer{}, err
	}
	s.total++
	if correct {
		s.correct++
	} else if !lo.Contains(s.missed, item.ID) {
		s.missed = append(s.missed, item.ID)
	}
	if done {
		s.pending = lo.Without(s.pending, item.ID)
	}
	return Answer{
		ItemID:        item.ID,
		Correct:       correct,
		Expected:      item.Translation(s.engine.Config().Lang),
		Stats:         stats,
		Remaining:     len(s.pending),
		RoundComplete: len(s.pending) == 0,
	}, nil
}

// Finish closes the current run, stores its result and leaves the session
// ready for another run. Failing to store the result is logged only.
func (s *Session) Finish(ctx context.Context) (entity.SessionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseRound && s.phase != PhaseReady {
		return entity.SessionResult{}, phaseError("finish", s.phase)
	}

	now := s.clock()
	result := entity.SessionResult{
		ID:        s.newID(),
		Game:      s.engine.Game(),
		Mode:      s.engine.Config().Mode,
		Timestamp: now,
		Correct:   s.correct,
		Total:     s.total,
		Detail:    strings.Join(s.missed, " "),
	}
	if !s.startedAt.IsZero() {
		result.Duration = now.Sub(s.startedAt)
	}
	result.Normalize(now)

	if s.results != nil {
		if saved, err := s.results.Save(ctx, &result); err != nil {
			s.log.WithError(err).Warn("store session result failed")
		} else if saved != nil {
			result = *saved
		}
	}
	s.log.WithFields(logrus.Fields{
		"correct": result.Correct,
		"total":   result.Total,
		"rounds":  s.round,
	}).Info("session finished")

	s.resetCounters()
	s.phase = PhaseReady
	return result, nil
}

// Reset clears the game's progress and returns the session to idle.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseLoading {
		return phaseError("reset", s.phase)
	}
	s.engine.Reset(ctx)
	s.resetCounters()
	s.phase = PhaseIdle
	return nil
}

// NewMix draws a new locked set and abandons the board in play.
func (s *Session) NewMix(ctx context.Context, size int) (matching.MixResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady && s.phase != PhaseRound {
		return matching.MixResult{}, phaseError("new mix", s.phase)
	}
	result, err := s.engine.NewMix(ctx, size)
	if err != nil {
		return matching.MixResult{}, err
	}
	if s.phase == PhaseRound {
		s.pending = nil
		s.current = Round{}
		s.phase = PhaseReady
	}
	return result, nil
}

// Question builds a multiple-choice question for a deck item.
func (s *Session) Question(id string, options int) (*quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseIdle || s.phase == PhaseLoading {
		return nil, phaseError("question", s.phase)
	}
	item, ok := s.engine.Item(strings.TrimSpace(id))
	if !ok {
		return nil, fmt.Errorf("question %q: %w", id, entity.ErrUnknownItem)
	}
	return quiz.NewQuestion(item, s.engine.Items(), options, s.engine.Config().Lang, s.rand)
}

// State returns a snapshot of the session and its engine.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Game:    s.engine.Game(),
		Phase:   s.phase,
		Round:   s.round,
		Correct: s.correct,
		Total:   s.total,
		Pending: append([]string{}, s.pending...),
		Engine:  s.engine.Snapshot(),
	}
}

func (s *Session) resetCounters() {
	s.round = 0
	s.current = Round{}
	s.pending = nil
	s.correct = 0
	s.total = 0
	s.missed = nil
	s.startedAt = time.Time{}
}

func phaseError(op string, phase Phase) error {
	return fmt.Errorf("%s in phase %s: %w", op, phase, entity.ErrInvalidPhase)
}

func idsOf(items []entity.Item) []string {
	return lo.Map(items, func(item entity.Item, _ int) string { return item.ID })
}
