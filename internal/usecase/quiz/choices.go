// Package quiz builds multiple-choice questions from a vocabulary deck.
package quiz

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/pkg/rng"
)

// Choice is one answer option of a multiple-choice question.
type Choice struct {
	ItemID  string `json:"itemId"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question asks for the translation of a Latvian prompt.
type Question struct {
	Prompt  string   `json:"prompt"`
	ItemID  string   `json:"itemId"`
	Lang    string   `json:"lang"`
	Choices []Choice `json:"choices"`
}

// BuildChoices returns count options for target in lang: the correct
// translation plus count-1 distractors from deck whose translations differ
// from it and from each other. The options are shuffled.
func BuildChoices(target entity.Item, deck []entity.Item, count int, lang entity.Language, rnd rng.Source) ([]Choice, error) {
	if count < 2 {
		return nil, fmt.Errorf("build choices: need at least 2 options, got %d", count)
	}
	answer := target.Translation(lang)
	if answer == "" {
		return nil, fmt.Errorf("build choices for %q: %w", target.LV, entity.ErrInvalidItem)
	}

	used := map[string]struct{}{entity.NormalizeWordToken(answer): {}}
	candidates := lo.Filter(rng.Shuffled(rnd, deck), func(item entity.Item, _ int) bool {
		return item.ID != target.ID
	})

	choices := []Choice{{ItemID: target.ID, Text: answer, Correct: true}}
	for _, item := range candidates {
		if len(choices) == count {
			break
		}
		text := item.Translation(lang)
		key := entity.NormalizeWordToken(text)
		if key == "" {
			continue
		}
		if _, dup := used[key]; dup {
			continue
		}
		used[key] = struct{}{}
		choices = append(choices, Choice{ItemID: item.ID, Text: text})
	}
	if len(choices) < count {
		return nil, fmt.Errorf("build choices for %q: have %d of %d: %w", target.LV, len(choices)-1, count-1, entity.ErrInsufficientDistractors)
	}

	rng.Shuffle(rnd, choices)
	return choices, nil
}

// NewQuestion wraps BuildChoices into a question prompting target's Latvian term.
func NewQuestion(target entity.Item, deck []entity.Item, count int, lang entity.Language, rnd rng.Source) (*Question, error) {
	choices, err := BuildChoices(target, deck, count, lang, rnd)
	if err != nil {
		return nil, err
	}
	return &Question{
		Prompt:  target.LV,
		ItemID:  target.ID,
		Lang:    entity.NormalizeLanguage(lang).Code(),
		Choices: choices,
	}, nil
}

// CorrectIndex returns the position of the correct choice, or -1.
func (q *Question) CorrectIndex() int {
	_, idx, ok := lo.FindIndexOf(q.Choices, func(c Choice) bool { return c.Correct })
	if !ok {
		return -1
	}
	return idx
}
