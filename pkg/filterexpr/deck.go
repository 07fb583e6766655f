package filterexpr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/eslsoft/lvgames/internal/entity"
)

// DeckFilter selects the items of a deck with a CEL expression over:
//
//	id    string
//	lv    string
//	tr    map(string, string)   translations keyed by language code
//	unit  string
//	tags  list(string)
//	games list(string)
//
// Example: 'match' in games && unit == 'u3'
type DeckFilter struct {
	expr string
	prg  cel.Program
}

// CompileDeckFilter parses and type-checks expr. An empty expression yields a
// nil filter, which matches every item.
func CompileDeckFilter(expr string) (*DeckFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	env, err := deckEnv()
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid deck filter: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("deck filter must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build deck filter program: %w", err)
	}
	return &DeckFilter{expr: expr, prg: prg}, nil
}

func deckEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("lv", cel.StringType),
		cel.Variable("tr", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("unit", cel.StringType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
		cel.Variable("games", cel.ListType(cel.StringType)),
	)
}

// String returns the source expression.
func (f *DeckFilter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match evaluates the filter against item.
func (f *DeckFilter) Match(item entity.Item) (bool, error) {
	if f == nil {
		return true, nil
	}
	tr := make(map[string]string, len(item.Translations))
	for lang, text := range item.Translations {
		tr[lang.Code()] = text
	}
	out, _, err := f.prg.Eval(map[string]any{
		"id":    item.ID,
		"lv":    item.LV,
		"tr":    tr,
		"unit":  item.Unit,
		"tags":  nonNil(item.Tags),
		"games": nonNil(item.Games),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate deck filter on %q: %w", item.ID, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("deck filter returned a non-bool value")
	}
	return matched, nil
}

// Apply returns the items matching the filter, preserving order.
func (f *DeckFilter) Apply(items []entity.Item) ([]entity.Item, error) {
	if f == nil {
		return items, nil
	}
	out := make([]entity.Item, 0, len(items))
	for _, item := range items {
		ok, err := f.Match(item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
