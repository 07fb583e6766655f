// Package datasource loads vocabulary items from remote, embedded, file and
// spreadsheet sources.
package datasource

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/eslsoft/lvgames/internal/entity"
)

// DecodeResult is the outcome of decoding a vocabulary document.
type DecodeResult struct {
	Items   []entity.Item
	Skipped int
}

// DecodeItems extracts items from a JSON document. itemsPath is a gjson path
// to the array of item objects; empty means the document root.
//
// Each object carries "lv", one key per translation language ("en", "ru", ...)
// and optionally "id", "unit", "tags" and "games" (a string or list).
// Objects without a Latvian term or translation are skipped.
func DecodeItems(raw []byte, itemsPath string) (DecodeResult, error) {
	if !gjson.ValidBytes(raw) {
		return DecodeResult{}, errors.New("decode items: invalid JSON document")
	}
	list := gjson.ParseBytes(raw)
	if path := strings.TrimSpace(itemsPath); path != "" {
		list = list.Get(path)
	}
	if !list.IsArray() {
		return DecodeResult{}, fmt.Errorf("decode items: path %q is not an array", itemsPath)
	}

	var result DecodeResult
	list.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			result.Skipped++
			return true
		}
		item := decodeItem(value)
		if err := item.Normalize(); err != nil {
			result.Skipped++
			return true
		}
		result.Items = append(result.Items, item)
		return true
	})
	return result, nil
}

func decodeItem(value gjson.Result) entity.Item {
	item := entity.Item{
		ID:           value.Get("id").String(),
		LV:           value.Get("lv").String(),
		Unit:         value.Get("unit").String(),
		Translations: make(map[entity.Language]string),
		Tags:         stringList(value.Get("tags")),
		Games:        stringList(value.Get("games")),
	}
	for _, lang := range entity.TranslationLanguages {
		if text := value.Get(lang.Code()); text.Exists() {
			item.Translations[lang] = text.String()
		}
	}
	return item
}

func stringList(value gjson.Result) []string {
	if !value.Exists() {
		return nil
	}
	if !value.IsArray() {
		return splitList(value.String())
	}
	var out []string
	for _, v := range value.Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitList splits a comma or space separated list, dropping empty entries.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == ' ' })
	if len(fields) == 0 {
		return nil
	}
	return fields
}

type itemDocument map[string]any

// EncodeItems renders items in the flat document shape DecodeItems reads.
func EncodeItems(items []entity.Item) ([]byte, error) {
	docs := make([]itemDocument, 0, len(items))
	for _, item := range items {
		doc := itemDocument{"id": item.ID, "lv": item.LV}
		for lang, text := range item.Translations {
			doc[lang.Code()] = text
		}
		if item.Unit != "" {
			doc["unit"] = item.Unit
		}
		if len(item.Tags) > 0 {
			doc["tags"] = item.Tags
		}
		if len(item.Games) > 0 {
			doc["games"] = item.Games
		}
		docs = append(docs, doc)
	}
	return json.MarshalIndent(docs, "", "  ")
}
