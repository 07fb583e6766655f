package entity

import (
	"fmt"
	"strings"
)

// Item is a single vocabulary entry: a Latvian term and its translations.
type Item struct {
	ID           string              `json:"id"`
	LV           string              `json:"lv"`
	Translations map[Language]string `json:"translations"`
	Tags         []string            `json:"tags,omitempty"`
	Unit         string              `json:"unit,omitempty"`
	Games        []string            `json:"games,omitempty"`
}

// ItemID derives the stable identifier of an item from its Latvian term and translation.
func ItemID(lv, translation string) string {
	return NormalizeWordToken(lv) + "::" + NormalizeWordToken(translation)
}

// Translation returns the text for lang, falling back to the primary translation.
func (i Item) Translation(lang Language) string {
	if text := strings.TrimSpace(i.Translations[NormalizeLanguage(lang)]); text != "" {
		return text
	}
	return i.PrimaryTranslation()
}

// HasTranslation reports whether the item carries text for lang itself.
func (i Item) HasTranslation(lang Language) bool {
	return strings.TrimSpace(i.Translations[NormalizeLanguage(lang)]) != ""
}

// PrimaryTranslation is the English text when present, otherwise the first
// translation in TranslationLanguages order.
func (i Item) PrimaryTranslation() string {
	for _, lang := range TranslationLanguages {
		if text := strings.TrimSpace(i.Translations[lang]); text != "" {
			return text
		}
	}
	return ""
}

// Normalize trims the item's fields and derives its id when missing.
func (i *Item) Normalize() error {
	i.LV = strings.TrimSpace(i.LV)
	if i.LV == "" {
		return fmt.Errorf("%w: missing latvian term", ErrInvalidItem)
	}
	cleaned := make(map[Language]string, len(i.Translations))
	for lang, text := range i.Translations {
		lang = ParseLanguage(string(lang))
		text = strings.TrimSpace(text)
		if lang == LanguageUnspecified || lang == LanguageLatvian || text == "" {
			continue
		}
		cleaned[lang] = text
	}
	i.Translations = cleaned
	primary := i.PrimaryTranslation()
	if primary == "" {
		return fmt.Errorf("%w: %q has no translation", ErrInvalidItem, i.LV)
	}
	i.ID = strings.TrimSpace(i.ID)
	if i.ID == "" {
		i.ID = ItemID(i.LV, primary)
	}
	i.Unit = strings.TrimSpace(i.Unit)
	if i.Tags == nil {
		i.Tags = []string{}
	}
	if i.Games == nil {
		i.Games = []string{}
	}
	return nil
}
