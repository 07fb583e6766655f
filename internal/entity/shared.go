package entity

import "strings"

// Language represents supported language codes using ISO-style abbreviations.
type Language string

const (
	LanguageUnspecified Language = ""
	LanguageLatvian     Language = "lv"
	LanguageEnglish     Language = "en"
	LanguageRussian     Language = "ru"
	LanguageGerman      Language = "de"
	LanguageLithuanian  Language = "lt"
	LanguageEstonian    Language = "et"
	LanguageUkrainian   Language = "uk"
)

// TranslationLanguages lists the languages an item may be translated into.
var TranslationLanguages = []Language{
	LanguageEnglish,
	LanguageRussian,
	LanguageGerman,
	LanguageLithuanian,
	LanguageEstonian,
	LanguageUkrainian,
}

// Code returns the lowercase language code (without defaulting).
func (l Language) Code() string {
	return strings.ToLower(strings.TrimSpace(string(l)))
}

// CodeOrDefault returns the language code, falling back to English when unspecified.
func (l Language) CodeOrDefault() string {
	if l.Code() == "" {
		return string(LanguageEnglish)
	}
	return l.Code()
}

// NormalizeLanguage ensures the language falls back to a supported translation language (defaults to English).
func NormalizeLanguage(lang Language) Language {
	parsed := ParseLanguage(string(lang))
	switch parsed {
	case LanguageUnspecified, LanguageLatvian:
		return LanguageEnglish
	default:
		return parsed
	}
}

// ParseLanguage converts an arbitrary string into a supported Language value.
func ParseLanguage(code string) Language {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "lv":
		return LanguageLatvian
	case "en":
		return LanguageEnglish
	case "ru":
		return LanguageRussian
	case "de":
		return LanguageGerman
	case "lt":
		return LanguageLithuanian
	case "et":
		return LanguageEstonian
	case "uk":
		return LanguageUkrainian
	default:
		return LanguageUnspecified
	}
}

// NormalizeWordToken folds a term for comparisons: trimmed, lowercased, inner whitespace collapsed.
func NormalizeWordToken(word string) string {
	fields := strings.Fields(word)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(fields, " "))
}
