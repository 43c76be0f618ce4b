package model

import "strings"

// Language is the response language requested for AI-generated text.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
	LanguageMarathi Language = "mr"
	LanguageTelugu  Language = "te"
	LanguageTamil   Language = "ta"
)

var languageNames = map[Language]string{
	LanguageEnglish: "English",
	LanguageHindi:   "Hindi",
	LanguageMarathi: "Marathi",
	LanguageTelugu:  "Telugu",
	LanguageTamil:   "Tamil",
}

// ParseLanguage maps a language code to a Language, defaulting to English for
// unknown or empty codes.
func ParseLanguage(code string) Language {
	l := Language(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := languageNames[l]; ok {
		return l
	}
	return LanguageEnglish
}

// DisplayName returns the English name of the language, used in prompts.
func (l Language) DisplayName() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return languageNames[LanguageEnglish]
}
