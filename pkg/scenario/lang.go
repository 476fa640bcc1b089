package scenario

import (
	"fmt"
	"strings"
	"unicode"
)

// Language detection here is a marker heuristic, not a verified language
// identifier: a response counts as Spanish if it carries Spanish punctuation,
// accented letters, or common Spanish words. This matches how the scripts are
// judged by a human listening to the output, and it is cheap and dependency
// free, but it can be fooled by quoted foreign words. Treat it as an
// approximation.

var spanishWords = wordSet(
	"hola", "gracias", "por", "favor", "usted", "puedo", "ayudarte", "ayudar",
	"camión", "camiones", "está", "están", "qué", "cómo", "cuál", "hoy",
	"pendientes", "factura", "cargos", "flota", "número", "también", "sí",
	"claro", "perfecto", "día", "ningún", "problema", "disponibles",
)

var frenchWords = wordSet(
	"bonjour", "merci", "vous", "je", "oui", "avec", "votre", "pouvez",
	"aider", "langues", "parle", "parlez", "bien", "sûr", "français",
	"compte", "aujourd'hui",
)

var englishWords = wordSet(
	"the", "you", "your", "can", "what", "hello", "help", "is", "are",
	"have", "with", "how", "today", "here", "thanks", "sure", "would",
	"discussed", "summary", "order", "orders",
)

// checkLanguage judges whether text reads as the expected language.
// LangEnglish is strict: any markers of another language fail the check.
func checkLanguage(text string, lang Language) (bool, string) {
	switch lang {
	case LangSpanish:
		if hasSpanishMarkers(text) {
			return true, ""
		}
		return false, "no Spanish markers in response"
	case LangFrench:
		if hasFrenchMarkers(text) {
			return true, ""
		}
		return false, "no French markers in response"
	case LangJapanese:
		if hasJapaneseScript(text) {
			return true, ""
		}
		return false, "no Japanese script in response"
	case LangEnglish:
		switch {
		case hasJapaneseScript(text):
			return false, "Japanese script in English-only response"
		case hasSpanishMarkers(text):
			return false, "Spanish markers in English-only response"
		case hasFrenchMarkers(text):
			return false, "French markers in English-only response"
		case !hasEnglishMarkers(text):
			return false, "no English markers in response"
		}
		return true, ""
	default:
		return false, fmt.Sprintf("no marker heuristic for language %q", lang)
	}
}

func hasSpanishMarkers(text string) bool {
	if strings.ContainsAny(text, "¿¡ñÑáéíóúÁÉÍÓÚ") {
		return true
	}
	return containsAnyWord(text, spanishWords)
}

func hasFrenchMarkers(text string) bool {
	if strings.ContainsAny(text, "çœÇ") {
		return true
	}
	return containsAnyWord(text, frenchWords)
}

func hasEnglishMarkers(text string) bool {
	return containsAnyWord(text, englishWords)
}

func hasJapaneseScript(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) {
			return true
		}
		if unicode.In(r, unicode.Han) {
			return true
		}
	}
	return false
}

func containsAnyWord(text string, set map[string]bool) bool {
	for _, w := range tokenize(text) {
		if set[w] {
			return true
		}
	}
	return false
}

// tokenize lowercases and splits on anything that is not a letter or an
// apostrophe (kept for French contractions like "aujourd'hui").
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
