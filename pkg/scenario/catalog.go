package scenario

import (
	"strconv"
	"strings"
)

// Catalog is a fixed, enumerable collection of scenarios. It provides
// lookups only; scenarios are never added or changed after construction.
type Catalog struct {
	scenarios []Scenario
	byID      map[string]int
}

// New builds a catalog from the given scenarios.
func New(scenarios ...Scenario) *Catalog {
	c := &Catalog{
		scenarios: scenarios,
		byID:      make(map[string]int, len(scenarios)),
	}
	for i, s := range scenarios {
		c.byID[strings.ToLower(s.ID)] = i
	}
	return c
}

// Len returns the number of scenarios.
func (c *Catalog) Len() int {
	return len(c.scenarios)
}

// All returns the scenarios in catalog order.
func (c *Catalog) All() []Scenario {
	out := make([]Scenario, len(c.scenarios))
	copy(out, c.scenarios)
	return out
}

// ByID looks up a scenario by its ID, case-insensitive.
func (c *Catalog) ByID(id string) (Scenario, bool) {
	i, ok := c.byID[strings.ToLower(id)]
	if !ok {
		return Scenario{}, false
	}
	return c.scenarios[i], true
}

// ByIndex looks up a scenario by 1-based position.
func (c *Catalog) ByIndex(i int) (Scenario, bool) {
	if i < 1 || i > len(c.scenarios) {
		return Scenario{}, false
	}
	return c.scenarios[i-1], true
}

// Lookup resolves a selector that may be an ID, an ID fragment, a name, or a
// 1-based index.
func (c *Catalog) Lookup(selector string) (Scenario, bool) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return Scenario{}, false
	}
	if n, err := strconv.Atoi(selector); err == nil {
		return c.ByIndex(n)
	}
	if s, ok := c.ByID(selector); ok {
		return s, true
	}
	lower := strings.ToLower(selector)
	for _, s := range c.scenarios {
		if strings.EqualFold(s.Name, selector) || strings.Contains(strings.ToLower(s.ID), lower) {
			return s, true
		}
	}
	return Scenario{}, false
}

// Shared prompt fragments. The language rules live in the LLM prompt; the
// point of the harness is to observe how well the pipeline honors them.
const (
	mirrorPrompt = "You are a helpful multilingual assistant.\n" +
		"LANGUAGE MIRRORING RULE (STRICT):\n" +
		"- Always respond in the same language as the user's MOST RECENT message.\n" +
		"- If the user speaks English, respond in English.\n" +
		"- If the user speaks Spanish, respond in Spanish.\n" +
		"- Do NOT translate unless the user explicitly asks.\n"

	strictEnglishPrompt = "You are a helpful assistant.\n" +
		"STRICT LANGUAGE RULE:\n" +
		"- No matter what language the user speaks, you MUST ALWAYS " +
		"respond in English. This is a strict, non-negotiable requirement.\n" +
		"- Even if the user speaks Spanish, French, or any other language, " +
		"your response must be entirely in English.\n" +
		"- You may acknowledge that you understood their non-English input, " +
		"but your response text must be 100% English.\n"

	fieldTechPrompt = "You are a helpful fleet management assistant for a trucking company.\n" +
		"You help drivers and technicians manage work orders, vehicle inspections, " +
		"and maintenance tasks.\n\n" +
		"LANGUAGE RULE:\n" +
		"- The user is a Spanish-speaking technician.\n" +
		"- They may mix English technical terms (like 'work order', 'dashboard', " +
		"'check engine light') into Spanish sentences.\n" +
		"- Always respond in Spanish, even if the user mixes in English terms.\n" +
		"- You must understand English technical terms in context.\n" +
		"- Keep responses concise and action-oriented.\n"

	salesDemoPrompt = "You are a helpful fleet management assistant.\n" +
		"You help with work orders, vehicle tracking, and maintenance.\n\n" +
		"LANGUAGE RULE:\n" +
		"- Detect the language of each user message.\n" +
		"- If the user speaks English, respond entirely in English.\n" +
		"- If the user speaks Spanish, respond entirely in Spanish.\n" +
		"- Match the user's language on every turn.\n" +
		"- Keep responses concise (1-3 sentences).\n"

	conditionalMixPrompt = "You are a helpful bilingual assistant (English and Spanish).\n" +
		"CONDITIONAL LANGUAGE MIXING RULE:\n" +
		"- By default, respond ONLY in English.\n" +
		"- If the user includes ANY Spanish in their message, you may " +
		"respond in a mix of English and Spanish to be helpful.\n" +
		"- NEVER use Spanish unless the user has explicitly spoken Spanish " +
		"to you first in that turn.\n" +
		"- Once the user switches back to English only, return to " +
		"English-only responses.\n"
)

// fieldTechTurns exercises Spanish sentences carrying English technical terms.
func fieldTechTurns() []Turn {
	es := Expect{Language: LangSpanish, WaitAudio: true}
	return []Turn{
		{Label: "Spanish + English term", Text: "Cierra el work order número 4523.", Expect: es},
		{Label: "Spanish + English term", Text: "El check engine light está encendido en el camión 78. ¿Qué hago?", Expect: es},
		{Label: "Pure Spanish", Text: "¿Cuáles son los work orders pendientes para hoy?", Expect: es},
		{Label: "Heavily mixed", Text: "Necesito hacer un update al dashboard con el status del delivery.", Expect: es},
	}
}

// salesDemoTurns switches language entirely on every turn.
func salesDemoTurns() []Turn {
	en := Expect{Language: LangEnglish, WaitAudio: true}
	es := Expect{Language: LangSpanish, WaitAudio: true}
	return []Turn{
		{Label: "English", Text: "Show me the open work orders for today.", Expect: en},
		{Label: "Spanish", Text: "Ahora dime en español, ¿cuántos camiones están disponibles?", Expect: es},
		{Label: "English", Text: "Switch back to English. What's the status of truck 42?", Expect: en},
		{Label: "Spanish", Text: "Perfecto. Ahora en español: ¿hay algún problema reportado con la flota?", Expect: es},
	}
}

// standardTurns is the English -> Spanish -> English probe shared by the
// mirroring tests.
func standardTurns(mirror bool) []Turn {
	second := Expect{WaitAudio: true}
	if mirror {
		second.Language = LangSpanish
	} else {
		second.Language = LangEnglish
	}
	return []Turn{
		{Label: "English", Text: "Hello! What can you do for me today?",
			Expect: Expect{Language: LangEnglish, WaitAudio: true}},
		{Label: "Spanish", Text: "¿Puedes ayudarme con mi factura? Necesito entender los cargos.",
			Expect: second},
		{Label: "English", Text: "Great, now back to English. Can you summarize what we discussed so far?",
			Expect: Expect{Language: LangEnglish, WaitAudio: true}},
	}
}

// Builtin returns the demo catalog: the scenarios shown in the interactive
// menu, ending with the free-form conversation.
func Builtin() *Catalog {
	return New(
		Scenario{
			ID:             "field_technician",
			Name:           "Field Technician",
			Subtitle:       "Spanish-speaking tech mixing English terms (e.g. 'cierra el work order')",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt:         fieldTechPrompt,
			Greeting:       "¡Hola! Soy tu asistente de gestión de flota. ¿En qué puedo ayudarte?",
			Turns:          fieldTechTurns(),
		},
		Scenario{
			ID:             "sales_demo",
			Name:           "Sales Demo",
			Subtitle:       "Per-turn language switching — English and Spanish",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt:         salesDemoPrompt,
			Greeting:       "Hello! I'm your fleet assistant. How can I help?",
			Turns:          salesDemoTurns(),
		},
		Scenario{
			ID:             "strict_english",
			Name:           "Strict English",
			Subtitle:       "Always respond in English, even if user speaks another language",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt:         strictEnglishPrompt,
			Greeting:       "Hello! How can I help you today?",
			Turns: []Turn{
				{Label: "English", Text: "Hello! What can you do for me?",
					Expect: Expect{Language: LangEnglish, WaitAudio: true}},
				{Label: "Spanish", Text: "¿Puedes ayudarme con mi factura? Necesito entender los cargos.",
					Expect: Expect{Language: LangEnglish, WaitAudio: true}},
				{Label: "English", Text: "Great. Can you summarize what we discussed so far?",
					Expect: Expect{Language: LangEnglish, WaitAudio: true}},
			},
		},
		Scenario{
			ID:             "language_mirror",
			Name:           "Language Mirror",
			Subtitle:       "Agent mirrors whatever language the user speaks",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt: "You are a helpful multilingual assistant.\n" +
				"LANGUAGE RULE:\n" +
				"- Detect the language of each user message.\n" +
				"- Always respond in the SAME language as the user's most recent message.\n" +
				"- If the user speaks English, respond in English.\n" +
				"- If the user speaks Spanish, respond in Spanish.\n" +
				"- If the user speaks French, respond in French.\n" +
				"- Match the language on every turn. Keep responses concise.\n",
			Greeting: "Hello! How can I help you today?",
			Turns: []Turn{
				{Label: "English", Text: "Hi! What can you help me with?",
					Expect: Expect{Language: LangEnglish, WaitAudio: true}},
				{Label: "Spanish", Text: "¿Puedes ayudarme con mi cuenta?",
					Expect: Expect{Language: LangSpanish, WaitAudio: true}},
				{Label: "French", Text: "Pouvez-vous me dire quelles langues vous parlez?",
					Expect: Expect{Language: LangFrench, WaitAudio: true}},
				{Label: "English", Text: "Back to English. Summarize the languages you just used.",
					Expect: Expect{Language: LangEnglish, WaitAudio: true}},
			},
		},
		Scenario{
			ID:             "custom",
			Name:           "Custom Conversation",
			Subtitle:       "Type your own messages — test any scenario interactively",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt: "You are a helpful multilingual assistant.\n" +
				"Always respond in the same language as the user's most recent message.\n" +
				"Keep responses concise (1-3 sentences).\n",
			Greeting:    "Hello! I can speak multiple languages. How can I help?",
			Interactive: true,
		},
	)
}

// Suite returns the systematic test catalog: configuration probes first,
// then the prospect scenarios, then edge cases.
func Suite() *Catalog {
	return New(
		Scenario{
			ID:             "T1_multi_language",
			Name:           "Test 1: agent.language=multi + multilingual TTS",
			Subtitle:       "Does the endpoint accept language=multi with a third-party multilingual voice?",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt:         mirrorPrompt,
			Turns:          standardTurns(true),
		},
		Scenario{
			ID:            "T2_en_mirror_prompt",
			Name:          "Test 2: agent.language=en + language-mirroring prompt (fallback)",
			Subtitle:      "If multi is blocked, can the LLM prompt still steer the TTS into Spanish?",
			AgentLanguage: LangEnglish,
			SpeakLanguage: LangEnglish,
			Prompt:        mirrorPrompt,
			Turns:         standardTurns(true),
		},
		Scenario{
			ID:             "T3_strict_english",
			Name:           "Test 3: Strict English-only — ignore Spanish input language",
			Subtitle:       "Prompt demands English output no matter the input language",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt:         strictEnglishPrompt,
			Turns:          standardTurns(false),
		},
		Scenario{
			ID:             "T4_conditional_mix",
			Name:           "Test 4: Conditional mixed language — mix only if user initiates Spanish",
			Subtitle:       "English by default, mixing allowed only after the user speaks Spanish",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt:         conditionalMixPrompt,
			Turns: []Turn{
				{Label: "English", Text: "Hello! What can you do for me today?",
					Expect: Expect{Language: LangEnglish, WaitAudio: true}},
				// Mixed output is allowed here, so only audio is asserted.
				{Label: "Spanish", Text: "¿Puedes ayudarme con mi factura? Necesito entender los cargos.",
					Expect: Expect{WaitAudio: true}},
				{Label: "English", Text: "Great, now back to English. Can you summarize what we discussed so far?",
					Expect: Expect{Language: LangEnglish, WaitAudio: true}},
			},
		},
		Scenario{
			ID:             "T5_field_tech",
			Name:           "Test 5: Spanish-speaking tech mixing English terms",
			Subtitle:       "Primary prospect use case — mixed input, Spanish output",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt:         fieldTechPrompt,
			Greeting:       "¡Hola! Soy tu asistente de gestión de flota. ¿En qué puedo ayudarte?",
			Turns:          fieldTechTurns(),
		},
		Scenario{
			ID:             "T6_sales_demo",
			Name:           "Test 6: Sales demo per-turn language switching",
			Subtitle:       "Full language switch every turn — agent should match",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt:         salesDemoPrompt,
			Greeting:       "Hello! I'm your fleet management assistant. How can I help? / ¡Hola! Soy tu asistente. ¿En qué puedo ayudar?",
			Turns:          salesDemoTurns(),
		},
		Scenario{
			ID:             "T7_edge_cases",
			Name:           "Test 7: Edge cases — code-switching, French, Japanese, rapid switching",
			Subtitle:       "Mid-sentence code-switching, non-Spanish languages, rapid back-and-forth",
			AgentLanguage:  LangMulti,
			ListenLanguage: LangMulti,
			Prompt: "You are a helpful multilingual assistant.\n" +
				"Always respond in the same language as the user's most recent message.\n" +
				"Keep responses concise (1-2 sentences).\n",
			Turns: []Turn{
				// Mixed input; either language is acceptable output.
				{Label: "Code-switch mid-sentence", Text: "I need help with my account, pero también necesito cambiar mi dirección.",
					Expect: Expect{WaitAudio: true}},
				{Label: "French", Text: "Bonjour! Pouvez-vous m'aider avec mon compte?",
					Expect: Expect{Language: LangFrench, WaitAudio: true}},
				{Label: "English immediately", Text: "OK, English now. What languages do you support?",
					Expect: Expect{Language: LangEnglish, WaitAudio: true}},
				{Label: "Japanese", Text: "日本語で話してもいいですか？",
					Expect: Expect{Language: LangJapanese, WaitAudio: true}},
				// The summary legitimately quotes other languages, so only
				// audio is asserted.
				{Label: "English final", Text: "That was interesting. Summarize what languages you just spoke in.",
					Expect: Expect{WaitAudio: true}},
			},
		},
	)
}
