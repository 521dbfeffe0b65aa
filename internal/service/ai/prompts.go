package ai

import (
	"fmt"
	"strings"
)

// Target names one output language of a batch translation.
type Target struct {
	ID   string // column identifier, used as the JSON key
	Name string // human-readable language name
}

// GetTranslateBatchPrompt returns the system prompt asking for every target
// language in one response, keyed by target ID.
func GetTranslateBatchPrompt(sourceName string, targets []Target) string {
	var list strings.Builder
	var keys []string
	for _, t := range targets {
		fmt.Fprintf(&list, "\n<target id=%q>%s</target>", t.ID, t.Name)
		keys = append(keys, fmt.Sprintf("%q: \"...\"", t.ID))
	}

	return fmt.Sprintf(`You are an expert translator. Translate the text from the source language into every target language.

<context>
<source_language>%s</source_language>
<targets>%s
</targets>
</context>

<instructions>
1. Translate the ENTIRE text inside <input> into each target language
2. Respond with ONE JSON object and nothing else: {%s}
3. Use the target id attributes as the JSON keys
4. Preserve the original meaning, tone and line breaks
5. Keep proper nouns and brand names unchanged
6. NEVER translate URLs
7. NO explanations, NO notes, NO markdown code fences
</instructions>`, sourceName, list.String(), strings.Join(keys, ", "))
}

// GetTranslateTextPrompt returns the system prompt for a single target language.
func GetTranslateTextPrompt(sourceName, targetName string) string {
	return fmt.Sprintf(`You are an expert translator. Translate the text from the source language into the target language.

<context>
<source_language>%s</source_language>
<target_language>%s</target_language>
</context>

<instructions>
1. You MUST translate into the language specified in <target_language>. Responses in other languages are invalid
2. Output ONLY the translated text, nothing else
3. Preserve the original meaning, tone and line breaks
4. Keep proper nouns and brand names unchanged
5. NEVER translate URLs
6. NO explanations, NO notes, NO markdown formatting
7. NO leading or trailing newlines
</instructions>`, sourceName, targetName)
}

// WrapInput wraps user text in the <input> tag the prompts refer to.
func WrapInput(content string) string {
	return "<input>\n" + content + "\n</input>"
}
