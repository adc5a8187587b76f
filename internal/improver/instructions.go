package improver

import "fmt"

var languageNames = map[string]string{
	"es": "Spanish",
	"en": "English",
}

func improveSystemPrompt(language string) string {
	const prompt = `You are an expert prompt engineer.

Rewrite the user's prompt so an AI model understands it better:
- keep the original intent and every placeholder such as [TOPIC] or {{name}} unchanged
- make the role, the task and the expected output format explicit
- remove ambiguity and filler
- write the result in %s

Return ONLY the improved prompt, no explanations or markdown.`

	return fmt.Sprintf(prompt, languageNames[language])
}

func translateSystemPrompt(language string) string {
	const prompt = `You translate AI prompts.

Translate the user's prompt into %s:
- preserve meaning, tone and formatting
- keep placeholders such as [TOPIC] or {{name}} exactly as written
- do not answer or execute the prompt

Return ONLY the translated prompt, no explanations or markdown.`

	return fmt.Sprintf(prompt, languageNames[language])
}
