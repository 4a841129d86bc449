package prompt

import "strings"

// Placeholder marks where the input text goes inside a prompt template.
const Placeholder = "{text}"

// Assemble turns a template and the text to analyze into chat messages.
// A template with a placeholder becomes the user message and system is empty;
// otherwise the template is the system message and text the user message.
func Assemble(template, text string) (system, user string) {
	if strings.Contains(template, Placeholder) {
		return "", strings.ReplaceAll(template, Placeholder, text)
	}
	return template, text
}

// Inline folds both messages into a single turn for providers without a
// system role.
func Inline(system, user string) string {
	if system == "" {
		return user
	}
	return system + "\n\nText to analyze: " + user
}
