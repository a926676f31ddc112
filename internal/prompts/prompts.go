// Package prompts holds the instruction templates the agent sends to the
// chat model. Templates use {placeholder} variables substituted by Render.
package prompts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is the full prompt collection. Any field may be overridden from the
// YAML config file; empty fields keep their defaults.
type Set struct {
	Persona           string `yaml:"persona"`
	DecidePersonal    string `yaml:"decide_personal"`
	DecidePreference  string `yaml:"decide_preference"`
	DecideSearch      string `yaml:"decide_search"`
	MergeMemory       string `yaml:"merge_memory"`
	MergePreference   string `yaml:"merge_preference"`
	FormulateQuery    string `yaml:"formulate_query"`
	Answer            string `yaml:"answer"`
	AnswerWithContext string `yaml:"answer_with_context"`
	Greeting          string `yaml:"greeting"`
	Apology           string `yaml:"apology"`
}

// Defaults returns the built-in prompt set.
func Defaults() Set {
	return Set{
		Persona: "Your name is 'Minerva', a chat assistant living in a messaging app. " +
			"You answer the user's questions and requests kindly and keep replies focused " +
			"on the essential points. A friendly tone and the occasional emoji are fine.\n",

		DecidePersonal: "Decide whether the user's messages contain personal information about the user " +
			"(name, age, location, occupation, family, and similar facts). " +
			"Answer with exactly one word: YES or NO.",

		DecidePreference: "Decide whether the user's messages express a preference about how answers " +
			"should be written (tone, length, format, language, and similar). " +
			"Answer with exactly one word: YES or NO.",

		DecideSearch: "Decide whether answering the user's latest request requires fresh information " +
			"from a web search (current events, prices, schedules, facts that change over time). " +
			"Answer with exactly one word: YES or NO.",

		MergeMemory: "You maintain a memo of personal information about the user.\n" +
			"Current memo:\n{memory}\n\n" +
			"Merge any new personal information from the user's message into the memo. " +
			"Keep existing facts unless contradicted. Return only the updated memo.",

		MergePreference: "You maintain a memo of the user's answer preferences.\n" +
			"Current memo:\n{preference}\n\n" +
			"Merge any newly stated preference from the user's message into the memo. " +
			"Keep existing preferences unless contradicted. Return only the updated memo.",

		FormulateQuery: "Write a single concise web search query for the request below. " +
			"Return only the query text.\n" +
			"Request: {query}\n" +
			"Previous query (avoid repeating it verbatim): {previous_query}",

		Answer: "\nWhat you know about the user:\n{memory}\n\n" +
			"How the user wants answers written:\n{preference}\n",

		AnswerWithContext: "Answer the question using the search results below as grounding. " +
			"If the results do not cover the question, say so.\n\n" +
			"<search_results>\n{context}\n</search_results>\n\n" +
			"Question: {query}",

		Greeting: "Hello! This is a fresh conversation. How can I help you? 😊",

		Apology: "Sorry, something went wrong while preparing your answer. Please try again in a moment.",
	}
}

// Render substitutes {name} placeholders in a template.
func Render(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}

// LoadFile reads prompt overrides from a YAML file and overlays them on the
// defaults. A missing file is not an error; the defaults are returned.
func LoadFile(path string) (Set, error) {
	set := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return set, fmt.Errorf("error reading prompts file: %w", err)
	}

	var file struct {
		Prompts Set `yaml:"prompts"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return set, fmt.Errorf("error parsing prompts file: %w", err)
	}

	overlay(&set, file.Prompts)
	return set, nil
}

func overlay(dst *Set, src Set) {
	fields := []struct {
		dst *string
		src string
	}{
		{&dst.Persona, src.Persona},
		{&dst.DecidePersonal, src.DecidePersonal},
		{&dst.DecidePreference, src.DecidePreference},
		{&dst.DecideSearch, src.DecideSearch},
		{&dst.MergeMemory, src.MergeMemory},
		{&dst.MergePreference, src.MergePreference},
		{&dst.FormulateQuery, src.FormulateQuery},
		{&dst.Answer, src.Answer},
		{&dst.AnswerWithContext, src.AnswerWithContext},
		{&dst.Greeting, src.Greeting},
		{&dst.Apology, src.Apology},
	}
	for _, f := range fields {
		if f.src != "" {
			*f.dst = f.src
		}
	}
}
