package generation

import (
	"fmt"
	"strings"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
	"venturemap/internal/stagetext"
)

// planContext renders the accumulated plan as a prompt block, meta fields
// first and stage fields in catalog order so the model always sees the same
// shape.
func planContext(data plan.Data) string {
	var b strings.Builder
	if v := data[plan.KeyProjectName]; v != "" {
		fmt.Fprintf(&b, "Project name: %s\n", v)
	}
	if v := data[plan.KeyInitialIdea]; v != "" {
		fmt.Fprintf(&b, "Initial idea: %s\n", v)
	}
	for _, s := range catalog.All {
		key, ok := catalog.DataKey(s)
		if !ok {
			continue
		}
		if v := data[key]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, v)
		}
	}
	return b.String()
}

func languageLine(locale plan.Locale) string {
	if locale == plan.LocaleFA {
		return "Respond in Persian (Farsi)."
	}
	return "Respond in English."
}

// stagePrompt asks the model to produce the content of an auto-generated
// stage from the plan so far.
func stagePrompt(stage catalog.Stage, data plan.Data, locale plan.Locale) string {
	var b strings.Builder
	b.WriteString("You are a startup business-plan consultant. ")
	b.WriteString("Based on the business plan below, write the content for the section ")
	fmt.Fprintf(&b, "%q.\n", stage)
	fmt.Fprintf(&b, "Section description: %s\n\n", stagetext.Question(stage, locale))
	b.WriteString("Business plan so far:\n")
	b.WriteString(planContext(data))
	b.WriteString("\nWrite only the section content, concise and specific to this business. ")
	b.WriteString(languageLine(locale))
	return b.String()
}

// summaryPrompt asks the model to summarize the section a summary stage
// closes.
func summaryPrompt(stage catalog.Stage, data plan.Data, locale plan.Locale) string {
	var b strings.Builder
	b.WriteString("You are a startup business-plan consultant. ")
	fmt.Fprintf(&b, "Write a cohesive narrative summary for the %q section of the business plan below. ", sectionName(stage))
	b.WriteString("Weave the individual answers into a few well-structured paragraphs.\n\n")
	b.WriteString("Business plan so far:\n")
	b.WriteString(planContext(data))
	b.WriteString("\n")
	b.WriteString(languageLine(locale))
	return b.String()
}

// suggestionPrompt drafts an answer to the current stage's question on the
// user's behalf.
func suggestionPrompt(stage catalog.Stage, data plan.Data, locale plan.Locale, userHint string) string {
	var b strings.Builder
	b.WriteString("You are a startup business-plan consultant helping a founder answer a question. ")
	fmt.Fprintf(&b, "The current question is: %s\n\n", stagetext.Question(stage, locale))
	b.WriteString("Business plan so far:\n")
	b.WriteString(planContext(data))
	if userHint != "" {
		fmt.Fprintf(&b, "\nThe founder's most recent note: %s\n", userHint)
	}
	b.WriteString("\nDraft a strong answer the founder could use directly. ")
	b.WriteString("Write only the answer itself. ")
	b.WriteString(languageLine(locale))
	return b.String()
}

// refinePrompt rewrites existing text according to a free-text instruction.
func refinePrompt(original, instruction string, data plan.Data, locale plan.Locale) string {
	var b strings.Builder
	b.WriteString("You are a startup business-plan consultant. ")
	b.WriteString("Rewrite the text below according to the instruction, keeping it consistent with the business plan.\n\n")
	fmt.Fprintf(&b, "Text:\n%s\n\n", original)
	fmt.Fprintf(&b, "Instruction: %s\n\n", instruction)
	b.WriteString("Business plan so far:\n")
	b.WriteString(planContext(data))
	b.WriteString("\nWrite only the rewritten text. ")
	b.WriteString(languageLine(locale))
	return b.String()
}

// sectionName names the phase a summary stage closes, for prompt text.
func sectionName(stage catalog.Stage) string {
	if p := catalog.PhaseOf(stage); p != "" {
		return strings.ReplaceAll(strings.ToLower(string(p)), "_", " ")
	}
	return strings.ReplaceAll(strings.ToLower(string(stage)), "_", " ")
}
