package service

import (
	"fmt"
	"strings"

	"github.com/inkpress-ai/inkpress/internal/domain/article"
)

// buildResearchPrompt asks the model for an outline plus key facts. The
// research output feeds the draft prompt verbatim.
func buildResearchPrompt(p article.Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research the topic %q for a long-form article.\n", p.Topic)
	if p.Audience != "" {
		fmt.Fprintf(&b, "The audience is: %s.\n", p.Audience)
	}
	if len(p.Keywords) > 0 {
		fmt.Fprintf(&b, "Cover these keywords: %s.\n", strings.Join(p.Keywords, ", "))
	}
	b.WriteString("Produce a structured outline with section headings, " +
		"key facts and figures per section, and suggested concrete examples. " +
		"Do not write the article itself.")
	return b.String()
}

func buildDraftPrompt(p article.Params, research string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a complete article on %q in Markdown.\n", p.Topic)
	fmt.Fprintf(&b, "Target length: about %d words.\n", p.TargetWordCount)
	if p.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s.\n", p.Audience)
	}
	if p.Style != "" {
		fmt.Fprintf(&b, "Style: %s.\n", p.Style)
	}
	if p.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s.\n", p.Tone)
	}
	b.WriteString("Start with a single # title line, use ## section headings, " +
		"include concrete examples, end with a conclusion and a call to action.\n\n")
	b.WriteString("Use this research:\n\n")
	b.WriteString(research)
	return b.String()
}

// buildRefinePrompt feeds the current draft back together with the rubric
// deficiencies so the model fixes what failed instead of rewriting blindly.
func buildRefinePrompt(p article.Params, body string, deficiencies []article.Deficiency) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Revise the following article on %q. Target length: about %d words.\n", p.Topic, p.TargetWordCount)
	b.WriteString("Fix these specific problems, keeping everything that already works:\n")
	for _, d := range deficiencies {
		fmt.Fprintf(&b, "- %s: %s\n", d.Dimension, d.Detail)
	}
	b.WriteString("\nReturn the full revised article in Markdown.\n\n")
	b.WriteString(body)
	return b.String()
}

// buildSEOPrompt asks for publish metadata as a bare JSON object.
func buildSEOPrompt(p article.Params, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate SEO metadata for this article on %q.\n", p.Topic)
	b.WriteString(`Respond with a JSON object only, no prose: {"seo_title": "...", "seo_description": "...", "tags": ["..."]}` + "\n")
	b.WriteString("The description must be under 160 characters and at most 5 tags.\n\n")
	b.WriteString(body)
	return b.String()
}

func buildFinalizePrompt(p article.Params, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Copy-edit this article on %q for publication.\n", p.Topic)
	b.WriteString("Fix typos, grammar, and formatting only. Do not restructure, " +
		"shorten, or add content. Return the full article in Markdown.\n\n")
	b.WriteString(body)
	return b.String()
}
