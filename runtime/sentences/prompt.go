package sentences

import (
	"fmt"
	"strings"
)

// System messages sent with each request.
const (
	batchSystemPrompt  = "You are a helpful assistant that generates training sentences for TTS systems. Always respond with valid JSON arrays only."
	singleSystemPrompt = "You generate single sentences. Respond with just the sentence."
)

// buildBatchPrompt asks for count sentences containing word verbatim, listing
// negatives as sentences the model must not repeat or paraphrase.
func buildBatchPrompt(word string, count int, language, domain string, negatives []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s language expert. Generate exactly %d natural %s sentences that include the term \"%s\".\n\n",
		language, count, language, word)

	b.WriteString("CRITICAL REQUIREMENTS:\n")
	fmt.Fprintf(&b, "- Use the EXACT term \"%s\" in every sentence, with the same capitalization and spelling. Do not inflect, translate or split it.\n", word)
	b.WriteString("- The term may be a multi-word phrase; keep it intact.\n")
	b.WriteString("- Each sentence must be 8-20 words long.\n")
	b.WriteString("- Use the term in different grammatical contexts.\n")
	b.WriteString("- Sentences must sound natural and conversational.\n")
	b.WriteString("- Sentences must be suitable for voice synthesis: no lists, abbreviations or special symbols.\n")
	b.WriteString("- Place the term at different positions: beginning, middle and end.\n")
	b.WriteString("- Vary sentence structure and length.\n")
	if domain != "" {
		fmt.Fprintf(&b, "- The sentences should be related to the %s domain.\n", domain)
	}

	if len(negatives) > 0 {
		b.WriteString("\nIMPORTANT: Do NOT repeat or paraphrase these existing sentences:\n")
		for _, s := range negatives {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	b.WriteString("\nReturn ONLY a valid JSON array of strings, with no explanation or markdown.\n")
	b.WriteString("Example format: [\"First sentence.\", \"Second sentence.\"]")
	return b.String()
}

// buildSinglePrompt asks for one sentence that differs from every existing one.
func buildSinglePrompt(word, language, domain string, existing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate ONE new %s sentence containing the term \"%s\" exactly as written.\n", language, word)
	b.WriteString("The sentence must be natural, 8-20 words long and suitable for voice synthesis.\n")
	if domain != "" {
		fmt.Fprintf(&b, "The sentence should be related to the %s domain.\n", domain)
	}
	if len(existing) > 0 {
		b.WriteString("\nIt must be different from all of these sentences:\n")
		for _, s := range existing {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	b.WriteString("\nReturn ONLY the sentence text.")
	return b.String()
}

// lastN returns at most the n most recent entries of s.
func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
