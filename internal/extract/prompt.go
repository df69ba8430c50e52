package extract

import (
	"strings"
)

// buildExtractionPrompt constructs the strict-JSON instruction for one
// message. The known category names steer the model's category guess toward
// the user's own taxonomy without constraining it to an exact match.
func buildExtractionPrompt(rawText string, pc PromptContext) string {
	var b strings.Builder

	b.WriteString("You are a field extractor for a personal finance tracker.\n")
	b.WriteString("The user describes a single financial transaction in a short informal chat message.\n\n")

	b.WriteString("Task:\n")
	b.WriteString("- Decide whether the message describes exactly one financial transaction.\n")
	b.WriteString("- If it does, extract the fields below. Do not guess fields the message does not support.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a single JSON object.\n\n")

	b.WriteString("The object must have these fields:\n")
	b.WriteString("- \"found\": boolean, false when the message is not a transaction\n")
	b.WriteString("- \"reason\": string or null, short diagnostic when found is false\n")
	b.WriteString("- \"amount\": number or null (positive; keep a leading minus sign if the user wrote one)\n")
	b.WriteString("- \"direction\": \"expense\" or \"income\" or null when the message gives no cue\n")
	b.WriteString("- \"date\": string \"YYYY-MM-DD\" or null when the message names no date\n")
	b.WriteString("- \"category\": string or null, the user's own wording for what kind of spending/income this is\n")
	b.WriteString("- \"note\": string or null, the payee or memo remainder of the message\n\n")

	b.WriteString("Context:\n")
	b.WriteString("- Today is " + pc.ReferenceDate.Format("2006-01-02") + ". Resolve relative dates (\"yesterday\", \"last friday\") against it.\n")
	if pc.Currency != "" {
		b.WriteString("- Amounts are in " + pc.Currency + " unless the message says otherwise.\n")
	}
	if len(pc.KnownCategories) > 0 {
		b.WriteString("- The user already tracks these categories: " + strings.Join(pc.KnownCategories, ", ") + ".\n")
		b.WriteString("  Prefer one of them for \"category\" when it clearly fits, otherwise use the user's own words.\n")
	}
	b.WriteString("\n")

	b.WriteString("Rules:\n")
	b.WriteString("- A plus sign or words like \"salary\", \"received\", \"earned\" indicate income.\n")
	b.WriteString("- Never invent an amount. If no amount is present, set \"amount\" to null.\n")
	b.WriteString("- Return ONLY valid raw JSON.\n")
	b.WriteString("- Do NOT wrap the response in code fences.\n")
	b.WriteString("- Do NOT use ```json or any Markdown.\n")
	b.WriteString("- Output must begin with \"{\" and end with \"}\".\n\n")

	b.WriteString("Message:\n")
	b.WriteString(rawText)
	b.WriteString("\n")

	return b.String()
}
