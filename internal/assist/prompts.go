package assist

import (
	"fmt"
	"strings"
)

const rewriteSystem = "You are an accessibility rewriting assistant for readers with ADHD, dyslexia, or autism. Rewrite the user's text as instructed. Preserve the meaning and every factual detail. Return ONLY the rewritten text with no preamble, no quotes, and no commentary."

const detectSystem = `You detect idioms in sentences. Respond with strict JSON only, no narration. The JSON schema is {"hasIdiom": boolean, "idiom": string, "literal": string}. "idiom" is the exact figurative phrase as it appears in the sentence, "literal" is its plain meaning. When there is no idiom, set hasIdiom to false and leave the other fields empty.`

func simplifyInstruction(level string) string {
	switch level {
	case LevelELI5:
		return "Rewrite this so a five year old could understand it. Use very short sentences and only common words."
	case LevelELI10:
		return "Rewrite this so a ten year old could understand it. Use short sentences and everyday words."
	case LevelELI15:
		return "Rewrite this so a fifteen year old could understand it. Keep it clear and direct."
	case LevelCollege:
		return "Rewrite this for a college reader. Keep the nuance but remove needless complexity."
	case LevelElementary:
		return "Rewrite this at an elementary reading level with simple vocabulary."
	default:
		return "Rewrite this in plain, simple language."
	}
}

func toneInstruction(tone string) string {
	switch tone {
	case ToneFormal:
		return "Rewrite this in a formal, professional tone."
	case ToneCasual:
		return "Rewrite this in a casual, conversational tone."
	case ToneEncouraging:
		return "Rewrite this in a warm, encouraging tone."
	default:
		return "Rewrite this in a neutral, even tone."
	}
}

func summarizeInstruction(opts SummarizeOpts) string {
	var sb strings.Builder
	switch opts.Type {
	case "headline":
		sb.WriteString("Write a one-line headline summary of this text.")
	case "teaser":
		sb.WriteString("Write a short teaser summary of this text.")
	case "tl;dr", "tldr":
		sb.WriteString("Write a tl;dr summary of this text.")
	default:
		sb.WriteString("Summarize the key points of this text.")
	}
	switch opts.Length {
	case "short":
		sb.WriteString(" Keep it to two or three sentences.")
	case "long":
		sb.WriteString(" Cover every major point.")
	}
	if opts.Format == "markdown" || opts.Format == "" {
		sb.WriteString(" Use markdown bullet points where they help.")
	} else {
		sb.WriteString(" Use plain text only.")
	}
	return sb.String()
}

func userPrompt(instruction, text string) string {
	return instruction + "\n\nText:\n" + text
}

func explainTermPrompt(term, sentence string) string {
	return fmt.Sprintf("Explain the word %q in one or two plain sentences, as used here: %q. Return only the explanation.", term, sentence)
}

func explainIdiomPrompt(idiom string) string {
	return fmt.Sprintf("Explain the idiom %q in one plain sentence. Return only the explanation.", idiom)
}
