package replica

import (
	"fmt"
	"strings"

	"github.com/echotwin/echotwin/internal/model/archive"
)

// summarySeparator joins chunk summaries into the combined summary.
const summarySeparator = "\n---\n"

// renderChunk flattens a chunk into "sender: content" lines for the prompt.
func renderChunk(messages []archive.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, msg.SenderName+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

func chunkSummaryPrompt(persona, counterpart, chunkText string) string {
	return fmt.Sprintf(`For the following conversation chunk, please perform a detailed analysis and generate a comprehensive summary focusing on:

1. **Messaging Style**: Describe the vocabulary, tone, emoji use, sentence structure, and punctuation. Highlight any unique linguistic features, such as idiomatic expressions and frequently used phrases.

2. **Behavioral Patterns**: Analyze how %[1]s responds to different types of interactions, including greetings, questions, jokes, and serious topics. Note any changes in tone or style based on the context.

3. **Emotional Tone**: Provide a sentiment reading for each message, indicating whether the tone is positive, neutral, or negative.

4. **Contextual Understanding**: Ensure continuity in the conversation by understanding the relationship dynamics between %[1]s and %[2]s. Include any relevant background information that might influence the conversation.

5. **Unique Observations**: Identify any unique or notable events, jokes, or recurring themes in the conversation.

Conversation chunk:
%[3]s`, persona, counterpart, chunkText)
}

func stylePrompt(persona, combined string) string {
	return fmt.Sprintf("Based on the following combined summaries, analyze %s's messaging style. Focus on vocabulary, sentence structure, punctuation, emotional tone, and emoji usage. Provide a comprehensive analysis that captures their authentic voice.\n\n%s", persona, combined)
}

func relationshipPrompt(persona, counterpart, combined string) string {
	return fmt.Sprintf("Based on the following combined summaries, describe the relationship, dynamic, and interaction style between %s and %s. Summarize the key aspects of their relationship that define their connection.\n\n%s", counterpart, persona, combined)
}

func patternsPrompt(persona, combined string) string {
	return fmt.Sprintf("Based on the following combined summaries, extract %s's communication patterns.\n\n%s", persona, combined)
}

func rulesPrompt(persona, combined string) string {
	return fmt.Sprintf("Based on the following combined summaries, create specific behavioral rules for how %s responds in different situations.\n\n%s", persona, combined)
}

func psychologyPrompt(persona, combined string) string {
	return fmt.Sprintf("Based on the following combined summaries, analyze %s's psychological profile, thinking patterns, and personality.\n\n%s", persona, combined)
}
