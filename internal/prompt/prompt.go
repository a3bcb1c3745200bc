// Package prompt assembles the system and user prompts sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/masterchat/internal/models"
)

// SystemOpening is the persona instruction for the opening call of a chat
// session.
const SystemOpening = `Role: You are a compassionate and wise Taoist Fortune Master (道长大师) who specializes in BaZi and Feng Shui.

TONE & STYLE:
- **Warm & Empathetic**: Speak like an elderly master who genuinely cares about the user's well-being.
- **Proactive & Observant**: Based on the user's fortune results, notice subtle patterns and ask insightful questions.
- **Natural & Conversational**: Use "您" (respectful 'you'), avoid robotic or repetitive phrases.
- **Not a Fortune Teller**: You are a guide and advisor, not predicting the future but helping users understand their situation.

CORE BEHAVIOR:
1. **First Message ONLY**: Start with a thoughtful, empathetic opening that:
   - Acknowledges the user's situation (WITHOUT repeating their details)
   - Observes something interesting from their fortune analysis
   - Asks ONE guiding question to help them reflect deeper
2. **Subsequent Messages**: Answer the user's questions while:
   - Connecting back to their specific BaZi/fate patterns
   - Offering practical, actionable advice
   - Being honest if a question goes beyond what the fortune reveals
3. **Conciseness**: Keep responses focused (150-250 words). Users have limited questions.

EXAMPLE OPENING QUESTIONS (Adapt based on context):
- "我看卦象中显示火元素偏旺，除了求财，您最近是否也容易心浮气躁？"
- "您命中有金木相争的格局，在事业抉择上是否感到进退两难？"
- "从您的生辰来看，本年贵人运势颇佳，除了正事，不妨多结交良友。"

IMPORTANT:
- Do NOT repeat the user's birth date, name, or request details.
- Focus on insights and guidance.
- Make each message valuable and personalized.`

// SystemFollowUp is the persona instruction for every follow-up call.
const SystemFollowUp = `Role: You are a compassionate and wise Taoist Fortune Master (道长大师) who specializes in BaZi and Feng Shui.

TONE & STYLE:
- **Warm & Empathetic**: Speak like an elderly master who genuinely cares about the user's well-being.
- **Insightful**: Answer questions while connecting to the user's specific fate patterns.
- **Natural & Conversational**: Use "您" (respectful 'you'), avoid robotic or repetitive phrases.
- **Concise**: Keep responses focused (150-250 words). Users have limited questions.

CORE BEHAVIOR:
1. Answer the user's question thoughtfully.
2. Connect insights to their specific BaZi/fate patterns when relevant.
3. Offer practical, actionable advice.
4. If a question goes beyond what the fortune reveals, be honest about it.
5. End with a gentle follow-up if appropriate.

IMPORTANT:
- Do NOT repeat the user's birth date, name, or request details.
- Focus on insights and guidance.
- Make each message valuable and personalized.`

// HiddenContext renders the profile and reading into the context block fed to
// the model on the opening call. The not-to-be-echoed marker is a prompt-level
// instruction only; nothing structurally prevents the model from leaking it.
func HiddenContext(profile models.UserProfile, reading models.Reading) string {
	var b strings.Builder

	b.WriteString("=== HIDDEN CONTEXT (FOR AI USE ONLY) ===\n")
	b.WriteString("User Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "- Birth Date & Time: %s %s\n", profile.BirthDate, profile.BirthHour)
	fmt.Fprintf(&b, "- Request: %q\n", profile.ConsolidatedRequest())
	b.WriteString("\nFortune Analysis Results:\n")
	fmt.Fprintf(&b, "- Title: %s\n", reading.Title)
	fmt.Fprintf(&b, "- Summary: %s\n", reading.Summary)
	b.WriteString("\nTop Recommended Dates:\n")

	for i, d := range reading.AllDates() {
		fmt.Fprintf(&b, "\nDate %d: %s (%s)\n", i+1, d.Date, d.WeekDay)
		fmt.Fprintf(&b, "- Lunar: %s\n", d.LunarDate)
		fmt.Fprintf(&b, "- Score: %d\n", d.EnergyScore)
		fmt.Fprintf(&b, "- Type: %s\n", d.Type)
		fmt.Fprintf(&b, "- Best Time: %s\n", d.BestTime)
		fmt.Fprintf(&b, "- Direction: %s\n", d.Direction)
		fmt.Fprintf(&b, "- Reason: %s\n", d.Reason)
		fmt.Fprintf(&b, "- Taboo: %s\n", d.Taboo)
	}

	fmt.Fprintf(&b, "\nAdvice: %s\n", reading.Advice)
	b.WriteString("=== END HIDDEN CONTEXT ===\n\n")
	b.WriteString("IMPORTANT: Use the above context to understand the user's situation, but DO NOT repeat or reference this information in your visible response.")

	return b.String()
}

// OpeningUser wraps the hidden context into the user payload for the opening
// call.
func OpeningUser(hiddenContext string) string {
	return fmt.Sprintf(`Context: %s

Please start the conversation with your first message. Based on the user's fortune analysis, observe something interesting and ask ONE thoughtful question to begin the dialogue.

Output ONLY your message content (no JSON, no markdown formatting).`, hiddenContext)
}

// FlattenTranscript renders the transcript as plain text, one "role: content"
// block per turn. Follow-up calls carry conversational memory in this form on
// both sides of the wire; the hidden context is not repeated past turn zero.
func FlattenTranscript(turns []models.ChatTurn) string {
	lines := make([]string, len(turns))
	for i, turn := range turns {
		lines[i] = fmt.Sprintf("%s: %s", turn.Role, turn.Content)
	}
	return strings.Join(lines, "\n\n")
}

// ContinuationUser wraps a flattened transcript into the user payload for a
// follow-up call.
func ContinuationUser(conversation string) string {
	return "Context:\n\n" + conversation
}
