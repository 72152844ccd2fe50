package assistant

import "fmt"

// SystemPrompt opens every new conversation.
const SystemPrompt = `You are the agency assistant for live creators and their managers.

MISSIONS:
- Premium copywriting (posts, scripts, emails, landing pages)
- Creator and client support (answers, FAQ, objections)
- Marketing (strategy, action plan)
- Training modules (outline, lessons, exercises, quizzes)

RULES:
1) If information is missing, ask at most 5 questions.
2) Always produce:
   - a SIMPLE version
   - a PREMIUM version
   - an action checklist
3) Style: clear, structured, ready to use.
4) Never invent numbers. If a number is missing, ask for it.`

// NewConversation returns a history holding only the system prompt.
func NewConversation() []Message {
	return []Message{{Role: RoleSystem, Content: SystemPrompt}}
}

// OfflineReply is the placeholder shown when the model is unavailable. It
// always starts with "OFFLINE MODE" so it cannot be mistaken for model output.
func OfflineReply(request string) string {
	return fmt.Sprintf(`OFFLINE MODE (assistant unavailable or quota reached).

### SIMPLE version
- Goal: clarify the request.
- Next step: tell me the audience, the channel and the expected result.

### PREMIUM version
- Angle: main benefit + proof + call to action.
- Structure: Hook -> Value -> Proof -> CTA.
- Add: objections, small proofs and a clear CTA.

### Checklist
- [ ] Audience defined
- [ ] Offer defined
- [ ] Channel (IG/TikTok/Email/...)
- [ ] Clear CTA
- [ ] Tone (premium / direct / friendly)

Request received: %s
`, request)
}
