package classifier

import (
	"fmt"
	"strings"

	"github.com/gthalib/tulip/plugin/ai/dispatch"
	"github.com/gthalib/tulip/plugin/ai/provider"
	"github.com/gthalib/tulip/plugin/ai/timeout"
	"github.com/gthalib/tulip/store"
)

const systemPrompt = `You are a helpful personal assistant bot. Reply ONLY with a JSON object.`

// buildRequest assembles the structured prompt: the dispatch-tree vocabulary,
// the user's current position in it, the output contract, and the new
// message. Recent history rides along as native conversation turns.
func buildRequest(tree *dispatch.Tree, session *store.Session, message string) *provider.Request {
	var b strings.Builder
	b.WriteString("Analyze the following message for a personal assistant bot.\n")
	b.WriteString("The hierarchy is:\n")
	b.WriteString(tree.Vocabulary())
	fmt.Fprintf(&b, "\nUser is CURRENTLY in: Module=%s, Submodule=%s\n\n",
		session.ActiveModule, session.ActiveSubmodule)
	b.WriteString(`Instructions:
1. Decide the appropriate Module, Submodule, and Intent.
2. Generate a friendly, helpful reply.
3. If the user refers to values from previous messages (e.g., "the last two numbers"), EXTRACT those values from the conversation history.
4. Action mapping for Settings (REQUIRED if intent involves changing data):
   - "Create whitelist" -> {"type": "add_whitelist", "value": "phone number"}
   - "Delete whitelist" -> {"type": "remove_whitelist", "value": "phone number"}
   - To change MULTIPLE things, include MULTIPLE action objects in the list.

Reply with ONLY a JSON object:
{
  "module": "...",
  "submodule": "...",
  "intent": "...",
  "reply": "Friendly response",
  "actions": [{"type": "add_whitelist", "value": "628..."}]
}
The "actions" list can be empty.

`)
	fmt.Fprintf(&b, "New Message: %s", message)

	return &provider.Request{
		System:  systemPrompt,
		History: recentHistory(session, timeout.MaxHistoryInPrompt),
		Prompt:  b.String(),
	}
}

// recentHistory returns the last n history entries as provider messages.
func recentHistory(session *store.Session, n int) []provider.Message {
	entries := session.History
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}

	messages := make([]provider.Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, provider.Message{
			Role:    entry.Role,
			Content: entry.Content,
		})
	}
	return messages
}
