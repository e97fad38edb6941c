package chat

import (
	"fmt"
	"strings"
)

var prefixes = map[string][]string{
	"medicare": {
		"I'll help you with Medicare-related information. ",
		"Regarding your Medicare query: ",
		"Here's what I found about Medicare: ",
	},
	"tech": {
		"Let me assist you with that technical question. ",
		"From a technical perspective: ",
		"Here's the technical solution: ",
	},
	"strategy": {
		"Let's think strategically about this. ",
		"From a strategic standpoint: ",
		"Here's my strategic analysis: ",
	},
	"general": {
		"I'd be happy to help with that. ",
		"Let me assist you: ",
		"Here's my response: ",
	},
}

const fallbackPrefix = "Let me help you with that. "

// Reply builds the assistant's answer to message in sessionID. pick selects one of the
// session's prefixes; out-of-range picks fall back to the generic prefix.
func Reply(sessionID, message string, pick func(n int) int) string {
	prefix := fallbackPrefix
	if options, ok := prefixes[sessionID]; ok {
		if i := pick(len(options)); i >= 0 && i < len(options) {
			prefix = options[i]
		}
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "status"):
		return prefix + "I'm currently working on optimizing your workflow and monitoring various systems. All systems are operational."
	case strings.Contains(lower, "help"):
		return prefix + "I can assist you with various tasks including system monitoring, data analysis, workflow automation, and strategic planning. What would you like help with?"
	case sessionID == "medicare" && strings.Contains(lower, "lead"):
		return prefix + "The Medicare lead scoring system is operational. Current pipeline shows 15 high-quality leads with scores above 80. Would you like me to provide detailed analytics?"
	case sessionID == "tech" && strings.Contains(lower, "deploy"):
		return prefix + "Deployment status: All systems are green. The multi-chat interface is being integrated with the dashboard. Railway deployment will be completed shortly."
	default:
		return prefix + fmt.Sprintf("I understand you're asking about \"%s\". Let me process this and provide you with relevant information. This %s conversation context is maintained separately from other sessions.", message, sessionID)
	}
}
