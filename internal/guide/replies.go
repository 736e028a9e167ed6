package guide

import "github.com/rishi-ai/orchestrator/internal/story/model"

// Reply is one guide chat turn back to the user.
type Reply struct {
	ReplyText string           `json:"reply_text"`
	Questions []string         `json:"questions"`
	Citations []model.Citation `json:"citations"`
	Persona   string           `json:"persona_selected"`
}

const followUpQuestion = "What is your one tiny step today?"

// cannedReply is the deterministic per-persona response used whenever no
// chat model is wired or the model call fails.
func cannedReply(persona string) Reply {
	switch persona {
	case model.PersonaKrishna:
		return Reply{
			ReplyText: "Act from a quiet mind. Let results be light. " +
				"What small action can you take now, if results did not matter?",
			Questions: []string{followUpQuestion},
			Citations: []model.Citation{{Work: "Bhagavad Gita", Ref: "2.47"}},
			Persona:   persona,
		}
	case model.PersonaJiddu:
		return Reply{
			ReplyText: "Can you look at the worry without pushing it away? " +
				"Just see it, like a cloud. What do you notice now?",
			Questions: []string{followUpQuestion},
			Citations: []model.Citation{},
			Persona:   persona,
		}
	case model.PersonaPatanjali:
		return Reply{
			ReplyText: "Let us link breath and mind. Take one slow breath. " +
				"What tiny step feels kind after that breath?",
			Questions: []string{followUpQuestion},
			Citations: []model.Citation{},
			Persona:   persona,
		}
	default:
		return Reply{
			ReplyText: "Thank you for sharing. We will go step by step. " +
				"What is one tiny action you can try in 10 minutes?",
			Questions: []string{followUpQuestion},
			Citations: []model.Citation{},
			Persona:   persona,
		}
	}
}

// StoryQA answers a question about the composed story. It keeps to the
// story's central teaching and always asks one gentle follow-up.
func StoryQA() Reply {
	return Reply{
		ReplyText: "This story teaches: act with a calm mind; let go of results. " +
			"Which tiny step fits your life today?",
		Questions: []string{followUpQuestion},
		Citations: []model.Citation{{Work: "Bhagavad Gita", Ref: "2.47"}},
	}
}
