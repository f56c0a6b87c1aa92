// Package agents defines the five production tutoring agents: their
// static configuration, fixed (non-LLM) handlers, and answer grading.
// It mirrors the teacher's internal/multiagent AgentDefinition registry,
// trimmed to a fixed roster instead of a configurable handoff graph.
package agents

import "github.com/noble-ngs/tutor-runtime/pkg/tutor"

const (
	toolGenerateQuestion = "hybrid_orchestrator.generate"
	toolCheckCalculation = "sandbox.check_calculation"
	toolGenerateDiagram  = "sandbox.generate_diagram"
	toolListCatalog      = "curriculum.list_catalog"
)

// Registry is the static, process-wide configuration for every agent,
// keyed by name. Agents share no mutable state; everything variable for
// a turn lives in TurnState or the reply built for that turn.
var Registry = map[tutor.AgentName]tutor.AgentConfig{
	tutor.AgentTeach: {
		Name: tutor.AgentTeach,
		Persona: tutor.Persona{
			Label: "Teach",
			Emoji: "📘",
			Color: "#2563eb",
		},
		SystemPrompt: teachSystemPrompt,
		AllowedTools: []string{toolGenerateDiagram, toolCheckCalculation},
		Temperature:  0.4,
		TokenBudget:  700,
	},
	tutor.AgentPractice: {
		Name: tutor.AgentPractice,
		Persona: tutor.Persona{
			Label: "Practice",
			Emoji: "✏️",
			Color: "#16a34a",
		},
		SystemPrompt: practiceSystemPrompt,
		AllowedTools: []string{toolGenerateQuestion, toolCheckCalculation},
		Temperature:  0.3,
		TokenBudget:  500,
	},
	tutor.AgentChallenge: {
		Name: tutor.AgentChallenge,
		Persona: tutor.Persona{
			Label: "Challenge",
			Emoji: "🔥",
			Color: "#dc2626",
		},
		SystemPrompt: challengeSystemPrompt,
		AllowedTools: []string{toolGenerateQuestion},
		Temperature:  0.5,
		TokenBudget:  500,
	},
	tutor.AgentWellbeing: {
		Name: tutor.AgentWellbeing,
		Persona: tutor.Persona{
			Label: "Wellbeing",
			Emoji: "💚",
			Color: "#0d9488",
		},
		SystemPrompt: wellbeingSystemPrompt,
		AllowedTools: nil,
		Temperature:  0.6,
		TokenBudget:  300,
	},
	tutor.AgentPlan: {
		Name: tutor.AgentPlan,
		Persona: tutor.Persona{
			Label: "Plan",
			Emoji: "🗓️",
			Color: "#7c3aed",
		},
		SystemPrompt: planSystemPrompt,
		AllowedTools: []string{toolListCatalog},
		Temperature:  0.3,
		TokenBudget:  600,
	},
}

const teachSystemPrompt = `You are Veda, a Socratic mathematics tutor for secondary-school students.
Explain concepts step by step, asking guiding questions before giving the
full answer. Use the diagram tool when a figure would clarify a geometry
concept, and the calculation-check tool to verify any arithmetic you state
before presenting it as fact. Keep explanations concise and encouraging.`

const practiceSystemPrompt = `You deliver practice questions and grade student answers.
Use hybrid_orchestrator.generate to obtain a question when one is needed.
Never compute or state a final answer yourself; the question's final_answer
field is authoritative. When grading, give a hint from the question's hint
list on a wrong answer rather than revealing the answer.`

const challengeSystemPrompt = `You deliver harder practice questions with high-energy, motivating framing.
Use hybrid_orchestrator.generate biased toward high difficulty. Celebrate
effort and frame mistakes as part of leveling up.`

const wellbeingSystemPrompt = `You respond with a short, empathetic reply to a student who seems stressed,
anxious, or discouraged. You have no math tools and must not attempt to
teach or grade anything in this turn; just listen and reassure.`

const planSystemPrompt = `You produce a study schedule from the stored curriculum catalog and the
student's progress summary. Use curriculum.list_catalog to read which
concepts, mark values, and difficulties the catalog covers before
proposing a schedule. You have read-only access to the curriculum
catalog; you cannot generate or grade questions in this role.`
