package tour

// Flag names a gating boolean consulted by forward navigation.
type Flag string

// Gating flags.
const (
	FlagBlueprintInteracted Flag = "blueprintInteracted"
	FlagAgentCreated        Flag = "agentCreated"
	FlagChatOpened          Flag = "chatOpened"
	FlagAgentDeployed       Flag = "agentDeployed"
)

// AllFlags lists the known flags.
var AllFlags = []Flag{FlagBlueprintInteracted, FlagAgentCreated, FlagChatOpened, FlagAgentDeployed}

func validFlag(f Flag) bool {
	for _, known := range AllFlags {
		if f == known {
			return true
		}
	}
	return false
}

// Step indices.
const (
	StepWelcome = iota
	StepOpenCreate
	StepSelectBlueprint
	StepReviewBlueprint
	StepCreateAgent
	StepAgentList
	StepOpenChat
	StepDeploy
	StepFinish
)

// Step is one stop of the walkthrough. Gate, when set, must be true before
// Next leaves the step during the first run.
type Step struct {
	Index int
	ID    string
	Title string
	Body  string
	Gate  Flag
}

var steps = []Step{
	{StepWelcome, "welcome", "Welcome",
		"This console lets you build AI agents, chat with them, and share them. The tour takes about two minutes.", ""},
	{StepOpenCreate, "open-create", "Create an agent",
		"Start by opening the creation dialog with `create`.", ""},
	{StepSelectBlueprint, "select-blueprint", "Pick a blueprint",
		"Blueprints pre-fill a name, instructions, and capabilities. Choose one with `blueprint <key>`, or press next to start from scratch.", ""},
	{StepReviewBlueprint, "review-blueprint", "Review the draft",
		"Check the name and instructions. Edit them with `name` and `instructions`, toggle actions with `http` and `email`.", ""},
	{StepCreateAgent, "create-agent", "Submit",
		"Run `submit`. The agent is registered, prepared, and given a chat alias. This can take a minute.", FlagAgentCreated},
	{StepAgentList, "agent-list", "Your agents",
		"`agents` lists everything you own, with usage for this month and year.", ""},
	{StepOpenChat, "open-chat", "Say hello",
		"Open a conversation with `chat <agent>`.", FlagChatOpened},
	{StepDeploy, "deploy", "Go public",
		"`deploy <agent>` publishes a link anyone can chat through. `revoke <agent>` takes it down.", FlagAgentDeployed},
	{StepFinish, "finish", "All set",
		"That's the tour. Reopen it any time with `tour`.", ""},
}

// Steps returns the ordered steps.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// StepCount is the number of steps.
func StepCount() int { return len(steps) }
