// Package blueprint holds the static catalog of agent templates offered by the
// creation dialog.
package blueprint

// KnowledgeBase is a document embedded in a blueprint.
type KnowledgeBase struct {
	FileName string
	Content  string
}

// Blueprint is an immutable agent template.
type Blueprint struct {
	Key          string
	Title        string
	Description  string
	AgentName    string
	Instructions string
	EnableHTTP   bool
	EnableEmail  bool
	// KnowledgeBase is nil when the blueprint carries no document.
	KnowledgeBase *KnowledgeBase
}

// Custom reports whether b is the blank "custom agent" sentinel.
func (b Blueprint) Custom() bool { return b.Key == "" }

const jokeInstructions = "You are a friendly comedian. Answer every message with a short, " +
	"family-friendly joke related to what the user said. Keep replies under three sentences " +
	"and never explain the punchline."

const supportInstructions = "You are a customer support agent for Acme Cloud. Answer questions " +
	"using the attached FAQ. If the FAQ does not cover the question, say so politely and offer " +
	"to escalate to a human by collecting the user's email address."

const researcherInstructions = "You are a research assistant. When the user asks about a topic, " +
	"use the HTTP action to fetch relevant public web pages, then summarize the findings in a few " +
	"bullet points and list the URLs you used."

const emailInstructions = "You are an email assistant. Help the user draft concise, professional " +
	"emails. When the user confirms a draft, use the email action to send it and report back the " +
	"recipient and subject line."

const supportFAQ = `Acme Cloud FAQ

Q: How do I reset my password?
A: Open the sign-in page, choose "Forgot password" and follow the link we email you.

Q: Which regions are available?
A: us-east, us-west, eu-central and ap-southeast.

Q: How is usage billed?
A: Usage is billed monthly per request. The console shows month-to-date and year-to-date totals.

Q: How do I cancel my plan?
A: Go to Billing, choose "Cancel plan". Your agents keep running until the end of the period.
`

// catalog is ordered; the first entry is the custom sentinel.
var catalog = []Blueprint{
	{
		Key:         "",
		Title:       "Custom Agent",
		Description: "Start from a blank agent.",
	},
	{
		Key:          "joke",
		Title:        "Joke Agent",
		Description:  "Replies to everything with a short joke.",
		AgentName:    "JokeAgent",
		Instructions: jokeInstructions,
	},
	{
		Key:          "support",
		Title:        "Customer Support Agent",
		Description:  "Answers questions from an attached FAQ document.",
		AgentName:    "SupportAgent",
		Instructions: supportInstructions,
		KnowledgeBase: &KnowledgeBase{
			FileName: "acme-faq.txt",
			Content:  supportFAQ,
		},
	},
	{
		Key:          "researcher",
		Title:        "Web Researcher",
		Description:  "Fetches web pages over HTTP and summarizes them.",
		AgentName:    "WebResearcher",
		Instructions: researcherInstructions,
		EnableHTTP:   true,
	},
	{
		Key:          "email",
		Title:        "Email Assistant",
		Description:  "Drafts and sends emails on request.",
		AgentName:    "EmailAssistant",
		Instructions: emailInstructions,
		EnableEmail:  true,
	},
}

// All returns the catalog in display order. The returned slice is a copy.
func All() []Blueprint {
	out := make([]Blueprint, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the blueprint registered under key. The empty key resolves
// to the custom sentinel.
func Lookup(key string) (Blueprint, bool) {
	for _, b := range catalog {
		if b.Key == key {
			return b, true
		}
	}
	return Blueprint{}, false
}

// Keys lists every non-custom key in display order.
func Keys() []string {
	keys := make([]string, 0, len(catalog)-1)
	for _, b := range catalog {
		if !b.Custom() {
			keys = append(keys, b.Key)
		}
	}
	return keys
}
