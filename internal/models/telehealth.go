// internal/models/telehealth.go
package models

import "strings"

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ConversationTurn is one message of the chat history.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IsUser matches the user role case-insensitively.
func (t ConversationTurn) IsUser() bool {
	return strings.EqualFold(string(t.Role), string(RoleUser))
}

// LatestUserTurn returns the most recent user turn.
func LatestUserTurn(turns []ConversationTurn) (ConversationTurn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].IsUser() {
			return turns[i], true
		}
	}
	return ConversationTurn{}, false
}

// JoinContents concatenates every turn's content with newlines.
func JoinContents(turns []ConversationTurn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, t.Content)
	}
	return strings.Join(parts, "\n")
}

// SourceRecord is a citable document. ExternalID is the dedupe key and is
// serialized as "pmid" for wire compatibility with existing clients.
type SourceRecord struct {
	Title      string `json:"title"`
	ExternalID string `json:"pmid"`
	URL        string `json:"url"`
	Content    string `json:"content"`
}

// EvidenceItem is one question/answer record backed by sources.
type EvidenceItem struct {
	Question        string         `json:"question"`
	Answer          string         `json:"answer"`
	PublicationDate string         `json:"publication_date,omitempty"`
	Population      string         `json:"population,omitempty"`
	Sources         []SourceRecord `json:"sources"`
}

// Outcome classifies how a telehealth turn ended.
type Outcome string

const (
	OutcomeAnswered           Outcome = "answered"
	OutcomeNoUserInput        Outcome = "no_user_input"
	OutcomeNoQueriesExtracted Outcome = "no_queries_extracted"
	OutcomeNoEvidenceFound    Outcome = "no_evidence_found"
)

// Message returns the user-facing reason for a terminal outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeNoUserInput:
		return "No user message found"
	case OutcomeNoQueriesExtracted:
		return "No medical queries identified"
	case OutcomeNoEvidenceFound:
		return "No relevant medical information found"
	default:
		return ""
	}
}

// IsTerminal reports whether the outcome short-circuits the pipeline.
func (o Outcome) IsTerminal() bool {
	return o != OutcomeAnswered && o != ""
}

// TelehealthResult is the answer to one conversation turn. Evaluation is
// attached once, after scoring.
type TelehealthResult struct {
	Response     string         `json:"response"`
	Sources      []SourceRecord `json:"sources"`
	EvidenceUsed []EvidenceItem `json:"faqs"`
	Evaluation   *Evaluation    `json:"evaluation"`
	Outcome      Outcome        `json:"outcome"`
}

// Disclaimer closes every user-facing response, terminal ones included.
const Disclaimer = "Remember: This information is for educational purposes only. Always consult with your healthcare provider for personalized medical advice."

// NewTerminalResult builds the apologetic response for a terminal outcome.
func NewTerminalResult(outcome Outcome) *TelehealthResult {
	return &TelehealthResult{
		Response: "I apologize, but I encountered an issue: " + outcome.Message() +
			". Please try rephrasing your question or consult with your healthcare provider. " + Disclaimer,
		Sources:      []SourceRecord{},
		EvidenceUsed: []EvidenceItem{},
		Outcome:      outcome,
	}
}
