// Package draft holds the creation dialog's scratch state and the pure
// operations applied to it.
package draft

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/soyeahso/agentconsole/internal/blueprint"
	"github.com/soyeahso/agentconsole/internal/domain"
)

// MinInstructionsLength is the shortest instruction text the gateway accepts.
const MinInstructionsLength = 40

// Draft is the in-progress agent being edited in the creation dialog.
type Draft struct {
	Name         string
	Instructions string
	EnableHTTP   bool
	EnableEmail  bool
	// File is a local path to upload as the knowledge base. Empty means none.
	File string
	// BlueprintKey is the selected template; empty means "custom".
	BlueprintKey string
}

// Empty returns the pristine draft a freshly opened dialog starts with.
func Empty() Draft { return Draft{} }

// ApplyTemplate returns the draft produced by selecting b. A nil or custom
// blueprint resets to Empty. Selection always overwrites every field.
func ApplyTemplate(_ Draft, b *blueprint.Blueprint) Draft {
	if b == nil || b.Custom() {
		return Empty()
	}
	return Draft{
		Name:         b.AgentName,
		Instructions: b.Instructions,
		EnableHTTP:   b.EnableHTTP,
		EnableEmail:  b.EnableEmail,
		BlueprintKey: b.Key,
	}
}

// ValidationError is a local pre-flight failure. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the raw draft fields.
func Validate(d Draft) error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Message: "agent name is required"}
	}
	if strings.TrimSpace(d.Instructions) == "" {
		return &ValidationError{Field: "instructions", Message: "instructions are required"}
	}
	// Length is in characters (runes). An emoji outside the BMP counts once,
	// not as two UTF-16 units.
	if n := utf8.RuneCountInString(d.Instructions); n < MinInstructionsLength {
		return &ValidationError{
			Field:   "instructions",
			Message: fmt.Sprintf("instructions must be at least %d characters (got %d)", MinInstructionsLength, n),
		}
	}
	return nil
}

// SanitizeName drops every character outside [A-Za-z0-9_-].
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isNameRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isNameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
}

// Prepare validates d and returns the sanitized agent name.
func Prepare(d Draft) (string, error) {
	if err := Validate(d); err != nil {
		return "", err
	}
	name := SanitizeName(d.Name)
	if name == "" {
		return "", &ValidationError{
			Field:   "name",
			Message: "agent name may only contain letters, digits, '_' and '-'",
		}
	}
	return name, nil
}

// ResolveKnowledgeBase picks the document to upload: an attached local file
// wins, then the selected blueprint's embedded document, otherwise nil.
func ResolveKnowledgeBase(d Draft) (*domain.KnowledgeBasePayload, error) {
	if d.File != "" {
		data, err := os.ReadFile(d.File)
		if err != nil {
			return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("reading knowledge base: %v", err)}
		}
		return &domain.KnowledgeBasePayload{
			FileName: filepath.Base(d.File),
			Content:  base64.StdEncoding.EncodeToString(data),
		}, nil
	}

	if d.BlueprintKey == "" {
		return nil, nil
	}
	b, ok := blueprint.Lookup(d.BlueprintKey)
	if !ok || b.KnowledgeBase == nil {
		return nil, nil
	}
	return &domain.KnowledgeBasePayload{
		FileName: b.KnowledgeBase.FileName,
		Content:  base64.StdEncoding.EncodeToString([]byte(b.KnowledgeBase.Content)),
	}, nil
}
