package models

import (
	"fmt"
	"strings"
)

// Role identifies who authored a Turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one message in a conversation. It is never mutated after it has been
// appended to a conversation.
type Turn struct {
	Role     Role   `json:"role"`
	Text     string `json:"text"`
	Sequence int    `json:"seq"`
}

// ProviderKind names an upstream text-generation service.
type ProviderKind string

const (
	ProviderNone    ProviderKind = ""
	ProviderHosted  ProviderKind = "hosted"
	ProviderManaged ProviderKind = "managed"
)

// ParseProviderKind maps user-facing provider names onto a ProviderKind.
// Unknown names yield ProviderNone and an error.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hosted", "huggingface", "hugging face", "hf":
		return ProviderHosted, nil
	case "managed", "google", "gemini":
		return ProviderManaged, nil
	case "":
		return ProviderNone, nil
	}
	return ProviderNone, fmt.Errorf("unknown provider %q", s)
}

// DisplayName returns the human-readable vendor name used in diagnostics.
func (k ProviderKind) DisplayName() string {
	switch k {
	case ProviderHosted:
		return "Hugging Face"
	case ProviderManaged:
		return "Google"
	}
	return "unknown provider"
}

// ProviderSelection is resolved fresh for every submitted turn.
type ProviderSelection struct {
	Provider   ProviderKind
	Model      string
	Credential string
}

// HasCredential reports whether a credential is present.
func (s ProviderSelection) HasCredential() bool {
	return strings.TrimSpace(s.Credential) != ""
}

// Valid reports whether the selection carries everything its provider needs
// before a network call may be attempted.
func (s ProviderSelection) Valid() bool {
	switch s.Provider {
	case ProviderHosted, ProviderManaged:
		return s.HasCredential() && strings.TrimSpace(s.Model) != ""
	}
	return false
}

// String never includes the credential.
func (s ProviderSelection) String() string {
	return fmt.Sprintf("%s/%s", s.Provider, s.Model)
}

// NormalizedResult is the uniform outcome of one provider call.
type NormalizedResult struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}
