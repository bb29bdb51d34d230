package llm

import (
	"fmt"
	"strings"
)

// Backend identifies a hosted language-model service selectable for
// generation.
type Backend string

const (
	BackendGroq  Backend = "groq"
	BackendGPT35 Backend = "gpt-3.5"
	BackendGPT4o Backend = "gpt-4o"
)

// Backends lists every selectable backend.
func Backends() []Backend {
	return []Backend{BackendGroq, BackendGPT35, BackendGPT4o}
}

// ParseBackend resolves a user-supplied backend label.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "groq":
		return BackendGroq, nil
	case "gpt-3.5", "gpt-3.5-turbo", "gpt3.5":
		return BackendGPT35, nil
	case "gpt-4o", "gpt4o":
		return BackendGPT4o, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected groq|gpt-3.5|gpt-4o)", s)
	}
}
