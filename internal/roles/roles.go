// Package roles holds the static capability table that decides what the
// assistant knows, may do and shows for each platform role.
package roles

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownRole is returned for any lookup against a role outside the registry.
var ErrUnknownRole = errors.New("unknown role")

// Role is a platform persona.
type Role string

// Registered roles. The set is closed; extend it by adding table entries.
const (
	Admin     Role = "admin"
	Recruiter Role = "recruiter"
	Manager   Role = "manager"
	Candidate Role = "candidate"
	Supplier  Role = "supplier"
	Referrer  Role = "referrer"
)

// SuggestedPrompt is a quick-action template shown to a role.
type SuggestedPrompt struct {
	Title      string `json:"title"`
	PromptText string `json:"prompt_text"`
	Icon       string `json:"icon"`
}

// Capabilities is everything the registry knows about one role.
type Capabilities struct {
	Role             Role              `json:"role"`
	SystemPrompt     string            `json:"system_prompt"`
	Tools            []string          `json:"tools"`
	Features         map[string]bool   `json:"features"`
	SuggestedPrompts []SuggestedPrompt `json:"suggested_prompts"`
}

// Registry is an immutable role → capabilities table. It has no mutating
// methods, so concurrent reads need no locking.
type Registry struct {
	order   []Role
	entries map[Role]Capabilities
}

// New builds a Registry from the given entries. Later duplicates replace
// earlier ones. Slices and maps are copied so the caller cannot mutate the
// registry afterwards.
func New(entries []Capabilities) *Registry {
	r := &Registry{entries: make(map[Role]Capabilities, len(entries))}
	for _, e := range entries {
		if _, exists := r.entries[e.Role]; !exists {
			r.order = append(r.order, e.Role)
		}
		r.entries[e.Role] = copyCaps(e)
	}
	return r
}

var defaultRegistry = New(defaultTable)

// Default returns the process-wide registry of the six platform roles.
func Default() *Registry {
	return defaultRegistry
}

// Roles returns the registered roles in declaration order.
func (r *Registry) Roles() []Role {
	return slices.Clone(r.order)
}

// Known reports whether role is registered.
func (r *Registry) Known(role Role) bool {
	_, ok := r.entries[role]
	return ok
}

// SystemPromptFor returns the role's fixed instruction text.
func (r *Registry) SystemPromptFor(role Role) (string, error) {
	e, err := r.lookup(role)
	if err != nil {
		return "", err
	}
	return e.SystemPrompt, nil
}

// ToolsFor returns the ordered tool names the role may invoke. A registered
// role without tools yields an empty, non-nil slice.
func (r *Registry) ToolsFor(role Role) ([]string, error) {
	e, err := r.lookup(role)
	if err != nil {
		return nil, err
	}
	tools := make([]string, len(e.Tools))
	copy(tools, e.Tools)
	return tools, nil
}

// FeaturesFor returns the role's display-only feature flags.
func (r *Registry) FeaturesFor(role Role) (map[string]bool, error) {
	e, err := r.lookup(role)
	if err != nil {
		return nil, err
	}
	return maps.Clone(e.Features), nil
}

// SuggestedPromptsFor returns the role's quick-action templates.
func (r *Registry) SuggestedPromptsFor(role Role) ([]SuggestedPrompt, error) {
	e, err := r.lookup(role)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.SuggestedPrompts), nil
}

// CapabilitiesFor returns a copy of the full capability entry for role.
func (r *Registry) CapabilitiesFor(role Role) (Capabilities, error) {
	e, err := r.lookup(role)
	if err != nil {
		return Capabilities{}, err
	}
	return copyCaps(e), nil
}

// IsToolAllowed reports whether toolName is in ToolsFor(role). Unknown roles
// are allowed nothing. Every side-effecting tool call must pass this check.
func (r *Registry) IsToolAllowed(role Role, toolName string) bool {
	e, ok := r.entries[role]
	if !ok {
		return false
	}
	return slices.Contains(e.Tools, toolName)
}

func (r *Registry) lookup(role Role) (Capabilities, error) {
	e, ok := r.entries[role]
	if !ok {
		return Capabilities{}, fmt.Errorf("roles: %w: %q", ErrUnknownRole, role)
	}
	return e, nil
}

func copyCaps(c Capabilities) Capabilities {
	tools := make([]string, len(c.Tools))
	copy(tools, c.Tools)
	features := maps.Clone(c.Features)
	if features == nil {
		features = map[string]bool{}
	}
	prompts := slices.Clone(c.SuggestedPrompts)
	if prompts == nil {
		prompts = []SuggestedPrompt{}
	}
	return Capabilities{
		Role:             c.Role,
		SystemPrompt:     c.SystemPrompt,
		Tools:            tools,
		Features:         features,
		SuggestedPrompts: prompts,
	}
}
