package entity

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Tool is a capability flag forwarded to the assistant webhook.
type Tool string

const (
	ToolWebSearch  Tool = "WEBSEARCH"
	ToolCalculator Tool = "CALCULATOR"
)

// AllTools lists every tool in declaration order.
var AllTools = []Tool{ToolWebSearch, ToolCalculator}

func ParseTool(s string) (Tool, error) {
	t := Tool(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllTools {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// ToolSet is the set of enabled tools.
type ToolSet map[Tool]struct{}

func NewToolSet(tools ...Tool) ToolSet {
	s := make(ToolSet, len(tools))
	for _, t := range tools {
		s[t] = struct{}{}
	}
	return s
}

// DefaultToolSet is what a user gets before saving any preference.
func DefaultToolSet() ToolSet {
	return NewToolSet(AllTools...)
}

func (s ToolSet) Has(t Tool) bool {
	_, ok := s[t]
	return ok
}

// Toggle enables or disables a tool.
func (s ToolSet) Toggle(t Tool, enabled bool) {
	if enabled {
		s[t] = struct{}{}
	} else {
		delete(s, t)
	}
}

// List returns the enabled tools in a stable order.
func (s ToolSet) List() []Tool {
	out := make([]Tool, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s ToolSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

func (s *ToolSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set := make(ToolSet, len(raw))
	for _, r := range raw {
		t, err := ParseTool(r)
		if err != nil {
			return err
		}
		set[t] = struct{}{}
	}
	*s = set
	return nil
}
