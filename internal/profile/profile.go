// Package profile manages named configuration bundles of MCP servers,
// environment variable templates, and tool settings, including the
// inheritance resolution that turns a profile chain into one effective
// record.
package profile

import (
	"fmt"
)

// MCPServerRef selects an MCP server by name with an optional
// configuration override applied on top of the catalog definition.
type MCPServerRef struct {
	Name    string         `json:"name"`
	Enabled bool           `json:"enabled"`
	Config  map[string]any `json:"config,omitempty"`
}

// ToolConfig holds per-tool settings within a profile.
type ToolConfig struct {
	Enabled  bool           `json:"enabled"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Profile is a named configuration bundle. Extends names an optional
// parent profile; it is consumed during resolution and never appears in
// an effective profile.
type Profile struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Extends     string                `json:"extends,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	MCPServers  []MCPServerRef        `json:"mcp_servers"`
	Environment map[string]string     `json:"environment"`
	Tools       map[string]ToolConfig `json:"tools"`
}

// Validate checks structural constraints on a profile record.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProfile)
	}
	for _, c := range p.Name {
		if c == '-' || c == '_' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return fmt.Errorf("%w: name %q must be alphanumeric with - or _", ErrInvalidProfile, p.Name)
	}
	return nil
}

// Clone returns a deep copy. Callers mutate clones freely without
// affecting stored or built-in definitions.
func (p *Profile) Clone() *Profile {
	c := &Profile{
		Name:        p.Name,
		Description: p.Description,
		Extends:     p.Extends,
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.MCPServers != nil {
		c.MCPServers = make([]MCPServerRef, len(p.MCPServers))
		for i, s := range p.MCPServers {
			c.MCPServers[i] = s.clone()
		}
	}
	if p.Environment != nil {
		c.Environment = make(map[string]string, len(p.Environment))
		for k, v := range p.Environment {
			c.Environment[k] = v
		}
	}
	if p.Tools != nil {
		c.Tools = make(map[string]ToolConfig, len(p.Tools))
		for k, v := range p.Tools {
			c.Tools[k] = v.clone()
		}
	}
	return c
}

func (s MCPServerRef) clone() MCPServerRef {
	out := MCPServerRef{Name: s.Name, Enabled: s.Enabled}
	if s.Config != nil {
		out.Config = make(map[string]any, len(s.Config))
		for k, v := range s.Config {
			out.Config[k] = v
		}
	}
	return out
}

func (t ToolConfig) clone() ToolConfig {
	out := ToolConfig{Enabled: t.Enabled}
	if t.Settings != nil {
		out.Settings = make(map[string]any, len(t.Settings))
		for k, v := range t.Settings {
			out.Settings[k] = v
		}
	}
	return out
}
