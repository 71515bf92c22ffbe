package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Resolver turns a profile name into an effective profile by walking its
// extends chain bottom-up and merging each child over its parent.
// Resolution never writes and re-reads the store on every call, so the
// result always reflects the current on-disk definitions.
type Resolver struct {
	store *Store
}

// NewResolver creates a resolver over the given store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve loads the named profile and collapses its inheritance chain
// into a single effective record with Extends cleared.
func (r *Resolver) Resolve(name string) (*Profile, error) {
	return r.resolve(name, make(map[string]bool))
}

func (r *Resolver) resolve(name string, visiting map[string]bool) (*Profile, error) {
	if visiting[name] {
		return nil, fmt.Errorf("%w: %s", ErrCyclicInheritance, name)
	}
	visiting[name] = true

	p, err := r.store.Load(name)
	if err != nil {
		return nil, err
	}
	if p.Extends == "" {
		return p, nil
	}

	parent, err := r.resolve(p.Extends, visiting)
	if err != nil {
		return nil, fmt.Errorf("resolve parent of %s: %w", name, err)
	}
	return merge(parent, p), nil
}

// merge applies the child over the parent: mcp_servers are replaced
// whole-record by name (parent-only entries first in parent order, then
// the child's entries in child order), environment and tools merge
// key-wise with child values winning, tags union, description child
// wins when non-empty. Extends is consumed, not carried over.
func merge(parent, child *Profile) *Profile {
	out := parent.Clone()
	out.Name = child.Name
	out.Extends = ""
	if child.Description != "" {
		out.Description = child.Description
	}

	inChild := make(map[string]bool, len(child.MCPServers))
	for _, s := range child.MCPServers {
		inChild[s.Name] = true
	}
	servers := make([]MCPServerRef, 0, len(parent.MCPServers)+len(child.MCPServers))
	for _, s := range parent.MCPServers {
		if !inChild[s.Name] {
			servers = append(servers, s.clone())
		}
	}
	for _, s := range child.MCPServers {
		servers = append(servers, s.clone())
	}
	out.MCPServers = servers

	tagSet := make(map[string]bool, len(parent.Tags)+len(child.Tags))
	for _, t := range parent.Tags {
		tagSet[t] = true
	}
	for _, t := range child.Tags {
		tagSet[t] = true
	}
	if len(tagSet) > 0 {
		tags := make([]string, 0, len(tagSet))
		for t := range tagSet {
			tags = append(tags, t)
		}
		sort.Strings(tags)
		out.Tags = tags
	}

	if len(child.Environment) > 0 {
		if out.Environment == nil {
			out.Environment = make(map[string]string, len(child.Environment))
		}
		for k, v := range child.Environment {
			out.Environment[k] = v
		}
	}
	if len(child.Tools) > 0 {
		if out.Tools == nil {
			out.Tools = make(map[string]ToolConfig, len(child.Tools))
		}
		for k, v := range child.Tools {
			out.Tools[k] = v.clone()
		}
	}
	return out
}

// CloneProfile saves a flattened copy of source under target in the
// custom scope. The copy carries the fully-resolved state and no
// extends link. An optional server list replaces the MCP selection.
func (r *Resolver) CloneProfile(source, target, description string, servers []string) (*Profile, error) {
	if r.store.Exists(target) {
		return nil, fmt.Errorf("%w: %s", ErrExists, target)
	}
	resolved, err := r.Resolve(source)
	if err != nil {
		return nil, err
	}

	cloned := resolved.Clone()
	cloned.Name = target
	cloned.Extends = ""
	if description != "" {
		cloned.Description = description
	} else {
		cloned.Description = fmt.Sprintf("Cloned from %s", source)
	}
	if len(servers) > 0 {
		cloned.MCPServers = make([]MCPServerRef, len(servers))
		for i, name := range servers {
			cloned.MCPServers[i] = MCPServerRef{Name: name, Enabled: true}
		}
	}

	if err := r.store.Save(cloned, ScopeCustom); err != nil {
		return nil, err
	}
	return cloned, nil
}

// Export writes the fully-resolved profile to an external file.
func (r *Resolver) Export(name, outPath string) error {
	resolved, err := r.Resolve(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(resolved, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", name, err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("export profile %s: %w", name, err)
	}
	return nil
}
