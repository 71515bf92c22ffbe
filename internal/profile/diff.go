package profile

import "sort"

// SetDiff describes how one set of names differs between two profiles.
type SetDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Common  []string `json:"common"`
}

// ValueChange records an environment value that differs between two
// profiles sharing the key.
type ValueChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Diff compares two fully-resolved profiles.
type Diff struct {
	Profile1    string                 `json:"profile1"`
	Profile2    string                 `json:"profile2"`
	MCPServers  SetDiff                `json:"mcp_servers"`
	Environment SetDiff                `json:"environment"`
	EnvChanged  map[string]ValueChange `json:"env_changed,omitempty"`
	Tags        SetDiff                `json:"tags"`
}

// Diff resolves both profiles and reports their differences.
func (r *Resolver) Diff(name1, name2 string) (*Diff, error) {
	p1, err := r.Resolve(name1)
	if err != nil {
		return nil, err
	}
	p2, err := r.Resolve(name2)
	if err != nil {
		return nil, err
	}

	serverNames := func(p *Profile) []string {
		names := make([]string, len(p.MCPServers))
		for i, s := range p.MCPServers {
			names[i] = s.Name
		}
		return names
	}
	envKeys := func(p *Profile) []string {
		keys := make([]string, 0, len(p.Environment))
		for k := range p.Environment {
			keys = append(keys, k)
		}
		return keys
	}

	d := &Diff{
		Profile1:    name1,
		Profile2:    name2,
		MCPServers:  diffSets(serverNames(p1), serverNames(p2)),
		Environment: diffSets(envKeys(p1), envKeys(p2)),
		Tags:        diffSets(p1.Tags, p2.Tags),
	}

	for _, key := range d.Environment.Common {
		if p1.Environment[key] != p2.Environment[key] {
			if d.EnvChanged == nil {
				d.EnvChanged = make(map[string]ValueChange)
			}
			d.EnvChanged[key] = ValueChange{From: p1.Environment[key], To: p2.Environment[key]}
		}
	}
	return d, nil
}

func diffSets(a, b []string) SetDiff {
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		inA[s] = true
	}
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}

	var d SetDiff
	for s := range inB {
		if inA[s] {
			d.Common = append(d.Common, s)
		} else {
			d.Added = append(d.Added, s)
		}
	}
	for s := range inA {
		if !inB[s] {
			d.Removed = append(d.Removed, s)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Common)
	return d
}
