package profile

// Built-in profiles are compiled in and never written to disk, so user
// edits cannot drift the bundled defaults.
var builtins = []*Profile{
	{
		Name:        "web",
		Description: "Web/app development (frontend/backend essentials)",
		Tags:        []string{"web"},
		MCPServers: []MCPServerRef{
			{Name: "filesystem", Enabled: true},
			{Name: "git", Enabled: true},
			{Name: "github", Enabled: true},
			{Name: "memory-bank", Enabled: true},
		},
	},
	{
		Name:        "qa",
		Description: "Quality and testing workflows",
		Tags:        []string{"qa"},
		MCPServers: []MCPServerRef{
			{Name: "filesystem", Enabled: true},
			{Name: "git", Enabled: true},
			{Name: "duckduckgo", Enabled: true},
			{Name: "memory-bank", Enabled: true},
		},
		Environment: map[string]string{
			"PLAYWRIGHT_BROWSERS_PATH": "${HOME}/.cache/ms-playwright",
		},
	},
	{
		Name:        "infra",
		Description: "Infrastructure and deployment",
		Tags:        []string{"infra"},
		MCPServers: []MCPServerRef{
			{Name: "filesystem", Enabled: true},
			{Name: "git", Enabled: true},
			{Name: "gitlab", Enabled: true},
			{Name: "k8s", Enabled: true},
			{Name: "atlassian", Enabled: true},
		},
		Environment: map[string]string{
			"KUBECONFIG": "${HOME}/.kube/config",
		},
	},
	{
		Name:        "default",
		Description: "Default profile (alias of web)",
		Tags:        []string{"default", "web"},
		Extends:     "web",
	},
}

// Builtin returns a copy of the named built-in profile, or nil.
func Builtin(name string) *Profile {
	for _, p := range builtins {
		if p.Name == name {
			return p.Clone()
		}
	}
	return nil
}

// BuiltinNames lists the built-in profile names in declaration order.
func BuiltinNames() []string {
	names := make([]string, len(builtins))
	for i, p := range builtins {
		names[i] = p.Name
	}
	return names
}

// IsBuiltin reports whether name is a bundled profile.
func IsBuiltin(name string) bool {
	return Builtin(name) != nil
}
