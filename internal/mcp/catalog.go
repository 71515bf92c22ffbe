// Package mcp manages MCP server definitions and renders tool-native
// configuration files from resolved profiles.
package mcp

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed templates/servers/*.json
var bundledFS embed.FS

const bundledServersDir = "templates/servers"

// ErrServerNotFound indicates a server name with no definition in any
// scope.
var ErrServerNotFound = errors.New("mcp server not found")

// ServerDef is a raw MCP server definition. Definitions are kept as
// maps because tools accept different key sets and unknown keys must
// survive a round trip.
type ServerDef map[string]any

// Catalog resolves server definitions across three scopes: bundled
// (compiled in), user (~/.aidev/config/mcp-servers), and custom
// (mcp-servers/custom). Custom wins over user, user wins over bundled.
type Catalog struct {
	serversDir string
	customDir  string
}

// NewCatalog creates a catalog over the given user and custom
// directories.
func NewCatalog(serversDir, customDir string) *Catalog {
	return &Catalog{serversDir: serversDir, customDir: customDir}
}

// List returns the names of all known servers, sorted.
func (c *Catalog) List() ([]string, error) {
	names := make(map[string]bool)

	entries, err := bundledFS.ReadDir(bundledServersDir)
	if err != nil {
		return nil, fmt.Errorf("read bundled servers: %w", err)
	}
	for _, entry := range entries {
		names[strings.TrimSuffix(entry.Name(), ".json")] = true
	}

	for _, dir := range []string{c.serversDir, c.customDir} {
		files, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read servers dir %s: %w", dir, err)
		}
		for _, file := range files {
			if filepath.Ext(file.Name()) == ".json" {
				names[strings.TrimSuffix(file.Name(), ".json")] = true
			}
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return sorted, nil
}

// Get returns the named server definition, custom scope first.
func (c *Catalog) Get(name string) (ServerDef, error) {
	for _, path := range []string{
		filepath.Join(c.customDir, name+".json"),
		filepath.Join(c.serversDir, name+".json"),
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read server definition: %w", err)
		}
		return parseServerDef(path, data)
	}

	data, err := bundledFS.ReadFile(bundledServersDir + "/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, name)
	}
	return parseServerDef(name, data)
}

// Save persists a server definition. Custom definitions shadow bundled
// and user ones of the same name.
func (c *Catalog) Save(name string, def ServerDef, custom bool) error {
	dir := c.serversDir
	if custom {
		dir = c.customDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create servers dir: %w", err)
	}

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal server definition: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644)
}

// Remove deletes a custom server definition. Bundled and user-scope
// definitions are not removable this way.
func (c *Catalog) Remove(name string) error {
	path := filepath.Join(c.customDir, name+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrServerNotFound, name)
		}
		return fmt.Errorf("remove server definition: %w", err)
	}
	return nil
}

// SeedBundled copies bundled definitions into the user servers
// directory, skipping files that already exist so user edits survive.
func (c *Catalog) SeedBundled() error {
	if err := os.MkdirAll(c.serversDir, 0o755); err != nil {
		return fmt.Errorf("create servers dir: %w", err)
	}

	entries, err := bundledFS.ReadDir(bundledServersDir)
	if err != nil {
		return fmt.Errorf("read bundled servers: %w", err)
	}
	for _, entry := range entries {
		target := filepath.Join(c.serversDir, entry.Name())
		if _, err := os.Stat(target); err == nil {
			continue
		}
		data, err := bundledFS.ReadFile(bundledServersDir + "/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read bundled server %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("seed server %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func parseServerDef(source string, data []byte) (ServerDef, error) {
	var def ServerDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("invalid server definition %s: %w", source, err)
	}
	return def, nil
}
