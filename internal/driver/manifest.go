package driver

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"formula"
	"formula/internal/contexts"
	"formula/internal/types"
)

// ManifestName is the project manifest looked up from the working directory.
const ManifestName = "formula.toml"

// Manifest is a loaded formula.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
	// Digest covers the raw manifest bytes; it salts disk cache keys.
	Digest Digest
}

// Config mirrors formula.toml:
//
//	params = ["base", "bonus"]
//
//	[check]
//	jobs = 4
//	cache = true
//	include = ["content"]
//
//	[[namespace]]
//	kind = "character"
//	path = "self.modifier"
//	names = ["fire", "frost"]
//	type = "number"
type Config struct {
	Params     []string          `toml:"params"`
	Check      CheckConfig       `toml:"check"`
	Namespaces []NamespaceConfig `toml:"namespace"`
}

type CheckConfig struct {
	Jobs           int      `toml:"jobs"`
	Cache          bool     `toml:"cache"`
	Include        []string `toml:"include"`
	MaxDiagnostics int      `toml:"max_diagnostics"`
}

// NamespaceConfig is one RegisterReferenceNamespace call.
type NamespaceConfig struct {
	Kind  string            `toml:"kind"`
	Path  string            `toml:"path"` // через точку, пусто = корень
	Names []string          `toml:"names"`
	Type  types.PrimaryType `toml:"type"`
}

// SplitPath returns the dotted path as segments.
func (n NamespaceConfig) SplitPath() []string {
	if strings.TrimSpace(n.Path) == "" {
		return nil
	}
	return strings.Split(n.Path, ".")
}

// FindManifest walks up from startDir to locate formula.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest parses and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	// #nosec G304 -- path comes from FindManifest or the command line
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	meta, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Check.Jobs < 0 {
		return nil, fmt.Errorf("%s: [check].jobs must not be negative", path)
	}
	for i, ns := range cfg.Namespaces {
		switch {
		case !contexts.IsKind(ns.Kind):
			return nil, fmt.Errorf("%s: namespace #%d: unknown kind %q", path, i+1, ns.Kind)
		case len(ns.Names) == 0:
			return nil, fmt.Errorf("%s: namespace #%d: names must not be empty", path, i+1)
		case ns.Type == types.Invalid:
			return nil, fmt.Errorf("%s: namespace #%d: missing type", path, i+1)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Path:   abs,
		Root:   filepath.Dir(abs),
		Config: cfg,
		Digest: sha256.Sum256(raw),
	}, nil
}

// EngineOptions returns the engine options the manifest implies.
func (m *Manifest) EngineOptions() []formula.Option {
	if m == nil || len(m.Config.Params) == 0 {
		return nil
	}
	return []formula.Option{formula.WithParams(m.Config.Params...)}
}

// Apply registers the manifest namespaces on e. It must run before any
// formula is compiled.
func (m *Manifest) Apply(e *formula.Engine) error {
	if m == nil {
		return nil
	}
	for _, ns := range m.Config.Namespaces {
		if err := e.RegisterReferenceNamespace(ns.Kind, ns.SplitPath(), ns.Names, ns.Type); err != nil {
			return fmt.Errorf("%s: namespace %s %q: %w", m.Path, ns.Kind, ns.Path, err)
		}
	}
	return nil
}

// IncludeDirs resolves [check].include against the manifest root.
func (m *Manifest) IncludeDirs() []string {
	if len(m.Config.Check.Include) == 0 {
		return []string{m.Root}
	}
	out := make([]string, 0, len(m.Config.Check.Include))
	for _, inc := range m.Config.Check.Include {
		out = append(out, filepath.Join(m.Root, filepath.FromSlash(inc)))
	}
	return out
}
