package config

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no stored config matches the requested
// workflow name or filename.
var ErrNotFound = errors.New("workflow config not found")

// Store persists workflow configs as JSON or YAML files in a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WithMessagef(err, "creating config dir %s", dir)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory backing this store.
func (s *Store) Dir() string { return s.dir }

// Save writes the config to filename inside the store directory. An empty
// filename defaults to "<name>.json"; the extension picks the format.
func (s *Store) Save(cfg *WorkflowConfig, filename string) (string, error) {
	if cfg.Name == "" {
		return "", errors.Wrap(ErrInvalidConfig, "config has no name")
	}
	if filename == "" {
		filename = cfg.Name + ".json"
	}

	var (
		raw []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		raw, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		raw, err = yaml.Marshal(cfg)
	default:
		return "", errors.Errorf("unsupported config format %q", filepath.Ext(filename))
	}
	if err != nil {
		return "", errors.WithMessagef(err, "encoding workflow %q", cfg.Name)
	}

	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", errors.WithMessagef(err, "writing config file %s", path)
	}
	return path, nil
}

// Load reads and parses a single config file by name within the store.
func (s *Store) Load(filename string) (*WorkflowConfig, error) {
	return LoadFile(filepath.Join(s.dir, filename))
}

// LoadFile reads and parses a config file at an arbitrary path.
func LoadFile(path string) (*WorkflowConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "config file %s", path)
		}
		return nil, errors.WithMessagef(err, "reading config file %s", path)
	}

	var cfg WorkflowConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	default:
		return nil, errors.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "parsing config file %s", path)
	}

	if cfg.Name == "" {
		return nil, errors.Wrapf(ErrInvalidConfig, "config file %s: missing required field \"name\"", path)
	}
	cfg.Normalize()
	return &cfg, nil
}

// LoadAll reads every config file in the store directory, recursively.
// Two files declaring the same workflow name is an error.
func (s *Store) LoadAll() (map[string]*WorkflowConfig, error) {
	configs := make(map[string]*WorkflowConfig)

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isConfigFile(d.Name()) {
			return nil
		}

		cfg, err := LoadFile(path)
		if err != nil {
			return err
		}
		if _, exists := configs[cfg.Name]; exists {
			return errors.Errorf("duplicate workflow name %q in %s", cfg.Name, path)
		}
		configs[cfg.Name] = cfg
		return nil
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "loading configs from %s", s.dir)
	}

	return configs, nil
}

// ByName loads the stored config whose workflow name matches.
func (s *Store) ByName(name string) (*WorkflowConfig, error) {
	configs, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	cfg, ok := configs[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "workflow %q in %s", name, s.dir)
	}
	return cfg, nil
}

// List returns the config filenames in the store, sorted.
func (s *Store) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isConfigFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		names = append(names, rel)
		return nil
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "listing configs in %s", s.dir)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a config file from the store.
func (s *Store) Delete(filename string) error {
	path := filepath.Join(s.dir, filename)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "config file %s", path)
		}
		return errors.WithMessagef(err, "deleting config file %s", path)
	}
	return nil
}

func isConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
