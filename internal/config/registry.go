package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

// KnowledgeBase describes one registered knowledge base. The indexing core
// reads descriptors but never mutates them; all registry writes happen here,
// driven by the CLI layer.
type KnowledgeBase struct {
	ID            string    `yaml:"id" json:"id"`
	RootPath      string    `yaml:"root_path" json:"root_path"`
	Enabled       bool      `yaml:"enabled" json:"enabled"`
	LastIndexedAt time.Time `yaml:"last_indexed_at,omitempty" json:"last_indexed_at,omitempty"`
}

// kbIDPattern restricts knowledge-base ids to names usable as directory names.
var kbIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Registry is the persistent list of knowledge bases.
type Registry struct {
	mu   sync.RWMutex
	path string
	kbs  map[string]KnowledgeBase
}

// registryFile is the on-disk YAML shape.
type registryFile struct {
	Version        int             `yaml:"version"`
	KnowledgeBases []KnowledgeBase `yaml:"knowledge_bases"`
}

// LoadRegistry reads the registry from path. A missing file yields an empty
// registry; a malformed file is an error.
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, kbs: make(map[string]KnowledgeBase)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, wserrors.Wrap(wserrors.ErrCodeRegistryInvalid, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, wserrors.New(wserrors.ErrCodeRegistryInvalid,
			fmt.Sprintf("cannot parse registry %s: %v", path, err), err)
	}

	for _, kb := range file.KnowledgeBases {
		r.kbs[kb.ID] = kb
	}
	return r, nil
}

// Save writes the registry back to disk.
func (r *Registry) Save() error {
	r.mu.RLock()
	file := registryFile{Version: 1, KnowledgeBases: r.listLocked()}
	r.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return wserrors.Wrap(wserrors.ErrCodeRegistryInvalid, err)
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return wserrors.Wrap(wserrors.ErrCodeRegistryInvalid, err)
	}
	return os.WriteFile(r.path, data, 0o644)
}

// Add registers a new knowledge base rooted at rootPath.
func (r *Registry) Add(id, rootPath string) (KnowledgeBase, error) {
	if !kbIDPattern.MatchString(id) {
		return KnowledgeBase{}, wserrors.New(wserrors.ErrCodeRegistryInvalid,
			fmt.Sprintf("invalid knowledge base id %q (use lowercase letters, digits, - and _)", id), nil)
	}

	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return KnowledgeBase{}, wserrors.Wrap(wserrors.ErrCodeRegistryInvalid, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return KnowledgeBase{}, wserrors.New(wserrors.ErrCodeInvalidPath,
			fmt.Sprintf("root path %s is not accessible", abs), err)
	}
	if !info.IsDir() {
		return KnowledgeBase{}, wserrors.New(wserrors.ErrCodeInvalidPath,
			fmt.Sprintf("root path %s is not a directory", abs), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.kbs[id]; exists {
		return KnowledgeBase{}, wserrors.New(wserrors.ErrCodeRegistryInvalid,
			fmt.Sprintf("knowledge base %q already registered", id), nil)
	}

	kb := KnowledgeBase{ID: id, RootPath: abs, Enabled: true}
	r.kbs[id] = kb
	return kb, nil
}

// Remove deletes a knowledge base from the registry.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.kbs[id]; !ok {
		return wserrors.UnknownKB(id)
	}
	delete(r.kbs, id)
	return nil
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (KnowledgeBase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kb, ok := r.kbs[id]
	if !ok {
		return KnowledgeBase{}, wserrors.UnknownKB(id)
	}
	return kb, nil
}

// SetEnabled toggles a knowledge base on or off.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kb, ok := r.kbs[id]
	if !ok {
		return wserrors.UnknownKB(id)
	}
	kb.Enabled = enabled
	r.kbs[id] = kb
	return nil
}

// Touch records a successful indexing pass for id.
func (r *Registry) Touch(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kb, ok := r.kbs[id]
	if !ok {
		return wserrors.UnknownKB(id)
	}
	kb.LastIndexedAt = at
	r.kbs[id] = kb
	return nil
}

// List returns all descriptors sorted by id.
func (r *Registry) List() []KnowledgeBase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

// Enabled returns the enabled descriptors sorted by id.
func (r *Registry) Enabled() []KnowledgeBase {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []KnowledgeBase
	for _, kb := range r.kbs {
		if kb.Enabled {
			out = append(out, kb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) listLocked() []KnowledgeBase {
	out := make([]KnowledgeBase, 0, len(r.kbs))
	for _, kb := range r.kbs {
		out = append(out, kb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
