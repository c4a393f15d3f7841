package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrLayoutNotFound = errors.New("layout not found")
	ErrInvalidLayout  = errors.New("invalid layout")
	ErrReservedName   = errors.New("layout name is reserved")
)

// extensions are tried in order when resolving a layout file.
var extensions = []string{".json", ".yaml", ".yml"}

// Manager loads and caches layouts from a directory.
type Manager struct {
	dir     string
	layouts map[string]*Layout
	mu      sync.RWMutex
}

// NewManager creates a layout manager for dir. An empty dir serves only the
// auto layout.
func NewManager(dir string) (*Manager, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("layout directory does not exist: %s", dir)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("layout path is not a directory: %s", dir)
		}
	}

	return &Manager{
		dir:     dir,
		layouts: make(map[string]*Layout),
	}, nil
}

// Load returns the layout with the given identifier. An empty name or "auto"
// returns the auto layout.
func (m *Manager) Load(name string) (*Layout, error) {
	id := layoutID(name)
	if id == "" || strings.EqualFold(id, AutoID) {
		return Auto(), nil
	}
	if !validID(id) {
		return nil, ErrLayoutNotFound
	}

	m.mu.RLock()
	if l, ok := m.layouts[id]; ok {
		m.mu.RUnlock()
		return l, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.layouts[id]; ok {
		return l, nil
	}

	path, err := m.resolve(id)
	if err != nil {
		return nil, err
	}
	l, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	m.layouts[id] = l
	return l, nil
}

// List returns the auto layout followed by every valid layout on disk, sorted
// by identifier. Invalid files are skipped.
func (m *Manager) List() ([]*Info, error) {
	infos := []*Info{Auto().info(AutoID, "")}
	if m.dir == "" {
		return infos, nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	seen := map[string]bool{AutoID: true}
	for _, entry := range entries {
		if entry.IsDir() || !hasLayoutExt(entry.Name()) {
			continue
		}
		id := layoutID(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		l, err := m.Load(id)
		if err != nil {
			continue
		}
		infos = append(infos, l.info(id, entry.Name()))
	}

	return infos, nil
}

// Save validates l and writes it to the directory. The format follows the
// extension of name, JSON by default.
func (m *Manager) Save(name string, l *Layout) error {
	if m.dir == "" {
		return fmt.Errorf("no layout directory configured")
	}
	id := layoutID(name)
	if id == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidLayout)
	}
	if strings.EqualFold(id, AutoID) {
		return ErrReservedName
	}
	if !validID(id) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidLayout, name)
	}
	if err := l.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}

	filename := name
	if !hasLayoutExt(filename) {
		filename = name + ".json"
	}

	var data []byte
	var err error
	if filepath.Ext(filename) == ".json" {
		data, err = json.MarshalIndent(l, "", "  ")
	} else {
		data, err = yaml.Marshal(l)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.dir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}

	m.mu.Lock()
	m.layouts[id] = l
	m.mu.Unlock()

	return nil
}

// RefreshCache drops every cached layout so the next Load rereads the disk.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layouts = make(map[string]*Layout)
}

func (m *Manager) resolve(id string) (string, error) {
	if m.dir == "" || !validID(id) {
		return "", ErrLayoutNotFound
	}
	for _, ext := range extensions {
		path := filepath.Join(m.dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrLayoutNotFound
}

// ReadFile parses and validates a single layout file.
func ReadFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLayoutNotFound
		}
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	var l Layout
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &l)
	} else {
		err = yaml.Unmarshal(data, &l)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	return &l, nil
}

func hasLayoutExt(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// validID reports whether id names a file directly inside the layout
// directory.
func validID(id string) bool {
	if id == "." || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return false
	}
	return filepath.Base(id) == id
}

func layoutID(name string) string {
	name = strings.TrimSpace(name)
	if hasLayoutExt(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
