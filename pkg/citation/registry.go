package citation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/fsnotify.v1"
	"gopkg.in/yaml.v3"
)

// SyntaxFile is the YAML shape for a user-defined marker syntax.
type SyntaxFile struct {
	// Name identifies the syntax; must be unique within the registry.
	Name string `yaml:"name" json:"name"`

	// Pattern is a Go regex with capture group 1 holding the document id.
	Pattern string `yaml:"pattern" json:"pattern"`
}

// SyntaxRegistry manages the set of marker syntaxes used for extraction.
// The builtin grammars are always present and cannot be removed; additional
// grammars can be registered programmatically or loaded from YAML files in a
// directory, optionally with hot reload. Thread-safe for concurrent use.
type SyntaxRegistry struct {
	mu       sync.RWMutex
	builtins []MarkerSyntax
	extra    map[string]MarkerSyntax
	order    []string // registration order of extra syntaxes
	dir      string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
}

// NewSyntaxRegistry creates a registry seeded with the builtin syntaxes.
func NewSyntaxRegistry() *SyntaxRegistry {
	return &SyntaxRegistry{
		builtins: BuiltinSyntaxes(),
		extra:    make(map[string]MarkerSyntax),
	}
}

// Register adds a syntax to the registry. Returns an error if the syntax is
// nil, unnamed, or its name collides with a builtin or registered syntax.
func (registry *SyntaxRegistry) Register(syntax MarkerSyntax) error {
	if syntax == nil {
		return fmt.Errorf("marker syntax cannot be nil")
	}
	syntaxName := syntax.Name()
	if syntaxName == "" {
		return fmt.Errorf("marker syntax name cannot be empty")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	for _, builtin := range registry.builtins {
		if builtin.Name() == syntaxName {
			return fmt.Errorf("marker syntax %q is builtin and cannot be replaced", syntaxName)
		}
	}
	if _, exists := registry.extra[syntaxName]; exists {
		return fmt.Errorf("marker syntax %q already registered", syntaxName)
	}

	registry.extra[syntaxName] = syntax
	registry.order = append(registry.order, syntaxName)
	return nil
}

// Unregister removes a previously registered syntax by name.
// Builtin syntaxes cannot be unregistered.
func (registry *SyntaxRegistry) Unregister(syntaxName string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	for _, builtin := range registry.builtins {
		if builtin.Name() == syntaxName {
			return fmt.Errorf("marker syntax %q is builtin and cannot be unregistered", syntaxName)
		}
	}
	if _, exists := registry.extra[syntaxName]; !exists {
		return fmt.Errorf("marker syntax %q not found", syntaxName)
	}

	delete(registry.extra, syntaxName)
	filteredOrder := make([]string, 0, len(registry.order))
	for _, existingName := range registry.order {
		if existingName != syntaxName {
			filteredOrder = append(filteredOrder, existingName)
		}
	}
	registry.order = filteredOrder
	return nil
}

// List returns all syntax names: builtins first in evaluation order, then
// registered syntaxes sorted by name.
func (registry *SyntaxRegistry) List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.builtins)+len(registry.extra))
	for _, builtin := range registry.builtins {
		names = append(names, builtin.Name())
	}
	extraNames := make([]string, 0, len(registry.extra))
	for syntaxName := range registry.extra {
		extraNames = append(extraNames, syntaxName)
	}
	sort.Strings(extraNames)
	return append(names, extraNames...)
}

// Count returns the total number of syntaxes, builtins included.
func (registry *SyntaxRegistry) Count() int {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return len(registry.builtins) + len(registry.extra)
}

// Extractor returns an Extractor over the current syntax set: builtins first,
// then registered syntaxes in registration order. The extractor holds a
// snapshot; later registry changes do not affect it.
func (registry *SyntaxRegistry) Extractor() *Extractor {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	syntaxes := make([]MarkerSyntax, 0, len(registry.builtins)+len(registry.order))
	syntaxes = append(syntaxes, registry.builtins...)
	for _, syntaxName := range registry.order {
		syntaxes = append(syntaxes, registry.extra[syntaxName])
	}
	return NewExtractor(syntaxes...)
}

// LoadDirectory loads all YAML syntax files from a directory. A missing
// directory is not an error (nothing to load). Files that fail to parse or
// compile are reported together; valid files are still registered.
func (registry *SyntaxRegistry) LoadDirectory(dir string) error {
	registry.mu.Lock()
	registry.dir = dir
	registry.mu.Unlock()

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var loadErrors []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		if err := registry.LoadFile(filepath.Join(dir, name)); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("errors loading syntaxes: %s", strings.Join(loadErrors, "; "))
	}
	return nil
}

// LoadFile loads a single YAML syntax file. Reloading a file replaces the
// syntax previously registered under the same name.
func (registry *SyntaxRegistry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var syntaxFile SyntaxFile
	if err := yaml.Unmarshal(data, &syntaxFile); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}
	if syntaxFile.Name == "" {
		return fmt.Errorf("syntax name is required")
	}

	syntax, err := NewRegexSyntax(syntaxFile.Name, syntaxFile.Pattern)
	if err != nil {
		return err
	}

	// Replace-on-reload: drop any prior registration under this name.
	registry.mu.Lock()
	if _, exists := registry.extra[syntaxFile.Name]; exists {
		delete(registry.extra, syntaxFile.Name)
		filteredOrder := make([]string, 0, len(registry.order))
		for _, existingName := range registry.order {
			if existingName != syntaxFile.Name {
				filteredOrder = append(filteredOrder, existingName)
			}
		}
		registry.order = filteredOrder
	}
	registry.mu.Unlock()

	return registry.Register(syntax)
}

// Reload clears all loaded syntaxes and reloads from the configured
// directory. Builtins are unaffected.
func (registry *SyntaxRegistry) Reload() error {
	registry.mu.Lock()
	if registry.dir == "" {
		registry.mu.Unlock()
		return fmt.Errorf("no directory configured for reload")
	}
	dir := registry.dir
	registry.extra = make(map[string]MarkerSyntax)
	registry.order = nil
	registry.mu.Unlock()

	return registry.LoadDirectory(dir)
}

// Watch starts watching the configured syntax directory for changes.
// Created or modified YAML files are reloaded in place; removals trigger a
// full directory reload.
func (registry *SyntaxRegistry) Watch() error {
	registry.mu.RLock()
	dir := registry.dir
	registry.mu.RUnlock()
	if dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	registry.watcher = watcher
	registry.stopChan = make(chan struct{})

	go registry.watchLoop()

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	return nil
}

// StopWatch stops watching the syntax directory.
func (registry *SyntaxRegistry) StopWatch() {
	if registry.stopChan != nil {
		close(registry.stopChan)
	}
	if registry.watcher != nil {
		registry.watcher.Close()
	}
}

// watchLoop handles file system events until stopped.
func (registry *SyntaxRegistry) watchLoop() {
	for {
		select {
		case <-registry.stopChan:
			return

		case event, ok := <-registry.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".yaml") && !strings.HasSuffix(event.Name, ".yml") {
				continue
			}
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				_ = registry.LoadFile(event.Name)
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				_ = registry.Reload()
			}

		case _, ok := <-registry.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
