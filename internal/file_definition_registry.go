package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lychee-technology/schemata"
	"go.uber.org/zap"
)

// definitionRegistry is an in-memory DefinitionRegistry. It is filled from a
// directory of definition files, from a database table, or directly.
type definitionRegistry struct {
	mu          sync.RWMutex
	definitions map[string]*schemata.Definition
}

// NewDefinitionRegistry creates a registry holding defs and every definition
// they reference.
func NewDefinitionRegistry(defs ...*schemata.Definition) (schemata.DefinitionRegistry, error) {
	registry := &definitionRegistry{definitions: make(map[string]*schemata.Definition)}
	for _, def := range defs {
		if err := registry.register(def); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// NewFileDefinitionRegistry creates a registry from every *.json, *.yaml and
// *.yml file in dir. Each file holds one definition document; a document
// without a name takes the file's base name.
//
// Parameters:
//   - dir: Directory containing the definition files
func NewFileDefinitionRegistry(dir string) (schemata.DefinitionRegistry, error) {
	docs, err := loadDefinitionDocuments(dir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no definition files found in directory: %s", dir)
	}

	defs, err := BuildDefinitions(docs)
	if err != nil {
		return nil, err
	}
	zap.S().Infow("Loaded definitions from directory", "count", len(defs), "directory", dir)
	return &definitionRegistry{definitions: defs}, nil
}

func loadDefinitionDocuments(dir string) ([]DefinitionDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition directory: %w", err)
	}

	var docs []DefinitionDocument
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isDefinitionFile(name) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read definition file %s: %w", path, err)
		}
		doc, err := ParseDefinitionDocument(data, path)
		if err != nil {
			return nil, err
		}
		if doc.Name == "" {
			doc.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func (r *definitionRegistry) register(def *schemata.Definition) error {
	if def == nil {
		return schemata.NewDefinitionError("", "", "definition cannot be nil")
	}
	if existing, ok := r.definitions[def.Name]; ok {
		if existing == def {
			return nil
		}
		return schemata.NewDefinitionError(def.Name, "", "duplicate definition")
	}
	r.definitions[def.Name] = def
	for _, ref := range def.References() {
		if err := r.register(ref); err != nil {
			return err
		}
	}
	return nil
}

// GetDefinition retrieves a definition by name
func (r *definitionRegistry) GetDefinition(name string) (*schemata.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.definitions[name]
	if !exists {
		return nil, schemata.NewDefinitionNotFoundError(name)
	}
	return def, nil
}

// ListDefinitions returns a list of all registered definition names
func (r *definitionRegistry) ListDefinitions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return SortedKeys(r.definitions)
}
