package internal

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/lychee-technology/schemata"
	"gopkg.in/yaml.v3"
)

// DefinitionDocument is the serialized form of a definition. Field types are
// written as a kind name ("string"), an entity reference ({"entity": "user"}),
// an array ({"array": <type>}) or an enum ({"enum": ["a", "b"]} or
// {"enum": [{"low": 1}, {"high": 2}]}).
type DefinitionDocument struct {
	Name   string          `json:"name" yaml:"name"`
	Fields []FieldDocument `json:"fields" yaml:"fields"`
}

type FieldDocument struct {
	Name    string         `json:"name" yaml:"name"`
	Type    any            `json:"type" yaml:"type"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// ParseDefinitionDocument decodes a single document. source selects the format
// by extension and is used for readable errors.
func ParseDefinitionDocument(data []byte, source string) (DefinitionDocument, error) {
	var doc DefinitionDocument
	lower := strings.ToLower(source)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return DefinitionDocument{}, fmt.Errorf("failed to parse definition file %s: %w", source, err)
		}
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return DefinitionDocument{}, fmt.Errorf("failed to parse definition file %s: %w", source, err)
	}
	return doc, nil
}

// BuildDefinitions resolves documents into definitions. Entity references are
// resolved by name within docs; dangling and cyclic references are rejected.
func BuildDefinitions(docs []DefinitionDocument) (map[string]*schemata.Definition, error) {
	b := &definitionResolver{
		docs:     make(map[string]DefinitionDocument, len(docs)),
		built:    make(map[string]*schemata.Definition, len(docs)),
		visiting: NewSet[string](),
	}
	for _, doc := range docs {
		if doc.Name == "" {
			return nil, schemata.NewDefinitionError("", "", "definition name cannot be empty")
		}
		if _, dup := b.docs[doc.Name]; dup {
			return nil, schemata.NewDefinitionError(doc.Name, "", "duplicate definition")
		}
		b.docs[doc.Name] = doc
	}

	for _, name := range SortedKeys(b.docs) {
		if _, err := b.resolve(name); err != nil {
			return nil, err
		}
	}
	return b.built, nil
}

type definitionResolver struct {
	docs     map[string]DefinitionDocument
	built    map[string]*schemata.Definition
	visiting *Set[string]
}

func (b *definitionResolver) resolve(name string) (*schemata.Definition, error) {
	if def, ok := b.built[name]; ok {
		return def, nil
	}
	if b.visiting.Contains(name) {
		return nil, schemata.NewDefinitionError(name, "", "cyclic reference: "+name)
	}
	b.visiting.Add(name)
	defer b.visiting.Remove(name)

	doc := b.docs[name]
	builder := schemata.NewDefinition(name)
	for _, f := range doc.Fields {
		t, err := b.parseType(name, f.Name, f.Type)
		if err != nil {
			return nil, err
		}
		builder.FieldWithOptions(f.Name, t, schemata.Options(f.Options))
	}
	def, err := builder.Build()
	if err != nil {
		return nil, err
	}
	b.built[name] = def
	return def, nil
}

func (b *definitionResolver) parseType(defName, fieldName string, raw any) (schemata.FieldType, error) {
	switch v := raw.(type) {
	case string:
		kind, err := schemata.ParseKind(v)
		if err != nil {
			return nil, schemata.NewDefinitionError(defName, fieldName, err.Error())
		}
		return schemata.Scalar(kind), nil
	case map[string]any:
		if len(v) != 1 {
			return nil, schemata.NewDefinitionError(defName, fieldName, "type object must have exactly one key")
		}
		if target, ok := v["entity"]; ok {
			targetName, ok := target.(string)
			if !ok {
				return nil, schemata.NewDefinitionError(defName, fieldName, "entity reference must be a name")
			}
			if _, exists := b.docs[targetName]; !exists {
				return nil, schemata.NewReferenceNotFoundError(defName, fieldName, targetName)
			}
			ref, err := b.resolve(targetName)
			if err != nil {
				return nil, err
			}
			return schemata.Object(ref), nil
		}
		if inner, ok := v["array"]; ok {
			t, err := b.parseType(defName, fieldName, inner)
			if err != nil {
				return nil, err
			}
			return schemata.ArrayOf(t), nil
		}
		if members, ok := v["enum"]; ok {
			return parseEnumType(defName, fieldName, members)
		}
		return nil, schemata.NewDefinitionError(defName, fieldName, "unknown type object")
	case nil:
		return nil, schemata.NewDefinitionError(defName, fieldName, "type is required")
	default:
		return nil, schemata.NewDefinitionError(defName, fieldName, fmt.Sprintf("unsupported type value %v", raw))
	}
}

func parseEnumType(defName, fieldName string, raw any) (schemata.FieldType, error) {
	items, ok := toSlice(raw)
	if !ok || len(items) == 0 {
		return nil, schemata.NewDefinitionError(defName, fieldName, "enum must be a non-empty list")
	}

	if _, symbolic := items[0].(string); symbolic {
		symbols := make([]string, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, schemata.NewDefinitionError(defName, fieldName, "enum members must all be strings")
			}
			symbols[i] = s
		}
		return schemata.Enum(symbols...), nil
	}

	values := make([]schemata.EnumValue, len(items))
	for i, item := range items {
		m, ok := toStringMap(item)
		if !ok || len(m) != 1 {
			return nil, schemata.NewDefinitionError(defName, fieldName, "integer enum members must be single-key objects")
		}
		for name, value := range m {
			n, err := toInt64(value)
			if err != nil {
				return nil, schemata.NewDefinitionError(defName, fieldName, fmt.Sprintf("enum member %s: %v", name, err))
			}
			values[i] = schemata.EnumValue{Name: name, Value: n}
		}
	}
	return schemata.IntEnum(values...), nil
}

// DocumentFromDefinition renders def in the serialized form read by
// BuildDefinitions. Referenced definitions are written by name only.
func DocumentFromDefinition(def *schemata.Definition) DefinitionDocument {
	doc := DefinitionDocument{Name: def.Name, Fields: make([]FieldDocument, len(def.Fields))}
	for i, f := range def.Fields {
		fd := FieldDocument{Name: f.Name, Type: typeDocument(f.Type)}
		if len(f.Options) > 0 {
			fd.Options = make(map[string]any, len(f.Options))
			for k, v := range f.Options {
				fd.Options[k] = v
			}
		}
		doc.Fields[i] = fd
	}
	return doc
}

func typeDocument(t schemata.FieldType) any {
	switch ft := t.(type) {
	case schemata.ScalarType:
		return string(ft.Kind)
	case schemata.EntityType:
		return map[string]any{"entity": ft.Ref.Name}
	case schemata.ArrayType:
		return map[string]any{"array": typeDocument(ft.Inner)}
	case schemata.EnumType:
		members := make([]any, len(ft.Values))
		for i, v := range ft.Values {
			if ft.Integer {
				members[i] = map[string]any{v.Name: v.Value}
			} else {
				members[i] = v.Name
			}
		}
		return map[string]any{"enum": members}
	default:
		return nil
	}
}
