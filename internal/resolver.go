package internal

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/schemata"
)

// Resolver compiles generated documents into validation handles.
type Resolver struct {
	generator *Generator
	codec     *Codec
}

// NewResolver creates a Resolver.
func NewResolver(generator *Generator, codec *Codec) *Resolver {
	return &Resolver{generator: generator, codec: codec}
}

// Compile generates the document of def and compiles it. Every property is also
// compiled on its own, so violations can be attributed to a field pointer.
func (r *Resolver) Compile(def *schemata.Definition) (*CompiledSchema, error) {
	doc := r.generator.Generate(def)
	root, err := r.resolve(doc)
	if err != nil {
		return nil, schemata.NewSchemaInvalidError(def.Name, err)
	}

	compiled := &CompiledSchema{
		def:         def,
		document:    doc,
		root:        root,
		properties:  make(map[string]*jsonschema.Resolved, len(def.Fields)),
		definitions: collectDefinitions(def, nil),
	}
	for _, f := range def.Fields {
		handle, err := r.resolve(r.generator.FieldSchema(f))
		if err != nil {
			return nil, schemata.NewSchemaInvalidError(def.Name, err).WithField(f.Name)
		}
		compiled.properties[f.Name] = handle
	}
	return compiled, nil
}

func (r *Resolver) resolve(doc map[string]any) (*jsonschema.Resolved, error) {
	data, err := r.codec.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve JSON schema: %w", err)
	}
	return resolved, nil
}

// CompiledSchema is the resolved form of a generated document. It satisfies
// schemata.CompiledSchema.
type CompiledSchema struct {
	def         *schemata.Definition
	document    map[string]any
	root        *jsonschema.Resolved
	properties  map[string]*jsonschema.Resolved
	definitions map[string]*schemata.Definition
}

// Document returns a copy of the raw generated document.
func (s *CompiledSchema) Document() map[string]any {
	return deepCopyMap(s.document)
}

// Validate checks a canonical JSON value tree. Violations of a declared property
// point at "#/<field>"; missing required properties and document-level failures
// point at "#".
func (s *CompiledSchema) Validate(value any) []schemata.Violation {
	err := s.root.Validate(value)
	if err == nil {
		return nil
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return []schemata.Violation{{Message: err.Error(), Pointer: "#"}}
	}

	var violations []schemata.Violation
	for _, f := range s.def.Fields {
		v, present := obj[f.Name]
		if !present {
			if IsRequired(f) {
				violations = append(violations, schemata.Violation{
					Message: fmt.Sprintf("required property %q is missing", f.Name),
					Pointer: "#",
				})
			}
			continue
		}
		if ferr := s.properties[f.Name].Validate(v); ferr != nil {
			violations = append(violations, schemata.Violation{
				Message: ferr.Error(),
				Pointer: "#/" + f.Name,
			})
		}
	}

	if len(violations) == 0 {
		violations = append(violations, schemata.Violation{Message: err.Error(), Pointer: "#"})
	}
	return violations
}

// MarshalJSON renders the document with properties in declaration order and
// every other object's keys sorted.
func (s *CompiledSchema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeOrdered(&buf, s.document, s.definitions); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func collectDefinitions(def *schemata.Definition, into map[string]*schemata.Definition) map[string]*schemata.Definition {
	if into == nil {
		into = make(map[string]*schemata.Definition)
	}
	if _, seen := into[def.Name]; seen {
		return into
	}
	into[def.Name] = def
	for _, ref := range def.References() {
		collectDefinitions(ref, into)
	}
	return into
}

func writeOrdered(buf *bytes.Buffer, v any, defs map[string]*schemata.Definition) error {
	switch val := v.(type) {
	case map[string]any:
		keys := SortedKeys(val)

		var owner *schemata.Definition
		if name, ok := val[ExtensionStructKey].(string); ok {
			owner = defs[name]
		}

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			props, isMap := val[k].(map[string]any)
			if k == "properties" && owner != nil && isMap {
				if err := writeProperties(buf, props, owner, defs); err != nil {
					return err
				}
				continue
			}
			if err := writeOrdered(buf, val[k], defs); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeOrdered(buf, item, defs); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return writeJSONValue(buf, v)
	}
}

func writeProperties(buf *bytes.Buffer, props map[string]any, owner *schemata.Definition, defs map[string]*schemata.Definition) error {
	buf.WriteByte('{')
	first := true
	for _, name := range owner.Fields.Names() {
		prop, ok := props[name]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeJSONValue(buf, name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeOrdered(buf, prop, defs); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return schemata.NewCodecError(schemata.ErrCodeInvalidJSON, "failed to marshal JSON schema", err)
	}
	buf.Write(data)
	return nil
}
