package internal

import (
	"strings"
	"sync"

	"github.com/ettle/strcase"
	"github.com/lychee-technology/schemata"
)

// ExtensionStructKey names the originating definition in generated documents.
const ExtensionStructKey = "x-struct"

// Generator translates definitions into JSON Schema documents. Entities are
// inlined rather than referenced through $ref.
type Generator struct {
	mu      sync.RWMutex
	cache   map[*schemata.Definition]map[string]any
	caching bool
}

// NewGenerator creates a Generator. When caching is enabled, documents are
// generated once per definition; every call still returns a private copy.
func NewGenerator(caching bool) *Generator {
	return &Generator{
		cache:   make(map[*schemata.Definition]map[string]any),
		caching: caching,
	}
}

// Generate returns the document for def:
//
//	{"type": "object", "properties": {...}, "required": [...], "title": name, "x-struct": name}
func (g *Generator) Generate(def *schemata.Definition) map[string]any {
	if !g.caching {
		return g.build(def)
	}

	g.mu.RLock()
	doc, ok := g.cache[def]
	g.mu.RUnlock()
	if ok {
		return deepCopyMap(doc)
	}

	doc = g.build(def)
	g.mu.Lock()
	g.cache[def] = doc
	g.mu.Unlock()
	return deepCopyMap(doc)
}

// FieldSchema returns the schema of a single field, including the null union
// for optional fields.
func (g *Generator) FieldSchema(f schemata.Field) map[string]any {
	base := g.baseSchema(f.Type, f.Options)

	var out map[string]any
	if IsRequired(f) {
		out = base
	} else {
		out = map[string]any{
			"anyOf": []any{base, map[string]any{"type": "null"}},
		}
	}

	if desc, ok := f.Options[schemata.OptionDescription]; ok {
		out["description"] = desc
	}
	if dflt, ok := f.Options.Default(); ok {
		out["default"] = dumpValue(f.Type, dflt)
	}
	return out
}

func (g *Generator) build(def *schemata.Definition) map[string]any {
	properties := make(map[string]any, len(def.Fields))
	required := make([]any, 0)
	for _, f := range def.Fields {
		properties[f.Name] = g.FieldSchema(f)
		if IsRequired(f) {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":             "object",
		"properties":       properties,
		"required":         required,
		"title":            def.Name,
		ExtensionStructKey: def.Name,
	}
}

func (g *Generator) baseSchema(t schemata.FieldType, opts schemata.Options) map[string]any {
	var schema map[string]any
	switch ft := t.(type) {
	case schemata.ScalarType:
		schema = scalarSchema(ft.Kind)
		switch {
		case ft.Kind.IsNumeric():
			mergeOptions(schema, opts, schemata.NumericOptions)
		case ft.Kind.IsTextual():
			mergeOptions(schema, opts, schemata.StringOptions)
		case ft.Kind == schemata.KindMap:
			mergeOptions(schema, opts, schemata.ObjectOptions)
		}
	case schemata.EntityType:
		schema = g.Generate(ft.Ref)
		mergeOptions(schema, opts, schemata.ObjectOptions)
	case schemata.ArrayType:
		schema = map[string]any{
			"type":  "array",
			"items": g.itemSchema(ft.Inner),
		}
		mergeOptions(schema, opts, schemata.ArrayOptions)
	case schemata.EnumType:
		schema = enumSchema(ft)
	default:
		schema = map[string]any{}
	}

	for _, key := range opts.Keys() {
		if schemata.IsRecognizedOption(key) {
			continue
		}
		schema[jsonSchemaKey(key)] = deepCopyValue(opts[key])
	}
	return schema
}

func (g *Generator) itemSchema(inner schemata.FieldType) map[string]any {
	switch it := inner.(type) {
	case schemata.EnumType:
		return enumSchema(it)
	case schemata.ScalarType:
		return scalarSchema(it.Kind)
	case schemata.EntityType:
		return g.Generate(it.Ref)
	default:
		return map[string]any{}
	}
}

func scalarSchema(kind schemata.Kind) map[string]any {
	switch kind {
	case schemata.KindBinary, schemata.KindString, schemata.KindDecimal:
		return map[string]any{"type": "string"}
	case schemata.KindBinaryID:
		return map[string]any{"type": "string", "format": "uuid"}
	case schemata.KindBoolean:
		return map[string]any{"type": "boolean"}
	case schemata.KindFloat:
		return map[string]any{"type": "number"}
	case schemata.KindID, schemata.KindInteger:
		return map[string]any{"type": "integer"}
	case schemata.KindMap:
		return map[string]any{"type": "object"}
	case schemata.KindDate:
		return map[string]any{"type": "string", "format": "date"}
	case schemata.KindTime, schemata.KindTimeUsec:
		return map[string]any{"type": "string", "format": "time"}
	case schemata.KindNaiveDatetime, schemata.KindNaiveDatetimeUsec,
		schemata.KindUTCDatetime, schemata.KindUTCDatetimeUsec:
		return map[string]any{"type": "string", "format": "date-time"}
	default:
		return map[string]any{}
	}
}

func enumSchema(t schemata.EnumType) map[string]any {
	values := make([]any, len(t.Values))
	for i, v := range t.Values {
		if t.Integer {
			values[i] = v.Value
		} else {
			values[i] = v.Name
		}
	}
	if t.Integer {
		return map[string]any{"type": "integer", "enum": values}
	}
	return map[string]any{"type": "string", "enum": values}
}

func mergeOptions(schema map[string]any, opts schemata.Options, keys []string) {
	for _, key := range keys {
		if v, ok := opts[key]; ok {
			schema[jsonSchemaKey(key)] = deepCopyValue(v)
		}
	}
}

// jsonSchemaKey renames a snake_case option to its camelCase keyword.
// Extension keywords ("x-...") are kept verbatim.
func jsonSchemaKey(key string) string {
	if strings.HasPrefix(key, "x-") {
		return key
	}
	return strcase.ToCamel(key)
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	default:
		return v
	}
}
