package internal

import (
	"fmt"

	"github.com/lychee-technology/schemata"
)

// StructuralValidator casts input into a record: non-embedded fields go through
// the Caster, embedded fields through the referenced definition's own
// StructuralValidator.
type StructuralValidator struct {
	def      *schemata.Definition
	class    Classification
	caster   *Caster
	codec    *Codec
	children map[string]*StructuralValidator
}

// NewStructuralValidator builds the validator for def and, recursively, for every
// definition it embeds. Validators of shared references are built once.
func NewStructuralValidator(def *schemata.Definition, caster *Caster, codec *Codec) (*StructuralValidator, error) {
	return buildStructural(def, caster, codec, make(map[*schemata.Definition]*StructuralValidator), nil)
}

func buildStructural(
	def *schemata.Definition,
	caster *Caster,
	codec *Codec,
	built map[*schemata.Definition]*StructuralValidator,
	path []*schemata.Definition,
) (*StructuralValidator, error) {
	if def == nil {
		return nil, schemata.NewDefinitionError("", "", "definition cannot be nil")
	}
	if v, ok := built[def]; ok {
		return v, nil
	}
	for _, p := range path {
		if p == def {
			return nil, schemata.NewDefinitionError(def.Name, "", "cyclic reference: "+def.Name)
		}
	}
	path = append(path, def)

	v := &StructuralValidator{
		def:      def,
		class:    Classify(def.Fields),
		caster:   caster,
		codec:    codec,
		children: make(map[string]*StructuralValidator),
	}
	for _, name := range v.class.Embedded {
		field, _ := def.Fields.Lookup(name)
		ref, _ := embeddedRef(field.Type)
		child, err := buildStructural(ref, caster, codec, built, path)
		if err != nil {
			return nil, err
		}
		v.children[name] = child
	}
	built[def] = v
	return v, nil
}

// Definition returns the validated definition.
func (v *StructuralValidator) Definition() *schemata.Definition {
	return v.def
}

// Validate normalizes input to a generic map and casts it. A nil report means
// success. The error is set only when input cannot be read as an object at all.
func (v *StructuralValidator) Validate(input any) (*schemata.Record, *schemata.ErrorReport, error) {
	m, err := v.codec.Normalize(input)
	if err != nil {
		return nil, nil, err
	}
	rec, report := v.validateMap(m)
	return rec, report, nil
}

func (v *StructuralValidator) validateMap(input map[string]any) (*schemata.Record, *schemata.ErrorReport) {
	values, report := v.caster.Cast(v.def, input, CastOptions{
		Permitted: v.class.NonEmbedded,
		Required:  v.class.RequiredNonEmbedded,
	})

	for _, name := range v.class.Embedded {
		field, _ := v.def.Fields.Lookup(name)
		_, many := embeddedRef(field.Type)
		child := v.children[name]
		raw := input[name]

		if many {
			recs, fe := v.castEmbedMany(child, field, raw)
			if fe != nil {
				report.Add(name, *fe)
			}
			values[name] = recs
			continue
		}

		rec, fe := v.castEmbedOne(child, field, raw)
		if fe != nil {
			report.Add(name, *fe)
		}
		if rec != nil {
			values[name] = rec
		} else {
			values[name] = nil
		}
	}

	if !report.Empty() {
		return nil, report
	}
	return schemata.NewRecord(v.def, values), nil
}

func (v *StructuralValidator) castEmbedOne(child *StructuralValidator, field schemata.Field, raw any) (*schemata.Record, *schemata.FieldError) {
	if rec, ok := raw.(*schemata.Record); ok && rec == nil {
		raw = nil
	}
	if raw == nil {
		if IsRequired(field) {
			fe := requiredError()
			return nil, &fe
		}
		return nil, nil
	}
	m, ok := embeddedInput(raw)
	if !ok {
		fe := castError(field.Type)
		return nil, &fe
	}
	rec, report := child.validateMap(m)
	if report != nil {
		return nil, &schemata.FieldError{
			Message: msgInvalid,
			Context: map[string]any{"validation": schemata.ValidationEmbed},
			Nested:  report,
		}
	}
	return rec, nil
}

func (v *StructuralValidator) castEmbedMany(child *StructuralValidator, field schemata.Field, raw any) ([]*schemata.Record, *schemata.FieldError) {
	if raw == nil {
		if IsRequired(field) {
			fe := requiredError()
			return []*schemata.Record{}, &fe
		}
		return []*schemata.Record{}, nil
	}

	var elements []any
	switch items := raw.(type) {
	case []*schemata.Record:
		elements = make([]any, len(items))
		for i, item := range items {
			elements[i] = item
		}
	default:
		var ok bool
		elements, ok = toSlice(raw)
		if !ok {
			fe := castError(field.Type)
			return []*schemata.Record{}, &fe
		}
	}

	maps := make([]map[string]any, len(elements))
	for i, element := range elements {
		m, ok := embeddedInput(element)
		if !ok {
			fe := castError(field.Type)
			return []*schemata.Record{}, &fe
		}
		maps[i] = m
	}

	recs := make([]*schemata.Record, len(maps))
	items := make([]*schemata.ErrorReport, len(maps))
	failed := false
	for i, m := range maps {
		rec, report := child.validateMap(m)
		if report != nil {
			items[i] = report
			failed = true
			continue
		}
		recs[i] = rec
	}
	if failed {
		return []*schemata.Record{}, &schemata.FieldError{
			Message: msgInvalid,
			Context: map[string]any{"validation": schemata.ValidationEmbed},
			Items:   items,
		}
	}
	return recs, nil
}

// embeddedInput reads an embedded value as a generic map. Embedded values must
// already be objects; JSON text is not decoded at this level.
func embeddedInput(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case *schemata.Record:
		if v == nil {
			return nil, false
		}
		return v.ToMap(), true
	case schemata.Record:
		return v.ToMap(), true
	default:
		return toStringMap(raw)
	}
}

func (v *StructuralValidator) String() string {
	return fmt.Sprintf("StructuralValidator(%s)", v.def.Name)
}
