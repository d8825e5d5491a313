package internal

import (
	"github.com/lychee-technology/schemata"
)

// Classification partitions a property table by embedding and optionality.
// Every list keeps declaration order.
type Classification struct {
	All                 []string
	NonEmbedded         []string
	Required            []string
	RequiredNonEmbedded []string
	Embedded            []string
}

// Classify partitions table. It is a pure function of the table.
func Classify(table schemata.PropertyTable) Classification {
	c := Classification{
		All:                 make([]string, 0, len(table)),
		NonEmbedded:         make([]string, 0, len(table)),
		Required:            make([]string, 0),
		RequiredNonEmbedded: make([]string, 0),
		Embedded:            make([]string, 0),
	}
	for _, f := range table {
		c.All = append(c.All, f.Name)
		embedded := schemata.IsEmbedded(f.Type)
		required := IsRequired(f)
		if embedded {
			c.Embedded = append(c.Embedded, f.Name)
		} else {
			c.NonEmbedded = append(c.NonEmbedded, f.Name)
		}
		if required {
			c.Required = append(c.Required, f.Name)
			if !embedded {
				c.RequiredNonEmbedded = append(c.RequiredNonEmbedded, f.Name)
			}
		}
	}
	return c
}

// IsRequired is the single optionality predicate shared by the structural
// validator and the JSON Schema generator.
func IsRequired(f schemata.Field) bool {
	return f.Options.Required()
}

// embeddedRef returns the referenced definition of an embedded field and whether
// the field holds a collection.
func embeddedRef(t schemata.FieldType) (*schemata.Definition, bool) {
	switch ft := t.(type) {
	case schemata.EntityType:
		return ft.Ref, false
	case schemata.ArrayType:
		if e, ok := ft.Inner.(schemata.EntityType); ok {
			return e.Ref, true
		}
	}
	return nil, false
}
