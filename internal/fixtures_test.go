package internal

import (
	"github.com/lychee-technology/schemata"
)

var testUser = schemata.NewDefinition("user").
	Field("name", schemata.Text(), schemata.Required()).
	Field("email", schemata.Text()).
	MustBuild()

var testComment = schemata.NewDefinition("comment").
	Field("body", schemata.Text(), schemata.Required(), schemata.With(schemata.OptionMinLength, 1)).
	Field("score", schemata.Integer()).
	MustBuild()

var testPost = schemata.NewDefinition("post").
	Field("title", schemata.Text(), schemata.Required()).
	Field("description", schemata.Text()).
	Field("likes", schemata.Integer(), schemata.Required(), schemata.With(schemata.OptionMinimum, 0)).
	Field("author", schemata.Object(testUser)).
	Field("comments", schemata.ArrayOf(schemata.Object(testComment))).
	Field("tags", schemata.ArrayOf(schemata.Text())).
	Field("status", schemata.Enum("draft", "published"), schemata.Default("draft")).
	Field("priority", schemata.IntEnum(
		schemata.EnumValue{Name: "low", Value: 1},
		schemata.EnumValue{Name: "high", Value: 2},
	)).
	MustBuild()

func validPostInput() map[string]any {
	return map[string]any{
		"title":       "Hello",
		"description": "first post",
		"likes":       float64(3),
		"author":      map[string]any{"name": "ada", "email": "ada@example.com"},
		"comments": []any{
			map[string]any{"body": "nice", "score": float64(5)},
			map[string]any{"body": "meh"},
		},
		"tags":     []any{"go", "schema"},
		"status":   "published",
		"priority": float64(2),
	}
}
