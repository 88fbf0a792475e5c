// Package validation checks request bodies against JSON schemas and reports
// failures as field-level errors.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/todoflow-labs/todo-service/internal/dto"
)

const todoBodySchema = `{
	"type": "object",
	"required": ["title", "description"],
	"properties": {
		"title": {"type": "string"},
		"description": {"type": "string"}
	}
}`

var (
	todoCreateSchema = mustCompile("https://todoflow-labs.dev/schemas/todo_create.json", todoBodySchema)
	todoUpdateSchema = mustCompile("https://todoflow-labs.dev/schemas/todo_update.json", todoBodySchema)
)

// Error carries the field errors of one rejected body.
type Error struct {
	Fields []dto.FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", strings.Join(f.Loc, "."), f.Msg))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func mustCompile(url, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(url)
}

// DecodeTodoCreate builds the create input from the validated document, so
// keys the schema does not know about (including case variants) are ignored.
func DecodeTodoCreate(body []byte) (dto.TodoCreate, error) {
	doc, err := decode(todoCreateSchema, body)
	if err != nil {
		return dto.TodoCreate{}, err
	}
	return dto.TodoCreate{Title: doc["title"].(string), Description: doc["description"].(string)}, nil
}

func DecodeTodoUpdate(body []byte) (dto.TodoUpdate, error) {
	doc, err := decode(todoUpdateSchema, body)
	if err != nil {
		return dto.TodoUpdate{}, err
	}
	return dto.TodoUpdate{Title: doc["title"].(string), Description: doc["description"].(string)}, nil
}

// BodyError reports a body that could not be read at all.
func BodyError(msg string) *Error {
	return &Error{Fields: []dto.FieldError{{
		Loc:  []string{"body"},
		Msg:  msg,
		Type: "value_error",
	}}}
}

// PathError reports a path parameter that failed to parse.
func PathError(name, msg string) *Error {
	return &Error{Fields: []dto.FieldError{{
		Loc:  []string{"path", name},
		Msg:  msg,
		Type: "type_error",
	}}}
}

// decode returns the document only after it passed schema, so the object
// type and the required string fields are guaranteed.
func decode(schema *jsonschema.Schema, body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, invalidJSON(err.Error())
	}
	if dec.More() {
		return nil, invalidJSON("unexpected data after top-level value")
	}

	if err := schema.Validate(doc); err != nil {
		return nil, toError(err)
	}
	return doc.(map[string]any), nil
}

func invalidJSON(msg string) *Error {
	return &Error{Fields: []dto.FieldError{{
		Loc:  []string{"body"},
		Msg:  "invalid JSON: " + msg,
		Type: "json_invalid",
	}}}
}

func toError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &Error{Fields: []dto.FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}}
	}
	e := &Error{}
	collect(ve, e)
	if len(e.Fields) == 0 {
		e.Fields = append(e.Fields, dto.FieldError{Loc: []string{"body"}, Msg: ve.Message, Type: "value_error"})
	}
	return e
}

// collect walks the cause tree and keeps the leaves.
func collect(ve *jsonschema.ValidationError, e *Error) {
	if len(ve.Causes) == 0 {
		e.Fields = append(e.Fields, dto.FieldError{
			Loc:  location(ve.InstanceLocation),
			Msg:  ve.Message,
			Type: errorType(ve.KeywordLocation),
		})
		return
	}
	for _, cause := range ve.Causes {
		collect(cause, e)
	}
}

func location(pointer string) []string {
	loc := []string{"body"}
	for _, part := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		loc = append(loc, part)
	}
	return loc
}

func errorType(keywordLocation string) string {
	switch {
	case strings.HasSuffix(keywordLocation, "/required"):
		return "missing"
	case strings.HasSuffix(keywordLocation, "/type"):
		return "type_error"
	default:
		return "value_error"
	}
}
