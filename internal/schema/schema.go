// Package schema provides shallow validation of tool call arguments
// against their declared JSON-Schema input_schema documents
// (spec §4.5): only the schema's top-level "required" list and
// top-level property type hints are checked. Deep JSON-Schema
// validation (nested objects, format/content assertions, conditional
// schemas) is explicitly out of scope here and left to the handler,
// which receives the raw arguments and may validate further itself.
//
// Grounded in the teacher's internal/schema/validator.go compiler setup
// (santhosh-tekuri/jsonschema/v5, Draft2020, AssertFormat/AssertContent)
// but scoped down from a whole-protocol message validator to a
// per-tool argument pre-check, since spec §4.5 deliberately keeps
// argument validation shallow rather than delegating full schema
// compliance to the framework.
package schema

// file: internal/schema/schema.go

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator compiles and caches JSON-Schema documents by name (a tool
// name) and performs shallow argument checks against them.
// Safe for concurrent use.
type Validator struct {
	compiler *jsonschema.Compiler
	mu       sync.RWMutex
	schemas  map[string]*jsonschema.Schema
}

// New builds a Validator with a fresh compiler, configured the way the
// teacher configures its whole-protocol compiler.
func New() *Validator {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	compiler.AssertContent = true

	return &Validator{
		compiler: compiler,
		schemas:  make(map[string]*jsonschema.Schema),
	}
}

// Compile adds schemaDoc as an in-memory resource under name and
// compiles it, caching the result for later ValidateShallow calls. A
// nil or empty schemaDoc is treated as "no constraints" and compiles
// to an always-passing schema.
func (v *Validator) Compile(name string, schemaDoc json.RawMessage) error {
	if len(schemaDoc) == 0 {
		schemaDoc = json.RawMessage(`{}`)
	}

	resourceID := "mem://" + name
	var doc interface{}
	if err := json.Unmarshal(schemaDoc, &doc); err != nil {
		return fmt.Errorf("schema: %s: invalid schema document: %w", name, err)
	}
	if err := v.compiler.AddResource(resourceID, bytesReader(schemaDoc)); err != nil {
		return fmt.Errorf("schema: %s: add resource: %w", name, err)
	}
	compiled, err := v.compiler.Compile(resourceID)
	if err != nil {
		return fmt.Errorf("schema: %s: compile: %w", name, err)
	}

	v.mu.Lock()
	v.schemas[name] = compiled
	v.mu.Unlock()
	return nil
}

// ValidateShallow checks arguments against name's compiled schema,
// enforcing only two things (spec §4.5): every field in the schema's
// top-level "required" list is present, and any top-level property
// present in arguments whose schema declares a single scalar "type"
// matches that type. Nested schemas, formats, and conditionals are not
// walked. A name with no compiled schema is treated as unconstrained.
func (v *Validator) ValidateShallow(name string, arguments json.RawMessage) error {
	v.mu.RLock()
	compiled, ok := v.schemas[name]
	v.mu.RUnlock()
	if !ok {
		return nil
	}

	fields := map[string]interface{}{}
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &fields); err != nil {
			return fmt.Errorf("schema: %s: arguments must be a JSON object: %w", name, err)
		}
	}

	for _, req := range compiled.Required {
		if _, present := fields[req]; !present {
			return fmt.Errorf("schema: %s: missing required argument %q", name, req)
		}
	}

	for propName, propSchema := range compiled.Properties {
		value, present := fields[propName]
		if !present || propSchema == nil || len(propSchema.Types) != 1 {
			continue
		}
		if !matchesType(value, propSchema.Types[0]) {
			return fmt.Errorf("schema: %s: argument %q must be of type %q", name, propName, propSchema.Types[0])
		}
	}
	return nil
}

// Decode loosely decodes arguments (a JSON object) into target, a
// pointer to a struct or map, via mapstructure with weakly typed input
// rather than a strict encoding/json round-trip, so a value such as "3"
// decodes into an int field. The built-in echo tool's handler and the
// prompt registry's argument check call it.
func Decode(arguments json.RawMessage, target interface{}) error {
	raw := map[string]interface{}{}
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &raw); err != nil {
			return fmt.Errorf("schema: decode: arguments must be a JSON object: %w", err)
		}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("schema: decode: build decoder: %w", err)
	}
	return decoder.Decode(raw)
}

// bytesReader adapts a json.RawMessage to the io.Reader AddResource
// expects.
func bytesReader(data json.RawMessage) io.Reader {
	return bytes.NewReader(data)
}

// matchesType reports whether value's dynamic JSON type (as produced by
// encoding/json's default decoding into interface{}) matches jsonType,
// one of JSON-Schema's primitive type names.
func matchesType(value interface{}, jsonType string) bool {
	switch jsonType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "integer":
		f, ok := value.(float64)
		return ok && f == float64(int64(f))
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "null":
		return value == nil
	default:
		return true
	}
}
