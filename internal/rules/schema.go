package rules

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aaltino/hubempresas-sub001/internal/validation"
)

//go:embed schema/*.schema.json
var schemaFS embed.FS

// Rule file kinds. Each has an embedded schema and a file name in the
// rules directory.
const (
	KindTemplates = "templates"
	KindPrograms  = "programs"
	KindBadges    = "badges"
)

var (
	schemaOnce     sync.Once
	schemaCompiled map[string]*jsonschema.Schema
	schemaErr      error
)

// schemas compiles the embedded schemas once.
func schemas() (map[string]*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaCompiled = make(map[string]*jsonschema.Schema, 3)
		for _, kind := range []string{KindTemplates, KindPrograms, KindBadges} {
			raw, err := schemaFS.ReadFile("schema/" + kind + ".schema.json")
			if err != nil {
				schemaErr = fmt.Errorf("read %s schema: %w", kind, err)
				return
			}
			c := jsonschema.NewCompiler()
			c.Draft = jsonschema.Draft2020
			url := fmt.Sprintf("https://progression.schemas.local/rules/%s.schema.json", kind)
			if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
				schemaErr = fmt.Errorf("load %s schema: %w", kind, err)
				return
			}
			compiled, err := c.Compile(url)
			if err != nil {
				schemaErr = fmt.Errorf("compile %s schema: %w", kind, err)
				return
			}
			schemaCompiled[kind] = compiled
		}
	})
	return schemaCompiled, schemaErr
}

// validateDocument checks a decoded YAML document against the schema for
// kind. Every leaf violation becomes a ConfigError against source.
func validateDocument(kind, source string, doc any) error {
	all, err := schemas()
	if err != nil {
		return err
	}

	// Round-trip through JSON so the validator sees JSON types only.
	raw, err := json.Marshal(doc)
	if err != nil {
		return validation.Newf(source, "", "document is not representable as JSON: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return validation.Newf(source, "", "decode document: %v", err)
	}

	err = all[kind].Validate(v)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return validation.Newf(source, "", "%v", err)
	}

	var errs validation.Errors
	for _, leaf := range leaves(verr) {
		errs.Addf(source, leaf.InstanceLocation, "%s", leaf.Message)
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs.Err()
}

func leaves(e *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return []*jsonschema.ValidationError{e}
	}
	var out []*jsonschema.ValidationError
	for _, c := range e.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}
