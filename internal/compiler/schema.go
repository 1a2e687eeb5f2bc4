package compiler

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce  sync.Once
	schemaValue cue.Value
	schemaErr   error
)

// documentSchema compiles the embedded CUE schema once and returns the
// #Document definition.
func documentSchema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := root.Err(); err != nil {
			schemaErr = fmt.Errorf("compile embedded schema: %w", err)
			return
		}
		schemaValue = root.LookupPath(cue.ParsePath("#Document"))
		if err := schemaValue.Err(); err != nil {
			schemaErr = fmt.Errorf("embedded schema has no #Document: %w", err)
		}
	})
	return schemaValue, schemaErr
}

// CheckSchema validates raw document bytes against the structural
// schema. Returns all violations found; an unreadable document is a
// single E001.
func CheckSchema(data []byte) []ValidationError {
	schema, err := documentSchema()
	if err != nil {
		return []ValidationError{{
			Field:   "schema",
			Message: err.Error(),
			Code:    ErrDocSchema,
		}}
	}

	expr, err := cuejson.Extract("document.json", data)
	if err != nil {
		return []ValidationError{{
			Field:   "document",
			Message: fmt.Sprintf("document is not valid JSON: %v", err),
			Code:    ErrDocUnreadable,
		}}
	}

	doc := schema.Context().BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return []ValidationError{{
			Field:   "document",
			Message: fmt.Sprintf("document could not be evaluated: %v", err),
			Code:    ErrDocUnreadable,
		}}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		var errs []ValidationError
		for _, e := range cueerrors.Errors(err) {
			errs = append(errs, ValidationError{
				Field:   cuePathString(e.Path()),
				Message: e.Error(),
				Code:    ErrDocSchema,
			})
		}
		return errs
	}
	return nil
}

func cuePathString(path []string) string {
	if len(path) == 0 {
		return "document"
	}
	return strings.Join(path, ".")
}
