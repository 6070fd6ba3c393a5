package catalog

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

// schemaCUE describes a catalog document. Unknown fields are allowed so a
// catalog can carry data for other consumers.
const schemaCUE = `
#Item: {
	name:         string & !=""
	description?: string
	version?:     string
	category?:    string
	docPath?:     string
	...
}

catalog: [...#Item]
`

// ValidationError is one schema violation in a catalog document.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

func (e ValidationError) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks a catalog document against the catalog schema.
// Returns nil if the document is valid.
func Validate(filename string, data []byte) []ValidationError {
	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return []ValidationError{{Path: "catalog", Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("catalog.cue"))
	if err := schema.Err(); err != nil {
		return []ValidationError{{Path: "schema", Message: err.Error()}}
	}

	doc := ctx.BuildExpr(expr)
	unified := schema.LookupPath(cue.ParsePath("catalog")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		ve := ValidationError{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		}
		if ve.Path == "" {
			ve.Path = "catalog"
		}
		for _, pos := range cueerrors.Positions(e) {
			if pos.Filename() != "catalog.cue" && pos.Line() > 0 {
				ve.Line = pos.Line()
				break
			}
		}
		out = append(out, ve)
	}
	return out
}
