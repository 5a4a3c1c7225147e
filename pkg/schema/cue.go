package schema

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"mercator-hq/exportable/pkg/record"
)

// cueRoot is the definition every generated schema is declared under.
const cueRoot = "#Record"

// CUESchema renders t as a CUE definition. Required fields use "!",
// other fields are optional; nullable fields accept null and times must be
// RFC 3339 text.
func CUESchema(t *record.Type) string {
	var sb strings.Builder
	sb.WriteString("import \"time\"\n\n")
	fmt.Fprintf(&sb, "// %s\n", t.Name())
	sb.WriteString(cueRoot + ": ")
	writeCUEStruct(&sb, t, 0)
	sb.WriteByte('\n')
	return sb.String()
}

func writeCUEStruct(sb *strings.Builder, t *record.Type, depth int) {
	indent := strings.Repeat("\t", depth+1)
	sb.WriteString("{\n")
	for _, f := range t.Fields() {
		marker := "?"
		if f.Required {
			marker = "!"
		}
		fmt.Fprintf(sb, "%s%s%s: ", indent, strconv.Quote(f.Name), marker)
		if f.Nullable {
			sb.WriteString("null | ")
		}
		switch f.Kind {
		case record.KindRecord:
			writeCUEStruct(sb, f.Type, depth+1)
		case record.KindList:
			sb.WriteString("[..." + cueScalar(f.Elem) + "]")
		default:
			sb.WriteString(cueScalar(f.Kind))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat("\t", depth) + "}")
}

func cueScalar(k record.Kind) string {
	switch k {
	case record.KindInt:
		return "int"
	case record.KindFloat:
		return "number"
	case record.KindBool:
		return "bool"
	case record.KindTime:
		return "time.Time"
	}
	return "string"
}

// CUEValidator validates raw input against a CUE schema generated from the
// record type. Compiled schemas are cached per type.
type CUEValidator struct {
	mu      sync.Mutex
	ctx     *cue.Context
	schemas map[*record.Type]cue.Value
}

// NewCUEValidator creates a CUE validator.
func NewCUEValidator() *CUEValidator {
	return &CUEValidator{
		ctx:     cuecontext.New(),
		schemas: make(map[*record.Type]cue.Value),
	}
}

// Validate implements record.Validator.
func (v *CUEValidator) Validate(t *record.Type, raw map[string]any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return record.NewValidationError(t.Name(), record.FieldError{Message: err.Error()})
	}

	// A cue.Context is not safe for concurrent use.
	v.mu.Lock()
	defer v.mu.Unlock()

	schema, err := v.schema(t)
	if err != nil {
		return err
	}
	doc := v.ctx.CompileBytes(data)
	if err := doc.Err(); err != nil {
		return record.NewValidationError(t.Name(), record.FieldError{Message: err.Error()})
	}

	err = schema.Unify(doc).Validate(cue.Concrete(true), cue.Final())
	if err == nil {
		return nil
	}
	return record.NewValidationError(t.Name(), cueFieldErrors(err)...)
}

func (v *CUEValidator) schema(t *record.Type) (cue.Value, error) {
	if s, ok := v.schemas[t]; ok {
		return s, nil
	}
	compiled := v.ctx.CompileString(CUESchema(t), cue.Filename(t.Name()+".cue"))
	if err := compiled.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile CUE schema for %s: %w", t.Name(), err)
	}
	s := compiled.LookupPath(cue.ParsePath(cueRoot))
	if err := s.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile CUE schema for %s: %w", t.Name(), err)
	}
	v.schemas[t] = s
	return s, nil
}

// cueFieldErrors turns CUE errors into field errors, one per path.
func cueFieldErrors(err error) []record.FieldError {
	byPath := make(map[string][]string)
	for _, e := range cueerrors.Errors(err) {
		var parts []string
		for _, p := range e.Path() {
			if strings.HasPrefix(p, "#") {
				continue
			}
			parts = append(parts, p)
		}
		path := strings.Join(parts, ".")
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if !slices.Contains(byPath[path], msg) {
			byPath[path] = append(byPath[path], msg)
		}
	}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]record.FieldError, 0, len(paths))
	for _, p := range paths {
		out = append(out, record.FieldError{Path: p, Message: strings.Join(byPath[p], "; ")})
	}
	return out
}
