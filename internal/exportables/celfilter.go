package exportables

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/tallyhq/tally/internal/changelog"
)

// celFilter wraps a compiled CEL program evaluated against feed events. When
// disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("entity_id", cel.IntType),
		cel.Variable("event", cel.StringType),
		cel.Variable("occurred_at_ms", cel.IntType),
		cel.Variable("text", cel.StringType),
		// Expose parsed JSON payload (map/list/values) for field filtering
		cel.Variable("json", cel.DynType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against one change event. When
// disabled, returns true.
func (f celFilter) Eval(c changelog.Change) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(c.Payload, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"id":             int64(c.ID),
		"entity_id":      int64(c.EntityID),
		"event":          string(c.Kind),
		"occurred_at_ms": c.OccurredAt.UnixMilli(),
		"text":           string(c.Payload),
		"json":           jsonObj,
		"now_ms":         time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
