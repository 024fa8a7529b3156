package interpolate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valisehq/valise/internal/core"
)

// placeholderPattern matches {{variable}} or {{ variable }} syntax.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_$][a-zA-Z0-9_\-$]*)\s*\}\}`)

// BuiltinFunc generates a dynamic value at interpolation time.
type BuiltinFunc func() string

// Engine substitutes {{variable}} placeholders with collection variable
// values. Undefined placeholders are an error unless keepUndefined is set.
type Engine struct {
	variables     map[string]string
	builtins      map[string]BuiltinFunc
	keepUndefined bool
}

// NewEngine creates an empty interpolation engine.
func NewEngine() *Engine {
	e := &Engine{
		variables: make(map[string]string),
		builtins:  make(map[string]BuiltinFunc),
	}
	e.builtins["$uuid"] = func() string {
		return uuid.New().String()
	}
	e.builtins["$timestamp"] = func() string {
		return fmt.Sprintf("%d", time.Now().Unix())
	}
	e.builtins["$isoTimestamp"] = func() string {
		return time.Now().Format(time.RFC3339)
	}
	return e
}

// FromCollection creates an engine seeded with the collection's active
// variables. Inactive variables do not participate in substitution.
func FromCollection(c *core.Collection) *Engine {
	e := NewEngine()
	if c == nil {
		return e
	}
	for _, v := range c.Variables() {
		if v.Active {
			e.variables[v.Name] = v.Value
		}
	}
	return e
}

// SetVariable sets a variable value, overriding any collection value.
func (e *Engine) SetVariable(name, value string) {
	e.variables[name] = value
}

// HasVariable reports whether a variable is defined.
func (e *Engine) HasVariable(name string) bool {
	_, ok := e.variables[name]
	return ok
}

// KeepUndefined makes unresolvable placeholders pass through verbatim instead
// of failing the interpolation.
func (e *Engine) KeepUndefined() {
	e.keepUndefined = true
}

// Interpolate replaces all placeholders in the input string.
func (e *Engine) Interpolate(input string) (string, error) {
	var lastErr error
	result := placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := placeholderPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		name := submatch[1]

		if strings.HasPrefix(name, "$") {
			if fn, ok := e.builtins[name]; ok {
				return fn()
			}
		}
		if value, ok := e.variables[name]; ok {
			return value
		}
		if e.keepUndefined {
			return match
		}
		lastErr = fmt.Errorf("undefined variable: %s", name)
		return match
	})

	if lastErr != nil {
		return "", lastErr
	}
	return result, nil
}

// ExtractVariables returns the distinct placeholder names found in the input,
// in first-appearance order.
func ExtractVariables(input string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(input, -1)
	seen := make(map[string]bool)
	var result []string
	for _, match := range matches {
		if len(match) < 2 || seen[match[1]] {
			continue
		}
		seen[match[1]] = true
		result = append(result, match[1])
	}
	return result
}

// Validate checks that every placeholder in the input can be resolved.
func (e *Engine) Validate(input string) error {
	var missing []string
	for _, name := range ExtractVariables(input) {
		if strings.HasPrefix(name, "$") {
			if _, ok := e.builtins[name]; ok {
				continue
			}
		}
		if _, ok := e.variables[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("undefined variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
