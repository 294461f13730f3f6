package directives

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in rule helpers, registered on every evaluator.
const (
	// FuncBlank reports whether a value is absent, null or a blank string,
	// the same test promotion enrichment uses before filling a field.
	FuncBlank = "blank"
	// FuncTruthy applies JavaScript truthiness to a JSON value.
	FuncTruthy = "truthy"
)

// Function is a helper callable from display rules.
type Function func(args ...any) (any, error)

// FunctionRegistry stores rule helpers keyed by lower-cased name. It is safe
// for concurrent use.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register adds fn under name. Names are case-insensitive and may only be
// registered once.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("directives: function %q is nil", name)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("directives: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("directives: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("directives: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("directives: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// withRuleHelpers returns a copy of r with the built-in helpers added where
// r does not already define them. The caller's registry is never modified.
func (r *FunctionRegistry) withRuleHelpers() *FunctionRegistry {
	out := NewFunctionRegistry()
	if r != nil {
		r.mu.RLock()
		for name, fn := range r.functions {
			out.functions[name] = fn
		}
		r.mu.RUnlock()
	}
	helpers := map[string]Function{
		FuncBlank:  unary(FuncBlank, isUnset),
		FuncTruthy: unary(FuncTruthy, truthy),
	}
	for name, fn := range helpers {
		if _, exists := out.functions[name]; !exists {
			out.functions[name] = fn
		}
	}
	return out
}

// bound returns a closure calling name, in the shape expr and goja accept.
func (r *FunctionRegistry) bound(name string) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return r.Call(name, args...)
	}
}

func unary(name string, fn func(any) bool) Function {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("directives: %s expects 1 argument, got %d", name, len(args))
		}
		return fn(args[0]), nil
	}
}
