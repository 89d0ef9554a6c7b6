package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// NonFieldErrors is the error key used by rules that are not bound to a field.
const NonFieldErrors = "__all__"

// Rule is a cross-field form constraint written in CEL. Expr must evaluate to
// true for the submitted data to be valid; otherwise Message is reported under
// Field (or NonFieldErrors when Field is empty).
type Rule struct {
	Field   string
	Expr    string
	Message string
}

// RuleManager gerencia a compilação e avaliação de expressões CEL.
// Programas compilados ficam em cache por expressão.
type RuleManager struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewRuleManager inicializa o ambiente CEL com as variáveis expostas às regras:
// data (o corpo JSON recebido), form (os valores limpos do formulário) e
// instance (o objeto existente, vazio na criação).
func NewRuleManager() (*RuleManager, error) {
	env, err := cel.NewEnv(
		cel.Variable("data", cel.DynType),
		cel.Variable("form", cel.DynType),
		cel.Variable("instance", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("rules: cel init: %w", err)
	}

	return &RuleManager{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile valida a expressão e guarda o programa em cache.
func (rm *RuleManager) Compile(expr string) (cel.Program, error) {
	rm.mu.RLock()
	prg, ok := rm.programs[expr]
	rm.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := rm.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("rules: compile %q: %w", expr, issues.Err())
	}
	prg, err := rm.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("rules: program %q: %w", expr, err)
	}

	rm.mu.Lock()
	rm.programs[expr] = prg
	rm.mu.Unlock()
	return prg, nil
}

// EvaluateBool processa regras de validação (deve retornar true/false).
func (rm *RuleManager) EvaluateBool(expr string, vars map[string]any) (bool, error) {
	if expr == "" {
		return true, nil
	}

	prg, err := rm.Compile(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("rules: eval %q: %w", expr, err)
	}

	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rules: %q returned %T, want bool", expr, out.Value())
	}
	return val, nil
}

// Check avalia as regras em ordem e devolve a primeira mensagem por campo.
// Um erro de avaliação interrompe a checagem.
func (rm *RuleManager) Check(rules []Rule, vars map[string]any) (map[string]string, error) {
	for _, name := range []string{"data", "form", "instance"} {
		if _, ok := vars[name]; !ok {
			vars[name] = map[string]any{}
		}
	}

	failures := make(map[string]string)
	for _, rule := range rules {
		ok, err := rm.EvaluateBool(rule.Expr, vars)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}

		field := rule.Field
		if field == "" {
			field = NonFieldErrors
		}
		if _, seen := failures[field]; !seen {
			failures[field] = rule.Message
		}
	}
	return failures, nil
}
