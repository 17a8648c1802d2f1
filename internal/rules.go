package internal

import (
	"fmt"
	"log"
	"reflect"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/PaesslerAG/jsonpath"
)

// Rule is one configured filter expression. An alert that already passed the
// environment allow-list is forwarded only if at least one rule matches (or
// no rules are configured at all).
type Rule struct {
	When string `yaml:"when"`
}

// RulesConfig represents the rule-specific parts of the configuration.
type RulesConfig struct {
	Rules  []Rule `yaml:"rules"`
	Strict bool   `yaml:"rules_strict"`
	Logger *log.Logger
}

type compiledRule struct {
	when string
	expr *govaluate.EvaluableExpression
	// refs maps synthetic parameter names back to the payload references
	// (JSONPath or dotted paths) they replaced in the expression.
	refs map[string]string
}

// RuleEngine evaluates the configured filter rules against parsed alerts.
type RuleEngine struct {
	rules  []compiledRule
	strict bool
	logger *log.Logger
}

var ruleFunctions = map[string]govaluate.ExpressionFunction{
	"contains": func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("contains expects 2 arguments, got %d", len(args))
		}
		switch haystack := args[0].(type) {
		case string:
			needle, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("contains needle must be a string")
			}
			return strings.Contains(haystack, needle), nil
		case []any:
			for _, item := range haystack {
				if reflect.DeepEqual(item, args[1]) {
					return true, nil
				}
			}
			return false, nil
		}
		return false, nil
	},
	"like": func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("like expects 2 arguments, got %d", len(args))
		}
		value, ok := args[0].(string)
		if !ok {
			return false, nil
		}
		pattern, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("like pattern must be a string")
		}
		expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), "%", ".*") + "$"
		matched, err := regexp.MatchString(expr, value)
		if err != nil {
			return nil, err
		}
		return matched, nil
	},
}

// NewRuleEngine compiles the configured rules. Payload references, either
// JSONPath ($.event.level) or bare dotted paths (event.level), are rewritten
// to synthetic parameters and resolved per alert at evaluation time.
func NewRuleEngine(cfg RulesConfig) (*RuleEngine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	rules := make([]compiledRule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		rewritten, refs := rewriteReferences(rule.When)
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(rewritten, ruleFunctions)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", rule.When, err)
		}
		rules = append(rules, compiledRule{when: rule.When, expr: expr, refs: refs})
	}

	return &RuleEngine{rules: rules, strict: cfg.Strict, logger: logger}, nil
}

// Empty reports whether no rules are configured.
func (e *RuleEngine) Empty() bool {
	return len(e.rules) == 0
}

// Matches reports whether the alert passes the configured filter rules.
// With no rules every alert passes. Evaluation errors and, in strict mode,
// unresolved references count as a non-match for that rule.
func (e *RuleEngine) Matches(alert Alert) bool {
	if len(e.rules) == 0 {
		return true
	}

	for _, rule := range e.rules {
		params, unresolved := e.resolve(rule, alert)
		if e.strict && unresolved {
			continue
		}
		result, err := rule.expr.Evaluate(params)
		if err != nil {
			e.logger.Printf("rule %q eval failed: %v", rule.when, err)
			continue
		}
		if ok, _ := result.(bool); ok {
			return true
		}
	}
	return false
}

// resolve builds the parameter map for one rule: the flattened payload plus
// the values of the rewritten references. It reports whether any reference
// could not be resolved against the payload.
func (e *RuleEngine) resolve(rule compiledRule, alert Alert) (map[string]any, bool) {
	params := make(map[string]any, len(alert.Data)+len(rule.refs))
	for key, value := range alert.Data {
		params[key] = value
	}

	unresolved := false
	for name, ref := range rule.refs {
		if strings.HasPrefix(ref, "$") {
			value, err := jsonpath.Get(ref, alert.RawObject)
			if err != nil {
				params[name] = nil
				unresolved = true
				continue
			}
			params[name] = value
			continue
		}
		value, ok := alert.Data[ref]
		if !ok {
			params[name] = nil
			unresolved = true
			continue
		}
		params[name] = value
	}
	return params, unresolved
}

// rewriteReferences scans an expression outside string literals and replaces
// JSONPath references and dotted or indexed bare paths with synthetic
// parameter names govaluate can tokenize.
func rewriteReferences(expr string) (string, map[string]string) {
	var out strings.Builder
	refs := make(map[string]string)

	i := 0
	for i < len(expr) {
		c := expr[i]

		if c == '"' || c == '\'' {
			end := i + 1
			for end < len(expr) {
				if expr[end] == '\\' {
					end += 2
					continue
				}
				if expr[end] == c {
					end++
					break
				}
				end++
			}
			out.WriteString(expr[i:end])
			i = end
			continue
		}

		if c == '$' && i+1 < len(expr) && (expr[i+1] == '.' || expr[i+1] == '[') {
			end := i + 1
			for end < len(expr) && isPathChar(expr[end]) {
				end++
			}
			out.WriteString(addRef(refs, expr[i:end]))
			i = end
			continue
		}

		if isIdentStart(c) {
			end := i + 1
			for end < len(expr) && isPathChar(expr[end]) {
				end++
			}
			token := expr[i:end]
			if strings.ContainsAny(token, ".[") {
				out.WriteString(addRef(refs, token))
			} else {
				out.WriteString(token)
			}
			i = end
			continue
		}

		out.WriteByte(c)
		i++
	}

	return out.String(), refs
}

func addRef(refs map[string]string, ref string) string {
	name := fmt.Sprintf("ref_%d", len(refs))
	refs[name] = ref
	return name
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isPathChar(c byte) bool {
	return c == '_' || c == '.' || c == '[' || c == ']' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
