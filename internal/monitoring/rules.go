package monitoring

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
)

// CombinationRule flags concerning combinations of vitals that no single
// threshold catches, e.g. elevated heart rate together with low oxygen
// saturation. Expressions use expr-lang over the reading's numeric fields:
//
//	heart_rate > 100 && oxygen_saturation < 92
//
// A rule only fires when every vital listed in requires is present on the
// reading, so partial readings never trip a rule on zero-valued defaults.
type CombinationRule struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description,omitempty"`
	Expression  string             `yaml:"expression"`
	Requires    []models.VitalType `yaml:"requires"`
	Severity    models.Severity    `yaml:"severity"`
	Message     string             `yaml:"message"`

	program *vm.Program
}

// Validate checks the rule and compiles its expression.
func (r *CombinationRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Expression == "" {
		return fmt.Errorf("expression is required")
	}
	if len(r.Requires) == 0 {
		return fmt.Errorf("requires must list the vitals the expression reads")
	}
	for _, t := range r.Requires {
		if !knownVitalType(t) {
			return fmt.Errorf("unknown vital type %q in requires", t)
		}
	}
	switch r.Severity {
	case models.SeverityInfo, models.SeverityWarning, models.SeverityCritical:
	case "":
		r.Severity = models.SeverityWarning
	default:
		return fmt.Errorf("invalid severity %q", r.Severity)
	}
	if r.Message == "" {
		r.Message = r.Description
	}
	if r.Message == "" {
		r.Message = r.Name
	}

	program, err := expr.Compile(r.Expression,
		expr.Env(sampleRuleEnv()),
		expr.AsBool(),
	)
	if err != nil {
		return fmt.Errorf("compile expression: %w", err)
	}
	r.program = program

	return nil
}

// Eval evaluates the rule against a reading's present values. Missing
// required vitals mean no match. Evaluation errors also mean no match:
// a broken rule must never block ingestion.
func (r *CombinationRule) Eval(values map[models.VitalType]float64) (bool, error) {
	for _, t := range r.Requires {
		if _, ok := values[t]; !ok {
			return false, nil
		}
	}

	if r.program == nil {
		if err := r.Validate(); err != nil {
			return false, err
		}
	}

	result, err := expr.Run(r.program, buildRuleEnv(values))
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return bool: got %T", result)
	}
	return matched, nil
}

func knownVitalType(t models.VitalType) bool {
	for _, known := range models.AllVitalTypes {
		if t == known {
			return true
		}
	}
	return false
}

// sampleRuleEnv provides the typed environment for expression compilation.
func sampleRuleEnv() map[string]any {
	env := make(map[string]any, len(models.AllVitalTypes))
	for _, t := range models.AllVitalTypes {
		env[string(t)] = float64(0)
	}
	return env
}

// buildRuleEnv maps every vital name to its value, defaulting absent vitals
// to zero. Rules guard against absent vitals via requires, not the env.
func buildRuleEnv(values map[models.VitalType]float64) map[string]any {
	env := make(map[string]any, len(models.AllVitalTypes))
	for _, t := range models.AllVitalTypes {
		env[string(t)] = values[t]
	}
	return env
}

// RuleSet holds the active combination rules. Replace swaps the whole set
// atomically so the loader can hot-reload without coordinating with
// evaluation.
type RuleSet struct {
	mu    sync.RWMutex
	rules []*CombinationRule
}

// NewRuleSet creates a rule set with the given validated rules.
func NewRuleSet(rules []*CombinationRule) *RuleSet {
	return &RuleSet{rules: rules}
}

// Rules returns a copy of the active rules.
func (s *RuleSet) Rules() []*CombinationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*CombinationRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Replace swaps in a new rule list.
func (s *RuleSet) Replace(rules []*CombinationRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = rules
}

// Evaluate runs every rule against a reading and returns drafts for the
// rules that fired, in rule order. Rule evaluation errors are reported via
// the onError callback (may be nil) and never abort the remaining rules.
func (s *RuleSet) Evaluate(reading *models.VitalReading, onError func(rule string, err error)) []Draft {
	values := reading.PresentValues()

	var drafts []Draft
	for _, rule := range s.Rules() {
		matched, err := rule.Eval(values)
		if err != nil {
			if onError != nil {
				onError(rule.Name, err)
			}
			continue
		}
		if !matched {
			continue
		}
		drafts = append(drafts, Draft{
			VitalType: models.VitalCombination,
			Severity:  rule.Severity,
			Message:   rule.Message,
			RuleName:  rule.Name,
		})
	}
	return drafts
}
