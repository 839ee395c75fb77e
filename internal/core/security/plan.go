package security

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"poscore/internal/core/apperror"
)

// PlanRule is a subscription limit expressed as a CEL expression.
// The expression evaluates to true when the limit is EXCEEDED.
type PlanRule struct {
	// Name identifies the rule (e.g. "max_areas")
	Name string
	// Expr is a CEL expression over plan and usage counters
	Expr string
	// Message returned to the client when the rule fires
	Message string
}

// PlanUsage holds current usage counters evaluated against plan rules.
type PlanUsage struct {
	AreaCount    int64
	UserCount    int64
	ProductCount int64
}

// PlanGate evaluates subscription plan limits.
// Rules are compiled once at construction; evaluation is cheap and
// safe for the request path.
type PlanGate struct {
	programs map[string]cel.Program
	messages map[string]string
}

// DefaultPlanRules returns the built-in limits for free and standard plans.
// The full plan has no limits.
func DefaultPlanRules() []PlanRule {
	return []PlanRule{
		{
			Name:    "max_areas",
			Expr:    `(plan == "free" && area_count >= 2) || (plan == "standard" && area_count >= 10)`,
			Message: "area limit reached for current plan",
		},
		{
			Name:    "max_users",
			Expr:    `(plan == "free" && user_count >= 3) || (plan == "standard" && user_count >= 20)`,
			Message: "user limit reached for current plan",
		},
		{
			Name:    "max_products",
			Expr:    `plan == "free" && product_count >= 50`,
			Message: "product limit reached for current plan",
		},
		{
			Name:    "reports_access",
			Expr:    `plan == "free"`,
			Message: "financial reports require a paid plan",
		},
	}
}

// NewPlanGate compiles rules into a gate.
func NewPlanGate(rules []PlanRule) (*PlanGate, error) {
	env, err := cel.NewEnv(
		cel.Variable("plan", cel.StringType),
		cel.Variable("area_count", cel.IntType),
		cel.Variable("user_count", cel.IntType),
		cel.Variable("product_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	g := &PlanGate{
		programs: make(map[string]cel.Program, len(rules)),
		messages: make(map[string]string, len(rules)),
	}

	for _, r := range rules {
		ast, issues := env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile rule %s: %w", r.Name, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build rule %s: %w", r.Name, err)
		}
		g.programs[r.Name] = prg
		g.messages[r.Name] = r.Message
	}

	return g, nil
}

// Check evaluates a single rule against the plan and usage counters.
// Returns a plan-limit error if the rule fires, nil otherwise.
// Unknown rules pass (rules are additive, absence means no limit).
func (g *PlanGate) Check(ctx context.Context, rule string, plan string, usage PlanUsage) error {
	prg, ok := g.programs[rule]
	if !ok {
		return nil
	}

	out, _, err := prg.Eval(map[string]any{
		"plan":          plan,
		"area_count":    usage.AreaCount,
		"user_count":    usage.UserCount,
		"product_count": usage.ProductCount,
	})
	if err != nil {
		return fmt.Errorf("evaluate rule %s: %w", rule, err)
	}

	exceeded, ok := out.Value().(bool)
	if !ok {
		return fmt.Errorf("rule %s: expression must evaluate to bool", rule)
	}

	if exceeded {
		return apperror.NewPlanLimit(rule).WithDetail("message", g.messages[rule])
	}
	return nil
}
