// Package offload decides whether a task that found no local capacity
// should be routed to the external execution path instead of queued.
package offload

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Engine evaluates the offload policy. The decision is a pure function
// of instantaneous global metrics — no hysteresis, so rapid oscillation
// across a threshold is possible; that tradeoff is accepted rather than
// smoothed over.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine prepares the rego query for the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.offload_policy.offload"),
		rego.Module("offload_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// ShouldOffload evaluates the policy against current system metrics and
// the active agent count. Consulted only after allocation fails.
func (e *Engine) ShouldOffload(ctx context.Context, cpuPercent, memoryPercent float64, activeAgents int) (bool, error) {
	input := map[string]interface{}{
		"cpu_percent":    cpuPercent,
		"memory_percent": memoryPercent,
		"active_agents":  activeAgents,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate offload policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}

	offload, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("offload policy returned %T, want bool", results[0].Expressions[0].Value)
	}
	return offload, nil
}

// DefaultPolicy routes to the external path when system CPU is above
// 70%, memory is above 80%, or no agent is active.
const DefaultPolicy = `
package offload_policy

default offload := false

offload if input.cpu_percent > 70

offload if input.memory_percent > 80

offload if input.active_agents == 0
`
