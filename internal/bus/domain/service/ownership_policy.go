package service

import (
	"fmt"
	"strings"

	"bus-tracker/internal/bus/domain/model"

	"github.com/google/cel-go/cel"
)

// DefaultOwnershipExpression admits only the driver who owns the bus
const DefaultOwnershipExpression = "bus.driverId == actor.userId"

// Actor is the identity acting on a bus
type Actor struct {
	UserID string
	Role   string
}

// OwnershipPolicy decides whether an actor may view a bus for editing, update
// it, or delete it. The rule is a CEL expression over two string maps:
//
//	bus:   id, busName, timings, driverId
//	actor: userId, role
type OwnershipPolicy struct {
	expression string
	program    cel.Program
}

// NewOwnershipPolicy compiles expression. An empty expression means
// DefaultOwnershipExpression.
func NewOwnershipPolicy(expression string) (*OwnershipPolicy, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		expression = DefaultOwnershipExpression
	}

	env, err := cel.NewEnv(
		cel.Variable("bus", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("actor", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("ownership policy must evaluate to bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &OwnershipPolicy{expression: expression, program: program}, nil
}

// Expression returns the compiled rule
func (p *OwnershipPolicy) Expression() string {
	return p.expression
}

// Allows evaluates the policy for actor against bus
func (p *OwnershipPolicy) Allows(actor Actor, bus *model.Bus) (bool, error) {
	if bus == nil {
		return false, nil
	}
	vars := map[string]interface{}{
		"bus": map[string]string{
			"id":       bus.ID,
			"busName":  bus.BusName,
			"timings":  bus.Timings,
			"driverId": bus.DriverID,
		},
		"actor": map[string]string{
			"userId": actor.UserID,
			"role":   actor.Role,
		},
	}

	out, _, err := p.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return boolean value")
	}
	return allowed, nil
}
