package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvalDiscriminant(t *testing.T) {
	result, err := Eval(context.Background(), "b**2 - 4*a*c", map[string]float64{"a": 1, "b": -3, "c": 2}, time.Second)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.Value.Num)
}

func TestEvalUnaryMinusBindsWeakerThanPower(t *testing.T) {
	result, err := Eval(context.Background(), "-3**2", nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, -9.0, result.Value.Num)
}

func TestEvalRejectsDunderIdentifier(t *testing.T) {
	_, err := Eval(context.Background(), "x__class__", map[string]float64{"x__class__": 1}, time.Second)
	require.Error(t, err)
}

func TestEvalRejectsUnboundName(t *testing.T) {
	_, err := Eval(context.Background(), "x + 1", nil, time.Second)
	require.Error(t, err)
}

func TestEvalRejectsNonWhitelistedCall(t *testing.T) {
	_, err := Eval(context.Background(), "eval(1)", nil, time.Second)
	require.Error(t, err)
}

func TestEvalRejectsAttributeAccess(t *testing.T) {
	_, err := Eval(context.Background(), "x.y", map[string]float64{"x": 1}, time.Second)
	require.Error(t, err)
}

func TestEvalRejectsSubscripting(t *testing.T) {
	_, err := Eval(context.Background(), "x[0]", map[string]float64{"x": 1}, time.Second)
	require.Error(t, err)
}

func TestEvalDivisionByZeroIsDomainError(t *testing.T) {
	_, err := Eval(context.Background(), "1 / 0", nil, time.Second)
	require.Error(t, err)
}

func TestEvalSqrtOfNegativeIsDomainError(t *testing.T) {
	_, err := Eval(context.Background(), "sqrt(-1)", nil, time.Second)
	require.Error(t, err)
}

func TestEvalConditionalExpression(t *testing.T) {
	result, err := Eval(context.Background(), "1 if x > 0 else -1", map[string]float64{"x": 5}, time.Second)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.Value.Num)
}

func TestEvalWhitelistedFunctions(t *testing.T) {
	result, err := Eval(context.Background(), "sqrt(pow(a, 2) + pow(b, 2))", map[string]float64{"a": 3, "b": 4}, time.Second)
	require.NoError(t, err)
	require.Equal(t, 5.0, result.Value.Num)
}

func TestRunAssignsThenReturns(t *testing.T) {
	vals, scope, err := Run(context.Background(), "disc = b**2 - 4*a*c\nreturn disc", map[string]float64{"a": 1, "b": -3, "c": 2}, time.Second)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	require.Equal(t, 1.0, vals[0].Num)
	require.Equal(t, 1.0, scope["disc"])
}

func TestRunReturnsMultipleValues(t *testing.T) {
	vals, _, err := Run(context.Background(), "x = a + b\ny = a - b\nreturn x, y", map[string]float64{"a": 5, "b": 2}, time.Second)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	require.Equal(t, 7.0, vals[0].Num)
	require.Equal(t, 3.0, vals[1].Num)
}

func TestRunRejectsBareExpressionStatement(t *testing.T) {
	_, _, err := Run(context.Background(), "1 + 1", nil, time.Second)
	require.Error(t, err)
}

func TestRunRejectsForLoop(t *testing.T) {
	_, _, err := Run(context.Background(), "for x in range(10): pass", nil, time.Second)
	require.Error(t, err)
}

func TestEvalZeroTimeoutSkipsDeadline(t *testing.T) {
	result, err := Eval(context.Background(), "1 + 1", nil, 0)
	require.NoError(t, err)
	require.Equal(t, 2.0, result.Value.Num)
}

func TestEvalCanceledContextIsReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Eval(ctx, "1 + 1", nil, time.Second)
	require.Error(t, err)
}
