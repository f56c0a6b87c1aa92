// Package sandbox implements SafeMathSandbox: a restricted arithmetic
// expression and short-program evaluator used to guarantee that every
// numeric answer a question carries (final answer, solution steps,
// grading comparisons) is computed by deterministic Go code rather than
// trusted from an LLM's own arithmetic.
//
// The grammar supports numbers, the four arithmetic operators plus
// floor-division/modulo/exponentiation, comparisons, boolean and/or/not,
// a Python-style conditional expression, and calls to a fixed whitelist
// of pure math functions. It has no productions for attribute access,
// subscripting, imports, loops, or function definitions, so those
// constructs are rejected by the parser rather than filtered afterward.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noble-ngs/tutor-runtime/internal/tutorerr"
)

// Result is the outcome of a successful sandbox evaluation.
type Result struct {
	Value Value
}

// Eval evaluates a single standalone expression against bindings, per
// spec §4.1 mode (a). It never mutates bindings.
func Eval(ctx context.Context, expr string, bindings map[string]float64, timeout time.Duration) (Result, error) {
	return run(ctx, timeout, func() (Result, error) {
		n, err := parseExpression(expr)
		if err != nil {
			return Result{}, classify(err)
		}
		if err := validate(n, bindings); err != nil {
			return Result{}, classify(err)
		}
		ev := &evaluator{bindings: bindings}
		val, err := ev.evaluate(n)
		if err != nil {
			return Result{}, classify(err)
		}
		return Result{Value: val}, nil
	})
}

// Run evaluates a short "name = expr" statement sequence optionally
// terminated by "return expr[, expr...]", per spec §4.1 mode (b). It
// returns the values named in the return statement, or the final
// assignment's value if there is no explicit return. The returned map
// also carries every intermediate binding, so callers such as the
// curriculum pattern engine can splice named quantities straight into a
// solution-step template without recomputing them.
func Run(ctx context.Context, src string, bindings map[string]float64, timeout time.Duration) ([]Value, map[string]float64, error) {
	type runOut struct {
		vals  []Value
		scope map[string]float64
	}
	out, err := run(ctx, timeout, func() (runOut, error) {
		prog, err := parseProgram(src)
		if err != nil {
			return runOut{}, classify(err)
		}
		if err := validate(*prog, bindings); err != nil {
			return runOut{}, classify(err)
		}

		scope := make(map[string]float64, len(bindings))
		for k, v := range bindings {
			scope[k] = v
		}
		ev := &evaluator{bindings: scope}

		var lastAssigned string
		var retVals []Value
		for _, stmt := range prog.stmts {
			switch s := stmt.(type) {
			case assignStmt:
				v, err := ev.evaluate(s.expr)
				if err != nil {
					return runOut{}, classify(err)
				}
				scope[s.name] = v.Num
				lastAssigned = s.name
			case returnStmt:
				for _, e := range s.exprs {
					v, err := ev.evaluate(e)
					if err != nil {
						return runOut{}, classify(err)
					}
					retVals = append(retVals, v)
				}
			}
		}
		if retVals == nil && lastAssigned != "" {
			retVals = []Value{numVal(scope[lastAssigned], false)}
		}
		return runOut{vals: retVals, scope: scope}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out.vals, out.scope, nil
}

func run[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, tutorerr.Wrap(tutorerr.KindSandboxRejected, "sandbox evaluation canceled", err)
	}
	if timeout <= 0 {
		return fn()
	}
	type res struct {
		val T
		err error
	}
	done := make(chan res, 1)
	go func() {
		v, err := fn()
		done <- res{val: v, err: err}
	}()
	select {
	case r := <-done:
		return r.val, r.err
	case <-time.After(timeout):
		var zero T
		return zero, tutorerr.Wrap(tutorerr.KindSandboxRejected, "sandbox evaluation timed out", errTimeout)
	case <-ctx.Done():
		var zero T
		return zero, tutorerr.Wrap(tutorerr.KindSandboxRejected, "sandbox evaluation canceled", ctx.Err())
	}
}

// classify maps an internal sandbox error onto the tutorerr.Kind a
// caller outside this package is expected to branch on.
func classify(err error) error {
	switch {
	case errors.Is(err, errNameUnbound):
		return tutorerr.Wrap(tutorerr.KindSandboxRejected, "unbound name in sandbox expression", err)
	case errors.Is(err, errDomainError):
		return tutorerr.Wrap(tutorerr.KindSandboxDomainError, "sandbox expression hit a domain error", err)
	case errors.Is(err, errTimeout):
		return tutorerr.Wrap(tutorerr.KindSandboxRejected, "sandbox evaluation timed out", err)
	case errors.Is(err, errSyntaxRejected):
		return tutorerr.Wrap(tutorerr.KindSandboxRejected, "sandbox expression rejected", err)
	default:
		return fmt.Errorf("sandbox: unclassified error: %w", err)
	}
}
