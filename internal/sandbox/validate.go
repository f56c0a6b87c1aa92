package sandbox

import (
	"fmt"
	"strings"
)

// callWhitelist is the fixed set of functions a sandboxed program may
// invoke. Nothing outside this set is reachable, including anything
// that would touch the filesystem, network, or process — there is no
// mechanism for adding to it at runtime.
var callWhitelist = map[string]bool{
	"abs": true, "round": true, "min": true, "max": true,
	"int": true, "float": true, "pow": true, "sum": true,
	"sqrt": true, "sin": true, "cos": true, "tan": true,
	"asin": true, "acos": true, "atan": true,
	"radians": true, "degrees": true, "gcd": true, "lcm": true,
}

// constWhitelist are bare identifiers resolved as named constants rather
// than bindings, e.g. "pi" and "e".
var constWhitelist = map[string]float64{
	"pi": 3.141592653589793,
	"e":  2.718281828459045,
}

// validate walks n and rejects anything that cannot be safely evaluated:
// identifiers not present in bindings or constWhitelist, calls to
// functions outside callWhitelist, and any identifier containing a
// double underscore (the same name-mangling escape hatch CPython's
// attribute model uses to reach dunder methods). Rejection is fatal;
// evaluation must not be attempted on a program that failed validation.
func validate(n node, bindings map[string]float64) error {
	switch v := n.(type) {
	case numberLit:
		return nil
	case ident:
		return validateName(v.name, bindings)
	case binaryExpr:
		if err := validate(v.left, bindings); err != nil {
			return err
		}
		return validate(v.right, bindings)
	case unaryExpr:
		return validate(v.operand, bindings)
	case condExpr:
		if err := validate(v.cond, bindings); err != nil {
			return err
		}
		if err := validate(v.then, bindings); err != nil {
			return err
		}
		return validate(v.otherwise, bindings)
	case callExpr:
		if strings.Contains(v.name, "__") {
			return fmt.Errorf("%w: identifier %q contains '__'", errSyntaxRejected, v.name)
		}
		if !callWhitelist[v.name] {
			return fmt.Errorf("%w: call to non-whitelisted function %q", errSyntaxRejected, v.name)
		}
		for _, arg := range v.args {
			if err := validate(arg, bindings); err != nil {
				return err
			}
		}
		return nil
	case assignStmt:
		if strings.Contains(v.name, "__") {
			return fmt.Errorf("%w: identifier %q contains '__'", errSyntaxRejected, v.name)
		}
		return validate(v.expr, bindings)
	case returnStmt:
		for _, e := range v.exprs {
			if err := validate(e, bindings); err != nil {
				return err
			}
		}
		return nil
	case program:
		// Assignments extend the binding set available to later
		// statements; validate in program order with a growing scope.
		scope := make(map[string]float64, len(bindings))
		for k, val := range bindings {
			scope[k] = val
		}
		for _, stmt := range v.stmts {
			if err := validate(stmt, scope); err != nil {
				return err
			}
			if a, ok := stmt.(assignStmt); ok {
				scope[a.name] = 0
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unrecognized node %T", errSyntaxRejected, n)
	}
}

func validateName(name string, bindings map[string]float64) error {
	if strings.Contains(name, "__") {
		return fmt.Errorf("%w: identifier %q contains '__'", errSyntaxRejected, name)
	}
	if _, ok := constWhitelist[name]; ok {
		return nil
	}
	if _, ok := bindings[name]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", errNameUnbound, name)
}
