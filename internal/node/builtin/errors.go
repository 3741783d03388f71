// Package builtin registers the node types this service ships out of the
// box: the literal-value and arithmetic nodes exercised by the end-to-end
// scenarios (§8), the control-flow nodes (Switch/Merge/PassThrough), the
// two ForEach variants, and the two illustrative remote-service shapes
// (§4.3.7). RegisterAll is called once at startup from cmd/server, the
// Go analog of the original's importlib-based directory scan (§9).
package builtin

import "errors"

// ErrDivideByZero is returned by MathOperationNode when dividing by zero.
var ErrDivideByZero = errors.New("division by zero")

// ErrUnsupportedOperator is returned by MathOperationNode for an unknown
// operator and by TypeConvertNode for an unsupported from/to pair.
var ErrUnsupportedOperator = errors.New("unsupported operation")

// ErrUnknownOutputPort is returned by SwitchNode rules naming an
// output_index with no corresponding declared output port.
var ErrUnknownOutputPort = errors.New("rule targets unknown output port")
