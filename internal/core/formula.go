package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormulaOp is an arithmetic operation applied to a single period value.
type FormulaOp string

const (
	OpMultiply   FormulaOp = "multiply"
	OpDivide     FormulaOp = "divide"
	OpAdd        FormulaOp = "add"
	OpSubtract   FormulaOp = "subtract"
	OpPercentage FormulaOp = "percentage"
)

var hundred = decimal.NewFromInt(100)

// ParseFormulaOp resolves an operation name, case-insensitively.
func ParseFormulaOp(name string) (FormulaOp, error) {
	op := FormulaOp(strings.ToLower(strings.TrimSpace(name)))
	switch op {
	case OpMultiply, OpDivide, OpAdd, OpSubtract, OpPercentage:
		return op, nil
	}
	return "", &ValidationError{Field: "operation", Msg: "unknown operation " + name}
}

// Apply computes the new value of a cell holding old. Division by zero is
// reported as a ValidationError wrapping ErrInvalidOperation.
func (op FormulaOp) Apply(old, operand decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case OpMultiply:
		return old.Mul(operand), nil
	case OpDivide:
		if operand.IsZero() {
			return decimal.Zero, &ValidationError{Field: "operand", Msg: "division by zero", Err: ErrInvalidOperation}
		}
		return old.Div(operand), nil
	case OpAdd:
		return old.Add(operand), nil
	case OpSubtract:
		return old.Sub(operand), nil
	case OpPercentage:
		return old.Mul(operand.Div(hundred)), nil
	}
	return decimal.Zero, &ValidationError{Field: "operation", Msg: "unknown operation " + string(op)}
}
