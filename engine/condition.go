package engine

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// IfNotExists returns a condition requiring that no item with the same
// key exists yet. Two concurrent creates of one key then resolve to one
// success and one ConflictError.
func (e *Engine) IfNotExists() (*WriteCondition, error) {
	cond := expression.AttributeNotExists(expression.Name(e.config.PartitionAttr))
	return buildCondition(cond)
}

// IfExists returns a condition requiring that the item already exists.
func (e *Engine) IfExists() (*WriteCondition, error) {
	cond := expression.AttributeExists(expression.Name(e.config.PartitionAttr))
	return buildCondition(cond)
}

// IfAttributeEquals returns a condition requiring that the named
// attribute currently holds the given value. With a version counter this
// makes a write a compare-and-swap.
func IfAttributeEquals(name string, v Value) (*WriteCondition, error) {
	native, err := toNative(v)
	if err != nil {
		return nil, err
	}
	cond := expression.Name(name).Equal(expression.Value(native))
	return buildCondition(cond)
}

// IfVersion returns a condition requiring that the "version" attribute
// equals the expected value.
func IfVersion(expected int64) (*WriteCondition, error) {
	return IfAttributeEquals("version", IntValue(expected))
}

// buildCondition renders an expression builder condition into the
// engine's WriteCondition form.
func buildCondition(cond expression.ConditionBuilder) (*WriteCondition, error) {
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, &ValidationError{Field: "Condition", Reason: err.Error()}
	}

	values := make(map[string]Value, len(expr.Values()))
	for placeholder, av := range expr.Values() {
		v, err := deserialize(av)
		if err != nil {
			return nil, err
		}
		values[placeholder] = v
	}

	return &WriteCondition{
		Expression: aws.ToString(expr.Condition()),
		Names:      expr.Names(),
		Values:     values,
	}, nil
}
