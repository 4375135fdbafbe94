package engine

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tessera-db/tessera/internal/keyfmt"
)

// WriteCondition guards a write with a server-evaluated predicate. When
// the predicate does not hold the write fails with a ConflictError, the
// basis for optimistic concurrency: an unconditional write is
// last-write-wins, a conditional write is compare-and-swap.
type WriteCondition struct {
	// Expression is the condition expression.
	Expression string

	// Names binds "#placeholder" attribute names used in Expression.
	Names map[string]string

	// Values binds ":placeholder" values used in Expression.
	Values map[string]Value
}

// ReturnPolicy selects which item state an update returns.
type ReturnPolicy int

const (
	// ReturnNone returns no item.
	ReturnNone ReturnPolicy = iota

	// ReturnAllOld returns the full item as it was before the write.
	ReturnAllOld

	// ReturnAllNew returns the full item as it is after the write.
	ReturnAllNew

	// ReturnUpdatedOld returns only the updated attributes' old values.
	ReturnUpdatedOld

	// ReturnUpdatedNew returns only the updated attributes' new values.
	ReturnUpdatedNew
)

func (p ReturnPolicy) wire() types.ReturnValue {
	switch p {
	case ReturnAllOld:
		return types.ReturnValueAllOld
	case ReturnAllNew:
		return types.ReturnValueAllNew
	case ReturnUpdatedOld:
		return types.ReturnValueUpdatedOld
	case ReturnUpdatedNew:
		return types.ReturnValueUpdatedNew
	}
	return types.ReturnValueNone
}

// PutItem writes a full item, creating or replacing it. The item must
// carry string values for the table's partition and sort key attributes.
// With a condition, a failed predicate surfaces as ConflictError.
func (e *Engine) PutItem(ctx context.Context, item Item, cond *WriteCondition) error {
	partition, err := e.itemPartition(item)
	if err != nil {
		return err
	}
	raw, err := serializeItem(item)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(e.config.TableName),
		Item:      raw,
	}
	if err := applyCondition(cond, &input.ConditionExpression, &input.ExpressionAttributeNames, &input.ExpressionAttributeValues); err != nil {
		return err
	}

	_, err = execute(ctx, func() (*dynamodb.PutItemOutput, error) {
		return e.client.PutItem(ctx, input)
	})
	if err != nil {
		return e.wrapWriteErr("PutItem", err, cond, partition)
	}

	e.log.Debug("put item", "table", e.config.TableName, "pk", partition)
	return nil
}

// UpdateItem applies a partial, expression-driven mutation to one item.
// The returned item follows the ReturnPolicy; ReturnNone yields nil.
func (e *Engine) UpdateItem(ctx context.Context, key Key, updateExpr string, values map[string]Value, names map[string]string, cond *WriteCondition, ret ReturnPolicy) (Item, error) {
	if updateExpr == "" {
		return nil, &ValidationError{Field: "updateExpr", Reason: "must not be empty"}
	}
	wireKey, err := e.buildKey(key)
	if err != nil {
		return nil, err
	}
	wireValues, err := serializeValues(values)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(e.config.TableName),
		Key:                       wireKey,
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: wireValues,
		ReturnValues:              ret.wire(),
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	if err := applyCondition(cond, &input.ConditionExpression, &input.ExpressionAttributeNames, &input.ExpressionAttributeValues); err != nil {
		return nil, err
	}

	out, err := execute(ctx, func() (*dynamodb.UpdateItemOutput, error) {
		return e.client.UpdateItem(ctx, input)
	})
	if err != nil {
		return nil, e.wrapWriteErr("UpdateItem", err, cond, key.Partition)
	}
	if out.Attributes == nil {
		return nil, nil
	}
	return deserializeItem(out.Attributes)
}

// DeleteItem removes one item by key and returns its previous value, or
// nil if no item existed.
func (e *Engine) DeleteItem(ctx context.Context, key Key, cond *WriteCondition) (Item, error) {
	wireKey, err := e.buildKey(key)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.DeleteItemInput{
		TableName:    aws.String(e.config.TableName),
		Key:          wireKey,
		ReturnValues: types.ReturnValueAllOld,
	}
	if err := applyCondition(cond, &input.ConditionExpression, &input.ExpressionAttributeNames, &input.ExpressionAttributeValues); err != nil {
		return nil, err
	}

	out, err := execute(ctx, func() (*dynamodb.DeleteItemOutput, error) {
		return e.client.DeleteItem(ctx, input)
	})
	if err != nil {
		return nil, e.wrapWriteErr("DeleteItem", err, cond, key.Partition)
	}
	if out.Attributes == nil {
		return nil, nil
	}
	return deserializeItem(out.Attributes)
}

// itemPartition extracts the partition key value an item must carry.
func (e *Engine) itemPartition(item Item) (string, error) {
	pk, ok := item[e.config.PartitionAttr]
	if !ok {
		return "", &ValidationError{Field: e.config.PartitionAttr, Reason: "item is missing the partition key attribute"}
	}
	partition, ok := pk.AsString()
	if !ok || partition == "" {
		return "", &ValidationError{Field: e.config.PartitionAttr, Reason: "partition key must be a non-empty string"}
	}
	if _, ok := item[e.config.SortAttr]; !ok {
		return "", &ValidationError{Field: e.config.SortAttr, Reason: "item is missing the sort key attribute"}
	}
	return partition, nil
}

// applyCondition merges a WriteCondition into a backend request.
func applyCondition(cond *WriteCondition, expr **string, names *map[string]string, values *map[string]types.AttributeValue) error {
	if cond == nil {
		return nil
	}
	if cond.Expression == "" {
		return &ValidationError{Field: "Condition", Reason: "condition expression must not be empty"}
	}
	*expr = aws.String(cond.Expression)

	if len(cond.Names) > 0 {
		if *names == nil {
			*names = make(map[string]string, len(cond.Names))
		}
		for placeholder, name := range cond.Names {
			(*names)[placeholder] = name
		}
	}
	if len(cond.Values) > 0 {
		wire, err := serializeValues(cond.Values)
		if err != nil {
			return err
		}
		if *values == nil {
			*values = make(map[string]types.AttributeValue, len(wire))
		}
		for placeholder, av := range wire {
			(*values)[placeholder] = av
		}
	}
	return nil
}

// wrapWriteErr reclassifies a failed write condition as ConflictError,
// tagged with the entity type from the partition key's leading segment.
// All other failures become DatabaseError.
func (e *Engine) wrapWriteErr(op string, err error, cond *WriteCondition, partition string) error {
	var condErr *types.ConditionalCheckFailedException
	if cond != nil && errors.As(err, &condErr) {
		resourceType, _ := keyfmt.Split(partition)
		return &ConflictError{
			Condition:    cond.Expression,
			ResourceType: resourceType,
			cause:        err,
		}
	}
	return e.wrapBackendErr(op, err)
}

// wrapBackendErr classifies any backend failure as DatabaseError.
// Context cancellation passes through untouched.
func (e *Engine) wrapBackendErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &DatabaseError{Op: op, Table: e.config.TableName, cause: err}
}
