package engine

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// GetOptions tunes a single-item read.
type GetOptions struct {
	// Projection limits the attributes returned.
	Projection []string

	// ConsistentRead requests a strongly consistent read.
	ConsistentRead bool
}

// GetItem reads one item by key. It returns (nil, nil) when no item
// exists at the key.
func (e *Engine) GetItem(ctx context.Context, key Key, opts *GetOptions) (Item, error) {
	wireKey, err := e.buildKey(key)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(e.config.TableName),
		Key:       wireKey,
	}
	if opts != nil {
		if len(opts.Projection) > 0 {
			expr, names := projectionExpr(opts.Projection)
			input.ProjectionExpression = aws.String(expr)
			input.ExpressionAttributeNames = names
		}
		if opts.ConsistentRead {
			input.ConsistentRead = aws.Bool(true)
		}
	}

	out, err := execute(ctx, func() (*dynamodb.GetItemOutput, error) {
		return e.client.GetItem(ctx, input)
	})
	if err != nil {
		return nil, e.wrapBackendErr("GetItem", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return deserializeItem(out.Item)
}
