package engine

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key identifies an item by its partition and sort key values. By caller
// convention partition values follow "TYPE#id" and sort values
// "SUBTYPE#id-or-timestamp"; the engine does not enforce this.
type Key struct {
	Partition string
	Sort      string
}

func (k Key) validate() error {
	if k.Partition == "" {
		return &ValidationError{Field: "Partition", Reason: "must not be empty"}
	}
	if k.Sort == "" {
		return &ValidationError{Field: "Sort", Reason: "must not be empty"}
	}
	return nil
}

// buildKey converts a Key to the wire key map using the table's
// canonical attribute names.
func (e *Engine) buildKey(k Key) (map[string]types.AttributeValue, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	return map[string]types.AttributeValue{
		e.config.PartitionAttr: &types.AttributeValueMemberS{Value: k.Partition},
		e.config.SortAttr:      &types.AttributeValueMemberS{Value: k.Sort},
	}, nil
}

// keyFromAttrs extracts a Key from a wire item, used to convert
// backend-reported keys (last evaluated, unprocessed) back to Keys.
func (e *Engine) keyFromAttrs(attrs map[string]types.AttributeValue) (Key, error) {
	pk, ok := attrs[e.config.PartitionAttr].(*types.AttributeValueMemberS)
	if !ok {
		return Key{}, &SerializationError{Reason: fmt.Sprintf("key attribute %q missing or not a string", e.config.PartitionAttr)}
	}
	sk, ok := attrs[e.config.SortAttr].(*types.AttributeValueMemberS)
	if !ok {
		return Key{}, &SerializationError{Reason: fmt.Sprintf("key attribute %q missing or not a string", e.config.SortAttr)}
	}
	return Key{Partition: pk.Value, Sort: sk.Value}, nil
}

// keyAttributes resolves the partition and sort attribute names for a
// query. An index name substitutes the index's own key attributes; the
// underlying item's primary key is never touched.
func (e *Engine) keyAttributes(indexName string) (pkAttr, skAttr string, err error) {
	if indexName == "" {
		return e.config.PartitionAttr, e.config.SortAttr, nil
	}
	idx, ok := e.config.Indexes[indexName]
	if !ok {
		return "", "", &ValidationError{Field: "IndexName", Reason: fmt.Sprintf("unknown index %q", indexName)}
	}
	if idx.PartitionAttr == "" {
		return "", "", &ValidationError{Field: "IndexName", Reason: fmt.Sprintf("index %q has no partition attribute configured", indexName)}
	}
	return idx.PartitionAttr, idx.SortAttr, nil
}
