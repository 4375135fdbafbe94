package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SortCondition narrows a query to a subset of a partition's sort keys.
// Set Equals alone, or any combination of Prefix, Lower, and Upper;
// multiple clauses are joined with AND.
type SortCondition struct {
	// Equals matches exactly one sort key.
	Equals string

	// Prefix matches sort keys beginning with the given string.
	Prefix string

	// Lower is an inclusive lower bound on the sort key.
	Lower string

	// Upper is an inclusive upper bound on the sort key.
	Upper string
}

func (c *SortCondition) empty() bool {
	return c == nil || (c.Equals == "" && c.Prefix == "" && c.Lower == "" && c.Upper == "")
}

// clauses renders the condition against the "#sk" name placeholder,
// binding values into the given map.
func (c *SortCondition) clauses(values map[string]types.AttributeValue) ([]string, error) {
	if c.Equals != "" {
		if c.Prefix != "" || c.Lower != "" || c.Upper != "" {
			return nil, &ValidationError{Field: "Sort", Reason: "Equals cannot be combined with other sort clauses"}
		}
		values[":sk"] = &types.AttributeValueMemberS{Value: c.Equals}
		return []string{"#sk = :sk"}, nil
	}

	var out []string
	if c.Prefix != "" {
		values[":skPrefix"] = &types.AttributeValueMemberS{Value: c.Prefix}
		out = append(out, "begins_with(#sk, :skPrefix)")
	}
	switch {
	case c.Lower != "" && c.Upper != "":
		values[":skLower"] = &types.AttributeValueMemberS{Value: c.Lower}
		values[":skUpper"] = &types.AttributeValueMemberS{Value: c.Upper}
		out = append(out, "#sk BETWEEN :skLower AND :skUpper")
	case c.Lower != "":
		values[":skLower"] = &types.AttributeValueMemberS{Value: c.Lower}
		out = append(out, "#sk >= :skLower")
	case c.Upper != "":
		values[":skUpper"] = &types.AttributeValueMemberS{Value: c.Upper}
		out = append(out, "#sk <= :skUpper")
	}
	return out, nil
}

// QuerySpec describes one query. Partition is required; everything else
// is optional.
type QuerySpec struct {
	// Partition is the partition key value to query.
	Partition string

	// Sort optionally narrows the sort key range.
	Sort *SortCondition

	// Filter is an optional filter expression applied after the key
	// condition. Name and value placeholders come from Names and Values.
	Filter string

	// Values binds ":placeholder" expression values for Filter.
	Values map[string]Value

	// Names binds "#placeholder" attribute names for Filter.
	Names map[string]string

	// IndexName queries a secondary index instead of the base table.
	// The key condition then addresses the index's own key attributes.
	IndexName string

	// Projection limits the attributes returned.
	Projection []string

	// Limit caps the number of items evaluated per page (0 = no cap).
	Limit int32

	// ScanForward orders results ascending by sort key when true.
	// Default (nil) is ascending.
	ScanForward *bool

	// StartToken resumes a prior query from its NextToken.
	StartToken string

	// ConsistentRead requests a strongly consistent read. Ignored on
	// index queries, which do not support it.
	ConsistentRead bool
}

// QueryResult is one page of query results. HasMore is always reported;
// NextToken carries the continuation cursor whenever more pages exist.
type QueryResult struct {
	Items        []Item
	Count        int32
	ScannedCount int32
	HasMore      bool
	NextToken    string
}

// buildQuery composes the backend request for a spec. The key condition
// is always "#pk = :pk" with the sort clause appended via AND; attribute
// names are bound structurally so index queries substitute cleanly.
func (e *Engine) buildQuery(spec QuerySpec) (*dynamodb.QueryInput, error) {
	if spec.Partition == "" {
		return nil, &ValidationError{Field: "Partition", Reason: "must not be empty"}
	}

	pkAttr, skAttr, err := e.keyAttributes(spec.IndexName)
	if err != nil {
		return nil, err
	}

	names := map[string]string{"#pk": pkAttr}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: spec.Partition},
	}

	keyCond := "#pk = :pk"
	if !spec.Sort.empty() {
		if skAttr == "" {
			return nil, &ValidationError{Field: "Sort", Reason: fmt.Sprintf("index %q has no sort key", spec.IndexName)}
		}
		names["#sk"] = skAttr
		clauses, err := spec.Sort.clauses(values)
		if err != nil {
			return nil, err
		}
		keyCond += " AND " + strings.Join(clauses, " AND ")
	}

	callerValues, err := serializeValues(spec.Values)
	if err != nil {
		return nil, err
	}
	for placeholder, av := range callerValues {
		values[placeholder] = av
	}
	for placeholder, name := range spec.Names {
		names[placeholder] = name
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(e.config.TableName),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}

	if spec.Filter != "" {
		input.FilterExpression = aws.String(spec.Filter)
	}
	if spec.IndexName != "" {
		input.IndexName = aws.String(spec.IndexName)
	} else if spec.ConsistentRead {
		input.ConsistentRead = aws.Bool(true)
	}
	if len(spec.Projection) > 0 {
		expr, prjNames := projectionExpr(spec.Projection)
		input.ProjectionExpression = aws.String(expr)
		for placeholder, name := range prjNames {
			names[placeholder] = name
		}
	}
	if spec.Limit > 0 {
		input.Limit = aws.Int32(spec.Limit)
	}
	if spec.ScanForward != nil {
		input.ScanIndexForward = spec.ScanForward
	}
	if spec.StartToken != "" {
		startKey, err := decodeToken(spec.StartToken)
		if err != nil {
			return nil, err
		}
		input.ExclusiveStartKey = startKey
	}

	return input, nil
}

// Query runs one page of a query and returns its items with pagination
// state. Results are ascending by sort key unless ScanForward is false.
func (e *Engine) Query(ctx context.Context, spec QuerySpec) (*QueryResult, error) {
	input, err := e.buildQuery(spec)
	if err != nil {
		return nil, err
	}

	out, err := execute(ctx, func() (*dynamodb.QueryOutput, error) {
		return e.client.Query(ctx, input)
	})
	if err != nil {
		return nil, e.wrapBackendErr("Query", err)
	}

	items := make([]Item, 0, len(out.Items))
	for _, raw := range out.Items {
		item, err := deserializeItem(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	result := &QueryResult{
		Items:        items,
		Count:        out.Count,
		ScannedCount: out.ScannedCount,
		HasMore:      len(out.LastEvaluatedKey) > 0,
	}
	if result.HasMore {
		token, err := encodeToken(out.LastEvaluatedKey)
		if err != nil {
			return nil, err
		}
		result.NextToken = token
	}

	e.log.Debug("query page",
		"table", e.config.TableName,
		"index", spec.IndexName,
		"count", result.Count,
		"hasMore", result.HasMore,
	)
	return result, nil
}

// QueryByPrefix returns the items in a partition whose sort keys begin
// with the given prefix, ascending by default.
func (e *Engine) QueryByPrefix(ctx context.Context, partition, prefix string, descending bool) (*QueryResult, error) {
	return e.Query(ctx, QuerySpec{
		Partition:   partition,
		Sort:        &SortCondition{Prefix: prefix},
		ScanForward: aws.Bool(!descending),
	})
}

// QueryWithPagination returns one page of a partition's items, resuming
// from startToken when non-empty.
func (e *Engine) QueryWithPagination(ctx context.Context, partition string, limit int32, startToken string) (*QueryResult, error) {
	return e.Query(ctx, QuerySpec{
		Partition:  partition,
		Limit:      limit,
		StartToken: startToken,
	})
}

// QueryOnIndex queries a secondary index. The partition value and sort
// condition address the index's key attributes.
func (e *Engine) QueryOnIndex(ctx context.Context, indexName, partition string, sort *SortCondition) (*QueryResult, error) {
	return e.Query(ctx, QuerySpec{
		Partition: partition,
		Sort:      sort,
		IndexName: indexName,
	})
}

// projectionExpr renders a projection expression with name placeholders
// so reserved words in attribute names cannot break the request.
func projectionExpr(fields []string) (string, map[string]string) {
	placeholders := make([]string, len(fields))
	names := make(map[string]string, len(fields))
	for i, field := range fields {
		placeholder := fmt.Sprintf("#prj%d", i)
		placeholders[i] = placeholder
		names[placeholder] = field
	}
	return strings.Join(placeholders, ", "), names
}
