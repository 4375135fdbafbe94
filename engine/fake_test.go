package engine_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDB is an in-memory stand-in for DynamoDB. It understands the
// request shapes the engine produces: key lookups, conditional writes
// with attribute_not_exists / attribute_exists / equality conditions,
// simple SET update expressions, prefix and range key conditions, and
// chunked batch gets.
type fakeDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	queries     []*dynamodb.QueryInput
	batchSizes  []int
	unprocessed []int // per-call count of keys to leave unprocessed
	batchCalls  int

	describeErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{items: map[string]map[string]types.AttributeValue{}}
}

func compositeKey(attrs map[string]types.AttributeValue) string {
	pk, _ := attrs["PK"].(*types.AttributeValueMemberS)
	sk, _ := attrs["SK"].(*types.AttributeValueMemberS)
	if pk == nil || sk == nil {
		return ""
	}
	return pk.Value + "\x00" + sk.Value
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func attrEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	}
	return false
}

// evalCondition evaluates the condition shapes the engine's helpers
// produce against the current item state (nil = no item).
func evalCondition(expr string, names map[string]string, values map[string]types.AttributeValue, current map[string]types.AttributeValue) bool {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "attribute_not_exists") {
		return current == nil
	}
	if strings.HasPrefix(expr, "attribute_exists") {
		return current != nil
	}
	if left, right, found := strings.Cut(expr, "="); found {
		if current == nil {
			return false
		}
		attr := strings.TrimSpace(left)
		if resolved, ok := names[attr]; ok {
			attr = resolved
		}
		return attrEqual(current[attr], values[strings.TrimSpace(right)])
	}
	return true
}

func (f *fakeDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: copyItem(f.items[compositeKey(params.Key)])}, nil
}

func (f *fakeDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := compositeKey(params.Item)
	current := f.items[key]
	if params.ConditionExpression != nil {
		if !evalCondition(*params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, current) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	f.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := compositeKey(params.Key)
	current := f.items[key]
	if params.ConditionExpression != nil {
		if !evalCondition(*params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, current) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	old := copyItem(current)
	updated := copyItem(current)
	if updated == nil {
		updated = copyItem(params.Key)
	}

	// Supports "SET a = :v, b = :w" expressions only.
	expr := strings.TrimPrefix(aws.ToString(params.UpdateExpression), "SET ")
	for _, clause := range strings.Split(expr, ",") {
		left, right, found := strings.Cut(clause, "=")
		if !found {
			continue
		}
		attr := strings.TrimSpace(left)
		if resolved, ok := params.ExpressionAttributeNames[attr]; ok {
			attr = resolved
		}
		updated[attr] = params.ExpressionAttributeValues[strings.TrimSpace(right)]
	}
	f.items[key] = updated

	out := &dynamodb.UpdateItemOutput{}
	switch params.ReturnValues {
	case types.ReturnValueAllNew:
		out.Attributes = copyItem(updated)
	case types.ReturnValueAllOld:
		out.Attributes = old
	}
	return out, nil
}

func (f *fakeDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := compositeKey(params.Key)
	current := f.items[key]
	if params.ConditionExpression != nil {
		if !evalCondition(*params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, current) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	delete(f.items, key)

	out := &dynamodb.DeleteItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = copyItem(current)
	}
	return out, nil
}

func (f *fakeDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, params)

	pkAttr := params.ExpressionAttributeNames["#pk"]
	skAttr := params.ExpressionAttributeNames["#sk"]
	if skAttr == "" {
		skAttr = "SK"
	}
	pkVal, _ := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)

	strVal := func(item map[string]types.AttributeValue, attr string) (string, bool) {
		s, ok := item[attr].(*types.AttributeValueMemberS)
		if !ok {
			return "", false
		}
		return s.Value, true
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		pv, ok := strVal(item, pkAttr)
		if !ok || pkVal == nil || pv != pkVal.Value {
			continue
		}
		sv, ok := strVal(item, skAttr)
		if !ok {
			continue
		}
		if eq, found := params.ExpressionAttributeValues[":sk"].(*types.AttributeValueMemberS); found && sv != eq.Value {
			continue
		}
		if prefix, found := params.ExpressionAttributeValues[":skPrefix"].(*types.AttributeValueMemberS); found && !strings.HasPrefix(sv, prefix.Value) {
			continue
		}
		if lower, found := params.ExpressionAttributeValues[":skLower"].(*types.AttributeValueMemberS); found && sv < lower.Value {
			continue
		}
		if upper, found := params.ExpressionAttributeValues[":skUpper"].(*types.AttributeValueMemberS); found && sv > upper.Value {
			continue
		}
		matched = append(matched, item)
	}

	sort.Slice(matched, func(i, j int) bool {
		si, _ := strVal(matched[i], skAttr)
		sj, _ := strVal(matched[j], skAttr)
		return si < sj
	})
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	if params.ExclusiveStartKey != nil {
		startKey := compositeKey(params.ExclusiveStartKey)
		pos := -1
		for i, item := range matched {
			if compositeKey(item) == startKey {
				pos = i
				break
			}
		}
		matched = matched[pos+1:]
	}

	out := &dynamodb.QueryOutput{}
	limit := len(matched)
	if params.Limit != nil && int(*params.Limit) < limit {
		limit = int(*params.Limit)
	}
	for _, item := range matched[:limit] {
		out.Items = append(out.Items, copyItem(item))
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = out.Count
	if limit < len(matched) {
		last := matched[limit-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"PK": last["PK"],
			"SK": last["SK"],
		}
	}
	return out, nil
}

func (f *fakeDB) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &dynamodb.BatchGetItemOutput{
		Responses:       map[string][]map[string]types.AttributeValue{},
		UnprocessedKeys: map[string]types.KeysAndAttributes{},
	}
	for table, req := range params.RequestItems {
		f.batchSizes = append(f.batchSizes, len(req.Keys))

		skip := 0
		if f.batchCalls < len(f.unprocessed) {
			skip = f.unprocessed[f.batchCalls]
		}
		f.batchCalls++

		keys := req.Keys
		if skip > 0 && skip <= len(keys) {
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: keys[len(keys)-skip:]}
			keys = keys[:len(keys)-skip]
		}
		for _, key := range keys {
			if item, ok := f.items[compositeKey(key)]; ok {
				out.Responses[table] = append(out.Responses[table], copyItem(item))
			}
		}
	}
	return out, nil
}

func (f *fakeDB) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:      params.TableName,
			TableStatus:    types.TableStatusActive,
			ItemCount:      aws.Int64(int64(len(f.items))),
			TableSizeBytes: aws.Int64(4096),
		},
	}, nil
}
