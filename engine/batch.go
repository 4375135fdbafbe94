package engine

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// BatchResult holds the outcome of a bulk key lookup. UnprocessedKeys
// carries keys the backend declined under back-pressure; callers decide
// whether to retry them. They are never silently dropped.
type BatchResult struct {
	Items           []Item
	UnprocessedKeys []Key
}

// BatchGetItems reads many items by key. Key lists longer than the
// provider's per-call limit are split into chunks, never truncated, and
// chunk calls run concurrently since they address disjoint key sets.
// Item order is not guaranteed and absent keys yield no item.
func (e *Engine) BatchGetItems(ctx context.Context, keys []Key) (*BatchResult, error) {
	if len(keys) == 0 {
		return &BatchResult{}, nil
	}

	wireKeys := make([]map[string]types.AttributeValue, len(keys))
	for i, key := range keys {
		wk, err := e.buildKey(key)
		if err != nil {
			return nil, err
		}
		wireKeys[i] = wk
	}

	var chunks [][]map[string]types.AttributeValue
	for len(wireKeys) > 0 {
		n := min(e.config.BatchSize, len(wireKeys))
		chunks = append(chunks, wireKeys[:n])
		wireKeys = wireKeys[n:]
	}

	var (
		mu     sync.Mutex
		result BatchResult
		wg     sync.WaitGroup
	)
	errs := make(chan error, len(chunks))

	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []map[string]types.AttributeValue) {
			defer wg.Done()

			items, unprocessed, err := e.getChunk(ctx, chunk)
			if err != nil {
				errs <- err
				return
			}

			mu.Lock()
			result.Items = append(result.Items, items...)
			result.UnprocessedKeys = append(result.UnprocessedKeys, unprocessed...)
			mu.Unlock()
		}(chunk)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	if len(result.UnprocessedKeys) > 0 {
		e.log.Warn("batch get left keys unprocessed",
			"table", e.config.TableName,
			"requested", len(keys),
			"unprocessed", len(result.UnprocessedKeys),
		)
	}
	return &result, nil
}

// getChunk issues one backend batch call for a single chunk of keys.
func (e *Engine) getChunk(ctx context.Context, chunk []map[string]types.AttributeValue) ([]Item, []Key, error) {
	input := &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			e.config.TableName: {Keys: chunk},
		},
	}

	out, err := execute(ctx, func() (*dynamodb.BatchGetItemOutput, error) {
		return e.client.BatchGetItem(ctx, input)
	})
	if err != nil {
		return nil, nil, e.wrapBackendErr("BatchGetItem", err)
	}

	var items []Item
	for _, raw := range out.Responses[e.config.TableName] {
		item, err := deserializeItem(raw)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}

	var unprocessed []Key
	if unp, ok := out.UnprocessedKeys[e.config.TableName]; ok {
		for _, attrs := range unp.Keys {
			key, err := e.keyFromAttrs(attrs)
			if err != nil {
				return nil, nil, err
			}
			unprocessed = append(unprocessed, key)
		}
	}
	return items, unprocessed, nil
}
