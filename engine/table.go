package engine

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// TableInfo is a snapshot of table metadata. ItemCount and SizeBytes are
// the backend's approximate values, updated roughly every six hours.
type TableInfo struct {
	Name      string
	Status    string
	ItemCount int64
	SizeBytes int64
}

// DescribeTable returns metadata for the engine's table.
func (e *Engine) DescribeTable(ctx context.Context) (*TableInfo, error) {
	out, err := execute(ctx, func() (*dynamodb.DescribeTableOutput, error) {
		return e.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(e.config.TableName),
		})
	})
	if err != nil {
		return nil, e.wrapBackendErr("DescribeTable", err)
	}

	info := &TableInfo{Name: e.config.TableName}
	if t := out.Table; t != nil {
		info.Status = string(t.TableStatus)
		info.ItemCount = aws.ToInt64(t.ItemCount)
		info.SizeBytes = aws.ToInt64(t.TableSizeBytes)
	}
	return info, nil
}

// HealthCheck reports whether the table is reachable. It exists purely
// for liveness probes and converts every failure into false instead of
// propagating it.
func (e *Engine) HealthCheck(ctx context.Context) bool {
	_, err := e.DescribeTable(ctx)
	if err != nil {
		e.log.Warn("health check failed", "table", e.config.TableName, "error", err)
		return false
	}
	return true
}
