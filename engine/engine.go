package engine

import (
	"context"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoClient is the subset of the DynamoDB API the engine uses. It is
// satisfied by *dynamodb.Client and by test doubles.
type DynamoClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Engine is a single-table DynamoDB client. It holds no mutable state
// beyond the fixed client handle and is safe for unbounded concurrent
// use. Construct one Engine per table at process start.
type Engine struct {
	client DynamoClient
	config Config
	log    *slog.Logger
}

// New creates an Engine for the configured table.
func New(client DynamoClient, config Config) (*Engine, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		client: client,
		config: config,
		log:    config.Logger,
	}, nil
}

// NewFromEnv creates an Engine with a DynamoDB client built from the
// ambient AWS configuration (environment, shared config, instance role).
func NewFromEnv(ctx context.Context, config Config) (*Engine, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, &DatabaseError{Op: "LoadConfig", Table: config.TableName, cause: err}
	}
	return New(dynamodb.NewFromConfig(awsCfg), config)
}

// TableName returns the table this engine addresses.
func (e *Engine) TableName() string {
	return e.config.TableName
}
