package recent

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

// DynamoDBClient defines the DynamoDB operations the store needs.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// item is the stored shape: the key in pk and the payload in value.
type item struct {
	PK    string `dynamodbav:"pk"`
	Value []byte `dynamodbav:"value"`
}

// DynamoStore is a Store backed by a DynamoDB table with a string partition key named pk.
type DynamoStore struct {
	client    DynamoDBClient
	tableName string
}

// NewDynamoStore creates a store over the named table.
func NewDynamoStore(client DynamoDBClient, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// Get implements Store.
func (d *DynamoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get item %q from DynamoDB table %s", key, d.tableName)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, false, errors.Wrapf(err, "failed to unmarshal item %q", key)
	}
	return it.Value, true, nil
}

// Set implements Store.
func (d *DynamoStore) Set(ctx context.Context, key string, value []byte) error {
	av, err := attributevalue.MarshalMap(item{PK: key, Value: value})
	if err != nil {
		return errors.Wrapf(err, "failed to marshal item %q", key)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to put item %q in DynamoDB table %s", key, d.tableName)
	}
	return nil
}
