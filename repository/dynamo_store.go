package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/lawaid/soulsystem-backend/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// registryItemKey is the partition key value of the single registry item.
const registryItemKey = "registry"

type ddbRegistry struct {
	PK       string `dynamodbav:"pk"`
	Document string `dynamodbav:"document"`
	Version  int64  `dynamodbav:"version"`
}

// DynamoStore keeps the registry as one item in a table keyed by `pk`.
// A numeric version attribute guards every write.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func (d *DynamoStore) Load(ctx context.Context) (*models.Registry, string, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"pk": registryItemKey})
	if err != nil {
		return nil, "", fmt.Errorf("marshal key: %w", err)
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &d.table,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, "", fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return models.NewRegistry(), "", nil
	}

	var item ddbRegistry
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, "", fmt.Errorf("unmarshal item: %w", err)
	}
	doc, err := models.DecodeRegistry([]byte(item.Document))
	if err != nil {
		return nil, "", fmt.Errorf("decode registry from dynamodb: %w", err)
	}
	return doc, strconv.FormatInt(item.Version, 10), nil
}

func (d *DynamoStore) Save(ctx context.Context, doc *models.Registry, expected string) (string, error) {
	data, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("encode registry: %w", err)
	}

	var current int64
	if expected != "" {
		current, err = strconv.ParseInt(expected, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid registry version %q: %w", expected, err)
		}
	}

	item, err := attributevalue.MarshalMap(ddbRegistry{
		PK:       registryItemKey,
		Document: string(data),
		Version:  current + 1,
	})
	if err != nil {
		return "", fmt.Errorf("marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: &d.table,
		Item:      item,
	}
	if expected == "" {
		input.ConditionExpression = aws.String("attribute_not_exists(pk)")
	} else {
		input.ConditionExpression = aws.String("#v = :v")
		input.ExpressionAttributeNames = map[string]string{"#v": "version"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: expected},
		}
	}

	if _, err := d.client.PutItem(ctx, input); err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return "", ErrVersionConflict
		}
		return "", fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return strconv.FormatInt(current+1, 10), nil
}
