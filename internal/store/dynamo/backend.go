// Package dynamo implements the store backend on DynamoDB. Tables and their
// global secondary indexes are provisioned out of band; attribute names in
// each TableSpec must match the provisioned key definitions.
package dynamo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"spots/internal/store"
)

type Backend struct {
	client *dynamodb.Client
}

func New(client *dynamodb.Client) *Backend {
	return &Backend{client: client}
}

// Connect builds a backend from the default AWS credential chain.
func Connect(ctx context.Context, region string) (*Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, store.Unavailable(err)
	}
	return New(dynamodb.NewFromConfig(cfg)), nil
}

func dynamoKey(spec store.KeySpec, key store.Key) map[string]types.AttributeValue {
	av := map[string]types.AttributeValue{
		spec.PartitionAttr: &types.AttributeValueMemberS{Value: key.Partition},
	}
	if spec.Composite() {
		av[spec.SortAttr] = &types.AttributeValueMemberS{Value: key.Sort}
	}
	return av
}

func unmarshalItem(av map[string]types.AttributeValue) (store.Item, error) {
	var item store.Item
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, store.Unavailable(err)
	}
	return item, nil
}

func (b *Backend) Get(ctx context.Context, t store.TableSpec, key store.Key) (store.Item, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.Name),
		Key:       dynamoKey(t.Key, key),
	})
	if err != nil {
		return nil, store.Unavailable(err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return unmarshalItem(out.Item)
}

func (b *Backend) Put(ctx context.Context, t store.TableSpec, item store.Item) error {
	if _, err := t.Key.Extract(item); err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return store.Unavailable(err)
	}
	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.Name),
		Item:      av,
	})
	return store.Unavailable(err)
}

func (b *Backend) Delete(ctx context.Context, t store.TableSpec, key store.Key) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.Name),
		Key:       dynamoKey(t.Key, key),
	})
	return store.Unavailable(err)
}

func (b *Backend) Scan(ctx context.Context, t store.TableSpec) ([]store.Item, error) {
	var items []store.Item
	var startKey map[string]types.AttributeValue

	for {
		out, err := b.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(t.Name),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, store.Unavailable(err)
		}
		for _, av := range out.Items {
			item, err := unmarshalItem(av)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return items, nil
}

func (b *Backend) Query(ctx context.Context, t store.TableSpec, q store.Query) ([]store.Item, error) {
	idx, ok := t.Index(q.Index)
	if !ok {
		return nil, fmt.Errorf("table %s has no index %q", t.Name, q.Index)
	}

	names := map[string]string{"#p": idx.Key.PartitionAttr}
	values := map[string]types.AttributeValue{
		":p": &types.AttributeValueMemberS{Value: q.Partition},
	}
	cond := "#p = :p"

	switch {
	case q.Sort.Equals != "":
		names["#s"] = idx.Key.SortAttr
		values[":s"] = &types.AttributeValueMemberS{Value: q.Sort.Equals}
		cond += " AND #s = :s"
	case q.Sort.Prefix != "":
		names["#s"] = idx.Key.SortAttr
		values[":s"] = &types.AttributeValueMemberS{Value: q.Sort.Prefix}
		cond += " AND begins_with(#s, :s)"
	}

	var filters []string
	i := 0
	for attr, want := range q.Filter {
		nameRef := fmt.Sprintf("#f%d", i)
		valueRef := fmt.Sprintf(":f%d", i)
		av, err := attributevalue.Marshal(want)
		if err != nil {
			return nil, store.Unavailable(err)
		}
		names[nameRef] = attr
		values[valueRef] = av
		filters = append(filters, nameRef+" = "+valueRef)
		i++
	}

	in := &dynamodb.QueryInput{
		TableName:                 aws.String(t.Name),
		IndexName:                 aws.String(q.Index),
		KeyConditionExpression:    aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
	if len(filters) > 0 {
		in.FilterExpression = aws.String(strings.Join(filters, " AND "))
	}
	if q.Limit > 0 {
		in.Limit = aws.Int32(int32(q.Limit))
	}

	out, err := b.client.Query(ctx, in)
	if err != nil {
		return nil, store.Unavailable(err)
	}

	items := make([]store.Item, 0, len(out.Items))
	for _, av := range out.Items {
		item, err := unmarshalItem(av)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
