package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory mock implementing the DynamoDB operations
// the store issues, including its conditional expressions. Items are stored
// per table keyed by their primary key value (order_id or order_number).
// NOTE: intentionally minimal, not production-grade.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	getCalls      int
	queryCalls    int
	updateCalls   int
	transactCalls int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (m *mockDynamo) ensureTable(tbl string) {
	if _, ok := m.tables[tbl]; !ok {
		m.tables[tbl] = map[string]map[string]types.AttributeValue{}
	}
}

func itemPK(table string, item map[string]types.AttributeValue) (string, error) {
	// guard items carry both order_number and order_id; the numbers table is
	// keyed by order_number, everything else by order_id
	if table == numbersTable {
		if v, ok := item["order_number"]; ok {
			return v.(*types.AttributeValueMemberS).Value, nil
		}
	}
	if v, ok := item["order_id"]; ok {
		return v.(*types.AttributeValueMemberS).Value, nil
	}
	if v, ok := item["order_number"]; ok {
		return v.(*types.AttributeValueMemberS).Value, nil
	}
	return "", errors.New("no primary key attribute")
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	pk, err := itemPK(table, params.Item)
	if err != nil {
		return nil, err
	}
	m.tables[table][pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	table := *params.TableName
	m.ensureTable(table)
	pk, err := itemPK(table, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.tables[table][pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

// Query supports the store's GSI lookups: it scans the table comparing the
// aliased top-level attribute against :v.
func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	table := *params.TableName
	m.ensureTable(table)
	attr, ok := params.ExpressionAttributeNames["#k"]
	if !ok {
		return nil, errors.New("query: missing #k name")
	}
	want := params.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, item := range m.tables[table] {
		if stringAttr(item, attr) == want {
			items = append(items, item)
		}
	}
	return &dyn.QueryOutput{Items: items}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	table := *params.TableName
	m.ensureTable(table)
	pk, err := itemPK(table, params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.tables[table][pk]
	if !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}

	// interpret the item as an Order to evaluate nested conditions
	var o Order
	if err := attributevalue.UnmarshalMap(item, &o); err != nil {
		return nil, err
	}

	if params.ConditionExpression != nil {
		switch cond := *params.ConditionExpression; cond {
		case "attribute_not_exists(payment.gateway_reference)":
			if o.Payment.GatewayReference != "" {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "payment.#ps = :pending":
			expected := params.ExpressionAttributeValues[":pending"].(*types.AttributeValueMemberS).Value
			if o.Payment.Status != expected {
				return nil, &types.ConditionalCheckFailedException{}
			}
		default:
			return nil, errors.New("unsupported condition: " + cond)
		}
	}

	if v, ok := params.ExpressionAttributeValues[":ref"]; ok {
		ref := v.(*types.AttributeValueMemberS).Value
		o.Payment.GatewayReference = ref
		o.GatewayReference = ref
	}
	if v, ok := params.ExpressionAttributeValues[":ps"]; ok {
		o.Payment.Status = v.(*types.AttributeValueMemberS).Value
	}
	if v, ok := params.ExpressionAttributeValues[":os"]; ok {
		o.Status = v.(*types.AttributeValueMemberS).Value
	}
	if v, ok := params.ExpressionAttributeValues[":tx"]; ok {
		o.Payment.GatewayTransactionID = v.(*types.AttributeValueMemberS).Value
	}
	if v, ok := params.ExpressionAttributeValues[":ed"]; ok {
		ts, perr := time.Parse(time.RFC3339Nano, v.(*types.AttributeValueMemberS).Value)
		if perr != nil {
			return nil, perr
		}
		o.EstimatedDelivery = &ts
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		ts, perr := time.Parse(time.RFC3339Nano, v.(*types.AttributeValueMemberS).Value)
		if perr != nil {
			return nil, perr
		}
		o.UpdatedAt = ts
	}

	updated, err := attributevalue.MarshalMap(o)
	if err != nil {
		return nil, err
	}
	m.tables[table][pk] = updated
	return &dyn.UpdateItemOutput{Attributes: updated}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	m.ensureTable(table)
	pk, err := itemPK(table, params.Key)
	if err != nil {
		return nil, err
	}
	delete(m.tables[table], pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactCalls++

	// first pass: evaluate all condition expressions
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil && p.ConditionExpression != nil {
			table := *p.TableName
			m.ensureTable(table)
			pk, err := itemPK(table, p.Item)
			if err != nil {
				return nil, err
			}
			if strings.HasPrefix(*p.ConditionExpression, "attribute_not_exists(") {
				if _, exists := m.tables[table][pk]; exists {
					return nil, &types.TransactionCanceledException{}
				}
			}
		}
		if d := it.Delete; d != nil && d.ConditionExpression != nil {
			table := *d.TableName
			m.ensureTable(table)
			pk, err := itemPK(table, d.Key)
			if err != nil {
				return nil, err
			}
			item, exists := m.tables[table][pk]
			if !exists {
				return nil, &types.TransactionCanceledException{}
			}
			if *d.ConditionExpression == "#st IN (:pending, :cancelled)" {
				status := stringAttr(item, "status")
				pending := d.ExpressionAttributeValues[":pending"].(*types.AttributeValueMemberS).Value
				cancelled := d.ExpressionAttributeValues[":cancelled"].(*types.AttributeValueMemberS).Value
				if status != pending && status != cancelled {
					return nil, &types.TransactionCanceledException{}
				}
			}
		}
	}

	// second pass: apply writes
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			table := *p.TableName
			m.ensureTable(table)
			pk, err := itemPK(table, p.Item)
			if err != nil {
				return nil, err
			}
			m.tables[table][pk] = p.Item
		}
		if d := it.Delete; d != nil {
			table := *d.TableName
			m.ensureTable(table)
			pk, err := itemPK(table, d.Key)
			if err != nil {
				return nil, err
			}
			delete(m.tables[table], pk)
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
