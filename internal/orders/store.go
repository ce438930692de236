package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/aws"
)

// GSI names on the orders table. GSI keys must be top-level attributes,
// which is why Order duplicates order_number and gateway_reference there.
const (
	indexOrderNumber      = "order_number-index"
	indexGatewayReference = "gateway_reference-index"
)

// ErrDuplicateOrderNumber indicates the order number is already taken.
var ErrDuplicateOrderNumber = errors.New("order number already exists")

// ErrInvalidStateForDeletion indicates the order is past the point where
// deletion is allowed (only pending and cancelled orders may be deleted).
var ErrInvalidStateForDeletion = errors.New("order status does not permit deletion")

// Store is the only component that reads or writes order records.
type Store struct {
	client       aws.DynamoDBAPI
	tableName    string
	numbersTable string
	nowFunc      func() time.Time
}

// NewStore creates a new orders Store. numbersTable holds one guard item per
// order number and backs the uniqueness constraint.
func NewStore(client aws.DynamoDBAPI, tableName, numbersTable string) *Store {
	return &Store{
		client:       client,
		tableName:    tableName,
		numbersTable: numbersTable,
		nowFunc:      time.Now,
	}
}

// Create persists a new order atomically together with its order-number
// guard item. It issues a single TransactWriteItems call:
//   - Put order with ConditionExpression attribute_not_exists(order_id)
//   - Put guard item with ConditionExpression attribute_not_exists(order_number)
//
// Returns ErrDuplicateOrderNumber when the transaction is canceled because
// the number is taken.
func (s *Store) Create(ctx context.Context, order *Order) error {
	now := s.nowFunc().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	orderMap, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}

	guard := map[string]types.AttributeValue{
		"order_number": &types.AttributeValueMemberS{Value: order.OrderNumber},
		"order_id":     &types.AttributeValueMemberS{Value: order.OrderID},
		"created_at":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                orderMap,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.numbersTable,
					Item:                guard,
					ConditionExpression: awsString("attribute_not_exists(order_number)"),
				},
			},
		},
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// GetByID fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) GetByID(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// GetByOrderNumber fetches an order via the order_number GSI.
// Returns (nil, nil) if not found.
func (s *Store) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.queryIndex(ctx, indexOrderNumber, "order_number", orderNumber)
}

// GetByGatewayReference fetches an order via the gateway_reference GSI.
// Returns (nil, nil) if not found.
func (s *Store) GetByGatewayReference(ctx context.Context, reference string) (*Order, error) {
	return s.queryIndex(ctx, indexGatewayReference, "gateway_reference", reference)
}

func (s *Store) queryIndex(ctx context.Context, index, attr, value string) (*Order, error) {
	limit := int32(1)
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:                &s.tableName,
		IndexName:                &index,
		KeyConditionExpression:   awsString("#k = :v"),
		ExpressionAttributeNames: map[string]string{"#k": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
		Limit: &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", index, err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Items[0], &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// SetGatewayReference stores the gateway transaction reference on the order,
// but only if no reference was stored before. The reference must stay 1:1
// with the order, so a second initialization attempt is rejected here at the
// storage layer regardless of interleaving.
// Returns (false, nil) when a reference already exists.
func (s *Store) SetGatewayReference(ctx context.Context, orderID, reference string) (bool, error) {
	now := s.nowFunc().UTC()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET payment.gateway_reference = :ref, gateway_reference = :ref, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: reference},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
		ConditionExpression: awsString("attribute_not_exists(payment.gateway_reference)"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return false, nil
		}
		return false, fmt.Errorf("update item (set gateway reference): %w", err)
	}
	return true, nil
}

// UpdatePaymentAndStatus applies a verification outcome as a single
// conditional write: the update lands only while payment.status is still
// pending. This is the sole concurrency-control primitive for verification;
// concurrent webhook and user-poll verifications race here and exactly one
// wins.
// Returns (false, nil) when the order was already processed.
func (s *Store) UpdatePaymentAndStatus(ctx context.Context, orderID string, upd PaymentUpdate) (bool, error) {
	now := s.nowFunc().UTC()

	updateExpr := "SET payment.#ps = :ps, #st = :os, updated_at = :ua"
	values := map[string]types.AttributeValue{
		":ps":      &types.AttributeValueMemberS{Value: upd.PaymentStatus},
		":os":      &types.AttributeValueMemberS{Value: upd.OrderStatus},
		":ua":      &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		":pending": &types.AttributeValueMemberS{Value: PaymentPending},
	}
	if upd.GatewayTransactionID != "" {
		updateExpr += ", payment.gateway_transaction_id = :tx"
		values[":tx"] = &types.AttributeValueMemberS{Value: upd.GatewayTransactionID}
	}
	if upd.EstimatedDelivery != nil {
		updateExpr += ", estimated_delivery = :ed"
		values[":ed"] = &types.AttributeValueMemberS{Value: upd.EstimatedDelivery.UTC().Format(time.RFC3339Nano)}
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: &updateExpr,
		ExpressionAttributeNames: map[string]string{
			"#ps": "status",
			"#st": "status",
		},
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("payment.#ps = :pending"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return false, nil
		}
		return false, fmt.Errorf("update item (payment and status): %w", err)
	}
	return true, nil
}

// Delete removes an order and its order-number guard item, but only while
// the order is still pending or cancelled. Orders with a completed payment
// are never hard-deleted.
func (s *Store) Delete(ctx context.Context, orderID, orderNumber string) error {
	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName: &s.tableName,
					Key: map[string]types.AttributeValue{
						"order_id": &types.AttributeValueMemberS{Value: orderID},
					},
					ConditionExpression:      awsString("#st IN (:pending, :cancelled)"),
					ExpressionAttributeNames: map[string]string{"#st": "status"},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":pending":   &types.AttributeValueMemberS{Value: StatusPending},
						":cancelled": &types.AttributeValueMemberS{Value: StatusCancelled},
					},
				},
			},
			{
				Delete: &types.Delete{
					TableName: &s.numbersTable,
					Key: map[string]types.AttributeValue{
						"order_number": &types.AttributeValueMemberS{Value: orderNumber},
					},
				},
			},
		},
	}
	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return ErrInvalidStateForDeletion
		}
		return fmt.Errorf("transact delete: %w", err)
	}
	return nil
}

// isConditionalFailure detects a failed ConditionExpression, either as the
// concrete exception type or via the smithy error code.
func isConditionalFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}

func awsString(s string) *string { return &s }
