// Package dynamodb implements the node store on a single DynamoDB
// table. Children and sibling lookups go through a GSI keyed on the
// parent; roots share the sentinel parent key.
package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"arbor/application/ports"
	"arbor/domain/core/entities"
	"arbor/domain/core/valueobjects"
	pkgerrors "arbor/pkg/errors"
)

// rootParentKey stands in for the NULL parent of root nodes, since GSI
// keys cannot be absent
const rootParentKey = "ROOT"

// nodeItem represents the DynamoDB item structure for a node
type nodeItem struct {
	ID        string  `dynamodbav:"id"`
	Name      string  `dynamodbav:"name"`
	ParentKey string  `dynamodbav:"parent_key"`
	ParentID  *string `dynamodbav:"parent_id,omitempty"`
	CreatedAt string  `dynamodbav:"created_at"`
	UpdatedAt string  `dynamodbav:"updated_at"`
}

// NodeStore implements ports.NodeStore on DynamoDB
type NodeStore struct {
	client      *dynamodb.Client
	tableName   string
	parentIndex string
	tx          *transaction // nil outside a unit of work
}

// NewNodeStore creates a new DynamoDB-backed node store
func NewNodeStore(client *dynamodb.Client, tableName, parentIndex string) *NodeStore {
	return &NodeStore{
		client:      client,
		tableName:   tableName,
		parentIndex: parentIndex,
	}
}

var _ ports.NodeStore = (*NodeStore)(nil)

func (s *NodeStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	item, err := s.getItem(ctx, id.String())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return itemToEntity(*item)
}

func (s *NodeStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	return s.queryByParentKey(ctx, parentID.String(), nil)
}

func (s *NodeStore) FindRoots(ctx context.Context) ([]*entities.Node, error) {
	return s.queryByParentKey(ctx, rootParentKey, nil)
}

func (s *NodeStore) FindWithChildren(ctx context.Context, id valueobjects.NodeID) (*entities.Node, []*entities.Node, error) {
	node, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	children, err := s.FindChildren(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return node, children, nil
}

func (s *NodeStore) Exists(ctx context.Context, id valueobjects.NodeID) (bool, error) {
	item, err := s.getItem(ctx, id.String())
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

func (s *NodeStore) FindByNameAndParent(ctx context.Context, name valueobjects.NodeName, parentID *valueobjects.NodeID) (*entities.Node, error) {
	parentKey := rootParentKey
	if parentID != nil {
		parentKey = parentID.String()
	}
	wanted := name.String()
	siblings, err := s.queryByParentKey(ctx, parentKey, &wanted)
	if err != nil {
		return nil, err
	}
	if len(siblings) == 0 {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return siblings[0], nil
}

// AncestorIDs walks the parent chain item by item, nearest parent
// first. A dangling reference ends the chain as if it hit a root, and
// a missing start node has no ancestors.
func (s *NodeStore) AncestorIDs(ctx context.Context, id valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	current, err := s.getItem(ctx, id.String())
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	var chain []valueobjects.NodeID
	for current.ParentID != nil {
		parent, err := s.getItem(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		parentID, err := valueobjects.NewNodeIDFromString(parent.ID)
		if err != nil {
			return nil, pkgerrors.NewStoreError("ancestors", err)
		}
		chain = append(chain, parentID)
		current = parent
	}
	return chain, nil
}

func (s *NodeStore) Add(ctx context.Context, node *entities.Node) error {
	return s.put(ctx, node)
}

func (s *NodeStore) Update(ctx context.Context, node *entities.Node) error {
	exists, err := s.Exists(ctx, node.ID())
	if err != nil {
		return err
	}
	if !exists {
		return pkgerrors.NewNotFoundError("node")
	}
	return s.put(ctx, node)
}

func (s *NodeStore) Remove(ctx context.Context, id valueobjects.NodeID) error {
	key := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id.String()},
	}
	if s.tx != nil {
		s.tx.buffer(types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.tableName),
				Key:       key,
			},
		})
		return nil
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       key,
	})
	if err != nil {
		return pkgerrors.NewStoreError("remove", err)
	}
	return nil
}

func (s *NodeStore) RemoveBatch(ctx context.Context, ids []valueobjects.NodeID) error {
	for _, id := range ids {
		if err := s.Remove(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *NodeStore) put(ctx context.Context, node *entities.Node) error {
	item, err := attributevalue.MarshalMap(entityToItem(node))
	if err != nil {
		return pkgerrors.NewStoreError("marshal", err)
	}
	if s.tx != nil {
		s.tx.buffer(types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item:      item,
			},
		})
		return nil
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return pkgerrors.NewStoreError("put", err)
	}
	return nil
}

func (s *NodeStore) getItem(ctx context.Context, id string) (*nodeItem, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewStoreError("get", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item nodeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewStoreError("unmarshal", err)
	}
	return &item, nil
}

// queryByParentKey pages through the parent GSI; nameFilter narrows the
// result to a single sibling name when set
func (s *NodeStore) queryByParentKey(ctx context.Context, parentKey string, nameFilter *string) ([]*entities.Node, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.parentIndex),
		KeyConditionExpression: aws.String("parent_key = :parent"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":parent": &types.AttributeValueMemberS{Value: parentKey},
		},
	}
	if nameFilter != nil {
		input.FilterExpression = aws.String("#n = :name")
		input.ExpressionAttributeNames = map[string]string{"#n": "name"}
		input.ExpressionAttributeValues[":name"] = &types.AttributeValueMemberS{Value: *nameFilter}
	}

	var nodes []*entities.Node
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewStoreError("query", err)
		}
		var items []nodeItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, pkgerrors.NewStoreError("unmarshal", err)
		}
		for _, item := range items {
			node, err := itemToEntity(item)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return nodes, nil
}

func entityToItem(node *entities.Node) nodeItem {
	parentKey := rootParentKey
	var parentID *string
	if p := node.ParentID(); p != nil {
		id := p.String()
		parentKey = id
		parentID = &id
	}
	return nodeItem{
		ID:        node.ID().String(),
		Name:      node.Name().String(),
		ParentKey: parentKey,
		ParentID:  parentID,
		CreatedAt: node.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt: node.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
}

func itemToEntity(item nodeItem) (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(item.ID)
	if err != nil {
		return nil, pkgerrors.NewStoreError("read", err)
	}
	name, err := valueobjects.NewNodeName(item.Name)
	if err != nil {
		return nil, pkgerrors.NewStoreError("read", err)
	}
	var parentID *valueobjects.NodeID
	if item.ParentID != nil {
		pid, err := valueobjects.NewNodeIDFromString(*item.ParentID)
		if err != nil {
			return nil, pkgerrors.NewStoreError("read", err)
		}
		parentID = &pid
	}
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, pkgerrors.NewStoreError("read", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, pkgerrors.NewStoreError("read", err)
	}
	return entities.ReconstructNode(id, name, parentID, createdAt, updatedAt), nil
}
