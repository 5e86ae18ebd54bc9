// Package statement builds DynamoDB request inputs from resolved mappings.
//
// Builders only construct inputs; executing them is left to the caller's
// *dynamodb.Client:
//
//	m, _ := mapping.Resolve[User](reg)
//	b := statement.New(statement.DefaultConfig())
//	in, err := b.Put(m, &user)
//	_, err = client.PutItem(ctx, in)
//
// Operations addressing a single item return a *mapping.MissingKeyError when
// the mapping resolved without a partition key.
package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/lattice/mapping"
)

// ErrUnsupportedKeySchema is returned by CreateTable when the mapping's keys
// cannot be expressed as a DynamoDB key schema (one HASH and at most one
// RANGE attribute of type S, N or B).
var ErrUnsupportedKeySchema = errors.New("lattice: key schema not supported by DynamoDB")

// Config holds configuration for a Builder.
type Config struct {
	// ConsistentRead requests strongly consistent reads on Get and Query.
	// Default: false
	ConsistentRead bool

	// BillingMode is used by CreateTable.
	// Default: PAY_PER_REQUEST
	BillingMode types.BillingMode
}

// DefaultConfig returns eventually consistent reads and on-demand billing.
func DefaultConfig() Config {
	return Config{
		BillingMode: types.BillingModePayPerRequest,
	}
}

// validate fills unset values with defaults.
func (c *Config) validate() {
	if c.BillingMode == "" {
		c.BillingMode = types.BillingModePayPerRequest
	}
}

// Builder builds request inputs.
type Builder struct {
	config Config
}

// New creates a Builder.
func New(config Config) *Builder {
	config.validate()
	return &Builder{config: config}
}

// QueryOptions configures QueryPartition.
type QueryOptions struct {
	// IndexName is the optional GSI/LSI to query.
	IndexName string

	// Limit is the maximum number of items to evaluate (0 = no limit).
	Limit int32

	// ScanIndexForward sets sort order (true = ascending, false = descending).
	ScanIndexForward *bool
}

// Put returns a PutItemInput writing every bound column of instance.
func (b *Builder) Put(m *mapping.ResolvedMapping, instance any) (*dynamodb.PutItemInput, error) {
	if err := m.RequireKey("Put"); err != nil {
		return nil, err
	}
	if _, err := mapping.KeyOf(m, instance); err != nil {
		return nil, err
	}
	item, err := m.Marshal(instance)
	if err != nil {
		return nil, err
	}
	return &dynamodb.PutItemInput{
		TableName: aws.String(m.Table()),
		Item:      item,
	}, nil
}

// Create is Put guarded by attribute_not_exists on the partition key, so it
// fails when an item with the same key already exists.
func (b *Builder) Create(m *mapping.ResolvedMapping, instance any) (*dynamodb.PutItemInput, error) {
	if err := m.RequireKey("Create"); err != nil {
		return nil, err
	}
	in, err := b.Put(m, instance)
	if err != nil {
		return nil, err
	}
	var e expression
	partition := m.PartitionKey()
	in.ConditionExpression = aws.String("attribute_not_exists(" + e.name(partition[0]) + ")")
	in.ExpressionAttributeNames = e.names
	return in, nil
}

// Get returns a GetItemInput for instance's key, projecting the bound columns.
func (b *Builder) Get(m *mapping.ResolvedMapping, instance any) (*dynamodb.GetItemInput, error) {
	key, err := keyOf(m, instance, "Get")
	if err != nil {
		return nil, err
	}
	var e expression
	in := &dynamodb.GetItemInput{
		TableName:            aws.String(m.Table()),
		Key:                  key,
		ProjectionExpression: aws.String(e.projection(m.ColumnNames())),
	}
	in.ExpressionAttributeNames = e.names
	if b.config.ConsistentRead {
		in.ConsistentRead = aws.Bool(true)
	}
	return in, nil
}

// Delete returns a DeleteItemInput for instance's key.
func (b *Builder) Delete(m *mapping.ResolvedMapping, instance any) (*dynamodb.DeleteItemInput, error) {
	key, err := keyOf(m, instance, "Delete")
	if err != nil {
		return nil, err
	}
	return &dynamodb.DeleteItemInput{
		TableName: aws.String(m.Table()),
		Key:       key,
	}, nil
}

// Update returns an upsert: every non-key column is SET, and columns whose
// value is null are REMOVEd. Column order follows the mapping.
func (b *Builder) Update(m *mapping.ResolvedMapping, instance any) (*dynamodb.UpdateItemInput, error) {
	key, err := keyOf(m, instance, "Update")
	if err != nil {
		return nil, err
	}

	var (
		e       expression
		sets    []string
		removes []string
	)
	for _, col := range m.Columns() {
		if m.IsKey(col.Name) {
			continue
		}
		av, err := m.Read(instance, col)
		if err != nil {
			return nil, err
		}
		if _, isNull := av.(*types.AttributeValueMemberNULL); isNull {
			removes = append(removes, e.name(col.Name))
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", e.name(col.Name), e.value(av)))
	}

	in := &dynamodb.UpdateItemInput{
		TableName: aws.String(m.Table()),
		Key:       key,
	}
	var clauses []string
	if len(sets) > 0 {
		clauses = append(clauses, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(removes, ", "))
	}
	if len(clauses) > 0 {
		in.UpdateExpression = aws.String(strings.Join(clauses, " "))
		in.ExpressionAttributeNames = e.names
		in.ExpressionAttributeValues = e.values
	}
	return in, nil
}

// QueryPartition returns a QueryInput selecting every item in instance's
// partition. Only partition key fields of instance are read.
func (b *Builder) QueryPartition(m *mapping.ResolvedMapping, instance any, opts QueryOptions) (*dynamodb.QueryInput, error) {
	if err := m.RequireKey("QueryPartition"); err != nil {
		return nil, err
	}

	var (
		e          expression
		conditions []string
	)
	for _, name := range m.PartitionKey() {
		col, _ := m.Column(name)
		av, err := m.Read(instance, col)
		if err != nil {
			return nil, err
		}
		if _, isNull := av.(*types.AttributeValueMemberNULL); isNull {
			return nil, &mapping.TypeConversionError{Property: col.Property, Target: "partition key", Err: errors.New("null key value")}
		}
		conditions = append(conditions, fmt.Sprintf("%s = %s", e.name(name), e.value(av)))
	}

	in := &dynamodb.QueryInput{
		TableName:                 aws.String(m.Table()),
		KeyConditionExpression:    aws.String(strings.Join(conditions, " AND ")),
		ExpressionAttributeNames:  e.names,
		ExpressionAttributeValues: e.values,
	}
	if opts.IndexName != "" {
		in.IndexName = aws.String(opts.IndexName)
	}
	if opts.Limit > 0 {
		in.Limit = aws.Int32(opts.Limit)
	}
	if opts.ScanIndexForward != nil {
		in.ScanIndexForward = opts.ScanIndexForward
	}
	if b.config.ConsistentRead {
		in.ConsistentRead = aws.Bool(true)
	}
	return in, nil
}

// CreateTable returns the CreateTableInput for m's table: partition key as
// HASH, clustering key as RANGE.
func (b *Builder) CreateTable(m *mapping.ResolvedMapping) (*dynamodb.CreateTableInput, error) {
	if err := m.RequireKey("CreateTable"); err != nil {
		return nil, err
	}
	keys := mapping.KeysOf(m)
	if len(keys.Partition) != 1 || len(keys.Clustering) > 1 {
		return nil, fmt.Errorf("%w: %s has %d partition and %d clustering columns",
			ErrUnsupportedKeySchema, m.Table(), len(keys.Partition), len(keys.Clustering))
	}

	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(m.Table()),
		BillingMode: b.config.BillingMode,
	}
	add := func(name string, keyType types.KeyType) error {
		col, _ := m.Column(name)
		attrType, ok := col.StorageType.ScalarAttributeType()
		if !ok {
			return fmt.Errorf("%w: key column %s stored as %s", ErrUnsupportedKeySchema, name, col.StorageType)
		}
		in.KeySchema = append(in.KeySchema, types.KeySchemaElement{
			AttributeName: aws.String(name),
			KeyType:       keyType,
		})
		in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: attrType,
		})
		return nil
	}
	if err := add(keys.Partition[0], types.KeyTypeHash); err != nil {
		return nil, err
	}
	if len(keys.Clustering) == 1 {
		if err := add(keys.Clustering[0], types.KeyTypeRange); err != nil {
			return nil, err
		}
	}
	if in.BillingMode == types.BillingModeProvisioned {
		in.ProvisionedThroughput = &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		}
	}
	return in, nil
}

func keyOf(m *mapping.ResolvedMapping, instance any, operation string) (mapping.PK, error) {
	if err := m.RequireKey(operation); err != nil {
		return nil, err
	}
	return mapping.KeyOf(m, instance)
}
