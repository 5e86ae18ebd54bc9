package stream

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/lattice/mapping"
)

// ConvertAttribute converts a stream attribute value to its SDK form.
func ConvertAttribute(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, 0, len(list))
		for _, item := range list {
			out = append(out, ConvertAttribute(item))
		}
		return &types.AttributeValueMemberL{Value: out}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: ConvertImage(v.Map())}
	default:
		return &types.AttributeValueMemberNULL{Value: true}
	}
}

// ConvertImage converts a stream image (NewImage, OldImage) to an item.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) mapping.Item {
	result := make(mapping.Item, len(image))
	for k, v := range image {
		result[k] = ConvertAttribute(v)
	}
	return result
}

// ConvertStreamKey converts a stream record's Keys to a mapping.PK.
// Only scalar key types (S, N, B) are kept.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) mapping.PK {
	result := make(mapping.PK)
	for k, v := range streamKey {
		switch v.DataType() {
		case events.DataTypeString, events.DataTypeNumber, events.DataTypeBinary:
			result[k] = ConvertAttribute(v)
		}
	}
	return result
}

// Decode unmarshals a stream image into out, a pointer to m's type.
func Decode(m *mapping.ResolvedMapping, image map[string]events.DynamoDBAttributeValue, out any) error {
	return m.Unmarshal(ConvertImage(image), out)
}
