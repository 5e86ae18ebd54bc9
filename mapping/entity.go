package mapping

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a row in its storage representation.
type Item map[string]types.AttributeValue

// PK holds the key attributes of one row.
type PK map[string]types.AttributeValue

// Tabler is implemented by types that name their own table.
// The scanner uses it when no fluent definition is registered.
type Tabler interface {
	TableName() string
}

// StorageType is the attribute kind a column is stored as.
type StorageType string

const (
	// StorageDynamic marks columns whose storage kind is decided by the
	// runtime value (fields declared as interface types).
	StorageDynamic StorageType = ""

	StorageString    StorageType = "S"
	StorageNumber    StorageType = "N"
	StorageBinary    StorageType = "B"
	StorageBool      StorageType = "BOOL"
	StorageStringSet StorageType = "SS"
	StorageNumberSet StorageType = "NS"
	StorageBinarySet StorageType = "BS"
	StorageList      StorageType = "L"
	StorageMap       StorageType = "M"
)

// ParseStorageType returns the storage type named by s.
func ParseStorageType(s string) (StorageType, bool) {
	switch st := StorageType(s); st {
	case StorageString, StorageNumber, StorageBinary, StorageBool,
		StorageStringSet, StorageNumberSet, StorageBinarySet, StorageList, StorageMap:
		return st, true
	}
	return StorageDynamic, false
}

// ScalarAttributeType returns the key schema attribute type for st.
// Only S, N and B are valid key types.
func (st StorageType) ScalarAttributeType() (types.ScalarAttributeType, bool) {
	switch st {
	case StorageString:
		return types.ScalarAttributeTypeS, true
	case StorageNumber:
		return types.ScalarAttributeTypeN, true
	case StorageBinary:
		return types.ScalarAttributeTypeB, true
	}
	return "", false
}

// String returns the attribute kind name, or "dynamic".
func (st StorageType) String() string {
	if st == StorageDynamic {
		return "dynamic"
	}
	return string(st)
}
