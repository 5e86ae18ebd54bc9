package statement

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// expression allocates placeholder names and values for one request.
type expression struct {
	names  map[string]string
	values map[string]types.AttributeValue
	byName map[string]string
}

// name returns the #attrN placeholder of column, reusing it when the column
// was already referenced.
func (e *expression) name(column string) string {
	if e.names == nil {
		e.names = make(map[string]string)
		e.byName = make(map[string]string)
	}
	if key, ok := e.byName[column]; ok {
		return key
	}
	key := fmt.Sprintf("#attr%d", len(e.names))
	e.names[key] = column
	e.byName[column] = key
	return key
}

// value returns a fresh :valN placeholder bound to av.
func (e *expression) value(av types.AttributeValue) string {
	if e.values == nil {
		e.values = make(map[string]types.AttributeValue)
	}
	key := fmt.Sprintf(":val%d", len(e.values))
	e.values[key] = av
	return key
}

// projection returns a projection expression over columns.
func (e *expression) projection(columns []string) string {
	refs := make([]string, len(columns))
	for i, c := range columns {
		refs[i] = e.name(c)
	}
	return strings.Join(refs, ", ")
}
