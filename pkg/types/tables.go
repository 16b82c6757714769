package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "ragdesk_"

const (
	TABLE_VECTORS = TableName("vectors")
)
