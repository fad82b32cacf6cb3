package migrations

import (
	"caregate/app/models/outbox"
	"caregate/app/models/payment"
)

// RegisterTables 返回需要迁移的表的模型列表
func RegisterTables() []interface{} {
	return []interface{}{
		&payment.Payment{},
		&outbox.Message{},
	}
}
