// Package outbox 事务发件箱模型
// 事件与业务记录在同一事务内落库，由中继异步投递，避免双写丢失
package outbox

import (
	"time"
)

// 消息状态
const (
	StatusPending   = "pending"   // 待投递
	StatusPublished = "published" // 已确认投递
	StatusDead      = "dead"      // 重试耗尽，放弃投递
)

// Message 发件箱消息
type Message struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic       string     `gorm:"type:varchar(128);not null;index" json:"topic"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	Status      string     `gorm:"type:varchar(20);not null;index;default:pending" json:"status"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	CreatedAt   time.Time  `gorm:"" json:"created_at"`
	PublishedAt *time.Time `gorm:"" json:"published_at"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "outbox_messages"
}
