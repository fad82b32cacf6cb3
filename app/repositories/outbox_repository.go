package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"caregate/app/models/outbox"
	"caregate/pkg/database"
)

// OutboxRepository 发件箱仓库
type OutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository 创建仓库实例
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		db: database.DB,
	}
}

// FetchPending 获取一批待投递的消息，按写入顺序返回
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	messages := make([]outbox.Message, 0, limit)
	err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Claim 尝试认领一条待投递消息
// 通过条件更新保证同一条消息只会被一个 worker 拿到
func (r *OutboxRepository) Claim(ctx context.Context, id uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&outbox.Message{}).
		Where("id = ? AND status = ?", id, outbox.StatusPending).
		Update("status", "publishing")
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkPublished 投递确认后标记消息为已发布
func (r *OutboxRepository) MarkPublished(ctx context.Context, id uint64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&outbox.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       outbox.StatusPublished,
			"published_at": &now,
		}).Error
}

// MarkFailed 投递失败，累加重试次数
// 未超过 maxAttempts 时回到 pending 等待下一轮，超过则标记为 dead
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64, maxAttempts int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg outbox.Message
		if err := tx.First(&msg, id).Error; err != nil {
			return err
		}

		msg.Attempts++
		status := outbox.StatusPending
		if msg.Attempts >= maxAttempts {
			status = outbox.StatusDead
		}

		return tx.Model(&outbox.Message{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":   status,
				"attempts": msg.Attempts,
			}).Error
	})
}

// CountByStatus 统计某状态下的消息数量，主要用于测试和巡检
func (r *OutboxRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&outbox.Message{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
