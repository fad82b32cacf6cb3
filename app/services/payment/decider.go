package payment

import (
	"context"
	"math/rand"

	model "caregate/app/models/payment"
)

// Decider 结算结果决策器
// 当前用模拟决策代替真实的结算调用，作为注入点保留：
// 测试注入 FixedDecider，接入真实支付渠道时替换实现即可
type Decider interface {
	Decide(ctx context.Context) model.Status
}

// SimulatedDecider 模拟结算：按成功率随机给出结果
type SimulatedDecider struct {
	// SuccessRate 成功概率，取值 (0, 1]
	SuccessRate float64
}

// NewSimulatedDecider 创建模拟决策器，默认 90% 成功
func NewSimulatedDecider() *SimulatedDecider {
	return &SimulatedDecider{SuccessRate: 0.9}
}

// Decide 随机决定结算结果
func (d *SimulatedDecider) Decide(_ context.Context) model.Status {
	if rand.Float64() < d.SuccessRate {
		return model.StatusCompleted
	}
	return model.StatusFailed
}

// FixedDecider 固定结果决策器，测试中用来强制两种结果
type FixedDecider struct {
	Status model.Status
}

// Decide 返回固定结果
func (d *FixedDecider) Decide(_ context.Context) model.Status {
	return d.Status
}
