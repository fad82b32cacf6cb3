// Package config 站点配置信息
package config

// Initialize 触发本目录下所有 init() 完成配置注册
func Initialize() {
}
