package config

import (
	"testing"
)

func TestGetWithDefaults(t *testing.T) {
	if got := Get("nonexistent.key", "fallback"); got != "fallback" {
		t.Errorf("Get = %q, want fallback", got)
	}
	if got := GetInt("nonexistent.key", 42); got != 42 {
		t.Errorf("GetInt = %d, want 42", got)
	}
	if got := GetBool("nonexistent.key", true); !got {
		t.Error("GetBool = false, want true")
	}
	if got := Get("nonexistent.key"); got != "" {
		t.Errorf("无默认值时 Get = %q, want \"\"", got)
	}
}

func TestSetOverridesValue(t *testing.T) {
	Set("app.name", "override")
	if got := GetString("app.name"); got != "override" {
		t.Errorf("GetString = %q, want override", got)
	}
}

func TestEmptyStringFallsBackToDefault(t *testing.T) {
	// 空字符串视为未配置
	Set("some.key", "")
	if got := Get("some.key", "fallback"); got != "fallback" {
		t.Errorf("Get = %q, want fallback", got)
	}
}

func TestTypeConversion(t *testing.T) {
	Set("num.key", "123")
	if got := GetInt("num.key"); got != 123 {
		t.Errorf("GetInt = %d, want 123", got)
	}
	if got := GetInt64("num.key"); got != 123 {
		t.Errorf("GetInt64 = %d, want 123", got)
	}
	if got := GetFloat64("num.key"); got != 123 {
		t.Errorf("GetFloat64 = %v, want 123", got)
	}
}
