package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind 只解析 type 字段，用于分发；未知 type 由调用方决定忽略策略
func Kind(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty message")
	}
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", err
	}
	if probe.Type == "" {
		return "", fmt.Errorf("message missing type tag")
	}
	return probe.Type, nil
}

// Encode 序列化消息（拒绝 nil，避免把 "null" 发出去）
func Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("encode nil payload")
	}
	return json.Marshal(v)
}

// Decode 按具体类型反序列化完整消息体
func Decode[T any](raw []byte) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, fmt.Errorf("empty message")
	}
	err := json.Unmarshal(raw, &out)
	return out, err
}
