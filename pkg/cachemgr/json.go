package cachemgr

import (
	"context"
	"encoding/json"
	"fmt"
)

// SetJSON 把 v 序列化为 JSON 后写入。
// 序列化失败是调用方错误，直接上抛，不写入任何一层。
func (m *Manager) SetJSON(ctx context.Context, key string, v any, opts ...ItemOption) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cachemgr: marshal %q: %w", key, err)
	}
	return m.Set(ctx, key, data, opts...)
}

// GetJSON 读取键并反序列化到 dst。
// 键缺失返回 (false, nil)，dst 保持不变。
func (m *Manager) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, found, err := m.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cachemgr: unmarshal %q: %w", key, err)
	}
	return true, nil
}
