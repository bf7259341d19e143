package cachemgr

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/cachekit/pkg/codec"
)

// chunk 把键列表按 size 切片。size 由配置校验保证为正。
func chunk(keys []string, size int) [][]string {
	var out [][]string
	for len(keys) > size {
		out = append(out, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}

// BatchSet 批量写入，按 BatchSize 分片，每片对共享层一次
// pipeline 往返。语义与逐条 Set 一致：内存层写入成功即成功，
// 共享层失败按片计为 fallback。
func (m *Manager) BatchSet(ctx context.Context, items map[string][]byte, opts ...ItemOption) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(items) == 0 {
		return nil
	}

	o := &itemOptions{}
	for _, opt := range opts {
		opt(o)
	}

	keys := make([]string, 0, len(items))
	for k := range items {
		if k == "" {
			return ErrEmptyKey
		}
		keys = append(keys, k)
	}

	ttl := m.resolveTTL(o)
	for _, group := range chunk(keys, m.cfg.BatchSize) {
		shared := make(map[string][]byte, len(group))
		for _, key := range group {
			payload := m.encodeAndStoreLocal(key, items[key], o)
			shared[m.prefixed(key)] = payload
		}
		if m.shared != nil {
			if err := m.shared.MSet(ctx, shared, ttl); err != nil {
				m.fallback("batch_set", group[0], err)
			}
		}
	}
	return nil
}

// encodeAndStoreLocal 编码值并写入内存层，返回编码后的载荷。
func (m *Manager) encodeAndStoreLocal(key string, value []byte, o *itemOptions) []byte {
	payload, compressed := m.codec.Encode(value)
	if compressed {
		m.stats.Compression()
	}

	ttl := m.resolveTTL(o)
	e := newMemEntry(key, payload, compressed, ttl)
	e.Metadata = o.metadata
	m.mem.Put(e)
	m.stats.Set()
	return payload
}

// BatchDelete 批量删除，按 BatchSize 分片。
// 键不存在不是错误，共享层失败按片计为 fallback。
func (m *Manager) BatchDelete(ctx context.Context, keys []string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(keys) == 0 {
		return nil
	}
	for _, k := range keys {
		if k == "" {
			return ErrEmptyKey
		}
	}

	for _, group := range chunk(keys, m.cfg.BatchSize) {
		prefixed := make([]string, len(group))
		for i, key := range group {
			m.mem.Delete(key)
			m.stats.Delete()
			prefixed[i] = m.prefixed(key)
		}
		if m.shared != nil {
			if err := m.shared.Del(ctx, prefixed...); err != nil {
				m.fallback("batch_delete", group[0], err)
			}
		}
	}
	return nil
}

// GetMulti 批量读取。命中的键出现在结果中，缺失的键不出现。
//
// 语义与逐条 Get 一致：共享层优先，按 BatchSize 分片并发查询，
// 命中回填内存；分片失败或共享层缺失的键回退到内存层。
// 单片失败只影响该片的键，不影响其他片。
func (m *Manager) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	for _, k := range keys {
		if k == "" {
			return nil, ErrEmptyKey
		}
	}

	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}

	result := make(map[string][]byte, len(unique))
	if m.shared != nil {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, group := range chunk(unique, m.cfg.BatchSize) {
			g.Go(func() error {
				m.fetchShared(gctx, group, &mu, result)
				return nil
			})
		}
		// worker 不返回错误，后端故障折叠为该片回退内存层
		_ = g.Wait()
	}

	for _, key := range unique {
		if _, ok := result[key]; ok {
			continue
		}
		e, ok := m.mem.Get(key)
		if ok {
			val, err := m.codec.Decode(e.Value)
			if err == nil {
				m.stats.MemoryHit()
				if e.Compressed {
					m.stats.Decompression()
				}
				result[key] = val
				continue
			}
			m.stats.Error()
			m.mem.Delete(key)
		}
		m.stats.Miss()
	}
	return result, nil
}

// fetchShared 查询共享层的一个分片并把命中写入 result。
func (m *Manager) fetchShared(ctx context.Context, group []string, mu *sync.Mutex, result map[string][]byte) {
	prefixed := make([]string, len(group))
	for i, key := range group {
		prefixed[i] = m.prefixed(key)
	}

	found, err := m.shared.MGet(ctx, prefixed...)
	if err != nil {
		m.fallback("get_multi", group[0], err)
		return
	}

	for _, key := range group {
		payload, ok := found[m.prefixed(key)]
		if !ok {
			continue
		}
		val, derr := m.codec.Decode(payload)
		if derr != nil {
			m.evictCorrupt(ctx, key)
			continue
		}
		m.stats.SharedHit()
		if codec.Compressed(payload) {
			m.stats.Decompression()
		}
		m.repopulate(key, payload)

		mu.Lock()
		result[key] = val
		mu.Unlock()
	}
}
