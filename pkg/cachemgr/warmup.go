package cachemgr

import (
	"context"
	"sync"
)

// warmupItem 一条待预热的键值。
type warmupItem struct {
	key   string
	value []byte
	opts  itemOptions
}

// warmupQueue 有界异步预热队列。
//
// 单个后台 worker 顺序消费，队列满时丢弃最旧的待处理条目
// 为新条目腾位。close 会等 worker 排空已入队的条目后才返回，
// 保证已接受的预热请求不丢失。
type warmupQueue struct {
	mgr *Manager
	ch  chan warmupItem
	wg  sync.WaitGroup

	mu       sync.Mutex
	shutdown bool
}

func newWarmupQueue(m *Manager, size int) *warmupQueue {
	q := &warmupQueue{
		mgr: m,
		ch:  make(chan warmupItem, size),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *warmupQueue) run() {
	defer q.wg.Done()
	for item := range q.ch {
		// 预热写入脱离调用方取消链，每次操作仍受客户端自身超时保护
		q.mgr.store(context.Background(), item.key, item.value, &item.opts)
	}
}

// enqueue 入队一条预热条目。队列已关闭时返回 false。
func (q *warmupQueue) enqueue(item warmupItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		return false
	}

	for {
		select {
		case q.ch <- item:
			return true
		default:
		}
		// 队列满：丢最旧的一条再重试。worker 可能恰好取走了它，
		// 此时 default 分支直接进入下一轮重试。
		select {
		case <-q.ch:
			q.mgr.stats.WarmupDrop()
		default:
		}
	}
}

// close 停止接收并排空队列。幂等，等 worker 退出后返回。
func (q *warmupQueue) close() {
	q.mu.Lock()
	if !q.shutdown {
		q.shutdown = true
		close(q.ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// WarmupCache 预热一条键值。
//
// 预热启用时条目入队异步写入，调用立即返回；队列溢出丢弃
// 最旧的待处理条目并计入 WarmupDrops，这是正常背压而非故障。
// 预热禁用时退化为同步写入。
func (m *Manager) WarmupCache(ctx context.Context, key string, value []byte, opts ...ItemOption) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}

	o := &itemOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if m.warm == nil {
		m.store(ctx, key, value, o)
		return nil
	}
	m.warm.enqueue(warmupItem{key: key, value: value, opts: *o})
	return nil
}
