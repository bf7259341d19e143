package memtier

import (
	"container/heap"
)

// lfuPolicy 以最小堆维护访问频次，堆顶即受害者。
// 比较键：访问次数升序，并列时插入序号升序（最早插入者先淘汰）。
type lfuPolicy struct {
	heap  lfuHeap
	items map[string]*lfuItem
}

type lfuItem struct {
	entry *Entry
	index int // 堆内下标，heap.Interface 维护
}

func newLFUPolicy() *lfuPolicy {
	return &lfuPolicy{
		items: make(map[string]*lfuItem),
	}
}

func (p *lfuPolicy) name() EvictionStrategy { return StrategyLFU }

func (p *lfuPolicy) insert(e *Entry) {
	item := &lfuItem{entry: e}
	p.items[e.Key] = item
	heap.Push(&p.heap, item)
}

func (p *lfuPolicy) update(_ *Entry) {
	// 覆盖写入不改变访问计数，堆序不变
}

func (p *lfuPolicy) access(e *Entry) {
	if item, ok := p.items[e.Key]; ok {
		// AccessCount 已由 Store 递增，只需修复堆序
		heap.Fix(&p.heap, item.index)
	}
}

func (p *lfuPolicy) remove(e *Entry) {
	if item, ok := p.items[e.Key]; ok {
		heap.Remove(&p.heap, item.index)
		delete(p.items, e.Key)
	}
}

func (p *lfuPolicy) victim() (string, bool) {
	if len(p.heap) == 0 {
		return "", false
	}
	return p.heap[0].entry.Key, true
}

func (p *lfuPolicy) reset(entries []*Entry) {
	p.heap = p.heap[:0]
	p.items = make(map[string]*lfuItem, len(entries))
	for _, e := range entries {
		item := &lfuItem{entry: e}
		p.items[e.Key] = item
		p.heap = append(p.heap, item)
	}
	heap.Init(&p.heap)
}

// lfuHeap 实现 heap.Interface。
type lfuHeap []*lfuItem

func (h lfuHeap) Len() int { return len(h) }

func (h lfuHeap) Less(i, j int) bool {
	a, b := h[i].entry, h[j].entry
	if a.AccessCount != b.AccessCount {
		return a.AccessCount < b.AccessCount
	}
	return a.Seq < b.Seq
}

func (h lfuHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *lfuHeap) Push(x any) {
	item := x.(*lfuItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *lfuHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
