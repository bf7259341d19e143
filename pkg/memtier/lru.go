package memtier

import (
	"fmt"
	"sort"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// lruPolicy 基于 simplelru 维护访问新旧顺序。
// 索引只存键，不存值；受害者是 GetOldest 返回的最旧键。
// Store 先淘汰后插入，索引条目数不会超过容量，因此 simplelru
// 自身的满额淘汰永远不会触发。
type lruPolicy struct {
	index *simplelru.LRU[string, struct{}]
}

func newLRUPolicy(capacity int) (*lruPolicy, error) {
	index, err := simplelru.NewLRU[string, struct{}](capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("memtier: create lru index: %w", err)
	}
	return &lruPolicy{index: index}, nil
}

func (p *lruPolicy) name() EvictionStrategy { return StrategyLRU }

func (p *lruPolicy) insert(e *Entry) {
	p.index.Add(e.Key, struct{}{})
}

func (p *lruPolicy) update(e *Entry) {
	// 覆盖写入视为一次使用
	p.index.Add(e.Key, struct{}{})
}

func (p *lruPolicy) access(e *Entry) {
	// Get 将键移动到最新端
	p.index.Get(e.Key)
}

func (p *lruPolicy) remove(e *Entry) {
	p.index.Remove(e.Key)
}

func (p *lruPolicy) victim() (string, bool) {
	key, _, ok := p.index.GetOldest()
	return key, ok
}

func (p *lruPolicy) reset(entries []*Entry) {
	p.index.Purge()
	// 按访问时间升序重放，最近访问者落在最新端；
	// 未被访问过的条目以插入序号裁决
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AccessedAt.Equal(sorted[j].AccessedAt) {
			return sorted[i].Seq < sorted[j].Seq
		}
		return sorted[i].AccessedAt.Before(sorted[j].AccessedAt)
	})
	for _, e := range sorted {
		p.index.Add(e.Key, struct{}{})
	}
}
