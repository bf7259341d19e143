package memtier

import (
	"math/rand/v2"
)

// randomPolicy 均匀随机选择受害者。
// 键集合用切片 + 下标映射维护，删除用尾部交换保持 O(1)。
type randomPolicy struct {
	keys    []string
	indexes map[string]int
}

func newRandomPolicy() *randomPolicy {
	return &randomPolicy{
		indexes: make(map[string]int),
	}
}

func (p *randomPolicy) name() EvictionStrategy { return StrategyRandom }

func (p *randomPolicy) insert(e *Entry) {
	if _, ok := p.indexes[e.Key]; ok {
		return
	}
	p.indexes[e.Key] = len(p.keys)
	p.keys = append(p.keys, e.Key)
}

func (p *randomPolicy) update(_ *Entry) {}

func (p *randomPolicy) access(_ *Entry) {
	// 随机策略与访问无关
}

func (p *randomPolicy) remove(e *Entry) {
	idx, ok := p.indexes[e.Key]
	if !ok {
		return
	}
	last := len(p.keys) - 1
	moved := p.keys[last]
	p.keys[idx] = moved
	p.indexes[moved] = idx
	p.keys = p.keys[:last]
	delete(p.indexes, e.Key)
}

func (p *randomPolicy) victim() (string, bool) {
	if len(p.keys) == 0 {
		return "", false
	}
	return p.keys[rand.IntN(len(p.keys))], true
}

func (p *randomPolicy) reset(entries []*Entry) {
	p.keys = p.keys[:0]
	p.indexes = make(map[string]int, len(entries))
	for _, e := range entries {
		p.indexes[e.Key] = len(p.keys)
		p.keys = append(p.keys, e.Key)
	}
}
