package memtier

import (
	"container/list"
)

// fifoPolicy 以链表维护插入顺序，队首即最早插入者。
// 读取不改变顺序；覆盖写入同键不重新排队（插入序号不变）。
type fifoPolicy struct {
	order    *list.List // 元素值为键，队首最旧
	elements map[string]*list.Element
}

func newFIFOPolicy() *fifoPolicy {
	return &fifoPolicy{
		order:    list.New(),
		elements: make(map[string]*list.Element),
	}
}

func (p *fifoPolicy) name() EvictionStrategy { return StrategyFIFO }

func (p *fifoPolicy) insert(e *Entry) {
	if _, ok := p.elements[e.Key]; ok {
		return
	}
	p.elements[e.Key] = p.order.PushBack(e.Key)
}

func (p *fifoPolicy) update(_ *Entry) {
	// 覆盖写入不重新排队
}

func (p *fifoPolicy) access(_ *Entry) {
	// FIFO 与访问无关
}

func (p *fifoPolicy) remove(e *Entry) {
	if elem, ok := p.elements[e.Key]; ok {
		p.order.Remove(elem)
		delete(p.elements, e.Key)
	}
}

func (p *fifoPolicy) victim() (string, bool) {
	front := p.order.Front()
	if front == nil {
		return "", false
	}
	return front.Value.(string), true
}

func (p *fifoPolicy) reset(entries []*Entry) {
	p.order.Init()
	p.elements = make(map[string]*list.Element, len(entries))
	// entries 已按 Seq 升序，直接重放即得插入顺序
	for _, e := range entries {
		p.elements[e.Key] = p.order.PushBack(e.Key)
	}
}
