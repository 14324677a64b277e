package tilecache

import "context"

var _ Store = (*Layered)(nil)

// Layered puts a Memory cache in front of a slower Store. Hits in the slower
// store are promoted into memory.
type Layered struct {
	Memory *Memory
	Next   Store
}

func (l *Layered) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	if v, ok, _ := l.Memory.Get(ctx, key); ok {
		return v, true, nil
	}
	if l.Next == nil {
		return nil, false, nil
	}
	v, ok, err := l.Next.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = l.Memory.Put(ctx, key, v)
	return v, true, nil
}

func (l *Layered) Put(ctx context.Context, key Key, data []byte) error {
	_ = l.Memory.Put(ctx, key, data)
	if l.Next == nil {
		return nil
	}
	return l.Next.Put(ctx, key, data)
}
