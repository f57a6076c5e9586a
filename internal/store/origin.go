package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Origin groups the contexts that share one backend inside this process, and relays
// change notifications between them. A context never receives its own writes.
type Origin struct {
	id      string
	backend Backend

	mu       sync.Mutex
	contexts map[string]*Context
	closed   bool
}

func NewOrigin(backend Backend) *Origin {
	return &Origin{
		id:       uuid.NewString(),
		backend:  backend,
		contexts: map[string]*Context{},
	}
}

func (o *Origin) ID() string { return o.id }

func (o *Origin) Backend() Backend { return o.backend }

// Open returns a new context. An empty name gets a generated one.
func (o *Origin) Open(name string) *Context {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "ctx-" + uuid.NewString()[:8]
	}
	c := &Context{
		origin: o,
		id:     name,
		subs:   map[int]func(Change){},
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		c.closed = true
		close(c.done)
		return c
	}
	if prev, ok := o.contexts[name]; ok {
		o.mu.Unlock()
		prev.Close()
		o.mu.Lock()
	}
	o.contexts[name] = c
	o.mu.Unlock()

	go c.dispatch()
	return c
}

// Close closes every context and the backend.
func (o *Origin) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	ctxs := make([]*Context, 0, len(o.contexts))
	for _, c := range o.contexts {
		ctxs = append(ctxs, c)
	}
	o.mu.Unlock()

	for _, c := range ctxs {
		c.Close()
	}
	return o.backend.Close()
}

func (o *Origin) detach(c *Context) {
	o.mu.Lock()
	if o.contexts[c.id] == c {
		delete(o.contexts, c.id)
	}
	o.mu.Unlock()
}

// publish fans a change out to every local context except the one that wrote it.
func (o *Origin) publish(ch Change) {
	o.mu.Lock()
	targets := make([]*Context, 0, len(o.contexts))
	for id, c := range o.contexts {
		if ch.Origin == o.id && ch.Context == id {
			continue
		}
		targets = append(targets, c)
	}
	o.mu.Unlock()

	for _, c := range targets {
		c.enqueue(ch)
	}
}

// Context is one independently rendered view over the origin's store.
// Reads and writes are synchronous; notifications about other contexts' writes are
// delivered asynchronously, in order, on a dedicated goroutine.
type Context struct {
	origin *Origin
	id     string

	mu      sync.Mutex
	subs    map[int]func(Change)
	nextSub int
	queue   []Change
	closed  bool

	wake chan struct{}
	done chan struct{}
}

var _ KV = (*Context)(nil)

func (c *Context) ID() string { return c.id }

func (c *Context) writer() Writer { return Writer{Origin: c.origin.id, Context: c.id} }

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Context) Get(key string) (string, bool, error) {
	if c.isClosed() {
		return "", false, ErrClosed
	}
	return c.origin.backend.Get(context.Background(), key)
}

func (c *Context) Set(key, value string) error {
	if c.isClosed() {
		return ErrClosed
	}
	ch, err := c.origin.backend.Set(context.Background(), key, value, c.writer())
	if err != nil {
		return err
	}
	c.origin.publish(ch)
	return nil
}

func (c *Context) Remove(key string) error {
	if c.isClosed() {
		return ErrClosed
	}
	ch, err := c.origin.backend.Remove(context.Background(), key, c.writer())
	if err != nil {
		return err
	}
	c.origin.publish(ch)
	return nil
}

// Subscribe registers fn for changes written by other contexts. The returned func unsubscribes.
func (c *Context) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.queue = nil
	close(c.done)
	c.mu.Unlock()
	c.origin.detach(c)
}

func (c *Context) enqueue(ch Change) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, ch)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Context) dispatch() {
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}
		for {
			c.mu.Lock()
			if c.closed || len(c.queue) == 0 {
				c.mu.Unlock()
				break
			}
			ch := c.queue[0]
			c.queue = c.queue[1:]
			ids := make([]int, 0, len(c.subs))
			for id := range c.subs {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			fns := make([]func(Change), 0, len(ids))
			for _, id := range ids {
				fns = append(fns, c.subs[id])
			}
			c.mu.Unlock()

			for _, fn := range fns {
				fn(ch)
			}
		}
	}
}
