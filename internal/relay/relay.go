// Package relay is the request/response channel between the capture
// client's execution contexts. Each context owns a Bus that processes
// messages one at a time on its own goroutine; other contexts reach it
// through a Client that retries while the target's listener is not yet
// attached.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoHandler means the target context has no listener registered for the
// action. Callers should treat it as "currently unreachable", not as a
// permanent condition.
var ErrNoHandler = errors.New("no handler registered for action")

// Message is a cross-context request.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the reply to a Message.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HandlerFunc processes one message on the bus goroutine.
type HandlerFunc func(ctx context.Context, msg Message) (any, error)

type request struct {
	ctx   context.Context
	msg   Message
	reply chan result
}

type result struct {
	resp Response
	err  error
}

// Bus is one context's message loop. Handlers execute sequentially in
// arrival order; a handler that blocks delays everything behind it, which
// mirrors a single-threaded event loop.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	requests chan request
	done     chan struct{}
	once     sync.Once
}

// NewBus creates a bus and starts its message loop.
func NewBus() *Bus {
	b := &Bus{
		handlers: make(map[string]HandlerFunc),
		requests: make(chan request, 16),
		done:     make(chan struct{}),
	}
	go b.loop()
	return b
}

// Register attaches a handler for an action. Re-registering replaces the
// previous handler.
func (b *Bus) Register(action string, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[action] = h
}

// Close stops the message loop. Pending sends fail with a closed-bus error.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bus) loop() {
	for {
		select {
		case <-b.done:
			return
		case req := <-b.requests:
			req.reply <- b.dispatch(req.ctx, req.msg)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, msg Message) result {
	b.mu.RLock()
	h, ok := b.handlers[msg.Action]
	b.mu.RUnlock()

	if !ok {
		return result{err: fmt.Errorf("%w: %s", ErrNoHandler, msg.Action)}
	}

	data, err := h(ctx, msg)
	if err != nil {
		return result{resp: Response{Success: false, Error: err.Error()}}
	}

	var raw json.RawMessage
	if data != nil {
		raw, err = json.Marshal(data)
		if err != nil {
			return result{err: fmt.Errorf("failed to encode response for %s: %w", msg.Action, err)}
		}
	}
	return result{resp: Response{Success: true, Data: raw}}
}

// send delivers one message and waits for its reply.
func (b *Bus) send(ctx context.Context, msg Message) (Response, error) {
	req := request{ctx: ctx, msg: msg, reply: make(chan result, 1)}

	select {
	case b.requests <- req:
	case <-b.done:
		return Response{}, errors.New("bus closed")
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.resp, res.err
	case <-b.done:
		return Response{}, errors.New("bus closed")
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// RetryPolicy bounds the client's delivery attempts. Backoff receives the
// 1-based attempt number just failed and returns how long to wait before
// the next try.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// DefaultRetryPolicy is three attempts with delay growing linearly by
// 100ms per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 100 * time.Millisecond
		},
	}
}

// Client sends messages to a target bus with retries.
type Client struct {
	target *Bus
	policy RetryPolicy
}

// NewClient wraps a target bus. A zero policy gets the defaults.
func NewClient(target *Bus, policy RetryPolicy) *Client {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	if policy.Backoff == nil {
		policy.Backoff = DefaultRetryPolicy().Backoff
	}
	return &Client{target: target, policy: policy}
}

// Send marshals the payload, delivers it, and decodes a successful reply
// into out (when out is non-nil). Delivery failures are retried per the
// policy; after the last attempt the most recent error is returned.
// A handler-level failure (Response.Success == false) is not retried.
func (c *Client) Send(ctx context.Context, action string, payload, out any) error {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload for %s: %w", action, err)
		}
	}
	msg := Message{Action: action, Payload: raw}

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(c.policy.Backoff(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		resp, err := c.target.send(ctx, msg)
		if err != nil {
			lastErr = err
			continue
		}
		if !resp.Success {
			return fmt.Errorf("%s failed: %s", action, resp.Error)
		}
		if out != nil && resp.Data != nil {
			if err := json.Unmarshal(resp.Data, out); err != nil {
				return fmt.Errorf("failed to decode response for %s: %w", action, err)
			}
		}
		return nil
	}

	return fmt.Errorf("%s unreachable after %d attempts: %w", action, c.policy.MaxAttempts, lastErr)
}
