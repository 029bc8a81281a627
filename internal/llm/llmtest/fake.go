// ABOUTME: Scriptable in-memory LLM backend for tests
// ABOUTME: Supports canned replies, errors, and calls that hang until cancelled
package llmtest

import (
	"context"
	"sync"

	"github.com/harper/retail-nlp/internal/llm"
)

// Fake is a test double for llm.Backend
type Fake struct {
	mu       sync.Mutex
	respond  func(req llm.Request) (string, error)
	requests []llm.Request
}

// Reply returns a fake that always answers with text
func Reply(text string) *Fake {
	return Func(func(llm.Request) (string, error) { return text, nil })
}

// Fail returns a fake that always fails with err
func Fail(err error) *Fake {
	return Func(func(llm.Request) (string, error) { return "", err })
}

// Func returns a fake driven by fn
func Func(fn func(req llm.Request) (string, error)) *Fake {
	return &Fake{respond: fn}
}

// Hang returns a fake that blocks until the caller's context ends
func Hang() *Fake {
	return &Fake{}
}

// Complete implements llm.Backend
func (f *Fake) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		<-ctx.Done()
		return "", llm.Classify(ctx.Err())
	}
	if err := ctx.Err(); err != nil {
		return "", llm.Classify(err)
	}
	return respond(req)
}

// Requests returns a copy of every request received
func (f *Fake) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

// Calls returns the number of requests received
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}
