package remote

import (
	"context"
	"sync"
)

// call records one Execute invocation.
type call struct {
	Name string
	Args []string
}

// fakeExecutor answers Execute from a queue of canned results.
// When the queue runs dry the last entry is repeated.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []call
	results []*Result
	err     error
	hook    func(ctx context.Context)
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{Name: name, Args: append([]string(nil), args...)})
	if f.hook != nil {
		f.hook(ctx)
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return &Result{}, nil
	}
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res, nil
}
