package observability

import (
	"context"
	"testing"
	"time"
)

type recordingPipelineHooks struct {
	NoopPipelineHooks
	fetches int
	renders int
}

func (h *recordingPipelineHooks) OnFetchStart(ctx context.Context, network, address string) {
	h.fetches++
}

func (h *recordingPipelineHooks) OnRenderComplete(ctx context.Context, renderID, format string, d time.Duration, err error) {
	h.renders++
}

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()

	// Must not panic.
	ctx := context.Background()
	Pipeline().OnFetchStart(ctx, "mainnet", "0xabc")
	Pipeline().OnRenderComplete(ctx, "id", "svg", time.Second, nil)
	Cache().OnCacheHit(ctx, "source")
	HTTP().OnRequest(ctx, "GET", "api.etherscan.io", "/api")
}

func TestSetPipelineHooks(t *testing.T) {
	defer Reset()

	h := &recordingPipelineHooks{}
	SetPipelineHooks(h)

	ctx := context.Background()
	Pipeline().OnFetchStart(ctx, "mainnet", "0xabc")
	Pipeline().OnFetchStart(ctx, "mainnet", "0xdef")
	Pipeline().OnRenderComplete(ctx, "id", "png", time.Second, nil)

	if h.fetches != 2 {
		t.Errorf("fetches = %d, want 2", h.fetches)
	}
	if h.renders != 1 {
		t.Errorf("renders = %d, want 1", h.renders)
	}
}

func TestSetNilHooksKeepsCurrent(t *testing.T) {
	defer Reset()

	h := &recordingPipelineHooks{}
	SetPipelineHooks(h)
	SetPipelineHooks(nil)

	Pipeline().OnFetchStart(context.Background(), "mainnet", "0xabc")
	if h.fetches != 1 {
		t.Errorf("fetches = %d, want 1 (nil registration must be ignored)", h.fetches)
	}
}

func TestReset(t *testing.T) {
	h := &recordingPipelineHooks{}
	SetPipelineHooks(h)
	Reset()

	Pipeline().OnFetchStart(context.Background(), "mainnet", "0xabc")
	if h.fetches != 0 {
		t.Errorf("fetches = %d, want 0 after Reset()", h.fetches)
	}
}
