package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/algo-vocalmix/chain"
	"github.com/cwbudde/algo-vocalmix/internal/testutil"
	"github.com/cwbudde/algo-vocalmix/preset"
)

func TestStartMatchesRender(t *testing.T) {
	cfg := preset.Default().Get(preset.Pop)
	in := testutil.MonoBuffer(t, testSampleRate, testutil.DeterministicNoise(11, 0.5, 30000))

	want, err := Render(context.Background(), in, buildChain(t, cfg), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	live := buildChain(t, cfg)
	task := Start(context.Background(), in, live, WithLogger(quietLogger()))

	// Updates after Start must not reach the running render.
	if err := live.SetEQGain(chain.BandHigh, -12); err != nil {
		t.Fatal(err)
	}

	select {
	case <-task.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("render did not finish")
	}

	got, err := task.Wait()
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireAudioNearlyEqual(t, got, want, 0)
}

func TestStartNilInput(t *testing.T) {
	task := Start(context.Background(), nil, nil)

	if _, err := task.Wait(); !errors.Is(err, ErrNilInput) {
		t.Fatalf("error = %v, want ErrNilInput", err)
	}
}
