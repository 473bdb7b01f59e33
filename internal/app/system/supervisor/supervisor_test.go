package supervisor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProc struct {
	pid     int
	exit    chan error
	once    sync.Once
	mu      sync.Mutex
	signals []os.Signal
}

func (p *fakeProc) Pid() int { return p.pid }

func (p *fakeProc) Signal(sig os.Signal) error {
	p.mu.Lock()
	p.signals = append(p.signals, sig)
	p.mu.Unlock()
	p.crash(nil)
	return nil
}

func (p *fakeProc) Wait() error { return <-p.exit }

func (p *fakeProc) crash(err error) {
	p.once.Do(func() { p.exit <- err })
}

func (p *fakeProc) received() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.signals...)
}

type fakeSpawner struct {
	mu    sync.Mutex
	procs []*fakeProc
	ids   []int
}

func (f *fakeSpawner) spawn(ctx context.Context, id int) (Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &fakeProc{pid: 1000 + len(f.procs), exit: make(chan error, 1)}
	f.procs = append(f.procs, p)
	f.ids = append(f.ids, id)
	return p, nil
}

func (f *fakeSpawner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.procs)
}

func (f *fakeSpawner) proc(i int) *fakeProc {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.procs[i]
}

func (f *fakeSpawner) id(i int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[i]
}

func start(t *testing.T, s *Supervisor) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	ch := make(chan error, 1)
	go func() { ch <- s.Run(ctx) }()
	t.Cleanup(cancelCtx)
	return cancelCtx, ch
}

func TestReconcileFailureIsFatal(t *testing.T) {
	sp := &fakeSpawner{}
	s := New(Config{
		Instances: 4,
		Reconcile: func(ctx context.Context) error { return errors.New("no reachable servers") },
		Spawn:     sp.spawn,
	})

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrFatalStartup)
	assert.Equal(t, 0, sp.count(), "no worker may be spawned after reconcile failure")
	assert.Equal(t, StateReconciling, s.State())
}

func TestReconcileRunsBeforeSpawn(t *testing.T) {
	sp := &fakeSpawner{}
	var spawnedAtReconcile int
	s := New(Config{
		Instances: 2,
		Reconcile: func(ctx context.Context) error {
			spawnedAtReconcile = sp.count()
			return nil
		},
		Spawn: sp.spawn,
	})
	cancel, done := start(t, s)

	require.Eventually(t, func() bool { return sp.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, spawnedAtReconcile)
	assert.Equal(t, StateRunning, s.State())

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, StateStopped, s.State())
}

func TestRespawnOnExit(t *testing.T) {
	sp := &fakeSpawner{}
	s := New(Config{Instances: 1, Spawn: sp.spawn})
	cancel, done := start(t, s)

	require.Eventually(t, func() bool { return sp.count() == 1 }, time.Second, 5*time.Millisecond)
	sp.proc(0).crash(errors.New("exit status 2"))
	require.Eventually(t, func() bool { return sp.count() == 2 }, time.Second, 5*time.Millisecond)
	sp.proc(1).crash(nil)
	require.Eventually(t, func() bool { return sp.count() == 3 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, sp.id(1), "replacement keeps the worker id")
	assert.Equal(t, 1, sp.id(2))
	assert.EqualValues(t, 2, s.Respawns())
	assert.EqualValues(t, 3, s.Spawned())

	cancel()
	require.NoError(t, <-done)
}

func TestStopSignalsWorkers(t *testing.T) {
	sp := &fakeSpawner{}
	s := New(Config{Instances: 3, Spawn: sp.spawn})
	cancel, done := start(t, s)

	require.Eventually(t, func() bool { return sp.count() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	for i := 0; i < 3; i++ {
		assert.Equal(t, []os.Signal{syscall.SIGTERM}, sp.proc(i).received())
	}
	assert.Equal(t, 3, sp.count(), "no respawn after stop")
}

func TestRespawnRateLimited(t *testing.T) {
	sp := &fakeSpawner{}
	s := New(Config{
		Instances: 1,
		Spawn:     sp.spawn,
		Policy:    Policy{Max: 1, Window: time.Hour},
	})
	cancel, done := start(t, s)

	require.Eventually(t, func() bool { return sp.count() == 1 }, time.Second, 5*time.Millisecond)
	sp.proc(0).crash(nil)
	require.Eventually(t, func() bool { return sp.count() == 2 }, time.Second, 5*time.Millisecond)

	// The single token for this window is spent; the next respawn waits.
	sp.proc(1).crash(nil)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, sp.count())
	assert.Equal(t, StateRunning, s.State(), "a delayed respawn never stops the supervisor")

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, sp.count())
}

func TestRespawnBackoff(t *testing.T) {
	sp := &fakeSpawner{}
	s := New(Config{
		Instances: 1,
		Spawn:     sp.spawn,
		Policy:    Policy{Backoff: 30 * time.Millisecond},
	})
	cancel, done := start(t, s)

	require.Eventually(t, func() bool { return sp.count() == 1 }, time.Second, 5*time.Millisecond)
	crashed := time.Now()
	sp.proc(0).crash(nil)
	require.Eventually(t, func() bool { return sp.count() == 2 }, time.Second, 2*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(crashed), 30*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestSpawnErrorRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	sp := &fakeSpawner{}
	s := New(Config{
		Instances:  1,
		SpawnRetry: 5 * time.Millisecond,
		Spawn: func(ctx context.Context, id int) (Process, error) {
			mu.Lock()
			attempts++
			n := attempts
			mu.Unlock()
			if n < 3 {
				return nil, errors.New("fork failed")
			}
			return sp.spawn(ctx, id)
		},
	})
	cancel, done := start(t, s)

	require.Eventually(t, func() bool { return sp.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestRunRejectsBadConfig(t *testing.T) {
	sp := &fakeSpawner{}
	require.Error(t, New(Config{Instances: 0, Spawn: sp.spawn}).Run(context.Background()))
	require.Error(t, New(Config{Instances: 1}).Run(context.Background()))
}

func TestPolicyLimiter(t *testing.T) {
	assert.Nil(t, Policy{}.limiter())
	assert.Nil(t, Policy{Max: 5}.limiter())
	l := Policy{Max: 5, Window: time.Minute}.limiter()
	require.NotNil(t, l)
	assert.Equal(t, 5, l.Burst())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestExecSpawner(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	sp := ExecSpawner{Path: sh, Args: []string{"-c", `test "$` + WorkerIDEnv + `" = 7`}}
	p, err := sp.Spawn(context.Background(), 7)
	require.NoError(t, err)
	assert.Greater(t, p.Pid(), 0)
	require.NoError(t, p.Wait())
}
