// Package supervisor keeps a fixed number of interchangeable worker
// processes running.
//
// A Supervisor moves through Init → Reconciling → Spawning → Running.
// Reconciliation must succeed before any worker is started; its failure
// is returned as an apperr.ErrFatalStartup and no worker is spawned. Once
// Running, every worker that exits for any reason is replaced under the
// same worker id. Respawns may be delayed by the Policy but never stop.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// State is a supervisor lifecycle state.
type State int32

const (
	StateInit State = iota
	StateReconciling
	StateSpawning
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateReconciling:
		return "reconciling"
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Process is a running worker.
type Process interface {
	Pid() int
	Signal(sig os.Signal) error
	Wait() error
}

// SpawnFunc starts the worker identified by workerID.
type SpawnFunc func(ctx context.Context, workerID int) (Process, error)

// Policy throttles respawns. The zero Policy respawns immediately and
// without limit.
type Policy struct {
	// Max respawns allowed per Window across all workers. 0 means unlimited.
	Max    int
	Window time.Duration
	// Backoff is a fixed delay before every respawn.
	Backoff time.Duration
}

func (p Policy) limiter() *rate.Limiter {
	if p.Max <= 0 || p.Window <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(p.Window/time.Duration(p.Max)), p.Max)
}

// Config configures a Supervisor.
type Config struct {
	// Instances is the number of workers to keep alive. Must be at least 1.
	Instances int
	// Reconcile runs once before any worker is spawned.
	Reconcile func(ctx context.Context) error
	Spawn     SpawnFunc
	Policy    Policy
	// StopGrace is how long a worker has to exit after SIGTERM before it
	// is killed. 0 waits indefinitely.
	StopGrace time.Duration
	// SpawnRetry is the minimum delay after a failed spawn (default 1s).
	SpawnRetry time.Duration
	Logger     *zap.Logger
}

// Supervisor runs the worker pool.
type Supervisor struct {
	cfg      Config
	limiter  *rate.Limiter
	state    atomic.Int32
	spawned  atomic.Int64
	respawns atomic.Int64
}

// New returns a Supervisor in StateInit.
func New(cfg Config) *Supervisor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.SpawnRetry <= 0 {
		cfg.SpawnRetry = time.Second
	}
	return &Supervisor{cfg: cfg, limiter: cfg.Policy.limiter()}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Spawned returns how many worker processes have been started, including respawns.
func (s *Supervisor) Spawned() int64 {
	return s.spawned.Load()
}

// Respawns returns how many workers have been replaced after exiting.
func (s *Supervisor) Respawns() int64 {
	return s.respawns.Load()
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
	s.cfg.Logger.Debug("supervisor state", zap.Stringer("state", st))
}

// Run reconciles, spawns the workers and keeps them alive until ctx is
// cancelled. On cancellation every worker is sent SIGTERM and Run returns
// nil once all of them have exited.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.cfg.Instances < 1 {
		return fmt.Errorf("supervisor: instances must be at least 1, got %d", s.cfg.Instances)
	}
	if s.cfg.Spawn == nil {
		return errors.New("supervisor: no spawn func")
	}

	s.setState(StateReconciling)
	if s.cfg.Reconcile != nil {
		if err := s.cfg.Reconcile(ctx); err != nil {
			if !errors.Is(err, apperr.ErrFatalStartup) {
				err = apperr.FatalStartup("reconcile schema", err)
			}
			s.cfg.Logger.Error("reconciliation failed; no workers started", zap.Error(err))
			return err
		}
	}

	s.setState(StateSpawning)
	var wg sync.WaitGroup
	for id := 1; id <= s.cfg.Instances; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.keep(ctx, id)
		}(id)
	}
	s.setState(StateRunning)
	s.cfg.Logger.Info("workers started", zap.Int("instances", s.cfg.Instances))

	wg.Wait()
	s.setState(StateStopped)
	return nil
}

// keep runs worker id until ctx is cancelled, replacing it each time it exits.
func (s *Supervisor) keep(ctx context.Context, id int) {
	log := s.cfg.Logger.With(zap.Int("worker_id", id))
	first := true
	for {
		if !first {
			if !s.throttle(ctx) {
				return
			}
			s.respawns.Add(1)
		}
		first = false
		if ctx.Err() != nil {
			return
		}

		proc, err := s.cfg.Spawn(ctx, id)
		if err != nil {
			log.Error("worker spawn failed", zap.Error(err))
			if !sleep(ctx, s.cfg.SpawnRetry) {
				return
			}
			continue
		}
		s.spawned.Add(1)
		log.Info("worker started", zap.Int("pid", proc.Pid()))

		if stopped := s.wait(ctx, log, proc); stopped {
			return
		}
	}
}

// wait blocks until proc exits. It reports true when the exit was caused
// by ctx cancellation.
func (s *Supervisor) wait(ctx context.Context, log *zap.Logger, proc Process) bool {
	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	select {
	case err := <-done:
		if ctx.Err() != nil {
			return true
		}
		log.Warn("worker exited; respawning", zap.Int("pid", proc.Pid()), zap.Error(err))
		return false
	case <-ctx.Done():
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		log.Debug("signal worker", zap.Int("pid", proc.Pid()), zap.Error(err))
	}
	if s.cfg.StopGrace <= 0 {
		<-done
		return true
	}
	t := time.NewTimer(s.cfg.StopGrace)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		log.Warn("worker did not stop in time; killing", zap.Int("pid", proc.Pid()))
		_ = proc.Signal(os.Kill)
		<-done
	}
	return true
}

// throttle applies the respawn policy. It returns false if ctx was
// cancelled while waiting.
func (s *Supervisor) throttle(ctx context.Context) bool {
	if !sleep(ctx, s.cfg.Policy.Backoff) {
		return false
	}
	if s.limiter == nil {
		return true
	}
	if s.limiter.Tokens() < 1 {
		s.cfg.Logger.Warn("respawn rate exceeded; delaying",
			zap.Int("max", s.cfg.Policy.Max),
			zap.Duration("window", s.cfg.Policy.Window))
	}
	return s.limiter.Wait(ctx) == nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
