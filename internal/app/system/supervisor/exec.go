package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// WorkerIDEnv is the environment variable that marks a process as a worker.
const WorkerIDEnv = "STRATALOG_WORKER_ID"

// ExecSpawner starts workers as child processes of the current binary.
type ExecSpawner struct {
	Path   string
	Args   []string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// SelfSpawner returns an ExecSpawner that re-executes the running binary
// with the same arguments.
func SelfSpawner() (ExecSpawner, error) {
	path, err := os.Executable()
	if err != nil {
		return ExecSpawner{}, fmt.Errorf("locate executable: %w", err)
	}
	return ExecSpawner{
		Path:   path,
		Args:   os.Args[1:],
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

// Spawn starts one worker. Cancellation is handled by the Supervisor, which
// signals the process itself, so ctx is not bound to the command.
func (e ExecSpawner) Spawn(ctx context.Context, workerID int) (Process, error) {
	cmd := exec.Command(e.Path, e.Args...)
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.Env = append(cmd.Env, WorkerIDEnv+"="+strconv.Itoa(workerID))
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %d: %w", workerID, err)
	}
	return execProcess{cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p execProcess) Pid() int { return p.cmd.Process.Pid }

func (p execProcess) Signal(sig os.Signal) error { return p.cmd.Process.Signal(sig) }

func (p execProcess) Wait() error { return p.cmd.Wait() }
