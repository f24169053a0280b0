package cli

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"bpm/internal/dispatcher"
	"bpm/internal/ipc"
	"bpm/internal/launcher"
	"bpm/internal/monitor"
	"bpm/internal/paths"
	"bpm/internal/registry"
)

// Daemon implements subcommands.Command for the "daemon" command: the
// long-running process that owns the registry, the monitor loop and the
// IPC service every client command talks to.
type Daemon struct{}

func (*Daemon) Name() string     { return "daemon" }
func (*Daemon) Synopsis() string { return "run the supervisor daemon in the foreground" }
func (*Daemon) Usage() string    { return "daemon - run the supervisor daemon in the foreground\n" }
func (*Daemon) SetFlags(*flag.FlagSet) {}

func (*Daemon) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := runDaemon(ctx, log); err != nil {
		log.Errorf("daemon: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func runDaemon(ctx context.Context, log *logrus.Logger) error {
	statePath, err := paths.StatePath()
	if err != nil {
		return fmt.Errorf("resolve state path: %w", err)
	}

	reg := registry.New()
	if err := reg.LoadState(statePath); err != nil {
		log.Warnf("loading persisted state: %v", err)
	}

	svc, err := ipc.Bind()
	if err != nil {
		if _, already := err.(ipc.ErrAlreadyRunning); already {
			return fmt.Errorf("another bpm daemon is already running for this user")
		}
		return fmt.Errorf("bind ipc service: %w", err)
	}
	defer svc.Close()

	sampler := launcher.MetricsSampler{}
	dataDir, err := paths.DataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	disp := dispatcher.New(reg, sampler, dataDir, log)
	mon := monitor.New(reg, sampler, log)

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go mon.Run(runCtx)

	log.Info("bpm daemon ready")
	for {
		select {
		case <-runCtx.Done():
			log.Info("shutting down, saving state")
			if err := reg.SaveState(statePath); err != nil {
				log.Errorf("save state on shutdown: %v", err)
			}
			return nil
		case req, ok := <-svc.Requests():
			if !ok {
				return nil
			}
			reply := disp.Handle(req.Command)
			if err := req.Reply([]byte(reply)); err != nil {
				log.Warnf("reply to %s: %v", req.Command.Kind, err)
			}
		}
	}
}
