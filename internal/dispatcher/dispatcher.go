// Package dispatcher decodes one command per incoming request, invokes the
// matching handler against the registry, and returns the reply body the
// transport will frame and send (C7).
package dispatcher

import (
	"github.com/sirupsen/logrus"

	"bpm/internal/registry"
	"bpm/internal/transport"
)

// Dispatcher wires together the collaborators every handler needs.
type Dispatcher struct {
	reg     *registry.Registry
	sampler registry.MetricsSampler
	dataDir string
	log     logrus.FieldLogger
}

// New returns a Dispatcher serving requests against reg, sampling combined
// metrics via sampler and resolving relative log/state paths under
// dataDir.
func New(reg *registry.Registry, sampler registry.MetricsSampler, dataDir string, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{reg: reg, sampler: sampler, dataDir: dataDir, log: log}
}

// Handle decodes cmd and runs its handler, returning the UTF-8 reply body.
// Handlers never panic or abort the dispatcher: every failure is converted
// to a human-readable line in the reply.
func (d *Dispatcher) Handle(cmd transport.Command) string {
	switch cmd.Kind {
	case transport.KindList:
		return d.handleList()
	case transport.KindStatus:
		return d.handleStatus(cmd.Arg)
	case transport.KindStart:
		return d.handleStart(cmd.Arg)
	case transport.KindStop:
		return d.handleStop(cmd.Arg)
	case transport.KindRestart:
		return d.handleRestart(cmd.Arg)
	case transport.KindDelete:
		return d.handleDelete(cmd.Arg)
	case transport.KindEnable:
		return d.handleStart(cmd.Arg)
	case transport.KindDisable:
		return d.handleDisable(cmd.Arg)
	case transport.KindLogs:
		return d.handleLogs(cmd.Arg)
	case transport.KindFlush:
		return d.handleFlush(cmd.Arg)
	case transport.KindSave:
		return d.handleSave()
	case transport.KindResurrect:
		return d.handleResurrect()
	default:
		return "unknown command"
	}
}

func (d *Dispatcher) logf(format string, args ...interface{}) {
	if d.log == nil {
		return
	}
	d.log.Errorf(format, args...)
}
