package skill

import (
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/formula"
	"github.com/udisondev/mudcore/internal/model"
)

// DefaultTickInterval is the length of one game tick.
const DefaultTickInterval = 2 * time.Second

// TickRunner runs fn on behalf of actor (see CompletionRunner).
type TickRunner func(actor model.Actor, fn func())

// TickScheduler advances active effects once per game tick.
// Must call Start() to begin ticking.
type TickScheduler struct {
	managers *EffectManagers
	exec     *Executor
	interval time.Duration
	eval     *formula.Evaluator
	run      TickRunner

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewTickScheduler creates a scheduler. A nil run applies tick results on
// the scheduler goroutine.
func NewTickScheduler(managers *EffectManagers, exec *Executor, interval time.Duration, run TickRunner) *TickScheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if run == nil {
		run = func(_ model.Actor, fn func()) { fn() }
	}
	return &TickScheduler{
		managers: managers,
		exec:     exec,
		interval: interval,
		eval:     formula.NewSeededEvaluator(),
		run:      run,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the tick goroutine. It runs until Stop is called.
func (s *TickScheduler) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop terminates the tick goroutine and waits for it to exit.
func (s *TickScheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *TickScheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-s.stopCh:
			return
		}
	}
}

// Tick advances every managed actor by one tick.
func (s *TickScheduler) Tick() {
	for _, ma := range s.managers.snapshot() {
		events := ma.manager.Tick()
		if len(events) == 0 {
			continue
		}
		m := ma.manager
		done := make(chan struct{})
		s.run(ma.actor, func() {
			defer close(done)
			for _, ev := range events {
				s.apply(m, ev)
			}
		})
		<-done
	}
}

func (s *TickScheduler) apply(m *EffectManager, ev TickEvent) {
	ae := ev.Effect
	if ev.Pulse && !ae.Target.IsDead() {
		s.pulse(ae, ev.Stacks)
	}
	if ev.Expired {
		s.exec.endEffect(m, ae, s.eval, true)
		slog.Debug("effect expired", "effect", ae.Name, "target", ae.Target.Name())
	}
}

// pulse applies one interval of a DoT/HoT and runs periodic links.
func (s *TickScheduler) pulse(ae *ActiveEffect, stacks int32) {
	amount := ae.Amount * int64(max(stacks, 1))

	switch ae.Kind {
	case catalog.EffectDamage:
		if dealt := applyDamage(ae.Target, amount, ae.CanKill); dealt > 0 {
			ae.Target.Send(expandMessage("You take $v damage from "+ae.Name+".", ae.Source, ae.Target, dealt))
		}
	case catalog.EffectHeal:
		applyHeal(ae.Target, ae.Resource, amount, ae.Percent)
	}

	if len(ae.Periodic) == 0 {
		return
	}
	ectx := s.exec.effectContextFor(ae, s.eval)
	batch := s.exec.ExecuteAbilityEffects(ae.Periodic, ectx, catalog.PhasePeriodic)
	s.exec.register(batch, nil, nil)
	deliverBatch(batch, ectx)
	if err := batch.Err(); err != nil {
		slog.Warn("periodic effects failed", "effect", ae.Name, "error", err)
	}
}
