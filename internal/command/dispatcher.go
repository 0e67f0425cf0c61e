package command

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/cooldown"
	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/game/skill"
	"github.com/udisondev/mudcore/internal/model"
	"github.com/udisondev/mudcore/internal/parser"
)

const DefaultHistorySize = 20

// Options configures a Dispatcher. Zero values select defaults; nil
// collaborators disable the matching step.
type Options struct {
	Parser    *parser.Parser
	Abilities *skill.AbilityExecutor
	Triggers  TriggerDispatcher
	Cooldowns cooldown.Store
	Clock     cooldown.Clock

	HistorySize int
	QueueSize   int
	IdleTimeout time.Duration
}

// Dispatcher turns input lines into command executions.
//
// Commands of one actor run on that actor's mailbox, one at a time;
// different actors run concurrently. The mutex only guards bookkeeping
// (stats and history), never a handler.
type Dispatcher struct {
	registry  *Registry
	parser    *parser.Parser
	abilities *skill.AbilityExecutor
	triggers  TriggerDispatcher
	cooldowns cooldown.Store
	clock     cooldown.Clock
	mailboxes *Mailboxes
	tracer    trace.Tracer

	mu          sync.Mutex
	stats       map[string]*Stats
	history     map[string]*history
	historySize int
}

func NewDispatcher(registry *Registry, opts Options) *Dispatcher {
	if opts.Parser == nil {
		opts.Parser = registry.parser
	}
	if opts.Clock == nil {
		opts.Clock = cooldown.RealClock{}
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	return &Dispatcher{
		registry:    registry,
		parser:      opts.Parser,
		abilities:   opts.Abilities,
		triggers:    opts.Triggers,
		cooldowns:   opts.Cooldowns,
		clock:       opts.Clock,
		mailboxes:   NewMailboxes(opts.QueueSize, opts.IdleTimeout),
		tracer:      otel.Tracer("mudcore/command"),
		stats:       make(map[string]*Stats),
		history:     make(map[string]*history),
		historySize: opts.HistorySize,
	}
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

// Abilities returns the ability executor, nil when abilities are disabled.
func (d *Dispatcher) Abilities() *skill.AbilityExecutor { return d.abilities }

func (d *Dispatcher) Cooldowns() cooldown.Store { return d.cooldowns }

// Dispatch runs one input line for actor and waits for the result.
// Called from inside a handler of the same actor it runs inline.
// A line whose ctx ends while it waits in the mailbox is dropped unrun.
func (d *Dispatcher) Dispatch(ctx context.Context, actor model.Actor, line string) Result {
	if InMailbox(ctx, actor.ID()) {
		return d.dispatch(ctx, actor, line)
	}

	done := make(chan Result, 1)
	err := d.mailboxes.Submit(ctx, actor.ID(), func(context.Context) {
		if ctx.Err() != nil {
			return
		}
		done <- d.dispatch(withMailbox(ctx, actor.ID()), actor, line)
	})
	if err != nil {
		return Result{Status: StatusSystemError, Message: "The game is shutting down.", Err: err}
	}

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return Result{Status: StatusSystemError, Message: "Command timed out.", Err: ctx.Err()}
	}
}

func withMailbox(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, mailboxKey{}, actorID)
}

// Run queues fn on the actor's mailbox without waiting. Matches
// skill.CompletionRunner.
func (d *Dispatcher) Run(actor model.Actor, fn func(ctx context.Context)) {
	if err := d.mailboxes.Submit(context.Background(), actor.ID(), fn); err != nil {
		slog.Warn("dropping job for actor", "actor", actor.Name(), "error", err)
	}
}

// Do queues fn on the actor's mailbox. Matches skill.TickRunner; the
// caller is responsible for waiting.
func (d *Dispatcher) Do(actor model.Actor, fn func()) {
	d.Run(actor, func(context.Context) { fn() })
}

// Close drains the mailboxes.
func (d *Dispatcher) Close() {
	d.mailboxes.Close()
}

// dispatch expands aliases. Sub-commands of an alias run in order and the
// last result is returned. Expansion is one level deep.
func (d *Dispatcher) dispatch(ctx context.Context, actor model.Actor, line string) Result {
	if p, ok := actor.AsPlayer(); ok {
		if lines, ok := expandAlias(p, line); ok {
			res := Result{Status: StatusIgnored}
			for _, sub := range lines {
				res = d.dispatchLine(ctx, actor, sub)
			}
			return res
		}
	}
	return d.dispatchLine(ctx, actor, line)
}

// expandAlias replaces the first word with the player's alias. "$*" in
// the expansion is replaced by the rest of the line.
func expandAlias(p *model.Player, line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	word, rest, _ := strings.Cut(trimmed, " ")
	if word == "" {
		return nil, false
	}
	exp, ok := p.Alias(word)
	if !ok {
		return nil, false
	}
	exp = strings.ReplaceAll(exp, "$*", strings.TrimSpace(rest))

	var lines []string
	for sub := range strings.SplitSeq(exp, ";") {
		if sub = strings.TrimSpace(sub); sub != "" {
			lines = append(lines, sub)
		}
	}
	return lines, true
}

func (d *Dispatcher) dispatchLine(ctx context.Context, actor model.Actor, line string) Result {
	id := uuid.NewString()
	ctx, span := d.tracer.Start(ctx, "command.dispatch", trace.WithAttributes(
		attribute.String("dispatch.id", id),
		attribute.String("actor", actor.Name()),
	))
	defer span.End()

	res := d.process(ctx, id, actor, line)
	res.ID = id

	span.SetAttributes(
		attribute.String("command", res.Command),
		attribute.String("status", res.Status.String()),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
	}
	if res.Status == StatusSystemError {
		span.SetStatus(codes.Error, res.Message)
	}
	return res
}

func (d *Dispatcher) process(ctx context.Context, id string, actor model.Actor, line string) Result {
	parsed, err := d.parser.Parse(line)
	if err != nil {
		return Result{Status: StatusParseError, Message: errs.Message(err), Err: err}
	}
	if parsed.Empty || parsed.Comment {
		return Result{Status: StatusIgnored}
	}

	if d.interceptedByTrigger(ctx, actor, parsed) {
		return Result{Status: StatusSuccess, Command: parsed.Verb, HandledByTrigger: true}
	}

	// Exact command words win, then an exact ability name, and only then
	// abbreviations and misspellings of command words.
	info, found := d.registry.Lookup(parsed.Verb)
	var ability *catalog.Ability
	if found {
		parsed.Name, parsed.Match = info.Name, parser.MatchExact
	} else {
		ab, rej := d.abilityCommand(parsed)
		if rej != nil {
			return Result{Status: rej.status, Command: parsed.Verb, Message: rej.message}
		}
		if ab != nil {
			ability = ab
			info = abilityInfo(ab)
			parsed.Name, parsed.Match = info.Name, parser.MatchExact
		} else {
			resolved, kind, ok := d.registry.Resolve(parsed.Verb)
			if !ok {
				return Result{
					Status:  StatusNotFound,
					Command: parsed.Verb,
					Message: fmt.Sprintf("Huh? Unknown command '%s'.", parsed.Verb),
				}
			}
			info = resolved
			parsed.Name, parsed.Match = info.Name, kind
		}
	}

	if rej := authorize(actor, info); rej != nil {
		if rej.status == StatusPermissionDenied {
			slog.Warn("command authorization rejected",
				"dispatch", id,
				"actor", actor.Name(),
				"command", info.Name,
				"privilege", actor.Privilege())
		}
		return Result{Status: rej.status, Command: info.Name, Message: rej.message}
	}

	if left := d.cooldownLeft(ctx, actor, info); left > 0 {
		return Result{
			Status:    StatusCooldown,
			Command:   info.Name,
			Message:   fmt.Sprintf("You must wait %s before using %s again.", left.Round(100*time.Millisecond), info.Name),
			Remaining: left,
		}
	}

	req := &Request{
		ID:         id,
		Actor:      actor,
		Info:       info,
		Command:    parsed,
		Dispatcher: d,
		Ability:    ability,
	}
	res := d.execute(ctx, req)

	d.record(actor, info, line, res)
	if res.Status == StatusSuccess && info.Cooldown > 0 && d.cooldowns != nil {
		if err := d.cooldowns.Set(ctx, actor.ID(), cooldownKey(info.Name), info.Cooldown); err != nil {
			slog.Warn("failed to set command cooldown", "command", info.Name, "actor", actor.Name(), "error", err)
		}
	}
	return res
}

func (d *Dispatcher) interceptedByTrigger(ctx context.Context, actor model.Actor, parsed *parser.ParsedCommand) bool {
	if d.triggers == nil {
		return false
	}
	room := actor.Room()
	if room == nil {
		return false
	}
	// Occupants are sorted by id, so every dispatch visits mobiles in the same order.
	for _, occ := range room.Occupants() {
		mob, ok := occ.AsMobile()
		if !ok || !mob.HasTrigger() || mob.ID() == actor.ID() || mob.IsDead() {
			continue
		}
		outcome, err := d.triggers.DispatchCommand(ctx, mob, actor, parsed.Verb, parsed.Argument)
		if err != nil || outcome == TriggerError {
			slog.Warn("trigger failed",
				"owner", mob.Name(),
				"trigger", mob.Trigger(),
				"command", parsed.Verb,
				"error", err)
			continue
		}
		if outcome == TriggerHalt {
			slog.Debug("command handled by trigger", "owner", mob.Name(), "actor", actor.Name(), "command", parsed.Verb)
			return true
		}
	}
	return false
}

// abilityCommand resolves an ability typed as a command. Multi-word names
// are matched on the longest run of leading words; the remaining words
// become the arguments. It returns nil, nil when no ability matches.
// Spells are rejected: they go through the cast command.
func (d *Dispatcher) abilityCommand(parsed *parser.ParsedCommand) (*catalog.Ability, *rejection) {
	if d.abilities == nil {
		return nil, nil
	}
	cat := d.abilities.Catalog()
	for n := len(parsed.Tokens); n > 0; n-- {
		words := make([]string, n)
		for i, t := range parsed.Tokens[:n] {
			words[i] = t.Text
		}
		ab, err := cat.AbilityByName(strings.Join(words, " "))
		if err != nil {
			continue
		}
		if !ab.Kind.Invocable() {
			return nil, &rejection{StatusFailed, fmt.Sprintf("%s is a spell; use 'cast'.", ab.Name)}
		}
		if n > 1 {
			parsed.Args = parsed.Args[n-1:]
			parsed.Argument = strings.TrimSpace(strings.TrimSpace(parsed.Raw)[parsed.Tokens[n-1].End:])
		}
		return ab, nil
	}
	return nil, nil
}

func abilityInfo(ab *catalog.Ability) Info {
	return Info{
		Name:           ab.Key(),
		Category:       CategoryAbility,
		Description:    ab.Name,
		Handler:        runAbility,
		Privilege:      model.PrivilegeGuest,
		UsableFighting: true,
		UsableSitting:  !ab.Violent,
	}
}

// runAbility executes an ability invoked by name; the first argument
// names the target.
func runAbility(ctx context.Context, req *Request) error {
	var target model.Actor
	if name := req.Arg(0); name != "" {
		room := req.Actor.Room()
		if room == nil {
			return errs.InvalidStatef("They aren't here.")
		}
		t, ok := room.Find(name, nil)
		if !ok {
			return errs.InvalidStatef("They aren't here.")
		}
		target = t
	}
	res, err := req.Dispatcher.abilities.Execute(ctx, skill.Request{
		Actor:     req.Actor,
		AbilityID: req.Ability.ID,
		Target:    target,
	})
	req.abilityResult = res
	if err != nil {
		return err
	}
	if !res.Success {
		return errs.Wrapf(res.Err, "Your %s falters.", req.Ability.Key())
	}
	return nil
}

func (d *Dispatcher) cooldownLeft(ctx context.Context, actor model.Actor, info Info) time.Duration {
	if info.Cooldown <= 0 || d.cooldowns == nil {
		return 0
	}
	if p := actor.Privilege().Info(); p != nil && p.NoCooldown {
		return 0
	}
	left, err := d.cooldowns.Remaining(ctx, actor.ID(), cooldownKey(info.Name))
	if err != nil {
		slog.Warn("failed to read command cooldown", "command", info.Name, "actor", actor.Name(), "error", err)
		return 0
	}
	return left
}

func cooldownKey(name string) string {
	return "cmd:" + name
}

// execute runs the handler. A panic is converted into a system error.
func (d *Dispatcher) execute(ctx context.Context, req *Request) (res Result) {
	res.Command = req.Info.Name
	start := d.clock.Now()

	defer func() {
		res.Duration = d.clock.Now().Sub(start)
		if r := recover(); r != nil {
			slog.Error("command handler panicked",
				"dispatch", req.ID,
				"actor", req.Actor.Name(),
				"command", req.Info.Name,
				"panic", r,
				"stack", string(debug.Stack()))
			res.Status = StatusSystemError
			res.Message = "Something went wrong. The gods have been notified."
			res.Err = errs.Internalf("command %s panicked: %v", req.Info.Name, r)
		}
	}()

	err := req.Info.Handler(ctx, req)
	res.Ability = req.abilityResult
	if err != nil {
		res.Status, res.Remaining = failureStatus(err)
		res.Message = errs.Message(err)
		res.Err = err
		return res
	}

	res.Status = StatusSuccess
	slog.Debug("command executed",
		"dispatch", req.ID,
		"actor", req.Actor.Name(),
		"command", req.Info.Name)
	return res
}

// failureStatus classifies a handler error by its "reason" metadata, so
// ability prerequisites report the same statuses as the command gates.
func failureStatus(err error) (Status, time.Duration) {
	reason, _ := errs.MetaOf(err, "reason")
	switch reason {
	case "cooldown":
		v, _ := errs.MetaOf(err, "remaining")
		left, _ := v.(time.Duration)
		return StatusCooldown, left
	case "position":
		return StatusPosition, 0
	case "level":
		return StatusLevelRestricted, 0
	}
	return StatusFailed, 0
}

func (d *Dispatcher) record(actor model.Actor, info Info, line string, res Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.stats[info.Name]
	if !ok {
		st = &Stats{}
		d.stats[info.Name] = st
	}
	st.record(res.Status == StatusSuccess, res.Duration)

	h, ok := d.history[actor.ID()]
	if !ok {
		h = newHistory(d.historySize)
		d.history[actor.ID()] = h
	}
	h.add(HistoryEntry{Command: info.Name, Line: line, Status: res.Status, At: d.clock.Now()})
}

// Stats returns the counters of a command.
func (d *Dispatcher) Stats(name string) (Stats, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.stats[strings.ToLower(name)]
	if !ok {
		return Stats{}, false
	}
	return *st, true
}

// AllStats returns a copy of every command's counters.
func (d *Dispatcher) AllStats() map[string]Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]Stats, len(d.stats))
	for name, st := range d.stats {
		out[name] = *st
	}
	return out
}

// History returns the actor's recent commands, oldest first.
func (d *Dispatcher) History(actorID string) []HistoryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.history[actorID]
	if !ok {
		return nil
	}
	return h.list()
}

// ActiveCooldowns returns the running command and ability cooldowns of an actor.
func (d *Dispatcher) ActiveCooldowns(ctx context.Context, actorID string) (map[string]time.Duration, error) {
	if d.cooldowns == nil {
		return nil, nil
	}
	return d.cooldowns.Active(ctx, actorID)
}

// Available returns the commands actor may currently use.
func (d *Dispatcher) Available(actor model.Actor) []Info {
	var out []Info
	for _, info := range d.registry.Commands() {
		if authorize(actor, info) == nil {
			out = append(out, info)
		}
	}
	return out
}
