// Package runner executes parsed features against a step backend, firing
// lifecycle hooks around every feature, outline example, scenario and step.
//
// After hooks run in deferred position at each level, so they fire exactly
// once for every unit that was entered, whatever happens inside it. Steps and
// hooks run under protect, which turns panics and Goexit into faults.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/chriserin/ftrun/internal/parser"
	"github.com/chriserin/ftrun/internal/tags"
)

// Argument is the table or doc string attached to a step, if any.
type Argument struct {
	Table     *parser.Table
	DocString *parser.DocString
}

// Backend executes step text against registered step definitions. A nil
// error passes the step, an error wrapping *Failure fails it, and any other
// error, panic or Goexit records an error.
type Backend interface {
	Execute(ctx context.Context, text string, arg Argument) error
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, text string, arg Argument) error

func (f BackendFunc) Execute(ctx context.Context, text string, arg Argument) error {
	return f(ctx, text, arg)
}

type Options struct {
	Include  []string
	Exclude  []string
	FailFast bool
	// ScenarioIndices limits each feature to the scenarios and outlines at
	// these 1-based positions. Empty selects all.
	ScenarioIndices []int
	Logger          *slog.Logger
}

type Runner struct {
	backend Backend
	hooks   *Registry
	filter  tags.Filter
	opts    Options
	log     *slog.Logger
}

// New creates a Runner. A nil registry means DefaultRegistry.
func New(backend Backend, hooks *Registry, opts Options) *Runner {
	if hooks == nil {
		hooks = DefaultRegistry
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		backend: backend,
		hooks:   hooks,
		filter:  tags.NewFilter(opts.Include, opts.Exclude),
		opts:    opts,
		log:     log,
	}
}

// unit is one entry of Feature.Scenarios: a scenario, or an outline with its
// expanded examples.
type unit struct {
	def       *parser.Block
	selected  bool
	err       error // outline expansion error
	scenarios []*ScenarioResult
}

// run holds the state of a single Run call.
type run struct {
	*Runner
	ctx     context.Context
	result  *Result
	// stopCause is set once no further unit may start.
	stopCause string
}

// Run executes features in order and returns their results. Outline
// expansion happens up front, so a placeholder error surfaces before any
// step runs.
func (r *Runner) Run(ctx context.Context, features []*parser.Feature) *Result {
	ru := &run{Runner: r, ctx: ctx, result: &Result{}}
	for _, f := range features {
		ru.result.Features = append(ru.result.Features, r.plan(f))
	}

	res := ru.result
	res.start()
	defer func() {
		children := make([]*Outcome, 0, len(res.Features))
		for _, fr := range res.Features {
			children = append(children, &fr.Outcome)
		}
		res.finish(aggregate(children))
		ru.after(AfterAll, invokeAll(r.hooks.AfterAllHooks(), func(h RunHook) { h(res) }))
		r.log.Debug("run finished", "status", res.Status, "faults", len(res.Faults))
	}()

	if err := invokeAll(r.hooks.BeforeAllHooks(), func(h AllHook) { h() }); err != nil {
		r.log.Warn("before_all hook fault", "error", err)
		res.finish(StatusError, "before_all hook: "+err.Error(), err)
		ru.stopCause = "before_all hook failed"
	}

	for _, fr := range res.Features {
		ru.runFeature(fr)
	}
	return res
}

// plan builds the result tree for f, applying tag and index selection.
func (r *Runner) plan(f *parser.Feature) *FeatureResult {
	fr := &FeatureResult{Feature: f}
	featureTags := parser.TagNames(f.Tags)

	for i := range f.Scenarios {
		def := &f.Scenarios[i]
		effective := tags.Effective(featureTags, parser.TagNames(def.Tags))
		u := &unit{
			def:      def,
			selected: r.indexSelected(i+1) && r.filter.ShouldRun(effective),
		}

		if def.Kind == parser.KindOutline {
			examples, err := parser.Expand(*def)
			if err != nil {
				u.err = err
				u.scenarios = []*ScenarioResult{{Feature: f, Scenario: *def, Outline: def, Tags: effective}}
			}
			for _, ex := range examples {
				u.scenarios = append(u.scenarios, newScenarioResult(f, ex.Scenario, def, ex.Index, effective))
			}
		} else {
			u.scenarios = []*ScenarioResult{newScenarioResult(f, *def, nil, 0, effective)}
		}

		fr.units = append(fr.units, u)
		fr.Scenarios = append(fr.Scenarios, u.scenarios...)
		fr.selected = fr.selected || u.selected
	}
	return fr
}

func newScenarioResult(f *parser.Feature, sc parser.Block, outline *parser.Block, index int, effective []string) *ScenarioResult {
	sr := &ScenarioResult{Feature: f, Scenario: sc, Outline: outline, Index: index, Tags: effective}
	if f.Background != nil {
		for _, step := range f.Background.Steps {
			sr.Steps = append(sr.Steps, &StepResult{Step: step, Background: true})
		}
	}
	for _, step := range sc.Steps {
		sr.Steps = append(sr.Steps, &StepResult{Step: step})
	}
	return sr
}

func (r *Runner) indexSelected(pos int) bool {
	return len(r.opts.ScenarioIndices) == 0 || slices.Contains(r.opts.ScenarioIndices, pos)
}

// halted reports whether no further unit may start.
func (ru *run) halted() bool {
	return ru.stopCause != "" || ru.ctx.Err() != nil
}

// trip records a non-pass and stops the run under fail-fast.
func (ru *run) trip() {
	if ru.opts.FailFast && ru.stopCause == "" {
		ru.stopCause = "fail-fast"
	}
}

// stopReason is the skip reason for units not started because of halted.
func (ru *run) stopReason() string {
	if ru.stopCause != "" {
		return ru.stopCause
	}
	if err := ru.ctx.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// after records a fault raised by an after hook.
func (ru *run) after(p Point, err error) {
	if err == nil {
		return
	}
	ru.log.Warn("after hook fault", "point", p.String(), "error", err)
	ru.result.Faults = append(ru.result.Faults, fmt.Errorf("%s hook: %w", p, err))
}

func (ru *run) runFeature(fr *FeatureResult) {
	log := ru.log.With("feature", fr.Feature.Name, "path", fr.Feature.Path)
	if ru.halted() {
		skipFeature(fr, ru.stopReason())
		return
	}
	if !fr.selected {
		log.Debug("feature filtered out")
		skipFeature(fr, "filtered")
		return
	}

	// An outline without Examples rows has no result of its own, so the
	// feature carries its before_outline fault and counts it as run.
	var emptyOutlineRan bool
	var emptyOutlineFault error

	fr.start()
	defer func() {
		if emptyOutlineFault != nil {
			fr.finish(StatusError, "before_outline hook: "+emptyOutlineFault.Error(), emptyOutlineFault)
		}
		children := make([]*Outcome, 0, len(fr.Scenarios))
		for _, sr := range fr.Scenarios {
			children = append(children, &sr.Outcome)
		}
		status, reason, err := aggregate(children)
		if status == StatusSkipped && emptyOutlineRan {
			status = StatusPassed
		}
		fr.finish(status, reason, err)
		ru.after(AfterEachFeature, invokeAll(ru.hooks.FeatureHooks(AfterEachFeature), func(h FeatureHook) { h(fr) }))
		log.Debug("feature finished", "status", fr.Status)
	}()

	if err := invokeAll(ru.hooks.FeatureHooks(BeforeEachFeature), func(h FeatureHook) { h(fr) }); err != nil {
		log.Warn("before_each_feature hook fault", "error", err)
		fr.finish(StatusError, "before_each_feature hook: "+err.Error(), err)
		for _, u := range fr.units {
			skipUnit(u, "before_each_feature hook failed")
		}
		ru.trip()
		return
	}

	for _, u := range fr.units {
		switch {
		case ru.halted():
			skipUnit(u, ru.stopReason())
		case !u.selected:
			skipUnit(u, "filtered")
		case u.err != nil:
			sr := u.scenarios[0]
			sr.start()
			sr.finish(StatusError, u.err.Error(), u.err)
			log.Warn("outline not expanded", "outline", u.def.Name, "error", u.err)
			ru.trip()
		case u.def.Kind == parser.KindOutline:
			err := ru.runOutline(u)
			if len(u.scenarios) == 0 {
				emptyOutlineRan = true
				if emptyOutlineFault == nil {
					emptyOutlineFault = err
				}
			}
		default:
			ru.runScenario(u.scenarios[0])
		}
	}
}

// runOutline runs every example of u and returns the before_outline fault,
// if any.
func (ru *run) runOutline(u *unit) error {
	outline := u.def
	var reasons []string
	afterExample := func(sr *ScenarioResult, index int) {
		ru.after(AfterOutline, invokeAll(ru.hooks.AfterOutlineHooks(), func(h OutlineExampleHook) {
			h(sr, index, outline, slices.Clone(reasons))
		}))
	}

	if err := invokeAll(ru.hooks.BeforeOutlineHooks(), func(h OutlineHook) { h(outline) }); err != nil {
		ru.log.Warn("before_outline hook fault", "outline", outline.Name, "error", err)
		for _, sr := range u.scenarios {
			sr.start()
			sr.finish(StatusError, "before_outline hook: "+err.Error(), err)
			skipSteps(sr, "before_outline hook failed")
			reasons = append(reasons, sr.Reason)
			afterExample(sr, sr.Index)
		}
		if len(u.scenarios) == 0 {
			afterExample(nil, 0)
		}
		ru.trip()
		return err
	}

	if len(u.scenarios) == 0 {
		afterExample(nil, 0)
		return nil
	}

	for _, sr := range u.scenarios {
		if ru.halted() {
			skipScenario(sr, ru.stopReason())
			continue
		}
		func() {
			defer func() {
				if sr.Status == StatusFailed || sr.Status == StatusError {
					reasons = append(reasons, sr.Reason)
				}
				afterExample(sr, sr.Index)
			}()
			ru.runScenario(sr)
		}()
	}
	return nil
}

func (ru *run) runScenario(sr *ScenarioResult) {
	log := ru.log.With("scenario", sr.Scenario.Name, "line", sr.Scenario.Line)
	sr.start()
	defer func() {
		if !sr.Status.Terminal() {
			sr.finish(StatusError, "scenario aborted", nil)
		}
		ru.after(AfterEachScenario, invokeAll(ru.hooks.ScenarioHooks(AfterEachScenario), func(h ScenarioHook) { h(sr) }))
		log.Debug("scenario finished", "status", sr.Status)
	}()

	if err := invokeAll(ru.hooks.ScenarioHooks(BeforeEachScenario), func(h ScenarioHook) { h(sr) }); err != nil {
		log.Warn("before_each_scenario hook fault", "error", err)
		sr.finish(StatusError, "before_each_scenario hook: "+err.Error(), err)
		skipSteps(sr, "before_each_scenario hook failed")
		ru.trip()
		return
	}

	interrupted := false
	for _, st := range sr.Steps {
		if sr.Status.Terminal() {
			st.finish(StatusSkipped, "previous step did not pass", nil)
			continue
		}
		if ru.halted() {
			st.finish(StatusSkipped, ru.stopReason(), nil)
			interrupted = true
			continue
		}
		ru.runStep(st)
		if st.Status != StatusPassed {
			sr.finish(st.Status, st.Reason, st.Err)
			ru.trip()
		}
	}
	if interrupted {
		sr.finish(StatusSkipped, ru.stopReason(), nil)
	}
	sr.finish(StatusPassed, "", nil)
}

func (ru *run) runStep(st *StepResult) {
	st.start()
	defer func() {
		if !st.Status.Terminal() {
			st.finish(StatusError, "step aborted", nil)
		}
		ru.after(AfterEachStep, invokeAll(ru.hooks.StepHooks(AfterEachStep), func(h StepHook) { h(st) }))
	}()

	if err := invokeAll(ru.hooks.StepHooks(BeforeEachStep), func(h StepHook) { h(st) }); err != nil {
		ru.log.Warn("before_each_step hook fault", "step", st.Step.Text, "error", err)
		st.finish(StatusError, "before_each_step hook: "+err.Error(), err)
		return
	}

	arg := Argument{Table: st.Step.Table, DocString: st.Step.DocString}
	err := protect(func() error {
		return ru.backend.Execute(ru.ctx, st.Step.Text, arg)
	})
	status := classify(err)
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	st.finish(status, reason, err)

	attrs := []any{"keyword", st.Step.Keyword, "text", st.Step.Text, "status", st.Status}
	var fault *Fault
	if errors.As(err, &fault) {
		ru.log.Warn("step fault", append(attrs, "error", err, "stack", string(fault.Stack))...)
	} else {
		ru.log.Debug("step finished", attrs...)
	}
}

func classify(err error) Status {
	if err == nil {
		return StatusPassed
	}
	var fault *Fault
	if errors.As(err, &fault) {
		return StatusError
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return StatusFailed
	}
	return StatusError
}

// invokeAll calls every hook under protect and joins their faults.
func invokeAll[H any](hooks []H, call func(H)) error {
	var errs []error
	for _, h := range hooks {
		if err := protect(func() error { call(h); return nil }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func skipFeature(fr *FeatureResult, reason string) {
	for _, u := range fr.units {
		skipUnit(u, reason)
	}
	fr.finish(StatusSkipped, reason, nil)
}

func skipUnit(u *unit, reason string) {
	for _, sr := range u.scenarios {
		skipScenario(sr, reason)
	}
}

func skipScenario(sr *ScenarioResult, reason string) {
	skipSteps(sr, reason)
	sr.finish(StatusSkipped, reason, nil)
}

func skipSteps(sr *ScenarioResult, reason string) {
	for _, st := range sr.Steps {
		st.finish(StatusSkipped, reason, nil)
	}
}
