package runner

import (
	"slices"
	"sync"

	"github.com/chriserin/ftrun/internal/parser"
)

// Point names a lifecycle position at which hooks fire.
type Point int

const (
	BeforeAll Point = iota
	AfterAll
	BeforeEachFeature
	AfterEachFeature
	BeforeOutline
	AfterOutline
	BeforeEachScenario
	AfterEachScenario
	BeforeEachStep
	AfterEachStep
)

var pointNames = map[Point]string{
	BeforeAll:          "before_all",
	AfterAll:           "after_all",
	BeforeEachFeature:  "before_each_feature",
	AfterEachFeature:   "after_each_feature",
	BeforeOutline:      "before_outline",
	AfterOutline:       "after_outline",
	BeforeEachScenario: "before_each_scenario",
	AfterEachScenario:  "after_each_scenario",
	BeforeEachStep:     "before_each_step",
	AfterEachStep:      "after_each_step",
}

func (p Point) String() string {
	if name, ok := pointNames[p]; ok {
		return name
	}
	return "unknown"
}

// Hook signatures differ per point: outline hooks see the outline and the
// failure history of its examples, the others see only their own unit.
type (
	AllHook            func()
	RunHook            func(res *Result)
	FeatureHook        func(fr *FeatureResult)
	ScenarioHook       func(sr *ScenarioResult)
	StepHook           func(st *StepResult)
	OutlineHook        func(outline *parser.Block)
	// OutlineExampleHook fires after each example with its 1-based index and
	// the failure reasons of the outline's examples so far. For an outline
	// with no Examples rows it fires once with a nil example and index 0.
	OutlineExampleHook func(example *ScenarioResult, index int, outline *parser.Block, reasons []string)
)

// Registry holds hooks in registration order. Registering the same function
// twice makes it fire twice.
type Registry struct {
	mu sync.RWMutex

	beforeAll     []AllHook
	afterAll      []RunHook
	features      map[Point][]FeatureHook
	scenarios     map[Point][]ScenarioHook
	steps         map[Point][]StepHook
	beforeOutline []OutlineHook
	afterOutline  []OutlineExampleHook
}

// DefaultRegistry is the process-wide registry used by runners created
// without one. Call Reset between runs that need isolation.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset removes every registered hook.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeAll = nil
	r.afterAll = nil
	r.features = map[Point][]FeatureHook{}
	r.scenarios = map[Point][]ScenarioHook{}
	r.steps = map[Point][]StepHook{}
	r.beforeOutline = nil
	r.afterOutline = nil
}

func (r *Registry) BeforeAll(fn AllHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeAll = append(r.beforeAll, fn)
}

func (r *Registry) AfterAll(fn RunHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterAll = append(r.afterAll, fn)
}

func (r *Registry) BeforeEachFeature(fn FeatureHook) { r.addFeature(BeforeEachFeature, fn) }
func (r *Registry) AfterEachFeature(fn FeatureHook)  { r.addFeature(AfterEachFeature, fn) }

func (r *Registry) BeforeEachScenario(fn ScenarioHook) { r.addScenario(BeforeEachScenario, fn) }
func (r *Registry) AfterEachScenario(fn ScenarioHook)  { r.addScenario(AfterEachScenario, fn) }

func (r *Registry) BeforeEachStep(fn StepHook) { r.addStep(BeforeEachStep, fn) }
func (r *Registry) AfterEachStep(fn StepHook)  { r.addStep(AfterEachStep, fn) }

func (r *Registry) BeforeOutline(fn OutlineHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeOutline = append(r.beforeOutline, fn)
}

// AfterOutline registers fn to run after every outline example. The example
// argument is nil when the outline has no Examples rows.
func (r *Registry) AfterOutline(fn OutlineExampleHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterOutline = append(r.afterOutline, fn)
}

// Len returns the number of hooks registered at p.
func (r *Registry) Len(p Point) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch p {
	case BeforeAll:
		return len(r.beforeAll)
	case AfterAll:
		return len(r.afterAll)
	case BeforeEachFeature, AfterEachFeature:
		return len(r.features[p])
	case BeforeEachScenario, AfterEachScenario:
		return len(r.scenarios[p])
	case BeforeEachStep, AfterEachStep:
		return len(r.steps[p])
	case BeforeOutline:
		return len(r.beforeOutline)
	case AfterOutline:
		return len(r.afterOutline)
	}
	return 0
}

func (r *Registry) addFeature(p Point, fn FeatureHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.features[p] = append(r.features[p], fn)
}

func (r *Registry) addScenario(p Point, fn ScenarioHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[p] = append(r.scenarios[p], fn)
}

func (r *Registry) addStep(p Point, fn StepHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[p] = append(r.steps[p], fn)
}

// The getters below return the hooks registered at a point in invocation
// order. Each call returns a fresh copy, so a hook may register further
// hooks without affecting the point currently firing.

func (r *Registry) BeforeAllHooks() []AllHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.beforeAll)
}

func (r *Registry) AfterAllHooks() []RunHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.afterAll)
}

// FeatureHooks serves BeforeEachFeature and AfterEachFeature.
func (r *Registry) FeatureHooks(p Point) []FeatureHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.features[p])
}

// ScenarioHooks serves BeforeEachScenario and AfterEachScenario.
func (r *Registry) ScenarioHooks(p Point) []ScenarioHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.scenarios[p])
}

// StepHooks serves BeforeEachStep and AfterEachStep.
func (r *Registry) StepHooks(p Point) []StepHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.steps[p])
}

func (r *Registry) BeforeOutlineHooks() []OutlineHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.beforeOutline)
}

func (r *Registry) AfterOutlineHooks() []OutlineExampleHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.afterOutline)
}
