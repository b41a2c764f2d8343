package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

const nodeClassify = "classify"

// invocation is the value threaded through the graph. Stage failures are
// kept here rather than returned to the graph runtime, so callers get the
// classified error unchanged.
type invocation struct {
	state    *domain.ConversationState
	question string
	stage    domain.Stage
	err      error
}

// Executor runs one classify, route, generate pass per query. The graph is
// compiled once and is safe for concurrent use; each call owns its state.
type Executor struct {
	classifier Classifier
	generators map[domain.Stage]Generator
	observer   StageObserver
	runnable   compose.Runnable[*invocation, *invocation]
	debug      bool
}

// NewExecutor compiles the pipeline graph. A nil observer is allowed.
func NewExecutor(ctx context.Context, classifier Classifier, generators Generators, observer StageObserver) (*Executor, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	byStage := generators.byStage()
	for stage, g := range byStage {
		if g == nil {
			return nil, fmt.Errorf("generator for %s is required", stage)
		}
	}
	if observer == nil {
		observer = nopObserver{}
	}

	e := &Executor{
		classifier: classifier,
		generators: byStage,
		observer:   observer,
	}
	if err := e.compile(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// SetDebug enables per-stage debug logging.
func (e *Executor) SetDebug(debug bool) {
	e.debug = debug
}

func (e *Executor) compile(ctx context.Context) error {
	g := compose.NewGraph[*invocation, *invocation]()

	if err := g.AddLambdaNode(nodeClassify, compose.InvokableLambda(e.classify)); err != nil {
		return fmt.Errorf("failed to add classify node: %w", err)
	}
	branches := map[string]bool{compose.END: true}
	for stage := range e.generators {
		if err := g.AddLambdaNode(string(stage), compose.InvokableLambda(e.generate(stage))); err != nil {
			return fmt.Errorf("failed to add %s node: %w", stage, err)
		}
		if err := g.AddEdge(string(stage), compose.END); err != nil {
			return fmt.Errorf("failed to add %s edge: %w", stage, err)
		}
		branches[string(stage)] = true
	}

	if err := g.AddEdge(compose.START, nodeClassify); err != nil {
		return fmt.Errorf("failed to add start edge: %w", err)
	}
	if err := g.AddBranch(nodeClassify, compose.NewGraphBranch(e.route, branches)); err != nil {
		return fmt.Errorf("failed to add router branch: %w", err)
	}

	runnable, err := g.Compile(ctx)
	if err != nil {
		return fmt.Errorf("failed to compile pipeline graph: %w", err)
	}
	e.runnable = runnable
	return nil
}

// Run appends question to state as a user message, runs the pipeline and
// returns the final assistant message, which is also appended to state. On
// failure state holds only the added user message and the stage error is
// returned as is.
func (e *Executor) Run(ctx context.Context, state *domain.ConversationState, question string) (domain.Message, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Message{}, domain.NewError(domain.KindInvalidRequest, "query is required", nil)
	}
	if state.Profile == nil {
		return domain.Message{}, domain.NewError(domain.KindInvalidRequest, "dataset profile is not loaded", nil)
	}

	state.Append(domain.NewUserMessage(question))

	out, err := e.runnable.Invoke(ctx, &invocation{state: state, question: question})
	if err != nil {
		return domain.Message{}, fmt.Errorf("pipeline failed: %w", err)
	}
	if out.err != nil {
		return domain.Message{}, out.err
	}

	msg, ok := state.LastMessage()
	if !ok || msg.Role != domain.RoleAssistant {
		return domain.Message{}, domain.NewError(domain.KindGenerationFailed, "pipeline produced no assistant message", nil)
	}
	return msg, nil
}

func (e *Executor) classify(ctx context.Context, inv *invocation) (*invocation, error) {
	start := time.Now()
	label, err := e.classifier.Classify(ctx, inv.question, inv.state.Profile)
	ev := e.event(inv, StepClassify, time.Since(start))
	if err != nil {
		e.fail(ctx, inv, ev, err)
		return inv, nil
	}

	inv.state.RoutingLabel = label
	ev.Label = label
	e.debugf("session=%s run=%s classified as %s", inv.state.SessionID, inv.state.RunID, label)
	e.observer.ObserveStage(ctx, ev)
	return inv, nil
}

func (e *Executor) route(ctx context.Context, inv *invocation) (string, error) {
	if inv.err != nil {
		return compose.END, nil
	}
	inv.stage = Route(inv.state.RoutingLabel)

	ev := e.event(inv, StepRoute, 0)
	ev.Label = inv.state.RoutingLabel
	ev.Stage = inv.stage
	e.debugf("session=%s run=%s routed to %s", inv.state.SessionID, inv.state.RunID, inv.stage)
	e.observer.ObserveStage(ctx, ev)
	return string(inv.stage), nil
}

func (e *Executor) generate(stage domain.Stage) func(context.Context, *invocation) (*invocation, error) {
	gen := e.generators[stage]
	return func(ctx context.Context, inv *invocation) (*invocation, error) {
		start := time.Now()
		msg, err := gen.Generate(ctx, inv.question, inv.state.Profile)
		ev := e.event(inv, StepGenerate, time.Since(start))
		ev.Stage = stage
		ev.Label = inv.state.RoutingLabel
		if err == nil {
			if msg.ResponseType != gen.ResponseType() {
				err = domain.NewError(domain.KindGenerationFailed,
					fmt.Sprintf("%s produced a %s message, want %s", stage, msg.ResponseType, gen.ResponseType()), nil)
			} else if verr := msg.Validate(); verr != nil {
				err = domain.NewError(domain.KindGenerationFailed, "invalid assistant message", verr)
			}
		}
		if err != nil {
			e.fail(ctx, inv, ev, err)
			return inv, nil
		}

		inv.state.Append(msg)
		ev.ResponseType = msg.ResponseType
		e.debugf("session=%s run=%s generated %s", inv.state.SessionID, inv.state.RunID, msg.ResponseType)
		e.observer.ObserveStage(ctx, ev)
		return inv, nil
	}
}

func (e *Executor) event(inv *invocation, step string, d time.Duration) StageEvent {
	return StageEvent{
		RunID:     inv.state.RunID,
		SessionID: inv.state.SessionID,
		Step:      step,
		Duration:  d,
	}
}

func (e *Executor) fail(ctx context.Context, inv *invocation, ev StageEvent, err error) {
	inv.err = err
	ev.Err = err
	log.Printf("ERROR: %s step failed (session=%s run=%s): %v", ev.Step, inv.state.SessionID, inv.state.RunID, err)
	e.observer.ObserveStage(ctx, ev)
}

func (e *Executor) debugf(format string, args ...interface{}) {
	if e.debug {
		log.Printf("DEBUG: "+format, args...)
	}
}
