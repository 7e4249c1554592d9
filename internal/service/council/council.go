// Package council runs a coordinator's gather, cross-rate and synthesize protocol over its collaborators.
package council

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/z-council/backend/internal/analysis/rating"
	"github.com/zhouzirui/z-council/backend/internal/metrics"
	"github.com/zhouzirui/z-council/backend/internal/model/persona"
	"github.com/zhouzirui/z-council/backend/internal/service/ai"
)

var (
	ErrEmptyQuestion      = errors.New("question is required")
	ErrUnknownCoordinator = errors.New("unknown coordinator")
	ErrAgentUnavailable   = errors.New("agent unavailable")
	ErrIterationLimit     = errors.New("max iterations exceeded")
)

// State is a step of the coordinator protocol.
type State string

const (
	StateAwaitingPerspectives State = "AwaitingPerspectives"
	StateAwaitingCrossRatings State = "AwaitingCrossRatings"
	StateSynthesizing         State = "Synthesizing"
	StateDone                 State = "Done"
)

// Perspective is one collaborator's answer to the question.
type Perspective struct {
	AgentID string `json:"agentId"`
	Agent   string `json:"agent"`
	Content string `json:"content"`
}

// Rating is one collaborator's score of another's perspective.
type Rating struct {
	RaterID  string        `json:"raterId"`
	Rater    string        `json:"rater"`
	TargetID string        `json:"targetId"`
	Target   string        `json:"target"`
	Score    int           `json:"score"`
	Reason   string        `json:"reason"`
	Method   rating.Method `json:"method,omitempty"`
	Raw      string        `json:"raw"`
}

// Scored reports whether a score could be read from the reply.
func (r Rating) Scored() bool { return r.Score > 0 }

// Verdict is the outcome of one run. On failure it holds everything gathered so far.
type Verdict struct {
	RunID         string        `json:"runId"`
	SessionID     string        `json:"sessionId"`
	CoordinatorID string        `json:"coordinatorId"`
	Coordinator   string        `json:"coordinator"`
	Question      string        `json:"question"`
	Perspectives  []Perspective `json:"perspectives"`
	Ratings       []Rating      `json:"ratings"`
	Synthesis     string        `json:"synthesis"`
	Sections      []Section     `json:"sections,omitempty"`
	Iterations    int           `json:"iterations"`
	State         State         `json:"state"`
	StartedAt     time.Time     `json:"startedAt"`
	FinishedAt    time.Time     `json:"finishedAt"`
}

// Section returns the body of the named output section, if present.
func (v *Verdict) Section(title string) (string, bool) {
	for _, s := range v.Sections {
		if strings.EqualFold(s.Title, title) {
			return s.Body, true
		}
	}
	return "", false
}

// Options tunes the runtime.
type Options struct {
	Timeout time.Duration
	Metrics *metrics.Council
}

// Service executes coordinators defined in a persona store using agents from the AI service.
type Service struct {
	personas persona.Store
	agents   *ai.Service
	timeout  time.Duration
	metrics  *metrics.Council
}

// NewService wires the runtime.
func NewService(personas persona.Store, agents *ai.Service, opts Options) *Service {
	return &Service{
		personas: personas,
		agents:   agents,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
	}
}

// Run executes the protocol of coordinatorID for question. sink may be nil.
func (s *Service) Run(ctx context.Context, coordinatorID, sessionID, question string, sink Sink) (*Verdict, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	coord, ok := s.personas.FindCoordinator(coordinatorID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCoordinator, coordinatorID)
	}

	judge, ok := s.agents.Agent(coord.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentUnavailable, coord.ID)
	}

	members, err := s.personas.Collaborators(coord)
	if err != nil {
		return nil, err
	}
	collaborators := make([]*ai.Agent, 0, len(members))
	for _, p := range members {
		agent, ok := s.agents.Agent(p.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAgentUnavailable, p.ID)
		}
		collaborators = append(collaborators, agent)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	r := &run{
		svc:           s,
		coord:         coord,
		judge:         judge,
		collaborators: collaborators,
		sessionID:     sessionID,
		sink:          sink,
		verdict: &Verdict{
			RunID:         uuid.NewString(),
			SessionID:     sessionID,
			CoordinatorID: coord.ID,
			Coordinator:   coord.Name,
			Question:      question,
			StartedAt:     time.Now().UTC(),
		},
	}

	err = r.execute(ctx)
	r.verdict.FinishedAt = time.Now().UTC()
	r.verdict.Iterations = r.used
	s.metrics.ObserveRun(coord.ID, string(r.verdict.State), r.used, r.verdict.FinishedAt.Sub(r.verdict.StartedAt), err)

	if err != nil {
		log.Printf("[council] run=%s coordinator=%s failed in state=%s after %d iterations: %v", r.verdict.RunID, coord.ID, r.verdict.State, r.used, err)
		r.emit(Event{Type: EventError, Error: err.Error()})
		return r.verdict, err
	}

	log.Printf("[council] run=%s coordinator=%s completed in %d iterations", r.verdict.RunID, coord.ID, r.used)
	r.emit(Event{Type: EventVerdict, Verdict: r.verdict})
	return r.verdict, nil
}

// run holds the mutable state of a single execution.
type run struct {
	svc           *Service
	coord         persona.Coordinator
	judge         *ai.Agent
	collaborators []*ai.Agent
	sessionID     string
	sink          Sink

	mu      sync.Mutex
	used    int
	verdict *Verdict

	emitMu sync.Mutex
}

func (r *run) execute(ctx context.Context) error {
	r.enter(StateAwaitingPerspectives)
	perspectives, err := r.gatherPerspectives(ctx)
	r.verdict.Perspectives = perspectives
	if err != nil {
		return err
	}

	r.enter(StateAwaitingCrossRatings)
	ratings, err := r.crossRate(ctx, perspectives)
	r.verdict.Ratings = ratings
	if err != nil {
		return err
	}

	r.enter(StateSynthesizing)
	synthesis, err := r.synthesize(ctx)
	if err != nil {
		return err
	}
	r.verdict.Synthesis = synthesis
	r.verdict.Sections = ParseSections(synthesis)

	r.enter(StateDone)
	return nil
}

func (r *run) enter(state State) {
	r.verdict.State = state
	r.emit(Event{Type: EventState, State: state})
}

// reserve consumes one iteration for a call to agent, failing once the coordinator's bound is reached.
func (r *run) reserve(agent string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used >= r.coord.MaxIterations {
		return r.used, fmt.Errorf("%w: coordinator %s allows %d, next call to %s would exceed it", ErrIterationLimit, r.coord.ID, r.coord.MaxIterations, agent)
	}
	r.used++
	return r.used, nil
}

// release returns n reserved slots that were never used.
func (r *run) release(n int) {
	r.mu.Lock()
	r.used -= n
	r.mu.Unlock()
}

func (r *run) emit(ev Event) {
	if r.sink == nil {
		return
	}
	ev.RunID = r.verdict.RunID
	if ev.State == "" {
		ev.State = r.verdict.State
	}
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	r.sink(ev)
}
