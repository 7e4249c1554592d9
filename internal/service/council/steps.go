package council

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/z-council/backend/internal/analysis/rating"
	"github.com/zhouzirui/z-council/backend/internal/model/persona"
	"github.com/zhouzirui/z-council/backend/internal/service/ai"
)

const (
	stepPerspective = "perspective"
	stepRating      = "rating"
	stepSynthesis   = "synthesis"
)

// task is one delegated call. iteration is the budget slot reserved for it.
type task struct {
	agent *ai.Agent
	call  func(ctx context.Context, iteration int) error
}

// dispatch runs tasks in order, or all at once for parallel coordinators.
// Parallel runs reserve every slot before the first call so the budget check does not race.
func (r *run) dispatch(ctx context.Context, tasks []task) error {
	if r.coord.Dispatch != persona.DispatchParallel {
		for _, t := range tasks {
			iteration, err := r.reserve(t.agent.Name())
			if err != nil {
				return err
			}
			if err := t.call(ctx, iteration); err != nil {
				return err
			}
		}
		return nil
	}

	iterations := make([]int, len(tasks))
	for i, t := range tasks {
		iteration, err := r.reserve(t.agent.Name())
		if err != nil {
			r.release(i)
			return err
		}
		iterations[i] = iteration
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			return t.call(gctx, iterations[i])
		})
	}
	return g.Wait()
}

func (r *run) delegate(ctx context.Context, agent *ai.Agent, step, request string) (string, error) {
	start := time.Now()
	msg, err := agent.Ask(ctx, r.memoryKey(), request)
	r.svc.metrics.ObserveDelegation(r.coord.ID, agent.ID(), step, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%s from %s: %w", step, agent.Name(), err)
	}
	return msg.Content, nil
}

func (r *run) gatherPerspectives(ctx context.Context) ([]Perspective, error) {
	request := perspectiveRequest(r.coord, r.verdict.Question)

	results := make([]*Perspective, len(r.collaborators))
	tasks := make([]task, len(r.collaborators))
	for i, agent := range r.collaborators {
		i, agent := i, agent
		tasks[i] = task{agent: agent, call: func(ctx context.Context, iteration int) error {
			content, err := r.delegate(ctx, agent, stepPerspective, request)
			if err != nil {
				return err
			}
			results[i] = &Perspective{AgentID: agent.ID(), Agent: agent.Name(), Content: content}
			r.emit(Event{Type: EventPerspective, Agent: agent.Name(), Content: content, Iteration: iteration})
			return nil
		}}
	}

	err := r.dispatch(ctx, tasks)
	return compact(results), err
}

func (r *run) crossRate(ctx context.Context, perspectives []Perspective) ([]Rating, error) {
	if len(perspectives) < 2 {
		return nil, nil
	}

	byID := make(map[string]*ai.Agent, len(r.collaborators))
	for _, agent := range r.collaborators {
		byID[agent.ID()] = agent
	}

	var tasks []task
	var results []*Rating
	for _, rater := range perspectives {
		for _, target := range perspectives {
			if rater.AgentID == target.AgentID {
				continue
			}
			agent := byID[rater.AgentID]
			rater, target := rater, target
			slot := len(results)
			results = append(results, nil)

			tasks = append(tasks, task{agent: agent, call: func(ctx context.Context, iteration int) error {
				reply, err := r.delegate(ctx, agent, stepRating, ratingRequest(target.Agent, target.Content))
				if err != nil {
					return err
				}
				rt := Rating{
					RaterID:  rater.AgentID,
					Rater:    rater.Agent,
					TargetID: target.AgentID,
					Target:   target.Agent,
					Raw:      reply,
				}
				if res, ok := rating.Extract(reply); ok {
					rt.Score = res.Score
					rt.Reason = res.Reason
					rt.Method = res.Method
				} else {
					rt.Reason = reply
					log.Printf("[council] run=%s could not read a score from %s's rating of %s", r.verdict.RunID, rater.Agent, target.Agent)
				}
				results[slot] = &rt
				r.emit(Event{Type: EventRating, Agent: rater.Agent, Target: target.Agent, Content: rt.Reason, Score: rt.Score, Iteration: iteration})
				return nil
			}})
		}
	}

	err := r.dispatch(ctx, tasks)
	return compact(results), err
}

func (r *run) synthesize(ctx context.Context) (string, error) {
	if _, err := r.reserve(r.judge.Name()); err != nil {
		return "", err
	}

	collaborators := make([]string, len(r.collaborators))
	for i, agent := range r.collaborators {
		collaborators[i] = agent.Name()
	}
	request := synthesisRequest(r.verdict.Question, collaborators, r.verdict.Perspectives, r.verdict.Ratings)

	if r.sink == nil || !r.judge.StreamingEnabled() {
		return r.delegate(ctx, r.judge, stepSynthesis, request)
	}

	start := time.Now()
	content, err := r.streamSynthesis(ctx, request)
	r.svc.metrics.ObserveDelegation(r.coord.ID, r.judge.ID(), stepSynthesis, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%s from %s: %w", stepSynthesis, r.judge.Name(), err)
	}
	return content, nil
}

func (r *run) streamSynthesis(ctx context.Context, request string) (string, error) {
	stream, err := r.judge.Stream(ctx, r.memoryKey(), request)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 16)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			r.emit(Event{Type: EventDelta, Agent: r.judge.Name(), Content: chunk.Content})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}

	if err := r.judge.Remember(ctx, r.memoryKey(), request, response.Content); err != nil {
		log.Printf("[council] run=%s failed to persist judge memory: %v", r.verdict.RunID, err)
	}
	return response.Content, nil
}

func (r *run) memoryKey() string {
	if r.sessionID != "" {
		return r.sessionID
	}
	return r.verdict.RunID
}

func compact[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}
