package chat

import (
	"context"
	"errors"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/finchat-ai/finchat/log"
	"github.com/finchat-ai/finchat/rag"
)

// DefaultStepTimeout bounds each external call within a turn.
const DefaultStepTimeout = 60 * time.Second

// Pipeline runs one conversation turn: reformulate the question against
// the session history, retrieve context, and generate the answer.
type Pipeline struct {
	reformulator *Reformulator
	generator    *Generator
	retriever    rag.Retriever
	topK         int
	stepTimeout  time.Duration
	logger       log.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTopK sets the number of chunks retrieved per turn.
func WithTopK(k int) PipelineOption {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithStepTimeout sets the timeout applied to each external call.
func WithStepTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.stepTimeout = d
		}
	}
}

// WithPipelineLogger overrides the logger.
func WithPipelineLogger(logger log.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline wires a turn pipeline from a chat model and a retriever.
func NewPipeline(model llms.Model, retriever rag.Retriever, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		reformulator: NewReformulator(model),
		generator:    NewGenerator(model),
		retriever:    retriever,
		topK:         0, // retriever default
		stepTimeout:  DefaultStepTimeout,
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ask processes one user turn against the session and returns the
// answer. On success the question/answer pair is appended to the
// session history. On generation failure the turn is not recorded and
// the error is returned for the front end to surface; the session is
// left idle either way.
func (p *Pipeline) Ask(ctx context.Context, session *Session, question string) (string, error) {
	history := session.History()

	session.setState(StateReformulating)
	standalone, err := p.step(ctx, func(ctx context.Context) (string, error) {
		return p.reformulator.Reformulate(ctx, question, history)
	})
	if err != nil {
		// Recommended default: a failed reformulation degrades to the
		// verbatim question rather than aborting the turn.
		p.logger.Warn("session %s: reformulation failed, using verbatim question: %v", session.ID, err)
		standalone = question
	}

	session.setState(StateRetrieving)
	var results []rag.SearchResult
	retrieveErr := p.timed(ctx, func(ctx context.Context) error {
		var err error
		results, err = p.retriever.Retrieve(ctx, standalone, p.topK)
		return err
	})
	if retrieveErr != nil {
		if errors.Is(retrieveErr, rag.ErrEmptyIndex) || errors.Is(retrieveErr, rag.ErrStoreUnavailable) {
			// No context to answer from. Degrade instead of failing.
			p.logger.Warn("session %s: retrieval degraded: %v", session.ID, retrieveErr)
			session.Append(Turn{Role: RoleUser, Content: question})
			session.Append(Turn{Role: RoleAssistant, Content: NoContextAnswer})
			session.succeed()
			return NoContextAnswer, nil
		}
		session.fail(retrieveErr)
		return "", retrieveErr
	}

	session.setState(StateGenerating)
	answer, err := p.step(ctx, func(ctx context.Context) (string, error) {
		return p.generator.Answer(ctx, standalone, results, history)
	})
	if err != nil {
		session.fail(err)
		return "", err
	}

	session.Append(Turn{Role: RoleUser, Content: question})
	session.Append(Turn{Role: RoleAssistant, Content: answer})
	session.succeed()
	return answer, nil
}

func (p *Pipeline) step(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.stepTimeout)
	defer cancel()
	return fn(ctx)
}

func (p *Pipeline) timed(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.stepTimeout)
	defer cancel()
	return fn(ctx)
}
