package rag

import (
	"context"
	"errors"
	"fmt"

	"azusena/internal/contextutil"
	"azusena/internal/conversation"
	"azusena/internal/policy"
	"azusena/internal/storage"
)

// ragEngine implements the Engine interface.
type ragEngine struct {
	policy    *policy.Policy
	retriever *Retriever
	validator *Validator
	coherence *CoherenceEvaluator
	composer  *Composer
	locator   *Locator
	lister    *Lister
	generator Generator
	sessions  *conversation.Manager
}

// NewEngine creates a new query engine. A nil generator makes every
// generation path degrade to the error answer; nil sessions keep
// conversations in a manager without expiry.
func NewEngine(
	searcher Searcher,
	store storage.ArticleStore,
	generator Generator,
	sessions *conversation.Manager,
	p *policy.Policy,
) Engine {
	if p == nil {
		p = policy.Default()
	}
	if sessions == nil {
		sessions = conversation.NewManager(p.MaxHistory, 0)
	}
	validator := NewValidator(p.MinContentLength)
	coherence := NewCoherenceEvaluator(p.Families, p.CoherenceRatio)
	return &ragEngine{
		policy:    p,
		retriever: NewRetriever(searcher, store, NewEnricher(p.Concepts), NewScorer(p)),
		validator: validator,
		coherence: coherence,
		composer:  NewComposer(validator, coherence),
		locator:   NewLocator(store),
		lister:    NewLister(store),
		generator: generator,
		sessions:  sessions,
	}
}

// Answer answers a query within its conversation session. The user query
// and the answer are recorded in the session unless the pipeline failed.
func (e *ragEngine) Answer(ctx context.Context, req AnswerRequest) (AnswerResponse, error) {
	query := CleanQuery(req.Query)
	if query == "" {
		return AnswerResponse{}, ErrEmptyQuery
	}

	session := e.sessions.GetOrCreate(req.SessionID)
	ctx = contextutil.WithSessionID(ctx, session.ID)
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "query received", "query", query)

	var resp AnswerResponse
	session.Exchange(query, func(history []conversation.Turn) (string, bool) {
		var err error
		resp, err = e.route(ctx, query, history)
		if err != nil {
			logger.ErrorContext(ctx, "query failed", "error", err)
			resp = AnswerResponse{
				Response: fmt.Sprintf("Lo siento, hubo un problema al procesar tu consulta: %v", err),
				Route:    RouteError,
			}
			return resp.Response, false
		}
		return resp.Response, true
	})
	resp.SessionID = session.ID

	logger.InfoContext(ctx, "query answered",
		"route", resp.Route,
		"similarity", resp.Similarity,
		"used_knowledge_base", resp.UsedKnowledgeBase,
		"history_turns", session.Len(),
	)
	return resp, nil
}

// route picks the answering path for a cleaned query.
func (e *ragEngine) route(ctx context.Context, query string, history []conversation.Turn) (AnswerResponse, error) {
	in := classify(query)
	switch in.kind {
	case intentArticle:
		// The unavailable message is the answer; the failure is only logged.
		resp, err := e.Article(ctx, in.number)
		if err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "article lookup failed", "error", err)
		}
		return resp, nil
	case intentRange:
		text, err := e.lister.Range(ctx, in.from, in.to)
		if err != nil {
			return AnswerResponse{}, &QueryError{Stage: StageResolve, Err: err}
		}
		return AnswerResponse{Response: text, Similarity: 1, UsedKnowledgeBase: true, Route: RouteListing}, nil
	case intentFirstN:
		text, err := e.lister.First(ctx, in.count)
		if err != nil {
			return AnswerResponse{}, &QueryError{Stage: StageResolve, Err: err}
		}
		return AnswerResponse{Response: text, Similarity: 1, UsedKnowledgeBase: true, Route: RouteListing}, nil
	}

	k := e.policy.ContextTopK
	if in.kind == intentList {
		k = max(k, e.policy.TopK)
	}
	matches, err := e.retriever.Retrieve(ctx, query, k, min(e.policy.ContextThreshold, e.policy.MatchThreshold))
	if err != nil {
		return AnswerResponse{}, err
	}

	if in.kind == intentList {
		text, best := e.composer.Compose(ctx, query, atLeast(matches, e.policy.MatchThreshold))
		if best >= e.policy.KnowledgeBaseThreshold {
			return AnswerResponse{Response: text, Similarity: best, UsedKnowledgeBase: true, Route: RouteKnowledgeBase}, nil
		}
	}

	contextMatches := atLeast(matches, e.policy.ContextThreshold)
	if len(contextMatches) > e.policy.ContextTopK {
		contextMatches = contextMatches[:e.policy.ContextTopK]
	}
	historyText := historyContext(history, e.policy.HistoryWindow)

	if valid := e.validator.Validate(ctx, contextMatches); len(valid) > 0 {
		if coherent, _ := e.coherence.Evaluate(ctx, query, groupByTheme(valid)); !coherent {
			text, best := conservative(valid)
			return AnswerResponse{Response: text, Similarity: best, UsedKnowledgeBase: true, Route: RouteConservative}, nil
		}
		answer, err := e.generate(ctx, articleContext(valid, historyText), query)
		if err != nil {
			return AnswerResponse{}, err
		}
		return AnswerResponse{Response: answer, Similarity: valid[0].Weighted, UsedKnowledgeBase: true, Route: RouteContext}, nil
	}

	answer, err := e.generate(ctx, historyText, query)
	if err != nil {
		return AnswerResponse{}, err
	}
	return AnswerResponse{Response: answer, Similarity: 0, UsedKnowledgeBase: false, Route: RouteGeneration}, nil
}

func (e *ragEngine) generate(ctx context.Context, contextText, query string) (string, error) {
	if e.generator == nil {
		return "", &QueryError{Stage: StageGenerate, Err: errors.New("no generation backend configured")}
	}
	answer, err := e.generator.Generate(ctx, systemPrompt, contextText, query)
	if err != nil {
		return "", &QueryError{Stage: StageGenerate, Err: err}
	}
	return answer, nil
}

// Article looks up an article by number. Found articles report similarity 1.
func (e *ragEngine) Article(ctx context.Context, number string) (AnswerResponse, error) {
	text, found, err := e.locator.Lookup(ctx, number)
	resp := AnswerResponse{Response: text, Route: RouteArticle}
	if err != nil {
		return resp, &QueryError{Stage: StageResolve, Err: err}
	}
	if found {
		resp.Similarity = 1
		resp.UsedKnowledgeBase = true
	}
	return resp, nil
}

// Theme lists articles by theme.
func (e *ragEngine) Theme(ctx context.Context, theme, subtheme string) (string, error) {
	return e.lister.Theme(ctx, theme, subtheme)
}

// EndSession forgets a conversation.
func (e *ragEngine) EndSession(id string) bool {
	return e.sessions.End(id)
}

// atLeast returns the prefix of matches (sorted best first) reaching threshold.
func atLeast(matches []ScoredMatch, threshold float64) []ScoredMatch {
	for i, m := range matches {
		if m.Weighted < threshold {
			return matches[:i]
		}
	}
	return matches
}
