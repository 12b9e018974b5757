package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_service.go -package=mocks -mock_names=QueryService=MockQueryService azusena/internal/service QueryService

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"azusena/internal/contextutil"
	"azusena/internal/rag"
)

// Output formats accepted by Query.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// trailingUndefined matches a stray "undefined" token some generators
// append to their reply.
var trailingUndefined = regexp.MustCompile(`\s*undefined\s*$`)

// QueryRequest represents a query in the domain layer.
type QueryRequest struct {
	Query     string
	SessionID string
	Format    string
}

// QueryResponse represents an answer in the domain layer.
type QueryResponse struct {
	Response          string
	ResponseHTML      string
	Similarity        float64
	UsedKnowledgeBase bool
	Route             string
	SessionID         string
}

// QueryService answers user queries about the article corpus.
type QueryService interface {
	// Query answers a free-text query within a conversation session.
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
	// Article looks up an article by number. The response carries the
	// explanatory message even when the error wraps ErrArticleNotFound or
	// ErrStoreUnavailable.
	Article(ctx context.Context, number string) (QueryResponse, error)
	// Theme lists the articles classified under a theme.
	Theme(ctx context.Context, theme, subtheme string) (string, error)
	// EndSession forgets a conversation. Unknown ids return ErrSessionNotFound.
	EndSession(ctx context.Context, id string) error
}

// queryService implements QueryService.
type queryService struct {
	engine   rag.Engine
	renderer *Renderer
}

// NewQueryService creates a new QueryService.
func NewQueryService(engine rag.Engine) QueryService {
	return &queryService{
		engine:   engine,
		renderer: NewRenderer(),
	}
}

// Query answers a query.
func (s *queryService) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Query) == "" {
		logger.WarnContext(ctx, "empty query in request")
		return QueryResponse{}, &ValidationError{Field: "query", Message: "cannot be empty"}
	}
	format, err := normalizeFormat(req.Format)
	if err != nil {
		return QueryResponse{}, err
	}

	answer, err := s.engine.Answer(ctx, rag.AnswerRequest{Query: req.Query, SessionID: req.SessionID})
	if errors.Is(err, rag.ErrEmptyQuery) {
		logger.WarnContext(ctx, "query empty after cleaning", "query_length", len(req.Query))
		return QueryResponse{}, &ValidationError{Field: "query", Message: "contains no searchable text"}
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer query", "error", err)
		return QueryResponse{}, WrapError(err, "failed to answer query")
	}

	resp := fromAnswer(answer)
	if format == FormatHTML {
		if resp.ResponseHTML, err = s.renderer.Render(resp.Response); err != nil {
			logger.WarnContext(ctx, "failed to render response as HTML", "error", err)
		}
	}

	logger.InfoContext(ctx, "query processed successfully",
		"query_length", len(req.Query),
		"response_length", len(resp.Response),
		"route", resp.Route,
	)
	return resp, nil
}

// Article looks up an article by number.
func (s *queryService) Article(ctx context.Context, number string) (QueryResponse, error) {
	number = strings.TrimSpace(number)
	if number == "" || !isDigits(number) {
		return QueryResponse{}, &ValidationError{Field: "number", Message: "must be a positive integer"}
	}

	logger := contextutil.LoggerFromContext(ctx)
	answer, err := s.engine.Article(ctx, number)
	resp := fromAnswer(answer)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "article lookup failed", "number", number, "error", err)
		return resp, fmt.Errorf("article %s: %w: %w", number, ErrStoreUnavailable, err)
	case !resp.UsedKnowledgeBase:
		logger.InfoContext(ctx, "article not found", "number", number)
		return resp, fmt.Errorf("%s: %w", number, ErrArticleNotFound)
	}
	return resp, nil
}

// Theme lists articles by theme.
func (s *queryService) Theme(ctx context.Context, theme, subtheme string) (string, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return "", &ValidationError{Field: "theme", Message: "cannot be empty"}
	}
	text, err := s.engine.Theme(ctx, theme, strings.TrimSpace(subtheme))
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list theme", "theme", theme, "error", err)
		return "", WrapError(err, "failed to list theme")
	}
	return text, nil
}

// EndSession forgets a conversation.
func (s *queryService) EndSession(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "session_id", Message: "cannot be empty"}
	}
	if !s.engine.EndSession(id) {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "session ended", "session_id", id)
	return nil
}

func fromAnswer(a rag.AnswerResponse) QueryResponse {
	return QueryResponse{
		Response:          trailingUndefined.ReplaceAllString(a.Response, ""),
		Similarity:        a.Similarity,
		UsedKnowledgeBase: a.UsedKnowledgeBase,
		Route:             string(a.Route),
		SessionID:         a.SessionID,
	}
}

func normalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", &ValidationError{Field: "format", Message: fmt.Sprintf("unsupported format %q", format)}
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
