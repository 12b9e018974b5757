package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"azusena/internal/contextutil"
)

// QdrantStore implements VectorStore on Qdrant. Queries go through name,
// an alias pointing at the collection of the latest promoted build. Each
// build is written to its own collection and the alias is switched in one
// request.
type QdrantStore struct {
	client *qdrant.Client
	name   string
	// staged marks a build collection, which is addressed directly.
	staged bool
}

// NewQdrantStore creates a new Qdrant vector store client bound to collection.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantStore(urlStr, collection string) (*QdrantStore, error) {
	host, port, err := grpcEndpoint(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client: client,
		name:   collection,
	}, nil
}

// grpcEndpoint derives the gRPC host and port from the Qdrant HTTP URL.
func grpcEndpoint(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// served returns the collection currently behind the store name, or "" when
// nothing has been built. A plain collection named like the alias is served
// as is.
func (s *QdrantStore) served(ctx context.Context) (string, error) {
	if !s.staged {
		aliases, err := s.client.ListAliases(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list aliases: %w", err)
		}
		for _, a := range aliases {
			if a.GetAliasName() == s.name {
				return a.GetCollectionName(), nil
			}
		}
	}

	exists, err := s.client.CollectionExists(ctx, s.name)
	if err != nil {
		return "", fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return "", nil
	}
	return s.name, nil
}

// Stage creates a build collection with a cosine distance over dim-sized vectors.
func (s *QdrantStore) Stage(ctx context.Context, dim int) (VectorStore, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if dim <= 0 {
		return nil, fmt.Errorf("vector size must be greater than 0")
	}

	build := fmt.Sprintf("%s_%d", s.name, time.Now().UnixNano())
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: build,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	logger.InfoContext(ctx, "build collection created", "collection", build, "vector_size", dim)
	return &QdrantStore{client: s.client, name: build, staged: true}, nil
}

// Promote points the alias at the staged collection and drops the one it
// replaced. A nil staged store removes the alias and its collection.
func (s *QdrantStore) Promote(ctx context.Context, staged VectorStore) error {
	logger := contextutil.LoggerFromContext(ctx)

	var next string
	if staged != nil {
		st, ok := staged.(*QdrantStore)
		if !ok || !st.staged {
			return fmt.Errorf("qdrant store cannot promote %T: %w", staged, ErrForeignStore)
		}
		next = st.name
	}

	previous, err := s.served(ctx)
	if err != nil {
		return err
	}

	var actions []*qdrant.AliasOperations
	switch previous {
	case "":
	case s.name:
		// A collection cannot share the alias name, so this one switch is not atomic.
		logger.WarnContext(ctx, "replacing plain collection with an alias", "collection", s.name)
		if err := s.client.DeleteCollection(ctx, s.name); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		previous = ""
	default:
		actions = append(actions, qdrant.NewAliasDelete(s.name))
	}
	if next != "" {
		actions = append(actions, qdrant.NewAliasCreate(s.name, next))
	}

	if len(actions) > 0 {
		if err := s.client.UpdateAliases(ctx, actions); err != nil {
			return fmt.Errorf("failed to switch alias: %w", err)
		}
	}
	logger.InfoContext(ctx, "collection promoted", "alias", s.name, "collection", next, "previous", previous)

	if previous != "" && previous != next {
		if err := s.client.DeleteCollection(ctx, previous); err != nil {
			logger.WarnContext(ctx, "failed to delete replaced collection", "collection", previous, "error", err)
		}
	}
	return nil
}

// Discard deletes a build collection.
func (s *QdrantStore) Discard(ctx context.Context, staged VectorStore) error {
	st, ok := staged.(*QdrantStore)
	if !ok || !st.staged {
		return fmt.Errorf("qdrant store cannot discard %T: %w", staged, ErrForeignStore)
	}
	if err := s.client.DeleteCollection(ctx, st.name); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

// Upsert inserts or updates points in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		qdrantPoint := &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vec...),
		}

		if len(point.Meta) > 0 {
			qdrantPoint.Payload = qdrant.NewValueMap(point.Meta)
		}

		qdrantPoints = append(qdrantPoints, qdrantPoint)
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.name,
		Wait:           &wait,
		Points:         qdrantPoints,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", s.name, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", s.name, "count", len(points))
	return nil
}

// Search returns the k nearest points.
func (s *QdrantStore) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	served, err := s.served(ctx)
	if err != nil {
		return nil, err
	}
	if served == "" {
		return []SearchResult{}, nil
	}

	limit := uint64(k)
	scoredPoints, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.name,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", s.name, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scoredPoints))
	for _, result := range scoredPoints {
		pointID := ""
		if result.Id != nil {
			pointID = result.Id.GetUuid()
		}

		meta := make(map[string]any)
		if result.Payload != nil {
			meta = convertPayloadToMap(result.Payload)
		}

		results = append(results, SearchResult{
			PointID: pointID,
			Score:   result.Score,
			Meta:    meta,
		})
	}

	logger.DebugContext(ctx, "search completed", "collection", s.name, "k", k, "results", len(results))
	return results, nil
}

// Count returns the exact number of points, or 0 when the collection does not exist.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	served, err := s.served(ctx)
	if err != nil {
		return 0, err
	}
	if served == "" {
		return 0, nil
	}

	exact := true
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.name,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(count), nil
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
