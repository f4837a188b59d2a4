// Package qdrant adapts a Qdrant collection to the core.VectorSearcher
// contract so a CachedSearcher can front it. Partition residency, filter
// evaluation, and distance computation all happen inside Qdrant; this
// adapter only translates requests and results.
package qdrant

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/dshills/searchcache/core"
)

// Backend searches a single Qdrant collection over gRPC.
//
// The distance metric in Qdrant is a collection-level property fixed at
// collection creation; the metric carried on each SearchRequest is
// validated but not re-applied per call. Deployments must configure the
// searcher with the metric the collection was created with.
type Backend struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
}

// New connects to a Qdrant instance and returns a backend bound to the
// named collection.
func New(addr, collection string) (*Backend, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name cannot be empty")
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s: %w", addr, err)
	}

	return &Backend{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: collection,
	}, nil
}

// FindNearest performs the delegated nearest-neighbor search.
func (b *Backend) FindNearest(ctx context.Context, req core.SearchRequest) ([]core.SearchResult, error) {
	if err := core.ValidateQuery(req.Query); err != nil {
		return nil, err
	}
	if !req.DistanceMetric.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidDistance, req.DistanceMetric)
	}

	search := &pb.SearchPoints{
		CollectionName: b.collection,
		Vector:         req.Query,
		Limit:          uint64(req.TopK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		Filter:         buildFilter(req.Filter),
	}

	if req.Probes > 0 {
		// Probes maps to the HNSW exploration breadth.
		ef := uint64(req.Probes)
		search.Params = &pb.SearchParams{HnswEf: &ef}
	}

	resp, err := b.points.Search(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := make([]core.SearchResult, len(resp.Result))
	for i, point := range resp.Result {
		results[i] = core.SearchResult{
			ID:       pointID(point.Id),
			Score:    point.Score,
			Metadata: payloadToMetadata(point.Payload),
		}
	}

	return results, nil
}

// Close releases the gRPC connection. Called by whoever constructed the
// backend, never by the caching facade.
func (b *Backend) Close() error {
	return b.conn.Close()
}

// buildFilter converts key/value conditions into a conjunctive Qdrant
// payload filter. Nil when no conditions are present.
func buildFilter(filter map[string]string) *pb.Filter {
	if len(filter) == 0 {
		return nil
	}

	must := make([]*pb.Condition, 0, len(filter))
	for key, value := range filter {
		must = append(must, &pb.Condition{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key: key,
					Match: &pb.Match{
						MatchValue: &pb.Match_Keyword{Keyword: value},
					},
				},
			},
		})
	}

	return &pb.Filter{Must: must}
}

// pointID renders either ID representation Qdrant uses.
func pointID(id *pb.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// payloadToMetadata flattens the payload into string metadata. Nested
// payload structures are skipped rather than guessed at.
func payloadToMetadata(payload map[string]*pb.Value) map[string]string {
	if len(payload) == 0 {
		return nil
	}

	meta := make(map[string]string, len(payload))
	for key, value := range payload {
		switch v := value.GetKind().(type) {
		case *pb.Value_StringValue:
			meta[key] = v.StringValue
		case *pb.Value_IntegerValue:
			meta[key] = strconv.FormatInt(v.IntegerValue, 10)
		case *pb.Value_DoubleValue:
			meta[key] = strconv.FormatFloat(v.DoubleValue, 'f', -1, 64)
		case *pb.Value_BoolValue:
			meta[key] = strconv.FormatBool(v.BoolValue)
		}
	}

	if len(meta) == 0 {
		return nil
	}
	return meta
}
