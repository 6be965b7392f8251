package qdrant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

// Payload keys. Filterable keys share their names with filter conditions.
const (
	payloadDocID          = "doc_id"
	payloadText           = "text"
	payloadDomain         = filter.FieldDomain
	payloadSourceType     = filter.FieldSourceType
	payloadClassification = filter.FieldClassification
	payloadSourcePath     = "source_path"
	payloadSourceSystem   = "source_system"
)

// indexedFields get keyword payload indexes so filtered searches stay cheap.
var indexedFields = []string{payloadDomain, payloadSourceType, payloadClassification}

// pointIDSpace namespaces document IDs when deriving point UUIDs.
var pointIDSpace = uuid.MustParse("6f1c2a1e-9d0b-4c43-8a55-3e2f7b8c9d10")

type pointsClient interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Count(ctx context.Context, in *pb.CountPoints, opts ...grpc.CallOption) (*pb.CountResponse, error)
	CreateFieldIndex(ctx context.Context, in *pb.CreateFieldIndexCollection, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
}

type collectionsClient interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// Store keeps the corpus in a single Qdrant collection.
type Store struct {
	conn        *grpc.ClientConn
	points      pointsClient
	collections collectionsClient
	collection  string
}

// New connects to Qdrant at the given gRPC address.
func New(addr, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients builds a Store over existing clients.
func NewWithClients(points pointsClient, collections collectionsClient, collection string) *Store {
	return &Store{points: points, collections: collections, collection: collection}
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// EnsureIndex creates the collection and payload indexes if the collection is missing.
func (s *Store) EnsureIndex(ctx context.Context, vc domain.VectorConfig) error {
	if vc.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrVectorDimMismatch)
	}
	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	distance, err := distanceFor(vc.DistanceMetric)
	if err != nil {
		return err
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(vc.Dimensions),
					Distance: distance,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}

	wait := true
	keyword := pb.FieldType_FieldTypeKeyword
	for _, field := range indexedFields {
		_, err := s.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: s.collection,
			Wait:           &wait,
			FieldName:      field,
			FieldType:      &keyword,
		})
		if err != nil {
			return fmt.Errorf("create %s payload index: %w", field, err)
		}
	}
	return nil
}

// Upsert stores a document as one point. The point ID is derived from the document ID.
func (s *Store) Upsert(ctx context.Context, doc document.Document, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for %s", domain.ErrVectorDimMismatch, doc.ID())
	}
	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(doc.ID())},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vector},
				},
			},
			Payload: payloadFor(doc),
		}},
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", doc.ID(), err)
	}
	return nil
}

// Search runs a similarity search with every filter condition as a keyword match.
// A missing collection is an empty corpus.
func (s *Store) Search(ctx context.Context, vector []float32, f filter.Filter, k int) ([]result.Match, error) {
	req := &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		Filter:         filterFor(f),
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return []result.Match{}, nil
		}
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	matches := make([]result.Match, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		matches = append(matches, result.New(documentFrom(p.GetPayload()), max(0, float64(p.GetScore()))))
	}
	return matches, nil
}

// Count returns the exact number of points in the collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{CollectionName: s.collection, Exact: &exact})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("count points: %w", err)
	}
	return int64(resp.GetResult().GetCount()), nil
}

// Ping lists collections to check connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.collections.List(ctx, &pb.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// PointID derives the stable point UUID for a document ID.
func PointID(docID string) string {
	return uuid.NewSHA1(pointIDSpace, []byte(docID)).String()
}

func (s *Store) exists(ctx context.Context) (bool, error) {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return true, nil
		}
	}
	return false, nil
}

func distanceFor(metric string) (pb.Distance, error) {
	switch strings.ToLower(metric) {
	case "", "cosine":
		return pb.Distance_Cosine, nil
	case "l2", "euclid":
		return pb.Distance_Euclid, nil
	case "ip", "dot":
		return pb.Distance_Dot, nil
	}
	return pb.Distance_UnknownDistance, fmt.Errorf("unknown distance metric: %s", metric)
}

func payloadFor(doc document.Document) map[string]*pb.Value {
	p := map[string]*pb.Value{
		payloadDocID:          stringValue(doc.ID()),
		payloadText:           stringValue(doc.Text()),
		payloadDomain:         stringValue(string(doc.Domain())),
		payloadSourceType:     stringValue(string(doc.SourceType())),
		payloadClassification: stringValue(string(doc.Classification())),
	}
	if v := doc.SourcePath(); v != "" {
		p[payloadSourcePath] = stringValue(v)
	}
	if v := doc.SourceSystem(); v != "" && v != doc.SourcePath() {
		p[payloadSourceSystem] = stringValue(v)
	}
	return p
}

func documentFrom(p map[string]*pb.Value) document.Document {
	get := func(k string) string { return p[k].GetStringValue() }
	return document.Reconstruct(
		get(payloadDocID),
		get(payloadText),
		taxonomy.Tag(get(payloadDomain)),
		taxonomy.SourceType(get(payloadSourceType)),
		taxonomy.Classification(get(payloadClassification)),
		get(payloadSourcePath),
		get(payloadSourceSystem),
	)
}

// filterFor returns nil for an unrestricted filter.
func filterFor(f filter.Filter) *pb.Filter {
	conds := f.Conditions()
	if len(conds) == 0 {
		return nil
	}
	must := make([]*pb.Condition, 0, len(conds))
	for _, c := range conds {
		must = append(must, fieldMatch(c.Field, c.Value))
	}
	return &pb.Filter{Must: must}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}
