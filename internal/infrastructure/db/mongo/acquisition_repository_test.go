package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/placebadges/acquisition/internal/core/domain"
)

type stubInserter struct {
	docs []interface{}
	err  error
}

func (s *stubInserter) InsertOne(_ context.Context, doc interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.docs = append(s.docs, doc)
	return &mongo.InsertOneResult{InsertedID: len(s.docs)}, nil
}

func TestAcquisitionRepository_InsertAcquisition(t *testing.T) {
	coll := &stubInserter{}
	repo := NewAcquisitionRepositoryWith(coll)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entry := domain.AcquisitionEntry{
		Place: domain.PlaceRecord{
			Name:          "Mountain View",
			Country:       "United States",
			Region:        domain.RegionAround(37.422, -122.084, 0.01),
			SourceReading: domain.PositionReading{Latitude: 37.422, Longitude: -122.084, TimestampMillis: 1000, ProviderAvailable: true},
		},
		AcquiredAt: at,
	}
	if err := repo.InsertAcquisition(context.Background(), entry); err != nil {
		t.Fatalf("InsertAcquisition: %v", err)
	}

	if len(coll.docs) != 1 {
		t.Fatalf("expected one document, got %d", len(coll.docs))
	}
	doc := coll.docs[0].(bson.M)
	if doc["name"] != "Mountain View" || doc["country"] != "United States" {
		t.Errorf("unexpected document %v", doc)
	}
	if got, _ := doc["acquired_at"].(time.Time); !got.Equal(at) {
		t.Errorf("expected acquired_at %v, got %v", at, doc["acquired_at"])
	}
}

func TestAcquisitionRepository_OmitsUnknownCountry(t *testing.T) {
	coll := &stubInserter{}
	repo := NewAcquisitionRepositoryWith(coll)

	if err := repo.InsertAcquisition(context.Background(), domain.AcquisitionEntry{Place: domain.PlaceRecord{Name: "Null Island"}}); err != nil {
		t.Fatal(err)
	}
	if _, ok := coll.docs[0].(bson.M)["country"]; ok {
		t.Errorf("expected no country field")
	}
}

func TestAcquisitionRepository_InsertError(t *testing.T) {
	repo := NewAcquisitionRepositoryWith(&stubInserter{err: errors.New("no primary")})

	if err := repo.InsertAcquisition(context.Background(), domain.AcquisitionEntry{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestConnect_DisabledWithoutURI(t *testing.T) {
	if _, _, err := Connect(context.Background(), Config{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestAcquisitionIndexes(t *testing.T) {
	idx := acquisitionIndexes()
	if len(idx) != 2 {
		t.Fatalf("expected two indexes, got %d", len(idx))
	}
	if keys := idx[0].Keys.(bson.D); keys[0].Key != "acquired_at" || keys[0].Value != -1 {
		t.Errorf("unexpected first index %v", keys)
	}
	if name := idx[1].Options.Name; name == nil || *name != "name_country" {
		t.Errorf("unexpected second index name %v", name)
	}
}

func TestClientOptions(t *testing.T) {
	opts := clientOptions(Config{URI: "mongodb://localhost:27017", Timeout: 3 * time.Second})

	if opts.AppName == nil || *opts.AppName != "placebadges" {
		t.Errorf("expected app name to be set")
	}
	if opts.ServerSelectionTimeout == nil || *opts.ServerSelectionTimeout != 3*time.Second {
		t.Errorf("expected server selection timeout of 3s, got %v", opts.ServerSelectionTimeout)
	}
	if opts.RetryWrites == nil || *opts.RetryWrites {
		t.Errorf("expected retryable writes to be off")
	}
}
