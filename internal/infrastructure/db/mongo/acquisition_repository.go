package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/placebadges/acquisition/internal/core/domain"
)

const acquisitionsCollection = "place_acquisitions"

// Inserter is the subset of *mongo.Collection used by AcquisitionRepository.
type Inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// AcquisitionRepository implements ports.AcquisitionLog using MongoDB. The
// collection is an append-only audit trail; nothing reads it back.
type AcquisitionRepository struct {
	coll Inserter
}

// NewAcquisitionRepository creates a repository on db.place_acquisitions.
func NewAcquisitionRepository(db *mongo.Database) *AcquisitionRepository {
	return &AcquisitionRepository{coll: db.Collection(acquisitionsCollection)}
}

// NewAcquisitionRepositoryWith uses coll directly.
func NewAcquisitionRepositoryWith(coll Inserter) *AcquisitionRepository {
	return &AcquisitionRepository{coll: coll}
}

// acquisitionDocument builds the stored form of entry.
func acquisitionDocument(entry domain.AcquisitionEntry) bson.M {
	p := entry.Place
	doc := bson.M{
		"name": p.Name,
		"region": bson.M{
			"min_lat": p.Region.MinLat,
			"max_lat": p.Region.MaxLat,
			"min_lon": p.Region.MinLon,
			"max_lon": p.Region.MaxLon,
		},
		"reading": bson.M{
			"lat":                p.SourceReading.Latitude,
			"lng":                p.SourceReading.Longitude,
			"timestamp":          time.UnixMilli(p.SourceReading.TimestampMillis).UTC(),
			"provider_available": p.SourceReading.ProviderAvailable,
		},
		"acquired_at": entry.AcquiredAt.UTC(),
	}
	if p.HasCountry() {
		doc["country"] = p.Country
	}
	return doc
}

// EnsureIndexes creates the acquired_at and name indexes used when the audit
// trail is inspected by hand. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(acquisitionsCollection).Indexes().CreateMany(ctx, acquisitionIndexes())
	if err != nil {
		return fmt.Errorf("create acquisition indexes: %w", err)
	}
	return nil
}

func acquisitionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "acquired_at", Value: -1}}, Options: options.Index().SetName("acquired_at_desc")},
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "country", Value: 1}}, Options: options.Index().SetName("name_country")},
	}
}

// InsertAcquisition appends entry to the audit collection.
func (r *AcquisitionRepository) InsertAcquisition(ctx context.Context, entry domain.AcquisitionEntry) error {
	if _, err := r.coll.InsertOne(ctx, acquisitionDocument(entry)); err != nil {
		return fmt.Errorf("insert acquisition: %w", err)
	}
	return nil
}
