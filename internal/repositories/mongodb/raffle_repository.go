package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lotsaero/rifa-backend/internal/models"
	"github.com/lotsaero/rifa-backend/internal/repositories"
)

// RaffleRepository implements repositories.RaffleRepository on top of
// a MongoDB collection holding one document per raffle instance.
type RaffleRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

// NewRaffleRepository creates a new RaffleRepository
func NewRaffleRepository(db *mongo.Database, logger zerolog.Logger) repositories.RaffleRepository {
	return &RaffleRepository{
		collection: db.Collection("rifas"),
		logger:     logger.With().Str("component", "raffle_repository").Logger(),
	}
}

// Get returns the raffle document, or repositories.ErrNotFound
func (r *RaffleRepository) Get(ctx context.Context, raffleID string) (*models.RaffleDocument, error) {
	var doc models.RaffleDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": raffleID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	if doc.SoldNumbers == nil {
		doc.SoldNumbers = []int{}
	}
	if doc.ReservedNumbers == nil {
		doc.ReservedNumbers = []int{}
	}
	if doc.ReservationTimestamps == nil {
		doc.ReservationTimestamps = map[string]int64{}
	}
	return &doc, nil
}

// Create inserts a new raffle document
func (r *RaffleRepository) Create(ctx context.Context, doc *models.RaffleDocument) error {
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

// Replace overwrites the whole raffle document. There is no version
// check; concurrent writers race at document granularity.
func (r *RaffleRepository) Replace(ctx context.Context, doc *models.RaffleDocument) error {
	doc.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

// Watch opens a change stream on the raffle document and delivers the
// full document after every remote write. The returned channel is
// closed when ctx is cancelled or the stream fails.
func (r *RaffleRepository) Watch(ctx context.Context, raffleID string) (<-chan *models.RaffleDocument, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"documentKey._id": raffleID}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	out := make(chan *models.RaffleDocument, 8)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var event struct {
				FullDocument *models.RaffleDocument `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				r.logger.Error().Err(err).Msg("failed to decode change stream event")
				continue
			}
			if event.FullDocument == nil {
				// Delete events carry no full document; skip them
				continue
			}
			select {
			case out <- event.FullDocument:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error().Err(err).Msg("change stream terminated")
		}
	}()

	return out, nil
}
