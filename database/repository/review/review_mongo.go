package reviewRepo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tilak5758/barber-salon-backend/database"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReviewRepo implements Repository using MongoDB.
type MongoReviewRepo struct {
	coll *mongo.Collection
}

// NewMongoReviewRepo creates a new review repository.
func NewMongoReviewRepo() Repository {
	repo := &MongoReviewRepo{coll: database.Collection("reviews")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create review indexes: %v\n", err)
	}
	return repo
}

// ensureIndexes enforces at most one review per (barber, user) pair.
func (r *MongoReviewRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "barberId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoReviewRepo) Insert(ctx context.Context, review *models.Review) error {
	if _, err := r.coll.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewConflictError("you have already reviewed this barber")
		}
		return utils.NewInternalError("failed to insert review: %v", err)
	}
	return nil
}

func (r *MongoReviewRepo) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&review)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("review %s not found", id)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch review %s: %v", id, err)
	}
	return &review, nil
}

func (r *MongoReviewRepo) GetByBarberUser(ctx context.Context, barberID, userID string) (*models.Review, error) {
	var review models.Review
	err := r.coll.FindOne(ctx, bson.M{"barberId": barberID, "userId": userID}).Decode(&review)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("no review by user %s for barber %s", userID, barberID)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch review: %v", err)
	}
	return &review, nil
}

func (r *MongoReviewRepo) Update(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": review.ID}, review)
	if err != nil {
		return utils.NewInternalError("failed to update review %s: %v", review.ID, err)
	}
	if res.MatchedCount == 0 {
		return utils.NewNotFoundError("review %s not found", review.ID)
	}
	return nil
}

func (r *MongoReviewRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return utils.NewInternalError("failed to delete review %s: %v", id, err)
	}
	if res.DeletedCount == 0 {
		return utils.NewNotFoundError("review %s not found", id)
	}
	return nil
}

func (r *MongoReviewRepo) ListByBarber(ctx context.Context, barberID string) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"barberId": barberID}, opts)
	if err != nil {
		return nil, utils.NewInternalError("failed to list reviews for barber %s: %v", barberID, err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, utils.NewInternalError("failed to decode reviews: %v", err)
	}
	return reviews, nil
}

func (r *MongoReviewRepo) AggregateRating(ctx context.Context, barberID string) (float64, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"barberId": barberID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"mean":  bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, utils.NewInternalError("failed to aggregate rating for barber %s: %v", barberID, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Mean  float64 `bson:"mean"`
		Count int     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, utils.NewInternalError("failed to decode rating aggregate: %v", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return math.Round(rows[0].Mean*100) / 100, rows[0].Count, nil
}
