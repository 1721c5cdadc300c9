package notificationRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/tilak5758/barber-salon-backend/database"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationRepo implements Repository using MongoDB.
type MongoNotificationRepo struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepo creates a new notification repository.
func NewMongoNotificationRepo() Repository {
	repo := &MongoNotificationRepo{coll: database.Collection("notifications")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create notification indexes: %v\n", err)
	}
	return repo
}

func (r *MongoNotificationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return utils.NewInternalError("failed to insert notification: %v", err)
	}
	return nil
}

func (r *MongoNotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, utils.NewInternalError("failed to list notifications for user %s: %v", userID, err)
	}
	defer cursor.Close(ctx)

	var items []models.Notification
	if err := cursor.All(ctx, &items); err != nil {
		return nil, utils.NewInternalError("failed to decode notifications: %v", err)
	}
	return items, nil
}

func (r *MongoNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	filter := bson.M{"id": id, "userId": userID}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return utils.NewInternalError("failed to mark notification %s read: %v", id, err)
	}
	if res.MatchedCount == 0 {
		return utils.NewNotFoundError("notification %s not found", id)
	}
	return nil
}
