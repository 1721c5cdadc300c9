package userRepo

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

// MongoUserRepo implements Repository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new user repository.
func NewMongoUserRepo() Repository {
	repo := &MongoUserRepo{coll: database.Collection("users")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create user indexes: %v\n", err)
	}
	return repo
}

// ensureIndexes enforces at most one user per email and per mobile number.
func (r *MongoUserRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "mobile", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) Insert(ctx context.Context, user *models.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewConflictError("an account with this email or mobile already exists")
		}
		return utils.NewInternalError("failed to insert user: %v", err)
	}
	return nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("user %s not found", id)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch user %s: %v", id, err)
	}
	return &user, nil
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("no user with email %s", email)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch user by email: %v", err)
	}
	return &user, nil
}

func (r *MongoUserRepo) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": user.ID}, user)
	if err != nil {
		return utils.NewInternalError("failed to update user %s: %v", user.ID, err)
	}
	if res.MatchedCount == 0 {
		return utils.NewNotFoundError("user %s not found", user.ID)
	}
	return nil
}

func (r *MongoUserRepo) UpdateRole(ctx context.Context, id, role string) error {
	update := bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return utils.NewInternalError("failed to update role of user %s: %v", id, err)
	}
	return nil
}

func (r *MongoUserRepo) SetStatus(ctx context.Context, id, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return utils.NewInternalError("failed to set status of user %s: %v", id, err)
	}
	return nil
}

func (r *MongoUserRepo) SetMobileVerified(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"mobileVerified": true, "updatedAt": time.Now()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return utils.NewInternalError("failed to mark mobile verified for user %s: %v", id, err)
	}
	return nil
}

func (r *MongoUserRepo) IncrementFailedLogins(ctx context.Context, id string) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$inc": bson.M{"failedLogins": 1}, "$set": bson.M{"updatedAt": time.Now()}}

	var user models.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&user); err != nil {
		return 0, utils.NewInternalError("failed to increment failed logins for user %s: %v", id, err)
	}
	return user.FailedLogins, nil
}

func (r *MongoUserRepo) ResetFailedLogins(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"failedLogins": 0, "updatedAt": time.Now()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return utils.NewInternalError("failed to reset failed logins for user %s: %v", id, err)
	}
	return nil
}

func (r *MongoUserRepo) AddDeviceToken(ctx context.Context, id, token string) error {
	update := bson.M{"$addToSet": bson.M{"deviceTokens": token}, "$set": bson.M{"updatedAt": time.Now()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return utils.NewInternalError("failed to add device token for user %s: %v", id, err)
	}
	return nil
}

func (r *MongoUserRepo) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, utils.NewInternalError("failed to count users: %v", err)
	}
	return count, nil
}
