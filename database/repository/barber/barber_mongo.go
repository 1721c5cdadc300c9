package barberRepo

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

// MongoBarberRepo implements Repository using MongoDB.
type MongoBarberRepo struct {
	barbers  *mongo.Collection
	services *mongo.Collection
}

// NewMongoBarberRepo creates a new barber repository.
func NewMongoBarberRepo() Repository {
	repo := &MongoBarberRepo{
		barbers:  database.Collection("barbers"),
		services: database.Collection("services"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create barber indexes: %v\n", err)
	}
	return repo
}

func (r *MongoBarberRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	barberIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "city", Value: 1}}},
	}
	if _, err := r.barbers.Indexes().CreateMany(ctx, barberIndexes); err != nil {
		return fmt.Errorf("failed to create barber indexes: %w", err)
	}

	// Service names are unique within one barber.
	serviceIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "barberId", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.services.Indexes().CreateMany(ctx, serviceIndexes); err != nil {
		return fmt.Errorf("failed to create service indexes: %w", err)
	}
	return nil
}

func (r *MongoBarberRepo) Insert(ctx context.Context, barber *models.Barber) error {
	if _, err := r.barbers.InsertOne(ctx, barber); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewConflictError("a barber profile already exists for this user")
		}
		return utils.NewInternalError("failed to insert barber: %v", err)
	}
	return nil
}

func (r *MongoBarberRepo) GetByID(ctx context.Context, id string) (*models.Barber, error) {
	var barber models.Barber
	err := r.barbers.FindOne(ctx, bson.M{"id": id}).Decode(&barber)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("barber %s not found", id)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch barber %s: %v", id, err)
	}
	return &barber, nil
}

func (r *MongoBarberRepo) GetByUserID(ctx context.Context, userID string) (*models.Barber, error) {
	var barber models.Barber
	err := r.barbers.FindOne(ctx, bson.M{"userId": userID}).Decode(&barber)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("no barber profile for user %s", userID)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch barber by user: %v", err)
	}
	return &barber, nil
}

func (r *MongoBarberRepo) Update(ctx context.Context, barber *models.Barber) error {
	barber.UpdatedAt = time.Now()
	res, err := r.barbers.ReplaceOne(ctx, bson.M{"id": barber.ID}, barber)
	if err != nil {
		return utils.NewInternalError("failed to update barber %s: %v", barber.ID, err)
	}
	if res.MatchedCount == 0 {
		return utils.NewNotFoundError("barber %s not found", barber.ID)
	}
	return nil
}

func (r *MongoBarberRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	update := bson.M{"$set": bson.M{"isVerified": verified, "updatedAt": time.Now()}}
	if _, err := r.barbers.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return utils.NewInternalError("failed to set verified on barber %s: %v", id, err)
	}
	return nil
}

func (r *MongoBarberRepo) SetRating(ctx context.Context, id string, rating float64, count int) error {
	update := bson.M{"$set": bson.M{"rating": rating, "ratingCount": count, "updatedAt": time.Now()}}
	if _, err := r.barbers.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return utils.NewInternalError("failed to set rating on barber %s: %v", id, err)
	}
	return nil
}

func (r *MongoBarberRepo) List(ctx context.Context, city string, verifiedOnly bool) ([]models.Barber, error) {
	filter := bson.M{}
	if city != "" {
		filter["city"] = city
	}
	if verifiedOnly {
		filter["isVerified"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}})
	cursor, err := r.barbers.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewInternalError("failed to list barbers: %v", err)
	}
	defer cursor.Close(ctx)

	var barbers []models.Barber
	if err := cursor.All(ctx, &barbers); err != nil {
		return nil, utils.NewInternalError("failed to decode barbers: %v", err)
	}
	return barbers, nil
}

func (r *MongoBarberRepo) TopRated(ctx context.Context, limit int) ([]models.Barber, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "ratingCount", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.barbers.Find(ctx, bson.M{"ratingCount": bson.M{"$gt": 0}}, opts)
	if err != nil {
		return nil, utils.NewInternalError("failed to list top barbers: %v", err)
	}
	defer cursor.Close(ctx)

	var barbers []models.Barber
	if err := cursor.All(ctx, &barbers); err != nil {
		return nil, utils.NewInternalError("failed to decode barbers: %v", err)
	}
	return barbers, nil
}

func (r *MongoBarberRepo) InsertService(ctx context.Context, svc *models.Service) error {
	if _, err := r.services.InsertOne(ctx, svc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewConflictError("service %q already exists for this barber", svc.Name)
		}
		return utils.NewInternalError("failed to insert service: %v", err)
	}
	return nil
}

func (r *MongoBarberRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	err := r.services.FindOne(ctx, bson.M{"id": id}).Decode(&svc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("service %s not found", id)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch service %s: %v", id, err)
	}
	return &svc, nil
}

func (r *MongoBarberRepo) UpdateService(ctx context.Context, svc *models.Service) error {
	svc.UpdatedAt = time.Now()
	res, err := r.services.ReplaceOne(ctx, bson.M{"id": svc.ID}, svc)
	if err != nil {
		return utils.NewInternalError("failed to update service %s: %v", svc.ID, err)
	}
	if res.MatchedCount == 0 {
		return utils.NewNotFoundError("service %s not found", svc.ID)
	}
	return nil
}

func (r *MongoBarberRepo) ListServices(ctx context.Context, barberID string, activeOnly bool) ([]models.Service, error) {
	filter := bson.M{"barberId": barberID}
	if activeOnly {
		filter["active"] = true
	}
	cursor, err := r.services.Find(ctx, filter)
	if err != nil {
		return nil, utils.NewInternalError("failed to list services for barber %s: %v", barberID, err)
	}
	defer cursor.Close(ctx)

	var services []models.Service
	if err := cursor.All(ctx, &services); err != nil {
		return nil, utils.NewInternalError("failed to decode services: %v", err)
	}
	return services, nil
}
