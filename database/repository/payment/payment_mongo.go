package paymentRepo

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

// MongoPaymentRepo implements Repository using MongoDB.
type MongoPaymentRepo struct {
	payments *mongo.Collection
	refunds  *mongo.Collection
}

// NewMongoPaymentRepo creates a new payment repository.
func NewMongoPaymentRepo() Repository {
	repo := &MongoPaymentRepo{
		payments: database.Collection("payments"),
		refunds:  database.Collection("refunds"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create payment indexes: %v\n", err)
	}
	return repo
}

func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// (provider, providerRef) is unique once assigned; the partial filter
	// skips payments whose session creation has not completed yet.
	paymentIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "appointmentId", Value: 1}}},
		{
			Keys: bson.D{{Key: "provider", Value: 1}, {Key: "providerRef", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"providerRef": bson.M{"$type": "string"}},
			),
		},
	}
	if _, err := r.payments.Indexes().CreateMany(ctx, paymentIndexes); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}

	refundIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "paymentId", Value: 1}}},
	}
	if _, err := r.refunds.Indexes().CreateMany(ctx, refundIndexes); err != nil {
		return fmt.Errorf("failed to create refund indexes: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) Insert(ctx context.Context, payment *models.Payment) error {
	if _, err := r.payments.InsertOne(ctx, payment); err != nil {
		return utils.NewInternalError("failed to insert payment: %v", err)
	}
	return nil
}

func (r *MongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.payments.FindOne(ctx, bson.M{"id": id}).Decode(&payment)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("payment %s not found", id)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch payment %s: %v", id, err)
	}
	return &payment, nil
}

func (r *MongoPaymentRepo) GetByProviderRef(ctx context.Context, provider, providerRef string) (*models.Payment, error) {
	var payment models.Payment
	err := r.payments.FindOne(ctx, bson.M{"provider": provider, "providerRef": providerRef}).Decode(&payment)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("no payment with ref %s for provider %s", providerRef, provider)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch payment by ref: %v", err)
	}
	return &payment, nil
}

func (r *MongoPaymentRepo) SetProviderRef(ctx context.Context, id, providerRef string) error {
	update := bson.M{"$set": bson.M{"providerRef": providerRef, "updatedAt": time.Now()}}
	if _, err := r.payments.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return utils.NewInternalError("failed to set provider ref on payment %s: %v", id, err)
	}
	return nil
}

func (r *MongoPaymentRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	filter := bson.M{"id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}

	res, err := r.payments.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewInternalError("failed to transition payment %s to %s: %v", id, to, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoPaymentRepo) MergeMetadata(ctx context.Context, id string, metadata map[string]string) error {
	if len(metadata) == 0 {
		return nil
	}
	set := bson.M{"updatedAt": time.Now()}
	for k, v := range metadata {
		set["metadata."+k] = v
	}
	if _, err := r.payments.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set}); err != nil {
		return utils.NewInternalError("failed to merge metadata on payment %s: %v", id, err)
	}
	return nil
}

func (r *MongoPaymentRepo) InsertRefund(ctx context.Context, refund *models.Refund) error {
	if _, err := r.refunds.InsertOne(ctx, refund); err != nil {
		return utils.NewInternalError("failed to insert refund: %v", err)
	}
	return nil
}

func (r *MongoPaymentRepo) UpdateRefund(ctx context.Context, id, status, providerRef string) error {
	set := bson.M{"status": status, "updatedAt": time.Now()}
	if providerRef != "" {
		set["providerRef"] = providerRef
	}
	if _, err := r.refunds.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set}); err != nil {
		return utils.NewInternalError("failed to update refund %s: %v", id, err)
	}
	return nil
}

func (r *MongoPaymentRepo) ListRefunds(ctx context.Context, paymentID string) ([]models.Refund, error) {
	cursor, err := r.refunds.Find(ctx, bson.M{"paymentId": paymentID})
	if err != nil {
		return nil, utils.NewInternalError("failed to list refunds for payment %s: %v", paymentID, err)
	}
	defer cursor.Close(ctx)

	var refunds []models.Refund
	if err := cursor.All(ctx, &refunds); err != nil {
		return nil, utils.NewInternalError("failed to decode refunds: %v", err)
	}
	return refunds, nil
}

func (r *MongoPaymentRepo) SumPaid(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$in": bson.A{models.PaymentPaid, models.PaymentRefunded}}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}
	cursor, err := r.payments.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, utils.NewInternalError("failed to sum payments: %v", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, utils.NewInternalError("failed to decode payment sum: %v", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
