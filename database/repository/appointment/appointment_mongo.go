package appointmentRepo

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

// MongoAppointmentRepo implements Repository using MongoDB.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo creates a new appointment repository.
func NewMongoAppointmentRepo() Repository {
	repo := &MongoAppointmentRepo{coll: database.Collection("appointments")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create appointment indexes: %v\n", err)
	}
	return repo
}

func (r *MongoAppointmentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "barberId", Value: 1}, {Key: "date", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoAppointmentRepo) Insert(ctx context.Context, appt *models.Appointment) error {
	if _, err := r.coll.InsertOne(ctx, appt); err != nil {
		return utils.NewInternalError("failed to insert appointment: %v", err)
	}
	return nil
}

func (r *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&appt)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("appointment %s not found", id)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch appointment %s: %v", id, err)
	}
	return &appt, nil
}

func (r *MongoAppointmentRepo) TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewInternalError("failed to transition appointment %s to %s: %v", id, to, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoAppointmentRepo) TransitionPaymentStatus(ctx context.Context, id, from, to string) (bool, error) {
	filter := bson.M{"id": id, "paymentStatus": from}
	update := bson.M{"$set": bson.M{"paymentStatus": to, "updatedAt": time.Now()}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewInternalError("failed to set payment status of %s to %s: %v", id, to, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoAppointmentRepo) Reschedule(ctx context.Context, id, date string, start, end int) (bool, error) {
	filter := bson.M{"id": id, "status": models.ApptPending}
	update := bson.M{
		"$set": bson.M{"date": date, "start": start, "end": end, "updatedAt": time.Now()},
		"$inc": bson.M{"rescheduleCount": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewInternalError("failed to reschedule appointment %s: %v", id, err)
	}
	return res.ModifiedCount > 0, nil
}

// AppendNote concatenates a line onto notes via a pipeline update.
func (r *MongoAppointmentRepo) AppendNote(ctx context.Context, id, note string) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"notes": bson.M{"$cond": bson.M{
				"if":   bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$notes", ""}}, ""}},
				"then": note,
				"else": bson.M{"$concat": bson.A{"$notes", " | ", note}},
			}},
			"updatedAt": time.Now(),
		}}},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, pipeline); err != nil {
		return utils.NewInternalError("failed to append note to appointment %s: %v", id, err)
	}
	return nil
}

func (r *MongoAppointmentRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "start", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"customerId": customerID}, opts)
	if err != nil {
		return nil, utils.NewInternalError("failed to list appointments for customer %s: %v", customerID, err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, utils.NewInternalError("failed to decode appointments: %v", err)
	}
	return appts, nil
}

func (r *MongoAppointmentRepo) ListByBarberDate(ctx context.Context, barberID, date string) ([]models.Appointment, error) {
	filter := bson.M{"barberId": barberID}
	if date != "" {
		filter["date"] = date
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewInternalError("failed to list appointments for barber %s: %v", barberID, err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, utils.NewInternalError("failed to decode appointments: %v", err)
	}
	return appts, nil
}

func (r *MongoAppointmentRepo) HasCompleted(ctx context.Context, customerID, barberID string) (bool, error) {
	filter := bson.M{"customerId": customerID, "barberId": barberID, "status": models.ApptCompleted}
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, utils.NewInternalError("failed to check completed appointments: %v", err)
	}
	return count > 0, nil
}

func (r *MongoAppointmentRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, utils.NewInternalError("failed to count appointments by status: %v", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, utils.NewInternalError("failed to decode status counts: %v", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
