package availabilityRepo

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

// MongoAvailabilityRepo implements Repository using MongoDB. Slots are
// embedded in per-(barber, date) documents; reservation is a conditional
// UpdateOne against an $elemMatch filter so two concurrent reserves of the
// same slot can never both match.
type MongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo creates a new availability repository.
func NewMongoAvailabilityRepo() Repository {
	repo := &MongoAvailabilityRepo{coll: database.Collection("availability")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create availability indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// ensureIndexes creates the (barberId, date) key and the secondary index
// that keeps release-by-appointment O(1) instead of a ledger scan.
func (r *MongoAvailabilityRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "barberId", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slots.appointmentId", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoAvailabilityRepo) GetDay(ctx context.Context, barberID, date string) (*models.Availability, error) {
	var day models.Availability
	err := r.coll.FindOne(ctx, bson.M{"barberId": barberID, "date": date}).Decode(&day)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewNotFoundError("no availability for barber %s on %s", barberID, date)
	}
	if err != nil {
		return nil, utils.NewInternalError("failed to fetch availability: %v", err)
	}
	return &day, nil
}

func (r *MongoAvailabilityRepo) ReplaceDay(ctx context.Context, day *models.Availability) error {
	filter := bson.M{"barberId": day.BarberID, "date": day.Date}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, filter, day, opts); err != nil {
		return utils.NewInternalError("failed to replace availability: %v", err)
	}
	return nil
}

func (r *MongoAvailabilityRepo) FindOpenSlot(ctx context.Context, barberID, date string, start, end int) (*models.Slot, error) {
	day, err := r.GetDay(ctx, barberID, date)
	if err != nil {
		return nil, err
	}
	for i := range day.Slots {
		s := &day.Slots[i]
		if !s.IsBooked && s.Start <= start && s.End >= end {
			return s, nil
		}
	}
	return nil, utils.NewNotFoundError("no open slot containing [%d,%d) for barber %s on %s", start, end, barberID, date)
}

// Reserve flips one open slot to booked in a single conditional write. The
// filter matches only while an unbooked slot still contains [start,end); a
// losing racer matches nothing and observes slot-unavailable.
func (r *MongoAvailabilityRepo) Reserve(ctx context.Context, barberID, date string, start, end int, appointmentID string) error {
	filter := bson.M{
		"barberId": barberID,
		"date":     date,
		"slots": bson.M{
			"$elemMatch": bson.M{
				"start":    bson.M{"$lte": start},
				"end":      bson.M{"$gte": end},
				"isBooked": false,
			},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"slots.$.isBooked":      true,
			"slots.$.appointmentId": appointmentID,
		},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewInternalError("failed to reserve slot: %v", err)
	}
	if res.ModifiedCount == 0 {
		return utils.NewSlotUnavailableError("slot no longer available, please pick another")
	}
	return nil
}

func (r *MongoAvailabilityRepo) FindSlotByAppointment(ctx context.Context, appointmentID string) (*models.BookedSlotRef, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"slots.appointmentId": appointmentID}}},
		{{Key: "$unwind", Value: "$slots"}},
		{{Key: "$match", Value: bson.M{"slots.appointmentId": appointmentID, "slots.isBooked": true}}},
		{{Key: "$project", Value: bson.M{
			"barberId":      "$barberId",
			"date":          "$date",
			"slotId":        "$slots.id",
			"start":         "$slots.start",
			"end":           "$slots.end",
			"appointmentId": "$slots.appointmentId",
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, utils.NewInternalError("failed to locate slot for appointment %s: %v", appointmentID, err)
	}
	defer cursor.Close(ctx)

	var refs []models.BookedSlotRef
	if err := cursor.All(ctx, &refs); err != nil {
		return nil, utils.NewInternalError("failed to decode slot refs: %v", err)
	}
	if len(refs) == 0 {
		return nil, utils.NewNotFoundError("no booked slot references appointment %s", appointmentID)
	}
	return &refs[0], nil
}

func (r *MongoAvailabilityRepo) ReleaseByAppointment(ctx context.Context, appointmentID string) (bool, error) {
	filter := bson.M{"slots": bson.M{"$elemMatch": bson.M{"appointmentId": appointmentID, "isBooked": true}}}
	update := bson.M{
		"$set":   bson.M{"slots.$.isBooked": false},
		"$unset": bson.M{"slots.$.appointmentId": ""},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewInternalError("failed to release slot for appointment %s: %v", appointmentID, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoAvailabilityRepo) ReleaseSlot(ctx context.Context, barberID, date, slotID, appointmentID string) (bool, error) {
	// Matching on the holder keeps a slot that was released and re-reserved
	// in the meantime out of reach.
	filter := bson.M{
		"barberId": barberID,
		"date":     date,
		"slots": bson.M{"$elemMatch": bson.M{
			"id":            slotID,
			"isBooked":      true,
			"appointmentId": appointmentID,
		}},
	}
	update := bson.M{
		"$set":   bson.M{"slots.$.isBooked": false},
		"$unset": bson.M{"slots.$.appointmentId": ""},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, utils.NewInternalError("failed to release slot %s: %v", slotID, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoAvailabilityRepo) AddSlot(ctx context.Context, barberID, date, timezone string, slot models.Slot) error {
	filter := bson.M{"barberId": barberID, "date": date}
	update := bson.M{
		"$push":        bson.M{"slots": slot},
		"$setOnInsert": bson.M{"timezone": timezone},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return utils.NewInternalError("failed to add slot: %v", err)
	}
	return nil
}

func (r *MongoAvailabilityRepo) RemoveSlot(ctx context.Context, barberID, date, slotID string) error {
	filter := bson.M{"barberId": barberID, "date": date}
	update := bson.M{"$pull": bson.M{"slots": bson.M{"id": slotID, "isBooked": false}}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewInternalError("failed to remove slot %s: %v", slotID, err)
	}
	if res.ModifiedCount > 0 {
		return nil
	}

	// Nothing was pulled: either the slot does not exist or it is booked.
	day, err := r.GetDay(ctx, barberID, date)
	if err != nil {
		return err
	}
	for _, s := range day.Slots {
		if s.ID == slotID {
			return utils.NewConflictError("slot %s is booked and cannot be removed", slotID)
		}
	}
	return utils.NewNotFoundError("slot %s not found on %s", slotID, date)
}

func (r *MongoAvailabilityRepo) BookedRefs(ctx context.Context) ([]models.BookedSlotRef, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"slots.isBooked": true}}},
		{{Key: "$unwind", Value: "$slots"}},
		{{Key: "$match", Value: bson.M{"slots.isBooked": true}}},
		{{Key: "$project", Value: bson.M{
			"barberId":      "$barberId",
			"date":          "$date",
			"slotId":        "$slots.id",
			"start":         "$slots.start",
			"end":           "$slots.end",
			"appointmentId": "$slots.appointmentId",
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, utils.NewInternalError("failed to list booked slots: %v", err)
	}
	defer cursor.Close(ctx)

	var refs []models.BookedSlotRef
	if err := cursor.All(ctx, &refs); err != nil {
		return nil, utils.NewInternalError("failed to decode booked slots: %v", err)
	}
	return refs, nil
}
