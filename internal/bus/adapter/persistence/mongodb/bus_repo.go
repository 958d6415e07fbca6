package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bus-tracker/internal/bus/domain/model"
	"bus-tracker/internal/bus/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// busDocument is the stored shape of a bus. driverId references users._id.
type busDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	BusName   string             `bson:"busName"`
	Timings   string             `bson:"timings"`
	DriverID  primitive.ObjectID `bson:"driverId"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *busDocument) toModel() *model.Bus {
	return &model.Bus{
		ID:        d.ID.Hex(),
		BusName:   d.BusName,
		Timings:   d.Timings,
		DriverID:  d.DriverID.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoBusRepository implements the BusRepository interface using MongoDB
type MongoBusRepository struct {
	busesCollection *mongo.Collection
}

// NewMongoBusRepository creates the repository and the driverId index used by
// the driver dashboard.
func NewMongoBusRepository(ctx context.Context, db *mongo.Database, collection string) (*MongoBusRepository, error) {
	if collection == "" {
		collection = "buses"
	}
	repo := &MongoBusRepository{
		busesCollection: db.Collection(collection),
	}

	driverIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "driverId", Value: 1}, {Key: "createdAt", Value: 1}},
	}
	if _, err := repo.busesCollection.Indexes().CreateOne(ctx, driverIndex); err != nil {
		return nil, fmt.Errorf("failed to create driverId index: %w", err)
	}

	return repo, nil
}

// Create inserts a new bus and fills in its ID and timestamps
func (r *MongoBusRepository) Create(ctx context.Context, bus *model.Bus) error {
	if bus == nil {
		return errors.New("bus cannot be nil")
	}
	driverID, err := primitive.ObjectIDFromHex(bus.DriverID)
	if err != nil {
		return fmt.Errorf("invalid driver id %q: %w", bus.DriverID, err)
	}

	now := time.Now().UTC()
	doc := busDocument{
		ID:        primitive.NewObjectID(),
		BusName:   bus.BusName,
		Timings:   bus.Timings,
		DriverID:  driverID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.busesCollection.InsertOne(ctx, doc); err != nil {
		return err
	}

	bus.ID = doc.ID.Hex()
	bus.CreatedAt = now
	bus.UpdatedAt = now
	return nil
}

// FindAll returns every bus, oldest first
func (r *MongoBusRepository) FindAll(ctx context.Context) ([]*model.Bus, error) {
	return r.find(ctx, bson.M{})
}

// FindByID returns the bus with id
func (r *MongoBusRepository) FindByID(ctx context.Context, id string) (*model.Bus, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrBusNotFound
	}

	var doc busDocument
	if err := r.busesCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrBusNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

// FindByDriver returns the buses owned by driverID, oldest first
func (r *MongoBusRepository) FindByDriver(ctx context.Context, driverID string) ([]*model.Bus, error) {
	objectID, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return []*model.Bus{}, nil
	}
	return r.find(ctx, bson.M{"driverId": objectID})
}

// UpdateByID overwrites busName and timings and returns the updated bus
func (r *MongoBusRepository) UpdateByID(ctx context.Context, id string, busName, timings string) (*model.Bus, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrBusNotFound
	}

	update := bson.M{"$set": bson.M{
		"busName":   busName,
		"timings":   timings,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc busDocument
	err = r.busesCollection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrBusNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

// DeleteByID removes the bus with id
func (r *MongoBusRepository) DeleteByID(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.ErrBusNotFound
	}

	result, err := r.busesCollection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return model.ErrBusNotFound
	}
	return nil
}

func (r *MongoBusRepository) find(ctx context.Context, filter bson.M) ([]*model.Bus, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.busesCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	buses := make([]*model.Bus, 0)
	for cursor.Next(ctx) {
		var doc busDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		buses = append(buses, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return buses, nil
}

var _ repository.BusRepository = (*MongoBusRepository)(nil)
