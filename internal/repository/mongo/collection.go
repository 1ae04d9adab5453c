package mongo

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names, one per entity kind.
const (
	membersCollectionName    = "members"
	trainersCollectionName   = "trainers"
	adminsCollectionName     = "admins"
	schedulesCollectionName  = "workout_schedules"
	attendanceCollectionName = "attendance"
	plansCollectionName      = "subscription_plans"
)

// seqDocument stores an item together with its position in the collection,
// so Load returns items in the order they were saved.
type seqDocument[T any] struct {
	Seq  int `bson:"seq"`
	Item T   `bson:",inline"`
}

// mongoCollection implements repository.Collection[T] on a single MongoDB collection.
type mongoCollection[T any] struct {
	collection *mongo.Collection
	keyField   string // unique identifier field, indexed
}

// NewCollection wraps coll as a whole-collection repository. keyField names
// the document field holding the entity identifier.
func NewCollection[T any](coll *mongo.Collection, keyField string) repository.Collection[T] {
	return &mongoCollection[T]{collection: coll, keyField: keyField}
}

// NewRepositories returns Mongo-backed collections for every entity kind.
func NewRepositories(db *mongo.Database) repository.Repositories {
	return repository.Repositories{
		Members:    NewCollection[domain.Member](db.Collection(membersCollectionName), "userId"),
		Trainers:   NewCollection[domain.Trainer](db.Collection(trainersCollectionName), "userId"),
		Admins:     NewCollection[domain.Admin](db.Collection(adminsCollectionName), "userId"),
		Schedules:  NewCollection[domain.WorkoutSchedule](db.Collection(schedulesCollectionName), "scheduleId"),
		Attendance: NewCollection[domain.Attendance](db.Collection(attendanceCollectionName), "attendanceId"),
		Plans:      NewCollection[domain.SubscriptionPlan](db.Collection(plansCollectionName), "planId"),
	}
}

// Load retrieves every document ordered by seq.
func (r *mongoCollection[T]) Load(ctx context.Context) ([]T, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.collection.Name(), err)
	}
	defer cursor.Close(ctx)

	items := []T{}
	for cursor.Next(ctx) {
		item, err := decodeItem[T](cursor.Current)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.collection.Name(), err)
		}
		items = append(items, item)
	}
	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", r.collection.Name(), err)
	}
	return items, nil
}

// decodeItem unwraps one stored document. BSON datetimes carry no zone, so
// they are decoded into time.Local, the zone calendar dates are computed in.
func decodeItem[T any](raw bson.Raw) (T, error) {
	var doc seqDocument[T]
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		return doc.Item, err
	}
	dec.UseLocalTimeZone()
	err = dec.Decode(&doc)
	return doc.Item, err
}

// Save replaces the collection contents with items.
func (r *mongoCollection[T]) Save(ctx context.Context, items []T) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		log.Printf("ERROR: Failed to clear collection %s: %v", r.collection.Name(), err)
		return fmt.Errorf("%w: %s: %v", repository.ErrSaveFailed, r.collection.Name(), err)
	}
	if len(items) == 0 {
		return nil
	}

	docs := make([]interface{}, len(items))
	for i, item := range items {
		docs[i] = seqDocument[T]{Seq: i, Item: item}
	}
	if _, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		log.Printf("ERROR: Failed to write collection %s: %v", r.collection.Name(), err)
		return fmt.Errorf("%w: %s: %v", repository.ErrSaveFailed, r.collection.Name(), err)
	}
	return nil
}

// EnsureIndexes creates the seq index and a unique index on the key field.
func (r *mongoCollection[T]) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: r.keyField, Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		log.Printf("ERROR: Failed to create indexes on %s: %v", r.collection.Name(), err)
		return err
	}
	return nil
}

// EnsureIndexes creates indexes for every collection in repos that supports them.
func EnsureIndexes(ctx context.Context, repos repository.Repositories) error {
	type indexer interface {
		EnsureIndexes(ctx context.Context) error
	}
	for _, c := range []interface{}{repos.Members, repos.Trainers, repos.Admins, repos.Schedules, repos.Attendance, repos.Plans} {
		if ix, ok := c.(indexer); ok {
			if err := ix.EnsureIndexes(ctx); err != nil {
				return err
			}
		}
	}
	log.Println("INFO: MongoDB indexes ensured")
	return nil
}
