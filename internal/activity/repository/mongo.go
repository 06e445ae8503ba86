package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
)

// MongoRepo is the MongoDB-backed activity repository. One row per course
// placement, mirroring the `onlyoffice` table of the host plugin.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, act *activity.Activity) (string, error) {
	now := time.Now()
	act.CreatedAt = now
	act.UpdatedAt = now
	if act.ID == "" {
		act.ID = primitive.NewObjectID().Hex()
	}
	if _, err := m.col.InsertOne(ctx, act); err != nil {
		return "", fmt.Errorf("insert activity: %w", err)
	}
	return act.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*activity.Activity, error) {
	var a activity.Activity
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (m *MongoRepo) Update(ctx context.Context, act *activity.Activity) error {
	act.UpdatedAt = time.Now()
	set := bson.M{
		"name":               act.Name,
		"intro":              act.Intro,
		"display":            act.Display,
		"displayname":        act.DisplayName,
		"displaydescription": act.DisplayDescription,
		"width":              act.Width,
		"height":             act.Height,
		"candownload":        act.CanDownload,
		"canprint":           act.CanPrint,
		"updatedAt":          act.UpdatedAt,
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": act.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
