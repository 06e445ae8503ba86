package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document"
)

// MongoRepo is the MongoDB-backed document repository. A unique index on
// (activity, groupid) enforces the one-record-per-pair invariant; concurrent
// lazy creation races resolve to a duplicate-key error the store retries as
// a lookup.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "activity", Value: 1}, {Key: "groupid", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return doc.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) GetByActivityGroup(ctx context.Context, activityID string, groupID int64) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"activity": activityID, "groupid": groupID}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) SetKey(ctx context.Context, id, key string) error {
	return m.setField(ctx, id, bson.M{"documentkey": key})
}

func (m *MongoRepo) SetLocked(ctx context.Context, id string, locked bool) error {
	return m.setField(ctx, id, bson.M{"locked": locked})
}

func (m *MongoRepo) setField(ctx context.Context, id string, set bson.M) error {
	set["updatedAt"] = time.Now()
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) ListAll(ctx context.Context) ([]*document.Document, error) {
	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) DeleteByActivity(ctx context.Context, activityID string) error {
	_, err := m.col.DeleteMany(ctx, bson.M{"activity": activityID})
	return err
}
