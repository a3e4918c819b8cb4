package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EngagementDbName   = "agita"
	PartyViewsColName  = "party_views"
	InterestedColName  = "interested"
	viewRetention      = 30 * 24 * time.Hour
	viewDedupeWindow   = time.Hour
)

// PartyView records one anonymous or authenticated view of a party. Views
// feed the read-only counters on the dashboard; they are never authoritative.
type PartyView struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PartyID   string             `bson:"party_id" json:"party_id" validate:"required"`
	OwnerID   string             `bson:"owner_id" json:"owner_id" validate:"required"`
	UserID    *string            `bson:"user_id,omitempty" json:"user_id,omitempty"`
	SessionID string             `bson:"session_id" json:"session_id" validate:"required"`
	IPAddress string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	ViewedAt  time.Time          `bson:"viewed_at" json:"viewed_at"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"` // TTL index field
}

// InterestMark is a user's "I'm interested" flag on a party.
type InterestMark struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PartyID  string             `bson:"party_id" json:"party_id"`
	UserID   uuid.UUID          `bson:"user_id" json:"user_id"`
	MarkedAt time.Time          `bson:"marked_at" json:"marked_at"`
}

type EngagementRepo interface {
	TrackPartyView(ctx context.Context, view *PartyView) error
	CountViews(ctx context.Context, partyIDs []string) (map[string]int64, error)
	MarkInterested(ctx context.Context, userID uuid.UUID, partyID string) error
	RemoveInterested(ctx context.Context, userID uuid.UUID, partyID string) error
	CountInterested(ctx context.Context, partyIDs []string) (map[string]int64, error)
	EnsureIndexes(ctx context.Context) error
}

func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	views, err := mdb.GetCollection(ctx, EngagementDbName, PartyViewsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	_, err = views.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(0).
				SetName("expires_at_ttl"),
		},
		{
			Keys: bson.D{
				{Key: "party_id", Value: 1},
				{Key: "session_id", Value: 1},
			},
			Options: options.Index().SetName("party_session_idx"),
		},
		{
			Keys:    bson.D{{Key: "party_id", Value: 1}},
			Options: options.Index().SetName("party_id_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating view indexes: %v", err)
	}

	marks, err := mdb.GetCollection(ctx, EngagementDbName, InterestedColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	_, err = marks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "party_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("party_user_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating interest indexes: %v", err)
	}

	return nil
}

// TrackPartyView records a view unless the same session viewed the party
// within the last hour. Records expire after 30 days via the TTL index.
func (mdb *MongodbRepo) TrackPartyView(ctx context.Context, view *PartyView) error {
	col, err := mdb.GetCollection(ctx, EngagementDbName, PartyViewsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	recentCutoff := time.Now().Add(-viewDedupeWindow)
	var recent PartyView
	err = col.FindOne(ctx, bson.M{
		"party_id":   view.PartyID,
		"session_id": view.SessionID,
		"viewed_at":  bson.M{"$gte": recentCutoff},
	}).Decode(&recent)
	if err == nil {
		// Same session within the window, not a new view.
		return nil
	}

	now := time.Now()
	view.ViewedAt = now
	view.ExpiresAt = now.Add(viewRetention)
	if view.ID.IsZero() {
		view.ID = primitive.NewObjectID()
	}

	if _, err := col.InsertOne(ctx, view); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("error inserting party view: %v", err)
	}
	return nil
}

// CountViews returns the view count per party id for the given set.
func (mdb *MongodbRepo) CountViews(ctx context.Context, partyIDs []string) (map[string]int64, error) {
	return mdb.countByParty(ctx, PartyViewsColName, partyIDs)
}

func (mdb *MongodbRepo) MarkInterested(ctx context.Context, userID uuid.UUID, partyID string) error {
	col, err := mdb.GetCollection(ctx, EngagementDbName, InterestedColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	filter := bson.M{"party_id": partyID, "user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"party_id":  partyID,
			"user_id":   userID,
			"marked_at": time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := col.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("error upserting interest mark: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) RemoveInterested(ctx context.Context, userID uuid.UUID, partyID string) error {
	col, err := mdb.GetCollection(ctx, EngagementDbName, InterestedColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	if _, err := col.DeleteOne(ctx, bson.M{"party_id": partyID, "user_id": userID}); err != nil {
		return fmt.Errorf("error removing interest mark: %v", err)
	}
	return nil
}

// CountInterested returns the interested count per party id for the given set.
func (mdb *MongodbRepo) CountInterested(ctx context.Context, partyIDs []string) (map[string]int64, error) {
	return mdb.countByParty(ctx, InterestedColName, partyIDs)
}

func (mdb *MongodbRepo) countByParty(ctx context.Context, colName string, partyIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(partyIDs))
	if len(partyIDs) == 0 {
		return counts, nil
	}

	col, err := mdb.GetCollection(ctx, EngagementDbName, colName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"party_id": bson.M{"$in": partyIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$party_id",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating counts: %v", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		PartyID string `bson:"_id"`
		Count   int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding counts: %v", err)
	}
	for _, row := range rows {
		counts[row.PartyID] = row.Count
	}
	return counts, nil
}
