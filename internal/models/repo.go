package models

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

const (
	PartiesTable = "parties"

	// DefaultBucket is the object-storage bucket for party images. Paths
	// inside it are prefixed with the owner's user id.
	DefaultBucket = "party-images"
)

type SupabaseRepo struct {
	supabaseClient *supabase.Client
	url            string
	key            string
	bucket         string
}

func SupabaseNewRepo(supabaseClient *supabase.Client, url, key, bucket string) *SupabaseRepo {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		url:            url,
		key:            key,
		bucket:         bucket,
	}
}

// GetAuthenticatedClient returns a Supabase client acting under the given
// user access token, so row-level security sees the caller's identity.
func (su *SupabaseRepo) GetAuthenticatedClient(accessToken string) (*supabase.Client, error) {
	if su.url == "" || su.key == "" {
		return su.supabaseClient, nil
	}

	options := &supabase.ClientOptions{
		Headers: map[string]string{
			"Authorization": "Bearer " + accessToken,
		},
	}

	return supabase.NewClient(su.url, su.key, options)
}

// client picks the authenticated client when a token is present and falls
// back to the anonymous one otherwise.
func (su *SupabaseRepo) client(accessToken string) (*supabase.Client, error) {
	if accessToken == "" {
		return su.supabaseClient, nil
	}
	authClient, err := su.GetAuthenticatedClient(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated client: %v", err)
	}
	return authClient, nil
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
}

func MongodbNewRepo(mongodbClient *mongo.Client) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, dbName, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not connected")
	}
	return mdb.mongodbClient.Database(dbName).Collection(colName), nil
}
