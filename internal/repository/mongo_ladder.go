package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

const (
	MongoTimeout           = 20 * time.Second
	CollectionCycleLadders = "billing_cycle_ladders"
)

type ladderDocument struct {
	ID        string       `bson:"_id"`
	AccountID string       `bson:"account_id"`
	Slot      Slot         `bson:"slot"`
	Bands     model.Ladder `bson:"bands"`
	Revision  int          `bson:"revision"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

func (d ladderDocument) stored() *StoredLadder {
	return &StoredLadder{
		AccountID: d.AccountID,
		Slot:      d.Slot,
		Bands:     d.Bands,
		Revision:  d.Revision,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoLadderRepo implements LadderRepo with one document per account and
// slot.
type MongoLadderRepo struct {
	collection *mongo.Collection
}

// ConnectMongo opens a client and verifies the server is reachable.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, MongoTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return client, nil
}

// NewMongoLadderRepo creates a repo over the ladder collection of database.
func NewMongoLadderRepo(client *mongo.Client, database string) *MongoLadderRepo {
	return &MongoLadderRepo{collection: client.Database(database).Collection(CollectionCycleLadders)}
}

func (r *MongoLadderRepo) Get(ctx context.Context, accountID string, slot Slot) (*StoredLadder, error) {
	if !slot.IsValid() {
		return nil, fmt.Errorf("ladder slot %q: %w", slot, ErrInvalidSlot)
	}

	ctx, cancel := context.WithTimeout(ctx, MongoTimeout)
	defer cancel()

	var doc ladderDocument
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: documentID(accountID, slot)}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("ladder %s/%s: %w", accountID, slot, ErrNotFound)
		}
		return nil, fmt.Errorf("finding ladder: %w", err)
	}
	return doc.stored(), nil
}

func (r *MongoLadderRepo) Put(ctx context.Context, accountID string, slot Slot, bands model.Ladder) (*StoredLadder, error) {
	if !slot.IsValid() {
		return nil, fmt.Errorf("ladder slot %q: %w", slot, ErrInvalidSlot)
	}

	ctx, cancel := context.WithTimeout(ctx, MongoTimeout)
	defer cancel()

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "account_id", Value: accountID},
			{Key: "slot", Value: slot},
			{Key: "bands", Value: bands},
			{Key: "updated_at", Value: time.Now().UTC()},
		}},
		{Key: "$inc", Value: bson.D{{Key: "revision", Value: 1}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc ladderDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: documentID(accountID, slot)}}, update, opts).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("updating ladder: %w", err)
	}
	return doc.stored(), nil
}

func (r *MongoLadderRepo) Delete(ctx context.Context, accountID string, slot Slot) error {
	ctx, cancel := context.WithTimeout(ctx, MongoTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: documentID(accountID, slot)}})
	if err != nil {
		return fmt.Errorf("deleting ladder: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("ladder %s/%s: %w", accountID, slot, ErrNotFound)
	}
	return nil
}

func (r *MongoLadderRepo) ListAccounts(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, MongoTimeout)
	defer cancel()

	var accounts []string
	if err := r.collection.Distinct(ctx, "account_id", bson.D{}).Decode(&accounts); err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	slices.Sort(accounts)
	return accounts, nil
}
