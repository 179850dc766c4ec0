package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/healthviz/pkg/errors"
)

const (
	runsCollection = "runs"
	connectTimeout = 10 * time.Second
)

// MongoStore keeps runs in the "runs" collection of a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// NewMongoStore connects to uri and pings the primary. An empty database
// means [DefaultDatabase].
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo uri is required")
	}
	if database == "" {
		database = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return NewMongoStoreFromClient(client, database), nil
}

// NewMongoStoreFromClient wraps an existing client.
func NewMongoStoreFromClient(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		runs:   client.Database(database).Collection(runsCollection),
	}
}

func (s *MongoStore) SaveRun(ctx context.Context, run *Run) error {
	_, err := s.runs.ReplaceOne(ctx, bson.M{"_id": run.ID}, run, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "save run %s", run.ID)
	}
	return nil
}

func (s *MongoStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.runs.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "get run %s", id)
	}
	return &run, nil
}

func (s *MongoStore) ListRuns(ctx context.Context, preset string, limit int) ([]*Run, error) {
	filter := bson.M{}
	if preset != "" {
		filter["preset"] = preset
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(listLimit(limit)))

	cur, err := s.runs.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list runs")
	}
	var out []*Run
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode runs")
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
