package clients

import (
	"context"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kindo-app/doorbell/models"
)

const (
	reconciliationsCollection = "reconciliations"
)

type MongoConfig struct {
	URI      string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database string        `envconfig:"MONGO_DATABASE" default:"doorbell"`
	Timeout  time.Duration `envconfig:"MONGO_TIMEOUT" default:"10s"`
}

type MongoStoreClient struct {
	client          *mongo.Client
	reconciliations *mongo.Collection
	logger          *zap.SugaredLogger
}

func mongoConfigProvider() (MongoConfig, error) {
	var config MongoConfig
	if err := envconfig.Process("", &config); err != nil {
		return MongoConfig{}, err
	}
	return config, nil
}

func NewMongoStoreClient(config MongoConfig, logger *zap.SugaredLogger) (*MongoStoreClient, error) {
	opts := options.Client().
		ApplyURI(config.URI).
		SetConnectTimeout(config.Timeout).
		SetServerSelectionTimeout(config.Timeout)
	client, err := mongo.NewClient(opts)
	if err != nil {
		return nil, errors.Wrap(err, "creating mongo client")
	}
	return &MongoStoreClient{
		client:          client,
		reconciliations: client.Database(config.Database).Collection(reconciliationsCollection),
		logger:          logger,
	}, nil
}

func (d *MongoStoreClient) Start(ctx context.Context) error {
	if err := d.client.Connect(ctx); err != nil {
		return errors.Wrap(err, "connecting to mongo")
	}
	_, err := d.reconciliations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	if err != nil {
		d.logger.With(zap.Error(err)).Warn("creating reconciliation indexes")
	}
	return nil
}

func (d *MongoStoreClient) Close(ctx context.Context) error {
	d.logger.Info("closing the mongo session")
	return d.client.Disconnect(ctx)
}

func (d *MongoStoreClient) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

func (d *MongoStoreClient) InsertReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error {
	if _, err := d.reconciliations.InsertOne(ctx, reconciliation); err != nil {
		return errors.Wrap(err, "inserting reconciliation")
	}
	return nil
}

func (d *MongoStoreClient) UpsertReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := d.reconciliations.ReplaceOne(ctx, bson.M{"_id": reconciliation.ID}, reconciliation, opts); err != nil {
		return errors.Wrap(err, "upserting reconciliation")
	}
	return nil
}

// FindReconciliation returns nil, nil when nothing matches
func (d *MongoStoreClient) FindReconciliation(ctx context.Context, id string) (*models.Reconciliation, error) {
	var result models.Reconciliation
	if err := d.reconciliations.FindOne(ctx, bson.M{"_id": id}).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding reconciliation")
	}
	return &result, nil
}

func (d *MongoStoreClient) FindReconciliations(ctx context.Context, statuses ...models.ReconciliationStatus) ([]*models.Reconciliation, error) {
	query := bson.M{}
	if len(statuses) > 0 {
		query["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}})
	cursor, err := d.reconciliations.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding reconciliations")
	}
	results := []*models.Reconciliation{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, "decoding reconciliations")
	}
	return results, nil
}

func startMongo(lc fx.Lifecycle, store *MongoStoreClient) {
	lc.Append(fx.Hook{
		OnStart: store.Start,
		OnStop:  store.Close,
	})
}

func storeProvider(store *MongoStoreClient) StoreClient {
	return store
}

var MongoModule = fx.Options(
	fx.Provide(mongoConfigProvider, NewMongoStoreClient, storeProvider),
	fx.Invoke(startMongo),
)
