package main

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agrideal/models"
	"agrideal/negotiation"
	"agrideal/pricing"
	"agrideal/registry"
)

type App struct {
	cfg       Config
	mongo     *mongo.Client
	db        *mongo.Database
	parcels   *mongo.Collection
	messages  *mongo.Collection
	registry  *registry.Registry
	directory *negotiation.Directory
	predictor *PredictorClient
}

func newApp(ctx context.Context, cfg Config) (*App, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB)

	app := &App{
		cfg:      cfg,
		mongo:    client,
		db:       db,
		parcels:  db.Collection("parcels"),
		messages: db.Collection("messages"),
	}
	// Indexes
	if _, err := app.parcels.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
	}); err != nil {
		return nil, err
	}
	if _, err := app.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "sentAt", Value: 1}},
	}); err != nil {
		return nil, err
	}

	app.registry = registry.New(app.parcels)
	if err := app.registry.Load(ctx); err != nil {
		return nil, err
	}

	app.predictor = newPredictorClient(cfg.PredictorURI)
	arbiter := predictorArbiter{
		remote:  app.predictor,
		local:   pricing.Local{},
		timeout: 10 * time.Second,
	}
	app.directory = negotiation.NewDirectory(arbiter, &mongoTranscript{col: app.messages}, 10*time.Second)

	return app, nil
}

func (a *App) close(ctx context.Context) { _ = a.mongo.Disconnect(ctx) }

// mongoTranscript persists accepted proposals into the messages
// collection.
type mongoTranscript struct {
	col *mongo.Collection
}

func (m *mongoTranscript) Append(ctx context.Context, rec models.ChatRecord) error {
	_, err := m.col.InsertOne(ctx, &rec)
	return err
}
