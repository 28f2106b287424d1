package store

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/bowl"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	bowlsCollection   = "bowls"
	historyCollection = "scan_history"
	metaCollection    = "meta"
	snapshotMetaID    = "snapshot"
)

// Documents carry a sequence number so Load returns insertion order.
type bowlDocument struct {
	Seq                  int `bson:"seq"`
	bowl.ContainerRecord `bson:",inline"`
}

type scanDocument struct {
	Seq                  int `bson:"seq"`
	bowl.ScanEventRecord `bson:",inline"`
}

type metaDocument struct {
	ID        string    `bson:"_id"`
	LastSaved time.Time `bson:"last_saved"`
}

type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	bowls   *mongo.Collection
	history *mongo.Collection
	meta    *mongo.Collection
	logger  apt.Logger
	config  *apt.Config
}

func NewMongoStore(config *apt.Config, logger apt.Logger) *MongoStore {
	return &MongoStore{
		logger: logger,
		config: config,
	}
}

func (s *MongoStore) Start(ctx context.Context) error {
	mongoURL, _ := s.config.GetString("db.mongo.url")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27017"
	}

	dbName, _ := s.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = "bowltrack"
	}

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	s.client = client
	s.db = client.Database(dbName)
	s.bowls = s.db.Collection(bowlsCollection)
	s.history = s.db.Collection(historyCollection)
	s.meta = s.db.Collection(metaCollection)

	for _, coll := range []*mongo.Collection{s.bowls, s.history} {
		seqIndex := mongo.IndexModel{
			Keys:    bson.D{{Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		if _, err := coll.Indexes().CreateOne(ctx, seqIndex); err != nil {
			return fmt.Errorf("cannot create seq index on %s: %w", coll.Name(), err)
		}
	}

	codeIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "bowl_code", Value: 1}},
	}
	if _, err := s.bowls.Indexes().CreateOne(ctx, codeIndex); err != nil {
		return fmt.Errorf("cannot create bowl_code index: %w", err)
	}

	s.logger.Infof("Connected to MongoDB: %s, database: %s", mongoURL, dbName)
	return nil
}

func (s *MongoStore) Stop(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		s.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context) (bowl.Snapshot, error) {
	var snap bowl.Snapshot
	bySeq := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cursor, err := s.bowls.Find(ctx, bson.M{}, bySeq)
	if err != nil {
		return snap, fmt.Errorf("cannot list bowls: %w", err)
	}
	var bowlDocs []bowlDocument
	if err := cursor.All(ctx, &bowlDocs); err != nil {
		return snap, fmt.Errorf("cannot decode bowls: %w", err)
	}
	for _, d := range bowlDocs {
		snap.Bowls = append(snap.Bowls, d.ContainerRecord)
	}

	cursor, err = s.history.Find(ctx, bson.M{}, bySeq)
	if err != nil {
		return snap, fmt.Errorf("cannot list scan history: %w", err)
	}
	var scanDocs []scanDocument
	if err := cursor.All(ctx, &scanDocs); err != nil {
		return snap, fmt.Errorf("cannot decode scan history: %w", err)
	}
	for _, d := range scanDocs {
		snap.ScanHistory = append(snap.ScanHistory, d.ScanEventRecord)
	}

	var meta metaDocument
	err = s.meta.FindOne(ctx, bson.M{"_id": snapshotMetaID}).Decode(&meta)
	if err != nil && err != mongo.ErrNoDocuments {
		return snap, fmt.Errorf("cannot read snapshot metadata: %w", err)
	}
	snap.LastSaved = meta.LastSaved

	return snap, nil
}

// Save replaces the stored snapshot. The registry is small enough that a full
// rewrite is simpler than tracking dirty bowls.
func (s *MongoStore) Save(ctx context.Context, snap bowl.Snapshot) error {
	bowlDocs := make([]interface{}, 0, len(snap.Bowls))
	for i, rec := range snap.Bowls {
		bowlDocs = append(bowlDocs, bowlDocument{Seq: i, ContainerRecord: rec})
	}
	if err := replaceAll(ctx, s.bowls, bowlDocs); err != nil {
		return err
	}

	scanDocs := make([]interface{}, 0, len(snap.ScanHistory))
	for i, rec := range snap.ScanHistory {
		scanDocs = append(scanDocs, scanDocument{Seq: i, ScanEventRecord: rec})
	}
	if err := replaceAll(ctx, s.history, scanDocs); err != nil {
		return err
	}

	meta := metaDocument{ID: snapshotMetaID, LastSaved: snap.LastSaved}
	_, err := s.meta.ReplaceOne(ctx, bson.M{"_id": snapshotMetaID}, meta, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot write snapshot metadata: %w", err)
	}
	return nil
}

func replaceAll(ctx context.Context, coll *mongo.Collection, docs []interface{}) error {
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("cannot clear %s: %w", coll.Name(), err)
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("cannot insert %s: %w", coll.Name(), err)
	}
	return nil
}
