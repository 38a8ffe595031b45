// Package mongo implements the entity store on MongoDB. Entities keep the
// integer ids the API exposes; they are drawn from a counters collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yadev/crm-system/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

const (
	collectionCustomers = "customers"
	collectionOrders    = "orders"
	collectionUsers     = "users"
	collectionAudit     = "audit_events"
	collectionCounters  = "counters"

	// lockField is bumped by lockOne and never decoded.
	lockField = "_lock"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Store groups the repositories and the unit of work for one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

func NewStore(client *mongo.Client, db *mongo.Database, logger zerolog.Logger) *Store {
	return &Store{client: client, db: db, logger: logger.With().Str("store", "mongo").Logger()}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// WithinTx runs fn inside a session transaction. Multi-document transactions
// need a replica set or sharded cluster. Transient errors are not retried.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	if err := sess.StartTransaction(); err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}

	sc := mongo.NewSessionContext(ctx, sess)
	if err := fn(sc); err != nil {
		if abortErr := sess.AbortTransaction(context.Background()); abortErr != nil {
			s.logger.Error().Err(abortErr).AnErr("cause", err).Msg("abort transaction failed")
		}
		return conflictErr(err)
	}

	if err := sess.CommitTransaction(sc); err != nil {
		return conflictErr(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Server signals for a transaction that lost a write race.
const (
	writeConflictCode      = 112
	transientTxnErrorLabel = "TransientTransactionError"
)

// conflictErr maps a lost transaction race onto domain.ErrConcurrentModification.
func conflictErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrConcurrentModification) {
		return err
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(writeConflictCode) || se.HasErrorLabel(transientTxnErrorLabel)) {
		return fmt.Errorf("%w: %v", domain.ErrConcurrentModification, err)
	}
	return err
}

// EnsureIndexes creates the indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	plan := map[string][]mongo.IndexModel{
		collectionCustomers: {
			{Keys: bson.D{{Key: "lastname", Value: 1}, {Key: "_id", Value: 1}}},
		},
		collectionOrders: {
			{Keys: bson.D{{Key: "label", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		},
		collectionUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionAudit: {
			{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "entity_id", Value: 1}}},
		},
	}

	for coll, indexes := range plan {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// nextID atomically increments and returns the counter for name.
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(collectionCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M, notFound error) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc T
	if err := col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return &doc, nil
}

// lockOne loads the document with _id id and bumps its lock counter in the
// same write. Inside a transaction this plays the role of SELECT ... FOR
// UPDATE: any other open transaction that locks or writes the document fails
// with a write conflict. Outside a transaction it is a plain read.
func lockOne[T any](ctx context.Context, col *mongo.Collection, id int64, notFound error) (*T, error) {
	if mongo.SessionFromContext(ctx) == nil {
		return findOne[T](ctx, col, bson.M{"_id": id}, notFound)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc T
	err := col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{lockField: int64(1)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound
	}
	if err != nil {
		return nil, conflictErr(err)
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, sort bson.D) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func replaceByID(ctx context.Context, col *mongo.Collection, id int64, doc any, notFound error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id int64, notFound error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}
