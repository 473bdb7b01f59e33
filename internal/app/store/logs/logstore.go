// internal/app/store/logs/logstore.go
package logstore

// Terminology: Bookmarks
//   - A bookmark is the base64url form of the last _id on a page. Pages are
//     always in _id-descending order, so the next page is "_id < bookmark".
//   - An empty page echoes the bookmark it was given; callers treat an
//     unchanged bookmark as the end of the collection.

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/dalemusser/stratalog/internal/app/system/cursor"
	"github.com/dalemusser/stratalog/internal/app/system/logquery"
	"github.com/dalemusser/stratalog/internal/app/system/schema"
	"github.com/dalemusser/stratalog/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the logs_records collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new log store. Nested documents inside opaque fields decode
// as maps so they marshal back to JSON unchanged.
func New(db *mongo.Database) *Store {
	return NewNamed(db, schema.LogsRecords)
}

// NewNamed is New over a collection other than logs_records.
func NewNamed(db *mongo.Database, collection string) *Store {
	opts := options.Collection().SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	return &Store{c: db.Collection(collection, opts)}
}

// Insert stores rec under its precomputed _id. An existing _id is a store
// error like any other write failure.
func (s *Store) Insert(ctx context.Context, rec models.LogRecord) error {
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Store("insert log: duplicate _id "+rec.ID, err)
		}
		return apperr.Store("insert log", err)
	}
	return nil
}

// Get returns the log with the given _id. Data is left out unless withData.
func (s *Store) Get(ctx context.Context, id string, withData bool) (models.LogRecord, error) {
	opts := options.FindOne()
	if !withData {
		opts.SetProjection(bson.D{{Key: models.FieldData, Value: 0}})
	}

	var rec models.LogRecord
	err := s.c.FindOne(ctx, bson.D{{Key: models.FieldID, Value: id}}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.LogRecord{}, apperr.NotFound("Could not find log with _id: " + id + ".")
	}
	if err != nil {
		return models.LogRecord{}, apperr.Store("get log", err)
	}
	return rec, nil
}

// Find runs q as a single bounded find.
func (s *Store) Find(ctx context.Context, q logquery.Query) ([]models.LogRecord, error) {
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Sort != nil {
		opts.SetSort(q.Sort)
	}
	if q.Projection != nil {
		opts.SetProjection(q.Projection)
	}

	cur, err := s.c.Find(ctx, filterOf(q), opts)
	if err != nil {
		return nil, apperr.Store("find logs", err)
	}
	defer cur.Close(ctx)

	logs := []models.LogRecord{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, apperr.Store("find logs", err)
	}
	return logs, nil
}

// FindPage returns the page of q that follows bookmark, decoded as records.
func (s *Store) FindPage(ctx context.Context, q logquery.Query, bookmark string) (cursor.Page[models.LogRecord], error) {
	return findPage(ctx, s.c, q, bookmark, func(rec models.LogRecord) string { return rec.ID })
}

// ScanPage returns the page of q that follows bookmark as raw documents.
func (s *Store) ScanPage(ctx context.Context, q logquery.Query, bookmark string) (cursor.Page[bson.Raw], error) {
	return findPage(ctx, s.c, q, bookmark, rawID)
}

// Pager binds q for cursor.Pages / cursor.Documents.
func (s *Store) Pager(q logquery.Query) cursor.PageFunc[models.LogRecord] {
	return func(ctx context.Context, bookmark string) (cursor.Page[models.LogRecord], error) {
		return s.FindPage(ctx, q, bookmark)
	}
}

// Scanner binds q for raw full-collection scans.
func (s *Store) Scanner(q logquery.Query) cursor.PageFunc[bson.Raw] {
	return func(ctx context.Context, bookmark string) (cursor.Page[bson.Raw], error) {
		return s.ScanPage(ctx, q, bookmark)
	}
}

func findPage[T any](ctx context.Context, c *mongo.Collection, q logquery.Query, bookmark string, idOf func(T) string) (cursor.Page[T], error) {
	filter := filterOf(q)
	if bookmark != "" {
		last, err := DecodeBookmark(bookmark)
		if err != nil {
			return cursor.Page[T]{}, err
		}
		filter = bson.D{{Key: "$and", Value: bson.A{
			filter,
			bson.D{{Key: models.FieldID, Value: bson.D{{Key: "$lt", Value: last}}}},
		}}}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = logquery.DefaultScanPageSize
	}
	opts := options.Find().SetSort(logquery.IdentityDesc()).SetLimit(limit)
	if q.Projection != nil {
		opts.SetProjection(q.Projection)
	}

	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return cursor.Page[T]{}, apperr.Store("find page", err)
	}
	defer cur.Close(ctx)

	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return cursor.Page[T]{}, apperr.Store("find page", err)
	}
	if len(docs) == 0 {
		return cursor.Page[T]{Docs: docs, Bookmark: bookmark}, nil
	}
	return cursor.Page[T]{Docs: docs, Bookmark: EncodeBookmark(idOf(docs[len(docs)-1]))}, nil
}

func filterOf(q logquery.Query) bson.D {
	if q.Filter == nil {
		return bson.D{}
	}
	return q.Filter
}

func rawID(doc bson.Raw) string {
	id, _ := doc.Lookup(models.FieldID).StringValueOK()
	return id
}

// EncodeBookmark returns the bookmark continuing after id.
func EncodeBookmark(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeBookmark returns the _id a bookmark continues after.
func DecodeBookmark(bookmark string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(bookmark)
	if err != nil || len(b) == 0 {
		return "", apperr.Validation("Bad Bookmark.")
	}
	return string(b), nil
}
