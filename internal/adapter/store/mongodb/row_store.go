// Package mongodb backs the relational row-store capability with MongoDB
// collections, one collection per table.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/listing/domain"
)

type RowStore struct {
	db     *mongo.Database
	logger *zap.Logger
}

func NewRowStore(db *mongo.Database, logger *zap.Logger) *RowStore {
	return &RowStore{db: db, logger: logger}
}

// EnsureIndexes creates the unique (user_id, car_id) index on favorites.
// The index is the backstop for the read-then-write favorite toggle:
// concurrent double-inserts surface as duplicate-key errors instead of
// duplicate rows.
func (s *RowStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection("favorites").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "car_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create favorites index: %w", err)
	}
	return nil
}

func (s *RowStore) Select(ctx context.Context, table string, filter domain.Filter) ([]domain.Row, error) {
	findOpts := options.Find()
	if filter.Limit > 0 {
		findOpts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		findOpts.SetSkip(int64(filter.Offset))
	}

	cursor, err := s.db.Collection(table).Find(ctx, toQuery(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	rows := make([]domain.Row, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, docToRow(doc))
	}
	return rows, nil
}

// Insert writes the row and returns it with the assigned id and creation
// time, matching the return-inserted-row contract of the gateway.
func (s *RowStore) Insert(ctx context.Context, table string, row domain.Row) ([]domain.Row, error) {
	doc := bson.M{}
	for k, v := range row {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	oid := primitive.NewObjectID()
	doc["_id"] = oid
	if _, ok := doc["created_at"]; !ok {
		doc["created_at"] = time.Now().UTC()
	}

	if _, err := s.db.Collection(table).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// The only unique compound index lives on favorites.
			return nil, fmt.Errorf("%w: %v", domain.ErrDuplicateFavorite, err)
		}
		s.logger.Error("insert failed", zap.String("table", table), zap.Error(err))
		return nil, err
	}
	return []domain.Row{docToRow(doc)}, nil
}

func (s *RowStore) Delete(ctx context.Context, table string, filter domain.Filter) error {
	_, err := s.db.Collection(table).DeleteMany(ctx, toQuery(filter))
	return err
}

func toQuery(filter domain.Filter) bson.M {
	query := bson.M{}
	for column, value := range filter.Eq {
		query[columnName(column)] = columnValue(column, value)
	}
	for column, values := range filter.In {
		set := make([]any, 0, len(values))
		for _, v := range values {
			set = append(set, columnValue(column, v))
		}
		query[columnName(column)] = bson.M{"$in": set}
	}
	return query
}

func columnName(column string) string {
	if column == "id" {
		return "_id"
	}
	return column
}

// columnValue converts id strings back to ObjectIDs; ids that were never
// ObjectIDs (fixtures, external ids) are matched as plain strings.
func columnValue(column string, value any) any {
	if column != "id" {
		return value
	}
	if s, ok := value.(string); ok {
		if oid, err := primitive.ObjectIDFromHex(s); err == nil {
			return oid
		}
	}
	return value
}

func docToRow(doc bson.M) domain.Row {
	row := make(domain.Row, len(doc))
	for k, v := range doc {
		switch val := v.(type) {
		case primitive.ObjectID:
			if k == "_id" {
				row["id"] = val.Hex()
			} else {
				row[k] = val.Hex()
			}
		case primitive.DateTime:
			row[k] = val.Time()
		default:
			if k == "_id" {
				row["id"] = v
			} else {
				row[k] = v
			}
		}
	}
	return row
}
