// internal/app/system/schema/schema.go
package schema

import (
	"github.com/dalemusser/stratalog/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	LogsRecords = "logs_records"
	LogsLogin   = "logs_login"
)

// Index is a required index on one collection.
type Index struct {
	Name   string
	Keys   bson.D
	Unique bool
	Sparse bool
}

// Collection is a required collection, its optional JSON-Schema validator
// and the indexes it must carry.
type Collection struct {
	Name      string
	Validator bson.M
	Indexes   []Index
}

// Schema is the full set of collections the service needs before it can
// serve. It is built once at process start and never mutated.
type Schema struct {
	Collections []Collection
}

// Default returns the schema for the crash-log store.
func Default() Schema {
	return Schema{
		Collections: []Collection{
			{
				Name:      LogsRecords,
				Validator: logsRecordsValidator(),
				Indexes: []Index{
					// Range queries on findLogs
					{
						Name: "idx_logs_timestamp",
						Keys: bson.D{{Key: models.FieldTimestamp, Value: 1}},
					},
					// Exact userName filter
					{
						Name:   "idx_logs_login_user_timestamp",
						Keys:   bson.D{{Key: models.FieldLoginName, Value: 1}, {Key: models.FieldTimestamp, Value: 1}},
						Sparse: true,
					},
				},
			},
			{
				Name:      LogsLogin,
				Validator: logsLoginValidator(),
			},
		},
	}
}

// model converts an Index to the driver's IndexModel.
func (ix Index) model() mongo.IndexModel {
	opts := options.Index().SetName(ix.Name)
	if ix.Unique {
		opts.SetUnique(true)
	}
	if ix.Sparse {
		opts.SetSparse(true)
	}
	return mongo.IndexModel{Keys: ix.Keys, Options: opts}
}

/* ------------------------- JSON-Schema docs ---------------------- */

func logsRecordsValidator() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{models.FieldID, models.FieldTimestamp},
			"properties": bson.M{
				models.FieldID:        bson.M{"bsonType": "string", "minLength": 1},
				models.FieldTimestamp: bson.M{"bsonType": "number"},
				models.FieldData:      bson.M{"bsonType": "string"},
			},
		},
	}
}

func logsLoginValidator() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id"},
			"properties": bson.M{
				"_id":         bson.M{"bsonType": "string", "minLength": 1},
				"authKey":     bson.M{"bsonType": "string"},
				"authKeyHash": bson.M{"bsonType": "string"},
			},
		},
	}
}
