package audit

import (
	"context"
	"fmt"
	"time"

	mg "payables_service/internal/config/connections/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ExportRecordsCollection = "export_records"

// ExportRecord tracks one generated report workbook stored in S3.
type ExportRecord struct {
	ID        any       `bson:"_id,omitempty" json:"id"`
	Report    string    `bson:"report" json:"report"`
	Status    string    `bson:"status" json:"status"`
	AsOf      time.Time `bson:"as_of" json:"as_of"`
	Bucket    string    `bson:"bucket" json:"bucket"`
	Key       string    `bson:"key" json:"key"`
	SizeBytes int64     `bson:"size_bytes" json:"size_bytes"`
	RowCount  int       `bson:"row_count" json:"row_count"`
	CreatedBy *string   `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func InsertExportRecord(ctx context.Context, m *mg.Mongo, rec ExportRecord) (*mongo.InsertOneResult, error) {
	if m == nil || m.Client == nil || m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = "done"
	}

	doc := bson.D{
		{Key: "report", Value: rec.Report},
		{Key: "status", Value: rec.Status},
		{Key: "as_of", Value: rec.AsOf},
		{Key: "bucket", Value: rec.Bucket},
		{Key: "key", Value: rec.Key},
		{Key: "size_bytes", Value: rec.SizeBytes},
		{Key: "row_count", Value: rec.RowCount},
		{Key: "created_by", Value: rec.CreatedBy},
		{Key: "created_at", Value: rec.CreatedAt},
	}

	return m.Collection(ExportRecordsCollection).InsertOne(ctx, doc, options.InsertOne())
}

func FindExportRecordByID(ctx context.Context, m *mg.Mongo, id string) (ExportRecord, error) {
	var out ExportRecord
	if m == nil || m.Database == nil {
		return out, mongo.ErrClientDisconnected
	}
	coll := m.Collection(ExportRecordsCollection)

	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&out); err == nil {
			out.ID = oid
			return out, nil
		}
	}

	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		return out, fmt.Errorf("not found: %w", err)
	}
	out.ID = id
	return out, nil
}

func ListExportRecords(ctx context.Context, m *mg.Mongo, limit int64) ([]ExportRecord, error) {
	if m == nil || m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := m.Collection(ExportRecordsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	recs := make([]ExportRecord, 0)
	for cur.Next(ctx) {
		var r ExportRecord
		if err := cur.Decode(&r); err != nil {
			continue
		}
		recs = append(recs, r)
	}
	return recs, cur.Err()
}
