// Package audit persists the append-only trail of the payment lifecycle:
// approval decisions and report export records.
package audit

import (
	"context"
	"time"

	mg "payables_service/internal/config/connections/mongo"
	"payables_service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DecisionsCollection = "approval_decisions"

// DecisionStore writes immutable ApprovalDecision documents. There is no
// update path on purpose.
type DecisionStore struct {
	m *mg.Mongo
}

func NewDecisionStore(m *mg.Mongo) *DecisionStore {
	return &DecisionStore{m: m}
}

func (s *DecisionStore) Insert(ctx context.Context, d models.ApprovalDecision) error {
	if s.m == nil || s.m.Database == nil {
		return mongo.ErrClientDisconnected
	}
	if d.DecidedAt.IsZero() {
		d.DecidedAt = time.Now().UTC()
	}
	_, err := s.m.Collection(DecisionsCollection).InsertOne(ctx, d, options.InsertOne())
	return err
}

func (s *DecisionStore) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ApprovalDecision, error) {
	if s.m == nil || s.m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}

	opts := options.Find().SetSort(bson.D{{Key: "decided_at", Value: 1}})
	cur, err := s.m.Collection(DecisionsCollection).Find(ctx, bson.M{"schedule_id": scheduleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.ApprovalDecision, 0)
	for cur.Next(ctx) {
		var d models.ApprovalDecision
		if err := cur.Decode(&d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, cur.Err()
}
