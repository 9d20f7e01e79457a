package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/memberships/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const membershipCounterID = "memberships"

// MongoMembershipRepository implements domain.MembershipRepository
type MongoMembershipRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoMembershipRepository creates a new membership repository
func NewMongoMembershipRepository(db *mongo.Database) *MongoMembershipRepository {
	return &MongoMembershipRepository{
		collection: db.Collection("memberships"),
		counters:   db.Collection("counters"),
	}
}

// nextID atomically increments the membership sequence and returns the new value
func (r *MongoMembershipRepository) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": membershipCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate membership id: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoMembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}
	membership.ID = id
	if membership.CreatedAt.IsZero() {
		membership.CreatedAt = time.Now().UTC()
	}

	doc := bson.M{
		"_id":              membership.ID,
		"uuid":             membership.UUID,
		"name":             membership.Name,
		"user_id":          membership.UserID,
		"payment_method":   membership.PaymentMethod,
		"recurring_price":  membership.RecurringPrice,
		"billing_interval": string(membership.BillingInterval),
		"billing_periods":  membership.BillingPeriods,
		"valid_from":       membership.ValidFrom,
		"valid_until":      membership.ValidUntil,
		"state":            string(membership.State),
		"created_at":       membership.CreatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

func (r *MongoMembershipRepository) GetByID(ctx context.Context, id int64) (*domain.Membership, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return mapBsonToMembership(raw), nil
}

// List returns memberships in insertion order
func (r *MongoMembershipRepository) List(ctx context.Context) ([]*domain.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer cursor.Close(ctx)

	memberships := []*domain.Membership{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		memberships = append(memberships, mapBsonToMembership(raw))
	}
	return memberships, cursor.Err()
}

// MongoMembershipPeriodRepository implements domain.MembershipPeriodRepository
type MongoMembershipPeriodRepository struct {
	collection *mongo.Collection
}

// NewMongoMembershipPeriodRepository creates a new period repository and ensures its lookup index
func NewMongoMembershipPeriodRepository(db *mongo.Database) *MongoMembershipPeriodRepository {
	coll := db.Collection("membership_periods")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "membership_id", Value: 1}, {Key: "sequence", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoMembershipPeriodRepository{collection: coll}
}

func (r *MongoMembershipPeriodRepository) CreateMany(ctx context.Context, periods []*domain.MembershipPeriod) error {
	if len(periods) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(periods))
	for _, p := range periods {
		docs = append(docs, bson.M{
			"_id":           p.UUID,
			"sequence":      p.ID,
			"membership_id": p.MembershipID,
			"start":         p.Start,
			"end":           p.End,
			"state":         string(p.State),
		})
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create membership periods: %w", err)
	}
	return nil
}

func (r *MongoMembershipPeriodRepository) ListByMembership(ctx context.Context, membershipID int64) ([]*domain.MembershipPeriod, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"membership_id": membershipID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list membership periods: %w", err)
	}
	defer cursor.Close(ctx)

	periods := []*domain.MembershipPeriod{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		periods = append(periods, mapBsonToPeriod(raw))
	}
	return periods, cursor.Err()
}

// MongoTransactor runs repository writes inside a multi-document transaction.
// Requires a replica set or sharded cluster.
type MongoTransactor struct {
	client *mongo.Client
}

// NewMongoTransactor creates a transactor bound to client
func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

func (t *MongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func mapBsonToMembership(raw bson.M) *domain.Membership {
	m := &domain.Membership{}

	m.ID = toInt64(raw["_id"])
	if v, ok := raw["uuid"].(string); ok {
		m.UUID = v
	}
	if v, ok := raw["name"].(string); ok {
		m.Name = v
	}
	m.UserID = toInt64(raw["user_id"])
	if v, ok := raw["payment_method"].(string); ok {
		m.PaymentMethod = v
	}
	if v, ok := raw["recurring_price"].(float64); ok {
		m.RecurringPrice = v
	}
	if v, ok := raw["billing_interval"].(string); ok {
		m.BillingInterval = domain.BillingInterval(v)
	}
	m.BillingPeriods = int(toInt64(raw["billing_periods"]))
	if v, ok := raw["valid_from"].(primitive.DateTime); ok {
		m.ValidFrom = v.Time().UTC()
	}
	if v, ok := raw["valid_until"].(primitive.DateTime); ok {
		m.ValidUntil = v.Time().UTC()
	}
	if v, ok := raw["state"].(string); ok {
		m.State = domain.MembershipState(v)
	}
	if v, ok := raw["created_at"].(primitive.DateTime); ok {
		m.CreatedAt = v.Time().UTC()
	}

	return m
}

func mapBsonToPeriod(raw bson.M) *domain.MembershipPeriod {
	p := &domain.MembershipPeriod{}

	if v, ok := raw["_id"].(string); ok {
		p.UUID = v
	}
	p.ID = int(toInt64(raw["sequence"]))
	p.MembershipID = toInt64(raw["membership_id"])
	if v, ok := raw["start"].(primitive.DateTime); ok {
		p.Start = v.Time().UTC()
	}
	if v, ok := raw["end"].(primitive.DateTime); ok {
		p.End = v.Time().UTC()
	}
	if v, ok := raw["state"].(string); ok {
		p.State = domain.PeriodState(v)
	}

	return p
}

// toInt64 reads a BSON number regardless of the width it was stored with
func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
