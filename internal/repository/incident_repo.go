package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"photodoctor/internal/model"
)

// IncidentRepo stores the audit trail of diagnosis sessions
type IncidentRepo interface {
	EnsureIndexes(ctx context.Context)
	Create(ctx context.Context, inc *model.Incident) error
	Finalize(ctx context.Context, inc *model.Incident) error
	GetByID(ctx context.Context, id string) (*model.Incident, error)
	List(ctx context.Context, limit int) ([]*model.Incident, error)
}

type incidentRepo struct {
	collection *mongo.Collection
	log        *zap.Logger
}

// NewIncidentRepo creates a new incident repository
func NewIncidentRepo(db *mongo.Database, logger *zap.Logger) IncidentRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &incidentRepo{
		collection: db.Collection("incidents"),
		log:        logger,
	}
}

func (r *incidentRepo) EnsureIndexes(ctx context.Context) {
	indexes := []bson.D{
		{{Key: "createdAt", Value: -1}},
		{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
	}
	for _, keys := range indexes {
		if _, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys}); err != nil {
			r.log.Warn("[Incidents] failed to create index", zap.Error(err))
		}
	}
}

// Create inserts the incident once; replays of the same session are no-ops
func (r *incidentRepo) Create(ctx context.Context, inc *model.Incident) error {
	now := time.Now()
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = now
	}
	inc.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, inc)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// Finalize records the outcome. The photo-read fields are kept if the
// create write already landed, and filled in otherwise.
func (r *incidentRepo) Finalize(ctx context.Context, inc *model.Incident) error {
	now := time.Now()
	inc.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"status":          inc.Status,
			"crop":            inc.Crop,
			"primaryCategory": inc.PrimaryCategory,
			"possibleCauses":  inc.PossibleCauses,
			"riskLevel":       inc.RiskLevel,
			"need119":         inc.Need119,
			"questionsAsked":  inc.QuestionsAsked,
			"updatedAt":       now,
		},
		"$setOnInsert": bson.M{
			"source":        inc.Source,
			"imageUrls":     inc.ImageURLs,
			"region":        inc.Region,
			"visionSummary": inc.VisionSummary,
			"observations":  inc.Observations,
			"createdAt":     now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": inc.ID}, update, opts)
	return err
}

func (r *incidentRepo) GetByID(ctx context.Context, id string) (*model.Incident, error) {
	var inc model.Incident
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&inc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

// List returns the most recent incidents first
func (r *incidentRepo) List(ctx context.Context, limit int) ([]*model.Incident, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	incidents := []*model.Incident{}
	if err := cursor.All(ctx, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}
