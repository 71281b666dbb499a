package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dallastaras/nutrikpi/internal/domain/models"
)

const (
	metricsCollection   = "daily_metrics"
	snapshotsCollection = "kpi_snapshots"
)

// Repository defines the metric source and snapshot storage operations.
type Repository interface {
	FindDailyMetrics(ctx context.Context, districtID string, dateRange models.DateRange) ([]models.DailyMetricRecord, error)
	UpsertDailyMetrics(ctx context.Context, records []models.DailyMetricRecord) (int64, error)
	SaveSnapshot(ctx context.Context, snapshot models.KPISnapshot) error
	LatestSnapshot(ctx context.Context, districtID string) (*models.KPISnapshot, error)
}

var _ Repository = (*MongoDBRepository)(nil)

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository connects to MongoDB and ensures the metric indexes exist.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(metricsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "district_id", Value: 1}, {Key: "school_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create daily metrics index: %w", err)
	}

	_, err = r.db.Collection(snapshotsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "district_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshot index: %w", err)
	}

	return nil
}

// FindDailyMetrics loads a district's records for the date range ordered by
// date, then school.
func (r *MongoDBRepository) FindDailyMetrics(ctx context.Context, districtID string, dateRange models.DateRange) ([]models.DailyMetricRecord, error) {
	filter := metricsFilter(districtID, dateRange)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "school_id", Value: 1}})

	cursor, err := r.db.Collection(metricsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find daily metrics: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.DailyMetricRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode daily metrics: %w", err)
	}

	r.logger.Debug("daily metrics loaded",
		zap.String("district", districtID),
		zap.Int("records", len(records)))

	return records, nil
}

// metricsFilter selects a district's records on the days of the range. The
// end day is included by bounding on the following midnight.
func metricsFilter(districtID string, dateRange models.DateRange) bson.M {
	filter := bson.M{"district_id": districtID}

	dateFilter := bson.M{}
	if !dateRange.Start.IsZero() {
		dateFilter["$gte"] = models.Day(dateRange.Start)
	}
	if !dateRange.End.IsZero() {
		dateFilter["$lt"] = models.Day(dateRange.End).AddDate(0, 0, 1)
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	return filter
}

// UpsertDailyMetrics replaces records keyed by district, school and day, and
// returns how many documents were inserted or changed.
func (r *MongoDBRepository) UpsertDailyMetrics(ctx context.Context, records []models.DailyMetricRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, 0, len(records))
	for _, record := range records {
		record.Date = models.Day(record.Date)
		filter := bson.M{
			"district_id": record.DistrictID,
			"school_id":   record.SchoolID,
			"date":        record.Date,
		}
		writes = append(writes, mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(record).SetUpsert(true))
	}

	result, err := r.db.Collection(metricsCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert daily metrics: %w", err)
	}

	return result.UpsertedCount + result.ModifiedCount, nil
}

// SaveSnapshot saves a weekly KPI snapshot to the database.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.KPISnapshot) error {
	_, err := r.db.Collection(snapshotsCollection).InsertOne(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("failed to insert kpi snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently created snapshot, or nil when none exists.
func (r *MongoDBRepository) LatestSnapshot(ctx context.Context, districtID string) (*models.KPISnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var snapshot models.KPISnapshot
	err := r.db.Collection(snapshotsCollection).FindOne(ctx, bson.M{"district_id": districtID}, opts).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find kpi snapshot: %w", err)
	}

	return &snapshot, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
