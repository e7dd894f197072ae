// internal/output/mongodb.go
package output

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modestry/catalogpipe/internal/config"
	"github.com/modestry/catalogpipe/internal/pipeline"
)

// ReviewQueue pushes suspected duplicates to the MongoDB collection the
// human-review tool reads from. Each document carries the new candidate,
// the matched baseline record, and the similarity score; the reviewer's
// verdict flows back through a channel this pipeline does not own.
type ReviewQueue struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewReviewQueue connects to the configured collection.
func NewReviewQueue(ctx context.Context, cfg config.ReviewQueueConfig) (*ReviewQueue, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &ReviewQueue{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Write implements Sink. Only the needs_duplicate_review bucket goes to
// the queue; the other buckets belong to the storage collaborator.
func (q *ReviewQueue) Write(ctx context.Context, report *pipeline.RunReport) error {
	items := report.Plan.NeedsDuplicateReview
	if len(items) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		docs = append(docs, bson.M{
			"retailer":  report.Retailer,
			"page_url":  report.PageURL,
			"candidate": item.Candidate,
			"baseline":  item.Baseline,
			"score":     item.Score,
			"enqueued":  time.Now().UTC(),
			"status":    "pending",
		})
	}

	if _, err := q.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to enqueue review items: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (q *ReviewQueue) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return q.client.Disconnect(ctx)
}
