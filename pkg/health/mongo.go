package health

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoChecker pings the primary of the document database
type MongoChecker struct {
	client  *mongo.Client
	timeout time.Duration
}

func NewMongoChecker(client *mongo.Client, timeout time.Duration) *MongoChecker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &MongoChecker{client: client, timeout: timeout}
}

func (c *MongoChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return NewUnhealthyResult(c.Name(), err).WithDuration(time.Since(start))
	}
	return NewHealthyResult(c.Name(), "connected").
		WithDuration(time.Since(start)).
		WithMetadata("sessions_in_progress", c.client.NumberSessionsInProgress())
}

func (c *MongoChecker) Name() string {
	return "mongo"
}
