package engine

import (
	"context"

	"github.com/abhissng/synapse/adapters/aws"
	"github.com/abhissng/synapse/adapters/events/nats"
	"github.com/abhissng/synapse/adapters/log"
	"github.com/abhissng/synapse/utils/types"
)

// NewEventPublisher connects the trainer event sink when args name a NATS
// server, and returns nil otherwise.
func NewEventPublisher(args *Args, runID types.RunID, logger *log.Log) (*nats.NATSManager, error) {
	if args.EventsURL == "" {
		return nil, nil
	}
	return nats.NewNATSManager(args.EventsURL,
		nats.WithLogger(logger),
		nats.WithSubject(args.EventsSubject),
		nats.WithRunID(runID),
		nats.WithCircuitBreaker(),
	)
}

// NewCheckpointMirror builds the S3 checkpoint mirror when args name a bucket,
// and returns nil otherwise. Objects are keyed under series/descName.
func NewCheckpointMirror(ctx context.Context, args *Args, descName string) (*aws.Mirror, error) {
	if args.CkptBucket == "" {
		return nil, nil
	}
	cfg := aws.S3Config{Region: args.CkptRegion, Endpoint: args.CkptEndpoint}
	return aws.NewMirror(ctx, cfg, args.CkptBucket, aws.WithPrefix(args.SeriesName+"/"+descName))
}
