package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// TopicCreator creates a single topic on the cluster
type TopicCreator interface {
	CreateTopic(ctx context.Context, def TopicDefinition) error
}

// RunState is where a TopicManager is in its single run
type RunState int

const (
	StateNotStarted RunState = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// TopicManager reconciles topic definitions against the cluster
type TopicManager struct {
	creator TopicCreator
	out     io.Writer
	logger  *slog.Logger
	state   RunState
}

// NewTopicManager creates a new TopicManager writing its console output to out
func NewTopicManager(creator TopicCreator, out io.Writer, logger *slog.Logger) *TopicManager {
	return &TopicManager{
		creator: creator,
		out:     out,
		logger:  logger,
	}
}

// State reports the run state
func (tm *TopicManager) State() RunState {
	return tm.state
}

// Reconcile creates, one at a time and in file order, every defined topic
// whose name is not in existing. It stops at the first creation failure and
// returns the number of topics created (or, when dryRun, that would have been).
//
// existing is only read. A name defined again later in the file is skipped.
func (tm *TopicManager) Reconcile(ctx context.Context, defs []NumberedDefinition, existing map[string]struct{}, dryRun bool) (int, error) {
	tm.state = StateRunning

	requested := make(map[string]int, len(defs))
	createdCount := 0

	for _, def := range defs {
		name := def.Topic.Name

		if _, ok := existing[name]; ok {
			tm.logger.Debug("topic already exists, skipping", "topic", name, "line", def.Line)
			continue
		}

		if firstLine, ok := requested[name]; ok {
			fmt.Fprintf(tm.out, "⚠️  Topic '%s' at line %d was already defined at line %d, skipping\n", name, def.Line, firstLine)
			continue
		}
		requested[name] = def.Line

		if dryRun {
			fmt.Fprintf(tm.out, "📝 Would create topic '%s' (partitions: %d, replication: %d)\n",
				name, def.Topic.Partitions, def.Topic.ReplicationFactor)
			createdCount++
			continue
		}

		tm.logger.Debug("creating topic", "topic", name, "line", def.Line,
			"partitions", def.Topic.Partitions, "replication_factor", def.Topic.ReplicationFactor)

		if err := tm.creator.CreateTopic(ctx, def.Topic); err != nil {
			creationErr := &CreationError{Line: def.Line, Topic: name, Err: err}
			fmt.Fprintf(tm.out, "❌ Failed to create topic '%s' defined at line %d: %v\n", name, def.Line, err)
			fmt.Fprintf(tm.out, "📊 Total topics created: %d\n", createdCount)
			tm.state = StateAborted
			return createdCount, creationErr
		}

		fmt.Fprintf(tm.out, "✅ Created topic '%s'\n", name)
		createdCount++
	}

	fmt.Fprintf(tm.out, "📊 Total topics created: %d\n", createdCount)
	tm.state = StateCompleted

	return createdCount, nil
}
