package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ClusterAdmin wraps the Kafka admin client with the calls a run needs
type ClusterAdmin struct {
	adminClient *kafka.AdminClient
	timeout     time.Duration
}

// NewClusterAdmin creates a new Kafka admin client from the connection properties
func NewClusterAdmin(configMap kafka.ConfigMap, settings Settings, logger *slog.Logger) (*ClusterAdmin, error) {
	applySettings(configMap, settings)

	logger.Info("creating kafka admin client",
		"bootstrap.servers", configValue(configMap, "bootstrap.servers"),
		"security.protocol", configValue(configMap, "security.protocol"),
		"timeout", settings.Timeout)

	adminClient, err := kafka.NewAdminClient(&configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin client: %w", err)
	}

	return &ClusterAdmin{
		adminClient: adminClient,
		timeout:     settings.Timeout,
	}, nil
}

// ExistingTopicNames fetches the names of all topics currently on the cluster.
// The request waits for the configured timeout or the ctx deadline, whichever is sooner.
func (a *ClusterAdmin) ExistingTopicNames(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SnapshotError{Err: err}
	}

	metadata, err := a.adminClient.GetMetadata(nil, true, int(requestTimeout(ctx, a.timeout).Milliseconds()))
	if err != nil {
		return nil, &SnapshotError{Err: err}
	}

	topics := make(map[string]struct{}, len(metadata.Topics))
	for _, topic := range metadata.Topics {
		topics[topic.Topic] = struct{}{}
	}

	return topics, nil
}

// CreateTopic creates a single topic and waits for the cluster's answer
func (a *ClusterAdmin) CreateTopic(ctx context.Context, def TopicDefinition) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results, err := a.adminClient.CreateTopics(ctx,
		[]kafka.TopicSpecification{topicSpecification(def)},
		kafka.SetAdminOperationTimeout(a.timeout))
	if err != nil {
		return fmt.Errorf("create topics request: %w", err)
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError {
			return &TopicError{
				Topic:  result.Topic,
				Code:   result.Error.Code(),
				Detail: result.Error.String(),
			}
		}
	}

	return nil
}

// Close releases the admin client
func (a *ClusterAdmin) Close() {
	a.adminClient.Close()
}

// topicSpecification folds the config overrides in file order, so the last
// of a repeated key wins
func topicSpecification(def TopicDefinition) kafka.TopicSpecification {
	spec := kafka.TopicSpecification{
		Topic:             def.Name,
		NumPartitions:     int(def.Partitions),
		ReplicationFactor: int(def.ReplicationFactor),
	}
	if len(def.Config) > 0 {
		spec.Config = make(map[string]string, len(def.Config))
		for _, entry := range def.Config {
			spec.Config[entry.Key] = entry.Value
		}
	}
	return spec
}

// requestTimeout shortens timeout to what is left before the ctx deadline
func requestTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return timeout
	}
	remaining := time.Until(deadline)
	if remaining < time.Millisecond {
		return time.Millisecond
	}
	if remaining < timeout {
		return remaining
	}
	return timeout
}

func configValue(configMap kafka.ConfigMap, key string) string {
	v, ok := configMap[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}
