package main

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// IOError means an input or properties file could not be opened or read
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError carries the first line of the topic file that did not parse
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse line %d: %q", e.Line, e.Text)
}

func (e *ParseError) Unwrap() error {
	return ErrUnparseableLine
}

// SnapshotError means the existing topic names could not be fetched
type SnapshotError struct {
	Err error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("failed to fetch existing topics: %v", e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}

// CreationError stops a run at the topic defined on Line
type CreationError struct {
	Line  int
	Topic string
	Err   error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create topic '%s' defined at line %d: %v", e.Topic, e.Line, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

// TopicError is a per-topic failure reported by the cluster
type TopicError struct {
	Topic  string
	Code   kafka.ErrorCode
	Detail string
}

func (e *TopicError) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}
