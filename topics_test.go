package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Line
	}{
		{"empty", "", Line{Kind: LineEmpty}},
		{"whitespace only", "   \t ", Line{Kind: LineEmpty}},
		{"bare hash", "#", Line{Kind: LineComment, Comment: ""}},
		{"comment", "# note", Line{Kind: LineComment, Comment: " note"}},
		{"indented comment", "   # hello world", Line{Kind: LineComment, Comment: " hello world"}},
		{"comment keeps later hashes", "#a#b", Line{Kind: LineComment, Comment: "a#b"}},
		{
			"definition",
			"topicA,3,2",
			Line{Kind: LineDefinition, Topic: &TopicDefinition{Name: "topicA", Partitions: 3, ReplicationFactor: 2, Config: []ConfigEntry{}}},
		},
		{
			"definition with config",
			"topicA,3,2,cleanup.policy=compact",
			Line{Kind: LineDefinition, Topic: &TopicDefinition{
				Name: "topicA", Partitions: 3, ReplicationFactor: 2,
				Config: []ConfigEntry{{Key: "cleanup.policy", Value: "compact"}},
			}},
		},
		{
			"fields are trimmed",
			"  orders-v1 , 12 ,3 , retention.ms = 604800000 ",
			Line{Kind: LineDefinition, Topic: &TopicDefinition{
				Name: "orders-v1", Partitions: 12, ReplicationFactor: 3,
				Config: []ConfigEntry{{Key: "retention.ms", Value: "604800000"}},
			}},
		},
		{
			"duplicate config keys are kept in order",
			"adam,9,11,a=b,c=d,a=e",
			Line{Kind: LineDefinition, Topic: &TopicDefinition{
				Name: "adam", Partitions: 9, ReplicationFactor: 11,
				Config: []ConfigEntry{{Key: "a", Value: "b"}, {Key: "c", Value: "d"}, {Key: "a", Value: "e"}},
			}},
		},
		{
			"signed integers",
			"my_topic,-1,+2",
			Line{Kind: LineDefinition, Topic: &TopicDefinition{Name: "my_topic", Partitions: -1, ReplicationFactor: 2, Config: []ConfigEntry{}}},
		},
		{
			"trailing comment",
			"topicA,3,2 # trailing note",
			Line{
				Kind:    LineDefinitionWithComment,
				Topic:   &TopicDefinition{Name: "topicA", Partitions: 3, ReplicationFactor: 2, Config: []ConfigEntry{}},
				Comment: " trailing note",
			},
		},
		{
			"trailing comment after config",
			"adam,9,11,a=b,c=d# hello world",
			Line{
				Kind: LineDefinitionWithComment,
				Topic: &TopicDefinition{
					Name: "adam", Partitions: 9, ReplicationFactor: 11,
					Config: []ConfigEntry{{Key: "a", Value: "b"}, {Key: "c", Value: "d"}},
				},
				Comment: " hello world",
			},
		},
		{
			"comment is not reparsed",
			"adam,9,11#,a=b,c=d",
			Line{
				Kind:    LineDefinitionWithComment,
				Topic:   &TopicDefinition{Name: "adam", Partitions: 9, ReplicationFactor: 11, Config: []ConfigEntry{}},
				Comment: ",a=b,c=d",
			},
		},
		{
			"empty trailing comment",
			"adam,9,11#",
			Line{
				Kind:  LineDefinitionWithComment,
				Topic: &TopicDefinition{Name: "adam", Partitions: 9, ReplicationFactor: 11, Config: []ConfigEntry{}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLine_Rejects(t *testing.T) {
	lines := []string{
		"bad name,3,2",
		"1topic,3,2",
		"_topic,3,2",
		"topic.a,3,2",
		",3,2",
		"topicA",
		"topicA,3",
		"topicA,3 # only two fields",
		"topicA,x,2",
		"topicA,3,2.0",
		"topicA,3,",
		"topicA,2147483648,1",
		"topicA,1,-2147483649",
		"topicA,3,2,",
		"topicA,3,2,compact",
		"topicA,3,2,=compact",
		"topicA,3,2,cleanup.policy=",
		"topicA,3,2,cleanup policy=compact",
		"topicA,3,2,cleanup.policy=compact,delete",
		"topicA,3,2,min.cleanable.dirty.ratio=0.5",
		"topicA,3,2,a=b=c",
		"tópico,3,2",
	}

	for _, raw := range lines {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseLine(raw)
			assert.ErrorIs(t, err, ErrUnparseableLine)
			assert.Equal(t, Line{}, got)
		})
	}
}

func TestParseLine_Int32Bounds(t *testing.T) {
	got, err := ParseLine("edge,2147483647,-2147483648")
	require.NoError(t, err)
	assert.Equal(t, int32(2147483647), got.Topic.Partitions)
	assert.Equal(t, int32(-2147483648), got.Topic.ReplicationFactor)
}

func TestLoadTopicFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	t.Run("classifies every line", func(t *testing.T) {
		content := strings.Join([]string{
			"# topics for the orders service",
			"",
			"orders,6,3,cleanup.policy=compact",
			"payments,3,3 # keyed by account",
			"   ",
		}, "\n")
		require.NoError(t, afero.WriteFile(fs, "topics.txt", []byte(content), 0o644))

		lines, err := LoadTopicFile(fs, "topics.txt")
		require.NoError(t, err)
		require.Len(t, lines, 5)

		kinds := make([]LineKind, 0, len(lines))
		for i, l := range lines {
			assert.Equal(t, i+1, l.Number)
			kinds = append(kinds, l.Kind)
		}
		assert.Equal(t, []LineKind{LineComment, LineEmpty, LineDefinition, LineDefinitionWithComment, LineEmpty}, kinds)
		assert.Equal(t, " keyed by account", lines[3].Comment)

		defs := Definitions(lines)
		require.Len(t, defs, 2)
		assert.Equal(t, 3, defs[0].Line)
		assert.Equal(t, "orders", defs[0].Topic.Name)
		assert.Equal(t, 4, defs[1].Line)
		assert.Equal(t, "payments", defs[1].Topic.Name)
	})

	t.Run("accepts CRLF line endings", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "crlf.txt", []byte("a,1,1\r\n# c\r\nb,2,2\r\n"), 0o644))

		lines, err := LoadTopicFile(fs, "crlf.txt")
		require.NoError(t, err)
		defs := Definitions(lines)
		require.Len(t, defs, 2)
		assert.Equal(t, "b", defs[1].Topic.Name)
		assert.Equal(t, 3, defs[1].Line)
	})

	t.Run("stops at the first bad line", func(t *testing.T) {
		content := "good,1,1\n# fine\nbad name,1,1\nalso bad\n"
		require.NoError(t, afero.WriteFile(fs, "bad.txt", []byte(content), 0o644))

		lines, err := LoadTopicFile(fs, "bad.txt")
		assert.Nil(t, lines)

		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 3, parseErr.Line)
		assert.Equal(t, "bad name,1,1", parseErr.Text)
		assert.ErrorIs(t, err, ErrUnparseableLine)
	})

	t.Run("over-long line is a parse failure", func(t *testing.T) {
		content := "first,1,1\n" + strings.Repeat("x", maxLineSize+1) + "\nlast,1,1\n"
		require.NoError(t, afero.WriteFile(fs, "long.txt", []byte(content), 0o644))

		lines, err := LoadTopicFile(fs, "long.txt")
		assert.Nil(t, lines)

		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 2, parseErr.Line)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTopicFile(fs, "nowhere.txt")

		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, "nowhere.txt", ioErr.Path)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty file", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "empty.txt", nil, 0o644))

		lines, err := LoadTopicFile(fs, "empty.txt")
		require.NoError(t, err)
		assert.Empty(t, lines)
		assert.Empty(t, Definitions(lines))
	})
}

func TestListTopicConfigs(t *testing.T) {
	lines := []NumberedLine{
		{Number: 1, Line: Line{Kind: LineComment, Comment: " header"}},
		{Number: 2, Line: Line{Kind: LineDefinitionWithComment, Comment: " compacted ", Topic: &TopicDefinition{
			Name: "orders", Partitions: 6, ReplicationFactor: 3,
			Config: []ConfigEntry{{Key: "cleanup.policy", Value: "compact"}, {Key: "min.insync.replicas", Value: "2"}},
		}}},
		{Number: 3, Line: Line{Kind: LineEmpty}},
		{Number: 4, Line: Line{Kind: LineDefinition, Topic: &TopicDefinition{Name: "audit", Partitions: 1, ReplicationFactor: 1}}},
	}

	var buf bytes.Buffer
	require.NoError(t, ListTopicConfigs(&buf, lines))

	var listed TopicsConfig
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &listed))
	require.Len(t, listed.Topics, 2)

	orders := listed.Topics[0]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, int32(6), orders.Partitions)
	assert.Equal(t, int32(3), orders.ReplicationFactor)
	assert.Equal(t, 2, orders.Line)
	assert.Equal(t, "compacted", orders.Description)
	require.Len(t, orders.Config, 2)
	assert.Equal(t, "cleanup.policy", orders.Config[0].Key)
	assert.Equal(t, "compact", orders.Config[0].Value)
	assert.Equal(t, "min.insync.replicas", orders.Config[1].Key)

	audit := listed.Topics[1]
	assert.Equal(t, "audit", audit.Name)
	assert.Equal(t, 4, audit.Line)
	assert.Empty(t, audit.Config)
	assert.NotContains(t, buf.String(), "header")
}
