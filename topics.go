package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// maxLineSize bounds a single physical line of the topic file
const maxLineSize = 1024 * 1024

var (
	topicNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	configKeyPattern = regexp.MustCompile(`^[A-Za-z0-9.]+$`)
)

// definitionValidator is shared by every parsed line; it caches struct info
var definitionValidator = validator.New()

func init() {
	_ = definitionValidator.RegisterValidation("topicname", func(fl validator.FieldLevel) bool {
		return topicNamePattern.MatchString(fl.Field().String())
	})
	_ = definitionValidator.RegisterValidation("configkey", func(fl validator.FieldLevel) bool {
		return configKeyPattern.MatchString(fl.Field().String())
	})
}

// ErrUnparseableLine is returned by ParseLine for any line outside the grammar
var ErrUnparseableLine = errors.New("line does not match topic file grammar")

// ConfigEntry is one key=value topic config override, i.e cleanup.policy=compact
type ConfigEntry struct {
	Key   string `validate:"required,configkey"`
	Value string `validate:"required,alphanum"`
}

// TopicDefinition describes a topic that should exist on the cluster
type TopicDefinition struct {
	Name              string `validate:"required,topicname"`
	Partitions        int32
	ReplicationFactor int32
	Config            []ConfigEntry `validate:"dive"`
}

// Validate checks the name and config charset rules
func (td *TopicDefinition) Validate() error {
	return definitionValidator.Struct(td)
}

// LineKind tells what a physical line of the topic file holds
type LineKind int

const (
	LineEmpty LineKind = iota
	LineComment
	LineDefinition
	LineDefinitionWithComment
)

func (k LineKind) String() string {
	switch k {
	case LineEmpty:
		return "empty"
	case LineComment:
		return "comment"
	case LineDefinition:
		return "definition"
	case LineDefinitionWithComment:
		return "definition with comment"
	default:
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
}

// Line is a classified line. Topic is set only for the definition kinds,
// Comment only for LineComment and LineDefinitionWithComment.
type Line struct {
	Kind    LineKind
	Topic   *TopicDefinition
	Comment string
}

// NumberedLine pairs a Line with its 1-based position in the file
type NumberedLine struct {
	Number int
	Line
}

// NumberedDefinition is a topic definition with the line it came from
type NumberedDefinition struct {
	Line  int
	Topic TopicDefinition
}

// ParseLine classifies one raw line of the topic file:
//
//	<blank>                                          empty
//	# text                                           comment
//	name,partitions,replication[,key=value]* [# text] definition
func ParseLine(raw string) (Line, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Line{Kind: LineEmpty}, nil
	}

	if strings.HasPrefix(trimmed, "#") {
		return Line{Kind: LineComment, Comment: trimmed[1:]}, nil
	}

	data, comment, hasComment := strings.Cut(trimmed, "#")

	fields := strings.Split(data, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 3 {
		return Line{}, ErrUnparseableLine
	}

	partitions, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return Line{}, ErrUnparseableLine
	}
	replicationFactor, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return Line{}, ErrUnparseableLine
	}

	topic := &TopicDefinition{
		Name:              fields[0],
		Partitions:        int32(partitions),
		ReplicationFactor: int32(replicationFactor),
		Config:            []ConfigEntry{},
	}

	for _, field := range fields[3:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Line{}, ErrUnparseableLine
		}
		topic.Config = append(topic.Config, ConfigEntry{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}

	if err := topic.Validate(); err != nil {
		return Line{}, ErrUnparseableLine
	}

	if hasComment {
		return Line{Kind: LineDefinitionWithComment, Topic: topic, Comment: comment}, nil
	}
	return Line{Kind: LineDefinition, Topic: topic}, nil
}

// LoadTopicFile reads and classifies every line of the topic file at path.
// It stops at the first line that cannot be parsed.
func LoadTopicFile(fs afero.Fs, path string) ([]NumberedLine, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()

	return readTopicLines(f, path)
}

func readTopicLines(r io.Reader, path string) ([]NumberedLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []NumberedLine
	number := 0
	for scanner.Scan() {
		number++
		text := scanner.Text()

		line, err := ParseLine(text)
		if err != nil {
			return nil, &ParseError{Line: number, Text: text}
		}
		lines = append(lines, NumberedLine{Number: number, Line: line})
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: number + 1, Text: "<line longer than 1 MiB>"}
		}
		return nil, &IOError{Path: path, Err: err}
	}

	return lines, nil
}

// Definitions keeps only the definition lines, in file order
func Definitions(lines []NumberedLine) []NumberedDefinition {
	var defs []NumberedDefinition
	for _, l := range lines {
		switch l.Kind {
		case LineDefinition, LineDefinitionWithComment:
			defs = append(defs, NumberedDefinition{Line: l.Number, Topic: *l.Topic})
		}
	}
	return defs
}

// TopicConfig represents a single topic in the --list YAML output
type TopicConfig struct {
	Name              string        `yaml:"name"`
	Partitions        int32         `yaml:"partitions"`
	ReplicationFactor int32         `yaml:"replication_factor"`
	Config            yaml.MapSlice `yaml:"config,omitempty"`
	Line              int           `yaml:"line"`
	Description       string        `yaml:"description,omitempty"`
}

// TopicsConfig represents the complete YAML listing
type TopicsConfig struct {
	Topics []TopicConfig `yaml:"topics"`
}

// ListTopicConfigs renders the definitions of a loaded file as YAML.
// Inline comments become the description.
func ListTopicConfigs(w io.Writer, lines []NumberedLine) error {
	config := TopicsConfig{Topics: []TopicConfig{}}
	for _, l := range lines {
		if l.Topic == nil {
			continue
		}
		tc := TopicConfig{
			Name:              l.Topic.Name,
			Partitions:        l.Topic.Partitions,
			ReplicationFactor: l.Topic.ReplicationFactor,
			Line:              l.Number,
			Description:       strings.TrimSpace(l.Comment),
		}
		for _, entry := range l.Topic.Config {
			tc.Config = append(tc.Config, yaml.MapItem{Key: entry.Key, Value: entry.Value})
		}
		config.Topics = append(config.Topics, tc)
	}

	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("failed to render topic listing: %w", err)
	}

	_, err = w.Write(data)
	return err
}
