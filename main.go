package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// clusterAdmin is what a run needs from the cluster
type clusterAdmin interface {
	TopicCreator
	ExistingTopicNames(ctx context.Context) (map[string]struct{}, error)
	Close()
}

type options struct {
	inputFile string
	confFile  string
	dryRun    bool
	list      bool
}

// app holds the collaborators of a run so tests can swap them
type app struct {
	fs           afero.Fs
	out          io.Writer
	errOut       io.Writer
	loadSettings func() (Settings, error)
	newAdmin     func(kafka.ConfigMap, Settings, *slog.Logger) (clusterAdmin, error)
}

func newApp() *app {
	return &app{
		fs:           afero.NewOsFs(),
		out:          os.Stdout,
		errOut:       os.Stderr,
		loadSettings: loadSettings,
		newAdmin: func(configMap kafka.ConfigMap, settings Settings, logger *slog.Logger) (clusterAdmin, error) {
			return NewClusterAdmin(configMap, settings, logger)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "kafka-topic-creator",
		Short: "Bulk create Kafka topics from an input file",
		Long: `Creates every topic listed in the input file that does not exist yet.

Each line of the input file is one of:
  <blank>
  # comment
  name,partitions,replication_factor[,key=value]* [# comment]

The whole file is validated before any topic is created. Topics that already
exist are skipped; the run stops at the first topic that fails to create.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// --list never connects, so it needs no connection properties
			if !opts.list && opts.confFile == "" {
				return errors.New(`required flag(s) "conf" not set`)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.inputFile, "file", "f", "", "Topic input file")
	flags.StringVarP(&opts.confFile, "conf", "c", "", "server.properties Kafka broker connect config file")
	flags.BoolVarP(&opts.dryRun, "test", "t", false, "Test mode. Print topics that would be created without creating them")
	flags.BoolVarP(&opts.list, "list", "l", false, "Print the parsed topic definitions as YAML and exit")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *app) run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := a.loadSettings()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: settings.SlogLevel()}))

	lines, err := LoadTopicFile(a.fs, opts.inputFile)
	if err != nil {
		return err
	}
	defs := Definitions(lines)
	logger.Debug("loaded topic file", "path", opts.inputFile, "lines", len(lines), "definitions", len(defs))

	if opts.list {
		return ListTopicConfigs(a.out, lines)
	}

	configMap, err := loadConnectionProperties(a.fs, opts.confFile)
	if err != nil {
		return err
	}

	admin, err := a.newAdmin(configMap, settings, logger)
	if err != nil {
		return err
	}
	defer admin.Close()

	existing, err := admin.ExistingTopicNames(ctx)
	if err != nil {
		return err
	}
	logger.Debug("fetched existing topics", "count", len(existing))

	if opts.dryRun {
		fmt.Fprintln(a.out, "🧪 Test mode: no topics will be created")
	}

	topicManager := NewTopicManager(admin, a.out, logger)
	_, err = topicManager.Reconcile(ctx, defs, existing, opts.dryRun)
	return err
}

func main() {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		// creation failures are already reported with the running count
		var creationErr *CreationError
		if !errors.As(err, &creationErr) {
			fmt.Fprintf(a.errOut, "❌ Error: %v\n", err)
		}
		os.Exit(1)
	}
}
