package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

type topicSpec struct {
	partitions  int32
	replication int16
	retention   time.Duration
	minISR      int
}

func main() {
	var ts topicSpec
	flags := pflag.NewFlagSet("topicmaker", pflag.ExitOnError)
	flags.String("config", "", "config file")
	flags.Int32Var(&ts.partitions, "partitions", 3, "partitions of the client events topic")
	flags.Int16Var(&ts.replication, "replication", 3, "replication factor")
	flags.DurationVar(&ts.retention, "retention", 7*24*time.Hour, "retention of client events")
	flags.IntVar(&ts.minISR, "min-isr", 1, "min.insync.replicas")
	_ = flags.Parse(os.Args[1:])

	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	topic := cfg.Broker.Topics.ClientEvents

	cl, err := createClient(cfg)
	if err != nil {
		printFail(err)
		os.Exit(1)
	}
	defer cl.Close()

	printStart(topic, ts)
	start := time.Now()

	if err := makeTopic(sigCtx, cl, topic, ts); err != nil {
		printFail(err)
		os.Exit(1)
	}
	if err := describeTopic(sigCtx, cl, topic); err != nil {
		printFail(err)
		os.Exit(1)
	}
	printComplete(start)
}

func createClient(cfg config.Config) (*kadm.Client, error) {
	broker := cfg.Broker
	opts := []kgo.Opt{kgo.SeedBrokers(broker.SeedBrokers...)}
	if broker.TLS.CAFile != "" {
		tlsCfg, err := adapter.MakeTLSConfig(
			broker.TLS.CAFile, broker.TLS.CertFile, broker.TLS.KeyFile,
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	return kadm.NewOptClient(opts...)
}

func (ts topicSpec) configs() map[string]*string {
	return map[string]*string{
		"cleanup.policy":      kadm.StringPtr("delete"),
		"min.insync.replicas": kadm.StringPtr(strconv.Itoa(ts.minISR)),
		"retention.ms":        kadm.StringPtr(strconv.FormatInt(ts.retention.Milliseconds(), 10)),
	}
}

func makeTopic(
	ctx context.Context, cl *kadm.Client, topic string, ts topicSpec,
) error {
	res, err := cl.CreateTopic(ctx, ts.partitions, ts.replication, ts.configs(), topic)
	if err != nil {
		return err
	}
	switch {
	case errors.Is(res.Err, kerr.TopicAlreadyExists):
		fmt.Printf("topic: %q already exists\n", res.Topic)
	case res.Err != nil:
		return fmt.Errorf("topic %q: %w", res.Topic, res.Err)
	default:
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}
	return nil
}

func describeTopic(ctx context.Context, cl *kadm.Client, topic string) error {
	details, err := cl.ListTopics(ctx, topic)
	if err != nil {
		return err
	}
	d, ok := details[topic]
	if !ok {
		return fmt.Errorf("topic %q is not listed by the cluster", topic)
	}
	if d.Err != nil {
		return fmt.Errorf("topic %q: %w", topic, d.Err)
	}
	fmt.Printf("topic: %q partitions=%d replication=%d\n",
		topic, len(d.Partitions), d.Partitions.NumReplicas())
	return nil
}

func printStart(topic string, ts topicSpec) {
	fmt.Printf(`initializing client events topic...
	- %q (partitions=%d, replication=%d, retention=%s)

`,
		topic, ts.partitions, ts.replication, ts.retention,
	)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}
