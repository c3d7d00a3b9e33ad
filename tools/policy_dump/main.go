// auditcfg/tools/policy_dump/main.go

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"rgehrsitz/auditcfg/pkg/config"
	"rgehrsitz/auditcfg/pkg/logging"
	"rgehrsitz/auditcfg/pkg/store"
)

type options struct {
	policy   string
	addr     string
	password string
	db       int
	key      string
	channel  string
	format   string
	list     bool
	watch    bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("policy_dump", flag.ContinueOnError)
	fs.StringVar(&opts.policy, "policy", "", "Compile a local policy file instead of reading Redis")
	fs.StringVar(&opts.addr, "addr", "localhost:6379", "Redis address")
	fs.StringVar(&opts.password, "password", "", "Redis password")
	fs.IntVar(&opts.db, "db", 0, "Redis database")
	fs.StringVar(&opts.key, "key", "pgaudit:snapshot", "Redis key holding the snapshot")
	fs.StringVar(&opts.channel, "channel", "pgaudit_updates", "Channel announcing new snapshots (used with -watch)")
	fs.StringVar(&opts.format, "format", "yaml", "Output format: yaml or json")
	fs.BoolVar(&opts.list, "list", false, "List snapshot keys matching -key")
	fs.BoolVar(&opts.watch, "watch", false, "Print every snapshot announced on -channel")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.format != "yaml" && opts.format != "json" {
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

func render(out io.Writer, snap *config.Snapshot, format string) error {
	var data []byte
	var err error
	if format == "json" {
		data, err = json.MarshalIndent(snap, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = snap.YAML()
	}
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func dumpKey(ctx context.Context, s store.Store, out io.Writer, key, format string) error {
	snap, err := s.FetchSnapshot(ctx, key)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no snapshot stored under %q", key)
	}
	return render(out, snap, format)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	if opts.policy != "" {
		snap, err := config.ParseFile(opts.policy)
		if err != nil {
			return err
		}
		return render(out, snap, opts.format)
	}

	s, err := store.NewRedisStore(ctx, opts.addr, opts.password, opts.db)
	if err != nil {
		return err
	}
	defer s.Close()

	switch {
	case opts.list:
		keys, err := s.ScanSnapshots(ctx, opts.key)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil
	case opts.watch:
		return watch(ctx, s, out, opts)
	default:
		return dumpKey(ctx, s, out, opts.key, opts.format)
	}
}

func watch(ctx context.Context, s store.Store, out io.Writer, opts *options) error {
	pubsub, err := s.Subscribe(ctx, opts.channel)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "# %s\n", msg.Payload)
			if err := dumpKey(ctx, s, out, msg.Payload, opts.format); err != nil {
				logging.Logger.Warn().Err(err).Str("key", msg.Payload).Msg("Failed to dump announced snapshot")
			}
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		logging.LogError(logging.Logger, err)
		os.Exit(1)
	}
}
