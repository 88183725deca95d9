// Command alertharness is a tiny CLI that loads a TOML rule configuration,
// wires it to a harness.Driver, and evaluates newline-delimited JSON events
// read from stdin against every configured rule, logging any matches.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/drewolson/alertcore/fieldpath"
	"github.com/drewolson/alertcore/harness"
	"github.com/drewolson/alertcore/ruletype"
)

type fileConfig struct {
	GCInterval string       `toml:"gc_interval"`
	Rule       []ruleConfig `toml:"rule"`
}

type ruleConfig struct {
	Name    string         `toml:"name"`
	Kind    string         `toml:"kind"`
	Options map[string]any `toml:"options"`
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a TOML rule configuration file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -config rules.toml\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Reads newline-delimited JSON events from stdin and evaluates them\n")
		fmt.Fprintf(os.Stderr, "against the rules described in the TOML configuration.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if configPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(configPath); err != nil {
		fmt.Fprintln(os.Stderr, "alertharness:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var cfg fileConfig
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return fmt.Errorf("alertharness: reading config: %w", err)
	}

	entries, err := buildRules(cfg)
	if err != nil {
		return err
	}

	gcInterval := time.Minute
	if cfg.GCInterval != "" {
		gcInterval, err = time.ParseDuration(cfg.GCInterval)
		if err != nil {
			return fmt.Errorf("alertharness: gc_interval: %w", err)
		}
	}

	d := harness.New(harness.Config{
		Rules:      entries,
		GCInterval: gcInterval,
		Alert: func(ctx context.Context, rule string, matches []ruletype.Match) error {
			for _, match := range matches {
				b, _ := json.Marshal(match)
				fmt.Printf("%s: %s\n", rule, b)
			}
			return nil
		},
	})
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan fieldpath.Event)
	go readEvents(os.Stdin, events)

	err = d.Run(ctx, events)
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func readEvents(f *os.File, out chan<- fieldpath.Event) {
	defer close(out)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event fieldpath.Event
		if err := json.Unmarshal(line, &event); err != nil {
			fmt.Fprintln(os.Stderr, "alertharness: skipping malformed event:", err)
			continue
		}
		out <- event
	}
}

func buildRules(cfg fileConfig) ([]harness.RuleEntry, error) {
	entries := make([]harness.RuleEntry, 0, len(cfg.Rule))
	for _, rc := range cfg.Rule {
		opts, err := normalizeOptions(rc.Options)
		if err != nil {
			return nil, fmt.Errorf("alertharness: rule %q: %w", rc.Name, err)
		}

		rule, err := ruletype.New(rc.Kind, opts)
		if err != nil {
			return nil, fmt.Errorf("alertharness: rule %q: %w", rc.Name, err)
		}

		entries = append(entries, harness.RuleEntry{Name: rc.Name, Rule: rule})
	}
	return entries, nil
}

// normalizeOptions converts the handful of option values TOML can't express
// natively - durations are written as strings like "5m" in the config file,
// but ruletype.Options.Duration expects a time.Duration or integer
// nanoseconds.
func normalizeOptions(raw map[string]any) (ruletype.Options, error) {
	opts := make(ruletype.Options, len(raw))
	for k, v := range raw {
		opts[k] = v
	}
	for _, key := range []string{"timeframe"} {
		v, ok := opts[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", key, err)
		}
		opts[key] = d
	}
	return opts, nil
}
