package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/drewolson/alertcore/fieldpath"
	"github.com/drewolson/alertcore/ruletype"
	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-longpoll"
	"github.com/joeycumines/go-microbatch"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

type (
	// AlertFunc delivers a batch of matches somewhere (the out-of-scope
	// alert-delivery collaborator). Errors are logged, not retried - the
	// Driver makes no delivery guarantees.
	AlertFunc func(ctx context.Context, rule string, matches []ruletype.Match) error

	// RuleEntry registers one named rule with the Driver.
	RuleEntry struct {
		Name string
		Rule ruletype.Rule
	}

	// Config configures a Driver. Logger defaults to a stumpy-backed
	// logiface.Logger writing to os.Stderr if nil. Ingest controls the
	// longpoll.Channel batching of the incoming event stream; GCInterval
	// controls how often GarbageCollect is ticked for every registered
	// rule (defaulting to one minute).
	Config struct {
		Rules      []RuleEntry
		Alert      AlertFunc
		Logger     *logiface.Logger[*stumpy.Event]
		Ingest     longpoll.ChannelConfig
		GCInterval time.Duration
		// LogRates caps how often a given (rule, reason) pair is logged,
		// via catrate.Limiter. A nil map disables throttling.
		LogRates map[time.Duration]int
		Batch     microbatch.BatcherConfig
	}

	alertJob struct {
		rule    string
		matches []ruletype.Match
	}

	// Driver pulls events off a channel, feeds every registered rule,
	// drains matches on every ingestion tick and garbage-collection tick,
	// and forwards them to Alert in small batches.
	Driver struct {
		rules      []RuleEntry
		alert      AlertFunc
		log        *logiface.Logger[*stumpy.Event]
		ingestCfg  longpoll.ChannelConfig
		gcInterval time.Duration
		limiter    *catrate.Limiter
		batcher    *microbatch.Batcher[alertJob]
	}
)

// New constructs a Driver from cfg. Alert must be non-nil.
func New(cfg Config) *Driver {
	if cfg.Alert == nil {
		panic(`harness: nil Alert`)
	}

	log := cfg.Logger
	if log == nil {
		log = stumpy.L.New(stumpy.L.WithStumpy())
	}

	gcInterval := cfg.GCInterval
	if gcInterval <= 0 {
		gcInterval = time.Minute
	}

	var limiter *catrate.Limiter
	if len(cfg.LogRates) > 0 {
		limiter = catrate.NewLimiter(cfg.LogRates)
	}

	d := &Driver{
		rules:      cfg.Rules,
		alert:      cfg.Alert,
		log:        log,
		ingestCfg:  cfg.Ingest,
		gcInterval: gcInterval,
		limiter:    limiter,
	}

	batchCfg := cfg.Batch
	d.batcher = microbatch.NewBatcher(&batchCfg, d.processAlertBatch)

	return d
}

// Close shuts down the outgoing match batcher, flushing any pending batch.
func (d *Driver) Close() error {
	return d.batcher.Close()
}

// Run ingests events from ch until ctx is canceled or ch is closed, ticking
// GarbageCollect on every registered rule every GCInterval. It returns the
// context's error, or nil if ch closed normally. Each call to
// longpoll.Channel collects one batch of events, which is fanned out to
// every rule's AddData, with matches drained and forwarded immediately
// after.
func (d *Driver) Run(ctx context.Context, ch <-chan fieldpath.Event) error {
	ticker := time.NewTicker(d.gcInterval)
	defer ticker.Stop()

	gcCtx, cancelGC := context.WithCancel(ctx)
	defer cancelGC()
	go d.runGC(gcCtx, ticker)

	for {
		var batch []fieldpath.Event
		err := longpoll.Channel(ctx, &d.ingestCfg, ch, func(event fieldpath.Event) error {
			batch = append(batch, event)
			return nil
		})

		if len(batch) > 0 {
			d.feed(ctx, batch)
		}

		switch {
		case err == nil:
			continue
		case err == context.Canceled || err == context.DeadlineExceeded:
			return err
		default:
			// io.EOF: channel closed, final partial batch (if any) has
			// already been fed above.
			return nil
		}
	}
}

func (d *Driver) feed(ctx context.Context, batch []fieldpath.Event) {
	for _, entry := range d.rules {
		if err := entry.Rule.AddData(batch); err != nil {
			d.logThrottled(entry.Name, "add_data", err)
			continue
		}
		d.drain(ctx, entry)
	}
}

func (d *Driver) runGC(ctx context.Context, ticker *time.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.tickGC(ctx, now)
		}
	}
}

func (d *Driver) tickGC(ctx context.Context, now time.Time) {
	for _, entry := range d.rules {
		if err := entry.Rule.GarbageCollect(now); err != nil {
			d.logThrottled(entry.Name, "garbage_collect", err)
			continue
		}
		d.drain(ctx, entry)
	}
}

func (d *Driver) drain(ctx context.Context, entry RuleEntry) {
	matches := entry.Rule.Drain()
	if len(matches) == 0 {
		return
	}

	d.log.Info().Str(`rule`, entry.Name).Int(`count`, len(matches)).Log(`matches drained`)

	if _, err := d.batcher.Submit(ctx, alertJob{rule: entry.Name, matches: matches}); err != nil {
		d.log.Err().Str(`rule`, entry.Name).Err(err).Log(`failed to submit matches for delivery`)
	}
}

// processAlertBatch is the microbatch.BatchProcessor backing d.batcher: it
// groups jobs by rule and invokes Alert once per rule, per batch.
func (d *Driver) processAlertBatch(ctx context.Context, jobs []alertJob) error {
	byRule := map[string][]ruletype.Match{}
	var order []string
	for _, job := range jobs {
		if _, ok := byRule[job.rule]; !ok {
			order = append(order, job.rule)
		}
		byRule[job.rule] = append(byRule[job.rule], job.matches...)
	}

	var firstErr error
	for _, rule := range order {
		if err := d.alert(ctx, rule, byRule[rule]); err != nil {
			d.log.Err().Str(`rule`, rule).Err(err).Log(`alert delivery failed`)
			if firstErr == nil {
				firstErr = fmt.Errorf(`harness: alert delivery for rule %q: %w`, rule, err)
			}
		}
	}
	return firstErr
}

func (d *Driver) logThrottled(rule, reason string, err error) {
	if d.limiter != nil {
		if _, ok := d.limiter.Allow(rule + ":" + reason); !ok {
			return
		}
	}
	d.log.Err().Str(`rule`, rule).Str(`reason`, reason).Err(err).Log(`rule ingestion error`)
}
