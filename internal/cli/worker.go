package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-dining-concierge/internal/services"
)

const (
	housekeepEvery = time.Minute
	sessionIdleTTL = 24 * time.Hour
)

type processor interface {
	ProcessOne(ctx context.Context) (services.Outcome, error)
}

type requeuer interface {
	Requeue(ctx context.Context, olderThan time.Duration) (int, error)
}

type purger interface {
	Purge(ctx context.Context) (int64, error)
}

type idlePurger interface {
	PurgeIdle(ctx context.Context, olderThan time.Duration) (int64, error)
}

type reindexer interface {
	RebuildIndex(ctx context.Context) (services.IndexStats, error)
}

// worker invokes the consumer once per tick, like a scheduled function,
// and periodically returns stale in-flight messages and expires records.
type worker struct {
	Consumer   processor
	Interval   time.Duration
	Housekeep  time.Duration
	Requeue    requeuer // nil for queues with native visibility timeouts
	Visibility time.Duration
	Dedupe     purger
	Sessions   idlePurger
	// Reindex reloads a process-local search index from the store so
	// ingestion runs by other processes reach recommendations.
	Reindex reindexer
}

func (w *worker) Run(ctx context.Context) error {
	tick := time.NewTicker(w.Interval)
	defer tick.Stop()
	hk := time.NewTicker(w.Housekeep)
	defer hk.Stop()

	log.Info().Dur("interval", w.Interval).Msg("worker started")
	w.invoke(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker stopped")
			return nil
		case <-tick.C:
			w.invoke(ctx)
		case <-hk.C:
			w.housekeeping(ctx)
		}
	}
}

func (w *worker) invoke(ctx context.Context) services.Outcome {
	out, err := w.Consumer.ProcessOne(ctx)
	ev := log.Debug()
	if err != nil {
		ev = log.Error().Err(err)
	} else if out != services.OutcomeEmpty {
		ev = log.Info()
	}
	ev.Str("outcome", string(out)).Msg("consumer invocation")
	return out
}

func (w *worker) housekeeping(ctx context.Context) {
	if w.Requeue != nil {
		if n, err := w.Requeue.Requeue(ctx, w.Visibility); err != nil {
			log.Warn().Err(err).Msg("requeue stale messages")
		} else if n > 0 {
			log.Info().Int("requeued", n).Msg("stale in-flight messages returned to queue")
		}
	}
	if w.Dedupe != nil {
		if n, err := w.Dedupe.Purge(ctx); err != nil {
			log.Warn().Err(err).Msg("purge dedupe records")
		} else if n > 0 {
			log.Debug().Int64("purged", n).Msg("expired dedupe records removed")
		}
	}
	if w.Reindex != nil {
		if stats, err := w.Reindex.RebuildIndex(ctx); err != nil {
			log.Warn().Err(err).Msg("reload search index")
		} else {
			log.Debug().Int("indexed", stats.Indexed).Msg("search index reloaded from store")
		}
	}
	if w.Sessions != nil {
		if n, err := w.Sessions.PurgeIdle(ctx, sessionIdleTTL); err != nil {
			log.Warn().Err(err).Msg("purge idle dialog sessions")
		} else if n > 0 {
			log.Debug().Int64("purged", n).Msg("idle dialog sessions removed")
		}
	}
}

func newWorkerCmd(a *app) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Poll the request queue and email recommendations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d := newDeps(a.cfg)
			defer d.Close()

			c, err := d.consumer(ctx)
			if err != nil {
				return err
			}
			if once {
				out, err := c.ProcessOne(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}

			w := &worker{
				Consumer:   c,
				Interval:   a.cfg.PollInterval,
				Housekeep:  housekeepEvery,
				Visibility: a.cfg.Queue.Visibility,
				Dedupe:     d.dedupe,
			}
			if rq, ok := d.queue.(requeuer); ok {
				w.Requeue = rq
			}
			if !sharedIndex(a.cfg) {
				in, err := d.ingestor(ctx, false)
				if err != nil {
					return err
				}
				w.Reindex = in
			}
			if a.cfg.Dialog.Engine == "local" {
				ss, err := d.sessions()
				if err != nil {
					return err
				}
				w.Sessions = ss
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "process at most one message and exit")
	return cmd
}
