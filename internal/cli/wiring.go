package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-dining-concierge/internal/awsclient"
	"github.com/tbourn/go-dining-concierge/internal/config"
	"github.com/tbourn/go-dining-concierge/internal/dialog"
	"github.com/tbourn/go-dining-concierge/internal/domain"
	"github.com/tbourn/go-dining-concierge/internal/dynamo"
	"github.com/tbourn/go-dining-concierge/internal/http/handlers"
	"github.com/tbourn/go-dining-concierge/internal/notify"
	"github.com/tbourn/go-dining-concierge/internal/queue"
	"github.com/tbourn/go-dining-concierge/internal/repo"
	"github.com/tbourn/go-dining-concierge/internal/search"
	"github.com/tbourn/go-dining-concierge/internal/services"
	"github.com/tbourn/go-dining-concierge/internal/yelp"
)

// restaurantStore is what the commands need from a key-value store backend.
type restaurantStore interface {
	services.RecordGetter
	services.RecordStore
	Ping(ctx context.Context) error
}

// deps builds backends on first use and caches them, so a command only
// connects to (and validates config for) what it actually touches.
type deps struct {
	cfg config.Config

	aws     *aws.Config
	db      *gorm.DB
	rdb     *redis.Client
	queue   queue.Queue
	store   restaurantStore
	index   search.Index
	notify  notify.Notifier
	ctrl    *dialog.Controller
	engine  dialog.Engine
	dedupe  *repo.Deduper
	session *repo.SessionStore
}

func newDeps(cfg config.Config) *deps { return &deps{cfg: cfg} }

// Close releases connections opened by deps.
func (d *deps) Close() error {
	var errs []error
	if d.rdb != nil {
		errs = append(errs, d.rdb.Close())
	}
	if d.db != nil {
		if sqlDB, err := d.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

func (d *deps) awsConfig(ctx context.Context) (aws.Config, error) {
	if d.aws != nil {
		return *d.aws, nil
	}
	ac, err := awsclient.Load(ctx, d.cfg.AWS)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws config: %w", err)
	}
	d.aws = &ac
	return ac, nil
}

// gormDB opens the relational database. It backs the restaurant store for
// sqlite/postgres and always holds dedupe records and local dialog
// sessions; with the DynamoDB store those live in SQLite at DB_PATH.
func (d *deps) gormDB() (*gorm.DB, error) {
	if d.db != nil {
		return d.db, nil
	}
	var (
		db  *gorm.DB
		err error
	)
	if d.cfg.Store.Backend == "postgres" {
		if err := d.cfg.RequireStore(); err != nil {
			return nil, err
		}
		db, err = repo.OpenPostgres(d.cfg.Store.DSN)
	} else {
		db, err = repo.OpenSQLite(d.cfg.Store.DBPath)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	d.db = db
	return db, nil
}

func (d *deps) requestQueue(ctx context.Context) (queue.Queue, error) {
	if d.queue != nil {
		return d.queue, nil
	}
	if err := d.cfg.RequireQueue(); err != nil {
		return nil, err
	}
	qc := d.cfg.Queue
	switch qc.Backend {
	case "sqs":
		ac, err := d.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		d.queue = queue.NewSQS(awsclient.SQS(ac), qc.SQSURL, qc.Wait)
	default:
		d.rdb = redis.NewClient(&redis.Options{
			Addr:     qc.RedisAddr,
			Password: qc.RedisPassword,
			DB:       qc.RedisDB,
		})
		d.queue = queue.NewRedis(d.rdb, qc.RedisKey, qc.Wait)
	}
	return d.queue, nil
}

func (d *deps) restaurantStore(ctx context.Context) (restaurantStore, error) {
	if d.store != nil {
		return d.store, nil
	}
	if err := d.cfg.RequireStore(); err != nil {
		return nil, err
	}
	switch d.cfg.Store.Backend {
	case "dynamodb":
		ac, err := d.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		d.store = dynamo.NewStore(awsclient.DynamoDB(ac), d.cfg.Store.DynamoTable)
	default:
		db, err := d.gormDB()
		if err != nil {
			return nil, err
		}
		d.store = repo.NewRestaurantStore(db)
	}
	return d.store, nil
}

// searchIndex returns the configured index. A fresh in-memory index is
// filled from the store before it is handed out.
func (d *deps) searchIndex(ctx context.Context) (search.Index, error) {
	if d.index != nil {
		return d.index, nil
	}
	if err := d.cfg.RequireSearch(); err != nil {
		return nil, err
	}
	switch d.cfg.Search.Backend {
	case "opensearch":
		var awsCfg *aws.Config
		if d.cfg.Search.SigV4 {
			ac, err := d.awsConfig(ctx)
			if err != nil {
				return nil, err
			}
			awsCfg = &ac
		}
		osIdx, err := search.NewOpenSearch(d.cfg.Search, awsCfg)
		if err != nil {
			return nil, err
		}
		d.index = osIdx
	default:
		st, err := d.restaurantStore(ctx)
		if err != nil {
			return nil, err
		}
		mem := search.NewMemory()
		stats, err := (&services.Ingestor{Store: st, Index: mem, ScanPage: d.cfg.Store.ScanPage}).RebuildIndex(ctx)
		if err != nil {
			return nil, fmt.Errorf("warm memory index: %w", err)
		}
		log.Info().Int("indexed", stats.Indexed).Msg("memory index loaded from store")
		d.index = mem
	}
	return d.index, nil
}

func (d *deps) notifier(ctx context.Context) (notify.Notifier, error) {
	if d.notify != nil {
		return d.notify, nil
	}
	if err := d.cfg.RequireNotify(); err != nil {
		return nil, err
	}
	switch d.cfg.Notify.Backend {
	case "ses":
		ac, err := d.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		d.notify = notify.NewSES(awsclient.SES(ac), d.cfg.Notify.Sender)
	default:
		d.notify = notify.Log{}
	}
	return d.notify, nil
}

func (d *deps) controller(ctx context.Context) (*dialog.Controller, error) {
	if d.ctrl != nil {
		return d.ctrl, nil
	}
	q, err := d.requestQueue(ctx)
	if err != nil {
		return nil, err
	}
	d.ctrl = dialog.NewController(&services.RequestPublisher{Queue: q})
	return d.ctrl, nil
}

func (d *deps) sessions() (*repo.SessionStore, error) {
	if d.session != nil {
		return d.session, nil
	}
	db, err := d.gormDB()
	if err != nil {
		return nil, err
	}
	d.session = repo.NewSessionStore(db)
	return d.session, nil
}

func (d *deps) dialogEngine(ctx context.Context) (dialog.Engine, error) {
	if d.engine != nil {
		return d.engine, nil
	}
	if err := d.cfg.RequireDialog(); err != nil {
		return nil, err
	}
	switch d.cfg.Dialog.Engine {
	case "lex":
		ac, err := d.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		d.engine = &dialog.LexEngine{
			Client:     awsclient.Lex(ac),
			BotID:      d.cfg.Dialog.BotID,
			BotAliasID: d.cfg.Dialog.BotAliasID,
			LocaleID:   d.cfg.Dialog.LocaleID,
		}
	default:
		ctrl, err := d.controller(ctx)
		if err != nil {
			return nil, err
		}
		ss, err := d.sessions()
		if err != nil {
			return nil, err
		}
		d.engine = &dialog.LocalEngine{Sessions: ss, Handler: ctrl}
	}
	return d.engine, nil
}

func (d *deps) deduper() (*repo.Deduper, error) {
	if d.dedupe != nil {
		return d.dedupe, nil
	}
	db, err := d.gormDB()
	if err != nil {
		return nil, err
	}
	d.dedupe = repo.NewDeduper(db, d.cfg.DedupeTTL)
	return d.dedupe, nil
}

func (d *deps) consumer(ctx context.Context) (*services.Consumer, error) {
	q, err := d.requestQueue(ctx)
	if err != nil {
		return nil, err
	}
	st, err := d.restaurantStore(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := d.searchIndex(ctx)
	if err != nil {
		return nil, err
	}
	n, err := d.notifier(ctx)
	if err != nil {
		return nil, err
	}
	dd, err := d.deduper()
	if err != nil {
		return nil, err
	}
	return &services.Consumer{
		Queue:       q,
		Recommender: services.NewRecommender(idx, st),
		Notifier:    n,
		Deduper:     dd,
	}, nil
}

// ingestor wires the ingestion job. The business API client is attached
// only when withSource is set, after its credentials are checked.
func (d *deps) ingestor(ctx context.Context, withSource bool) (*services.Ingestor, error) {
	st, err := d.restaurantStore(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := d.searchIndex(ctx)
	if err != nil {
		return nil, err
	}
	in := &services.Ingestor{
		Store:     st,
		Index:     idx,
		Cuisines:  domain.Cuisines,
		PageSize:  d.cfg.Yelp.PageSize,
		MaxOffset: d.cfg.Yelp.MaxOffset,
		ScanPage:  d.cfg.Store.ScanPage,
		PageDelay: d.cfg.Yelp.PageDelay,
	}
	if withSource {
		if err := d.cfg.RequireYelp(); err != nil {
			return nil, err
		}
		in.Source = yelp.NewClient(d.cfg.Yelp)
	}
	return in, nil
}

// httpHandlers assembles the HTTP endpoints. Admin routes get the store,
// index and (when credentials are present) the business API.
func (d *deps) httpHandlers(ctx context.Context) (*handlers.Handlers, error) {
	q, err := d.requestQueue(ctx)
	if err != nil {
		return nil, err
	}
	ctrl, err := d.controller(ctx)
	if err != nil {
		return nil, err
	}
	engine, err := d.dialogEngine(ctx)
	if err != nil {
		return nil, err
	}
	h := &handlers.Handlers{
		Conversation:    &services.Conversation{Engine: engine},
		Dialog:          ctrl,
		DefaultLocation: d.cfg.Yelp.DefaultLocation,
		ReadyChecks:     map[string]handlers.Pinger{"queue": q},
	}
	if d.db != nil {
		db := d.db
		h.ReadyChecks["database"] = handlers.PingFunc(func(ctx context.Context) error { return repo.Ping(ctx, db) })
	}
	if !d.cfg.AdminEnabled {
		return h, nil
	}

	in, err := d.ingestor(ctx, d.cfg.RequireYelp() == nil)
	if err != nil {
		return nil, err
	}
	h.Ingestion = in
	h.Index = in.Index
	h.ReadyChecks["store"] = d.store
	if p, ok := in.Index.(handlers.Pinger); ok {
		h.ReadyChecks["search"] = p
	}
	return h, nil
}
