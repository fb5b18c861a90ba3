// cmd/notifier/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"concrnt-notifier/internal/common/config"
	"concrnt-notifier/internal/common/database"
	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/common/metrics"
	"concrnt-notifier/internal/common/observability"
	"concrnt-notifier/internal/common/validation"
	"concrnt-notifier/internal/concrnt"
	"concrnt-notifier/internal/concrnt/gateway"
	"concrnt-notifier/internal/concrnt/realtime"
	"concrnt-notifier/internal/notification/announce"
	"concrnt-notifier/internal/notification/archive"
	"concrnt-notifier/internal/notification/classify"
	"concrnt-notifier/internal/notification/delivery"
	"concrnt-notifier/internal/notification/history"
	"concrnt-notifier/internal/notification/summarize"
	"concrnt-notifier/internal/notification/unread"
	"concrnt-notifier/internal/notification/view"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notifier...",
		zap.String("timeline", cfg.Concrnt.TimelineID),
		zap.String("subscriber", cfg.Concrnt.SubscriberCCID),
	)

	obs := observability.New("notifier")
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (archive only) ---
	var groupArchive *archive.Archive
	if cfg.Archive.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		groupArchive = archive.New(esClient.Client, cfg.Archive.Index, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Announcement history ---
	hist := history.New(pg.DB, log)
	if err := hist.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("history schema failed", zap.Error(err))
	}

	// --- Protocol layer ---
	requestTimeout := time.Duration(cfg.Concrnt.RequestTimeout) * time.Millisecond
	client := gateway.NewClient(cfg.Concrnt.GatewayURL, cfg.Concrnt.SubscriberCCID, requestTimeout, log)
	reader := gateway.NewReader(client)

	validator, err := validation.NewValidator()
	if err != nil {
		zapLog.Fatal("validator init failed", zap.Error(err))
	}

	// --- Notification pipeline ---
	prefs := unread.NewRedisStore(rdb.Client, cfg.Concrnt.SubscriberCCID)
	tracker := unread.NewTracker(prefs, log)
	grouper := summarize.New(client, log)
	notificationView := view.New(reader, grouper, tracker, log)

	hasMore, err := notificationView.Init(ctx, cfg.Concrnt.TimelineID, cfg.Concrnt.Query, cfg.Concrnt.BatchSize)
	if err != nil {
		zapLog.Fatal("notification view init failed", zap.Error(err))
	}
	zapLog.Info("Notification view initialized",
		zap.Int("groups", len(notificationView.Groups())),
		zap.Bool("hasMore", hasMore),
	)

	if groupArchive != nil {
		if err := groupArchive.IndexGroups(ctx, cfg.Concrnt.SubscriberCCID, notificationView.Groups()); err != nil {
			zapLog.Warn("initial archive indexing failed", zap.Error(err))
		}
	}

	// --- Announcement sinks ---
	sinks := []announce.Sink{delivery.NewLogSink(log)}
	if cfg.Notifications.Email.Enabled {
		emailSink, err := delivery.NewEmailSink(ctx,
			cfg.Notifications.Email.AWSRegion,
			cfg.Notifications.Email.FromEmail,
			cfg.Notifications.Email.ToEmail,
			log,
		)
		if err != nil {
			zapLog.Fatal("email sink init failed", zap.Error(err))
		}
		sinks = append(sinks, emailSink)
	}
	if cfg.Notifications.Push.Enabled {
		pushSink, err := delivery.NewPushSink(ctx,
			cfg.Notifications.Push.AWSRegion,
			cfg.Notifications.Push.TopicARN,
			log,
		)
		if err != nil {
			zapLog.Fatal("push sink init failed", zap.Error(err))
		}
		sinks = append(sinks, pushSink)
	}

	announcer := announce.NewHandler(
		&announce.Config{
			ProfileSemanticID: cfg.Notifications.ProfileSemanticID,
			SoundEnabled:      cfg.Notifications.SoundEnabled,
			Variant:           announce.VariantInfo,
		},
		client, client, log, sinks...,
	)
	zapLog.Info("Announcement sinks registered", zap.Int("count", len(sinks)))

	// --- Realtime event loop ---
	source := realtime.NewSource(rdb.Client, cfg.Concrnt.RealtimeChannel, validator, log)
	go func() {
		if err := source.Run(ctx); err != nil && ctx.Err() == nil {
			zapLog.Error("realtime source stopped", zap.Error(err))
		}
	}()

	loop := &eventLoop{
		subscriber: cfg.Concrnt.SubscriberCCID,
		announcer:  announcer,
		history:    hist,
		tracker:    tracker,
		obs:        obs,
		logger:     log,
	}
	go loop.run(ctx, source.Events())

	// --- History retention ---
	go runRetention(ctx, hist, cfg.History.RetentionDays, zapLog)

	// --- Health, metrics & notification API server ---
	srv := newServer(cfg.Server.Address, notificationView, groupArchive, cfg.Concrnt.SubscriberCCID, log)
	go func() {
		zapLog.Info("Server listening", zap.String("address", cfg.Server.Address))
		if err := srv.Start(); err != nil {
			zapLog.Error("server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	cancel()
	notificationView.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Notifier stopped gracefully")
}

// eventLoop consumes live events: dedup, announce, record, advance the
// unread watermark.
type eventLoop struct {
	subscriber string
	announcer  *announce.Handler
	history    *history.Store
	tracker    *unread.Tracker
	obs        *observability.Observability
	logger     logger.Logger
}

func (l *eventLoop) run(ctx context.Context, events <-chan concrnt.RealtimeEvent) {
	for ev := range events {
		l.handle(ctx, ev)
	}
}

func (l *eventLoop) handle(ctx context.Context, ev concrnt.RealtimeEvent) {
	start := time.Now()

	if ev.Association == nil {
		metrics.EventsDropped.WithLabelValues(summarize.DropReasonMissingItem).Inc()
		l.obs.RecordEventProcessed(ctx, "dropped")
		return
	}

	fresh, err := l.history.ShouldAnnounce(ctx, l.subscriber, ev.Association.ID)
	if err != nil {
		// Announce anyway: a broken history store should not mute the feed.
		l.logger.Warn("history lookup failed", map[string]interface{}{
			"eventID": ev.Association.ID,
			"error":   err,
		})
		fresh = true
	}
	if !fresh {
		metrics.EventsDropped.WithLabelValues(summarize.DropReasonDuplicate).Inc()
		l.logger.Debug("skipping already announced event", map[string]interface{}{
			"eventID": ev.Association.ID,
		})
		l.obs.RecordEventProcessed(ctx, "duplicate")
		return
	}

	l.announcer.HandleRealtime(ctx, ev)

	kind := classify.Classify(ev.Association.Schema)
	if err := l.history.Record(ctx, l.subscriber, *ev.Association, kind); err != nil {
		l.logger.Warn("history record failed", map[string]interface{}{
			"eventID": ev.Association.ID,
			"error":   err,
		})
	}

	at := ev.Association.SignedAt
	if ev.Item != nil && ev.Item.LastUpdate.After(at) {
		at = ev.Item.LastUpdate
	}
	l.tracker.Observe(at)

	l.obs.RecordEventProcessed(ctx, "announced")
	l.obs.RecordEventDuration(ctx, time.Since(start), "announced")
}

func runRetention(ctx context.Context, hist *history.Store, retentionDays int, log *zap.Logger) {
	retention := time.Duration(retentionDays) * 24 * time.Hour
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := hist.CleanOlderThan(ctx, retention); err != nil {
				log.Warn("history cleanup failed", zap.Error(err))
			}
		}
	}
}
