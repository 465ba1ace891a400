package main

import (
	"context"
	"flag"
	"log"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/pkg/sys"

	"main/internal/account"
	"main/internal/bus"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/order"
	"main/internal/recorder"
	"main/internal/schema"
	"main/internal/state"
	"main/internal/store"
	"main/pkg/conn"
)

type emptyLogger struct{}

func (emptyLogger) Infof(string, ...interface{})  {}
func (emptyLogger) Debugf(string, ...interface{}) {}
func (emptyLogger) Errorf(string, ...interface{}) {}

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	replayPath := flag.String("replay", "", "Report journal to replay")
	replaySpeed := flag.Float64("replay-speed", 0, "Replay pacing, 0 replays as fast as possible")
	snapshotPath := flag.String("snapshot", "", "Position snapshot path")
	recoverOnly := flag.Bool("recover", false, "Rebuild positions from snapshot plus journal and exit")
	migrate := flag.Bool("migrate", false, "Create missing fleet seed tables before loading")
	queueCap := flag.Int("queue-cap", 4096, "Report queue capacity")
	flag.Parse()

	if *recoverOnly {
		if err := runRecover(*replayPath, *snapshotPath); err != nil {
			log.Fatalf("recover failed: %v", err)
		}
		return
	}

	if *configPath == "" {
		log.Fatal("missing -config")
	}
	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if addr := loaded.Profiling.ServerAddress; addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "keeper",
			ServerAddress:   addr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseObjects,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx := context.Background()
	fleet, err := resolveFleet(ctx, loaded, *migrate)
	if err != nil {
		log.Fatalf("fleet load failed: %v", err)
	}

	accounts := account.NewRegistry()
	if err := accounts.Initialize(fleet...); err != nil {
		log.Fatalf("account registry init failed: %v", err)
	}
	orders := order.NewRegistry(accounts, order.RegistryConfig{})

	var metrics *obs.Metrics
	if loaded.Features.EnableMetrics {
		metrics = obs.NewMetrics()
	}

	if *replayPath != "" {
		positions := state.NewPositionReducer()
		result, err := runReplay(ctx, replayOptions{
			path:     *replayPath,
			speed:    *replaySpeed,
			queueCap: *queueCap,
			useQueue: loaded.Features.EnableReportQueue,
		}, orders, positions, metrics)
		if err != nil {
			log.Fatalf("replay failed: %v", err)
		}
		if *snapshotPath != "" {
			snap := positions.SnapshotWithMeta(result.lastSeq, result.lastEpoch)
			if err := state.WriteSnapshot(*snapshotPath, snap); err != nil {
				log.Fatalf("snapshot write failed: %v", err)
			}
		}
		printSummary(metrics, positions)
		return
	}

	log.Printf("keeper ready, fleet size %d, instruments %d",
		len(fleet), loaded.Instruments.InstrumentCount())
	<-sys.Shutdown()
}

func resolveFleet(ctx context.Context, loaded ops.Loaded, migrate bool) ([]*account.SubAccount, error) {
	if loaded.Postgres == nil {
		return loaded.Fleet, nil
	}
	client, err := conn.New(conn.Option{
		Host:     loaded.Postgres.Host,
		Port:     loaded.Postgres.Port,
		User:     loaded.Postgres.User,
		Password: loaded.Postgres.Password,
		Database: loaded.Postgres.Database,
		SSLMode:  loaded.Postgres.SSLMode,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = client.Close()
	}()
	fleetStore := store.NewFleetStore(client.DB())
	if migrate {
		if err := fleetStore.Migrate(); err != nil {
			return nil, err
		}
	}
	return fleetStore.LoadFleet(ctx)
}

type replayOptions struct {
	path     string
	speed    float64
	queueCap int
	useQueue bool
}

type replayResult struct {
	lastSeq   uint64
	lastEpoch int64
}

// runReplay feeds journaled reports through the bounded queue and drains
// it with a single consumer, serializing report application the way a
// live message handler would. With the report queue disabled, reports are
// applied inline on the playback goroutine instead.
func runReplay(ctx context.Context, opts replayOptions, orders *order.Registry,
	positions *state.PositionReducer, metrics *obs.Metrics) (replayResult, error) {
	apply := func(report schema.OrdReport) {
		start := time.Now()
		known := orders.ContainsOrder(report.UniqueID)
		child, err := orders.OnOrdReport(report)
		if err != nil {
			metrics.IncReportError()
			log.Printf("report %d failed: %v", report.UniqueID, err)
			return
		}
		if !known {
			metrics.IncSynthesized()
		}
		if report.LastQty > 0 {
			positions.ApplyFill(child.Instrument().ID, child.Direction(), report.LastQty)
		}
		metrics.ObserveReport(child.Status(), time.Since(start))
	}

	publish := func(report schema.OrdReport) error {
		apply(report)
		return nil
	}
	finish := func() {}
	if opts.useQueue {
		queue := bus.NewQueue(opts.queueCap)
		done := make(chan struct{})
		go func() {
			defer close(done)
			queue.Run(ctx, apply)
		}()
		publish = func(report schema.OrdReport) error {
			for {
				err := queue.TryPublish(report)
				if err == nil {
					return nil
				}
				if err == bus.ErrQueueClosed {
					metrics.IncQueueClosed()
					return err
				}
				metrics.IncQueueDrop()
				time.Sleep(time.Millisecond)
			}
		}
		finish = func() {
			queue.Close()
			<-done
		}
	}

	pb, err := recorder.NewPlayback(recorder.PlaybackConfig{
		Path:  opts.path,
		Speed: opts.speed,
	})
	if err != nil {
		finish()
		return replayResult{}, err
	}

	var result replayResult
	err = pb.Run(ctx, func(entry recorder.Entry) error {
		if entry.Seq > result.lastSeq {
			result.lastSeq = entry.Seq
		}
		if entry.Report.Epoch > result.lastEpoch {
			result.lastEpoch = entry.Report.Epoch
		}
		return publish(entry.Report)
	})
	finish()
	if err != nil {
		return replayResult{}, err
	}
	return result, nil
}

// runRecover rebuilds net positions from a snapshot and the journal tail,
// without touching the order registry.
func runRecover(journalPath, snapshotPath string) error {
	result, err := state.RecoverPositions(context.Background(), state.RecoverConfig{
		JournalPath:  journalPath,
		SnapshotPath: snapshotPath,
	})
	if err != nil {
		return err
	}
	log.Printf("recovered %d positions, lastSeq=%d", result.Positions.Count(), result.LastSeq)
	return nil
}

func printSummary(metrics *obs.Metrics, positions *state.PositionReducer) {
	if positions != nil {
		log.Printf("tracked positions: %d", positions.Count())
	}
	if metrics == nil {
		return
	}
	snapshot := metrics.Snapshot()
	log.Printf("replay done: errors=%d synthesized=%d finished=%d drops=%d",
		snapshot.ReportErrors, snapshot.Synthesized, snapshot.Finished, snapshot.QueueDrops)
	for status, count := range snapshot.StatusCounts {
		log.Printf("  status %s: %d", status, count)
	}
	if snapshot.ReportLatency.Count > 0 {
		log.Printf("  latency avg=%s min=%s max=%s",
			snapshot.ReportLatency.Avg, snapshot.ReportLatency.Min, snapshot.ReportLatency.Max)
	}
}
