package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/svlns-gdc/journal-backend/cmd/flags"
	"github.com/svlns-gdc/journal-backend/health"
	"github.com/svlns-gdc/journal-backend/httpserver"
	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/replication"
	"github.com/svlns-gdc/journal-backend/secrets"
	"github.com/svlns-gdc/journal-backend/storage"
	"github.com/svlns-gdc/journal-backend/store"
	"github.com/svlns-gdc/journal-backend/workflow"
)

var serverFlags = append([]cli.Flag{
	flags.ListenAddrFlag,
	flags.DBDsnFlag,
	flags.ReplicationFactorFlag,
	flags.UploadTimeoutFlag,
	flags.FileDirFlag,
	flags.S3BucketFlag,
	flags.S3RegionFlag,
	flags.S3EndpointFlag,
	flags.IPFSHostFlag,
	flags.IPFSPortFlag,
	flags.IPFSGatewayFlag,
	flags.VaultAddrFlag,
	flags.VaultMountFlag,
	flags.VaultPathFlag,
	flags.LogServiceFlagFn("journal-server"),
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "journal-server",
		Usage: "Serve the journal storage and replication API",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			ctx := context.Background()

			// Provider API tokens: Vault first when configured, env fallback.
			var tokens secrets.TokenSource = secrets.EnvTokenSource{}
			if vaultAddr := cCtx.String(flags.VaultAddrFlag.Name); vaultAddr != "" {
				vaultTokens, err := secrets.NewVaultTokenSource(vaultAddr,
					cCtx.String(flags.VaultMountFlag.Name),
					cCtx.String(flags.VaultPathFlag.Name), logger)
				if err != nil {
					logger.Error("Failed to create Vault token source", "err", err)
					return err
				}
				tokens = secrets.Chain{vaultTokens, secrets.EnvTokenSource{}}
			}

			var opts []storage.FactoryOption
			if dir := cCtx.String(flags.FileDirFlag.Name); dir != "" {
				fileConnector, err := storage.NewFileConnector(dir, logger)
				if err != nil {
					logger.Error("Failed to create file connector", "err", err)
					return err
				}
				opts = append(opts, storage.WithConnector(fileConnector, true))
			}
			if bucket := cCtx.String(flags.S3BucketFlag.Name); bucket != "" {
				s3Connector, err := storage.NewS3Connector(bucket, "journal",
					cCtx.String(flags.S3RegionFlag.Name),
					cCtx.String(flags.S3EndpointFlag.Name),
					os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"), logger)
				if err != nil {
					logger.Error("Failed to create S3 connector", "err", err)
					return err
				}
				opts = append(opts, storage.WithConnector(s3Connector, true))
			}
			if ipfsHost := cCtx.String(flags.IPFSHostFlag.Name); ipfsHost != "" {
				ipfsConnector, err := storage.NewIPFSConnector(ipfsHost,
					cCtx.String(flags.IPFSPortFlag.Name),
					cCtx.String(flags.IPFSGatewayFlag.Name), logger)
				if err != nil {
					logger.Error("Failed to create IPFS connector", "err", err)
					return err
				}
				opts = append(opts, storage.WithConnector(ipfsConnector, true))
			}

			factory := storage.NewConnectorFactory(storage.DefaultCatalog(), tokens, logger, opts...)

			// Stores: Postgres when a DSN is given, in-memory otherwise.
			var (
				locations   interfaces.LocationRegistry
				usage       interfaces.UsageTracker
				queue       interfaces.ReplicationQueue
				submissions interfaces.SubmissionStore
			)
			if dsn := cCtx.String(flags.DBDsnFlag.Name); dsn != "" {
				db, err := store.Open(ctx, dsn)
				if err != nil {
					logger.Error("Failed to connect to database", "err", err)
					return err
				}
				defer db.Close()

				if err := store.RunMigrations(ctx, db); err != nil {
					logger.Error("Failed to run migrations", "err", err)
					return err
				}

				locations = store.NewPostgresLocationRegistry(db)
				usage = store.NewPostgresUsageTracker(db)
				queue = store.NewPostgresReplicationQueue(db)
				submissions = store.NewPostgresSubmissionStore(db)
			} else {
				logger.Warn("No db-dsn provided, using in-memory stores")
				mem := store.NewInMemory()
				locations, usage, queue, submissions = mem, mem, mem, mem
			}

			coordinator := replication.NewCoordinator(factory, locations, queue, replication.CoordinatorConfig{
				ReplicationFactor: cCtx.Int(flags.ReplicationFactorFlag.Name),
				UploadTimeout:     time.Duration(cCtx.Int64(flags.UploadTimeoutFlag.Name)) * time.Second,
			}, logger)

			monitor := health.NewMonitor(factory, 10*time.Second, logger)
			wf := workflow.NewService(submissions, logger)

			handler := httpserver.NewHandler(coordinator, monitor, locations, usage, wf, logger)

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flags.ListenAddrFlag.Name))
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			workerCtx, cancelWorker := context.WithCancel(ctx)
			defer cancelWorker()
			worker := replication.NewWorker(factory, locations, queue, replication.DefaultWorkerConfig(), logger)
			go worker.Run(workerCtx)

			scheduler := health.NewScheduler(monitor, usage, health.DefaultSchedulerConfig(), logger)
			if err := scheduler.Start(workerCtx); err != nil {
				logger.Error("Failed to start maintenance scheduler", "err", err)
				return err
			}
			defer scheduler.Stop()

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			cancelWorker()
			scheduler.Stop()
			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
