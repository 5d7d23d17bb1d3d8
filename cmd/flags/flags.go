package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/svlns-gdc/journal-backend/common"
	"github.com/svlns-gdc/journal-backend/httpserver"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String("metrics-addr")
	enablePprof := cCtx.Bool("pprof")
	drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var DBDsnFlag = &cli.StringFlag{
	Name:    "db-dsn",
	Value:   "",
	Usage:   "PostgreSQL connection string; empty runs with in-memory stores",
	EnvVars: []string{"JOURNAL_DB_DSN"},
}

var ReplicationFactorFlag = &cli.IntFlag{
	Name:  "replication-factor",
	Value: 2,
	Usage: "number of backup providers per upload",
}

var UploadTimeoutFlag = &cli.Int64Flag{
	Name:  "upload-timeout-seconds",
	Value: 60,
	Usage: "timeout for the synchronous primary upload",
}

var FileDirFlag = &cli.StringFlag{
	Name:  "file-dir",
	Value: "",
	Usage: "directory for the local file provider; empty disables it",
}

var S3BucketFlag = &cli.StringFlag{
	Name:  "s3-bucket",
	Value: "",
	Usage: "S3 bucket for the mirror provider; empty disables it",
}

var S3RegionFlag = &cli.StringFlag{
	Name:  "s3-region",
	Value: "us-east-1",
	Usage: "S3 region for the mirror provider",
}

var S3EndpointFlag = &cli.StringFlag{
	Name:  "s3-endpoint",
	Value: "",
	Usage: "custom S3 endpoint; empty uses AWS",
}

var IPFSHostFlag = &cli.StringFlag{
	Name:  "ipfs-host",
	Value: "",
	Usage: "IPFS API host for the archival provider; empty disables it",
}

var IPFSPortFlag = &cli.StringFlag{
	Name:  "ipfs-port",
	Value: "5001",
	Usage: "IPFS API port for the archival provider",
}

var IPFSGatewayFlag = &cli.StringFlag{
	Name:  "ipfs-gateway",
	Value: "https://ipfs.io/ipfs/",
	Usage: "public gateway base for IPFS content URLs",
}

var VaultAddrFlag = &cli.StringFlag{
	Name:    "vault-addr",
	Value:   "",
	Usage:   "Vault address for provider API tokens; empty falls back to JOURNAL_<PROVIDER>_TOKEN env vars",
	EnvVars: []string{"VAULT_ADDR"},
}

var VaultMountFlag = &cli.StringFlag{
	Name:  "vault-mount",
	Value: "secret",
	Usage: "Vault KV v2 mount holding provider tokens",
}

var VaultPathFlag = &cli.StringFlag{
	Name:  "vault-path",
	Value: "journal/storage-tokens",
	Usage: "path under the Vault mount holding provider tokens",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}

var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
