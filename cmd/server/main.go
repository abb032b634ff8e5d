package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	api "github.com/chainballot/chainballot/internal/api"
	auth "github.com/chainballot/chainballot/internal/auth"
	clock "github.com/chainballot/chainballot/internal/clock"
	config "github.com/chainballot/chainballot/internal/config"
	coordinator "github.com/chainballot/chainballot/internal/coordinator"
	db_connection "github.com/chainballot/chainballot/internal/database/connection"
	repositories "github.com/chainballot/chainballot/internal/database/repositories"
	ledger "github.com/chainballot/chainballot/internal/ledger"
	evm "github.com/chainballot/chainballot/internal/ledger/evm"
	fabric "github.com/chainballot/chainballot/internal/ledger/fabric"
	metadata "github.com/chainballot/chainballot/internal/metadata"
	models "github.com/chainballot/chainballot/internal/models"
	reconcile "github.com/chainballot/chainballot/internal/reconcile"
	results "github.com/chainballot/chainballot/internal/results"
)

func main() {
	app := &cli.App{
		Name:  "chainballot",
		Usage: "dual-ledger election backend",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the election api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Value: "config/config.yml",
						Usage: "path to the yaml configuration file",
					},
				},
				Action: func(cliCtx *cli.Context) error {
					return serve(cliCtx.String("config"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(configFile string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	cfg, err := config.LoadConfigFile(configFile)
	if err != nil {
		return xerrors.Errorf("failed to load config file: %w", err)
	}

	db, err := db_connection.NewConnection(cfg.DatabaseConfig.File)
	if err != nil {
		return xerrors.Errorf("failed to open mirror database: %w", err)
	}
	defer db_connection.CloseDatabaseConnection(db)

	repos := repositories.NewRepositories(db)
	systemClock := clock.SystemClock{}

	ledgers, err := buildLedgers(cfg, systemClock)
	if err != nil {
		return err
	}

	var metadataStore metadata.Store
	if cfg.IpfsConfig.Enabled {
		metadataStore = metadata.NewIpfsStore(cfg.IpfsConfig.ApiUrl)
	} else {
		logger.Warn().Msg("ipfs disabled, election metadata is held in memory only")
		metadataStore = metadata.NewMemoryStore()
	}

	queue, err := reconcile.OpenQueue(cfg.ReconcilerConfig.File)
	if err != nil {
		return err
	}
	defer queue.Close()

	coord := coordinator.NewCoordinator(ledgers, metadataStore, repos, queue, systemClock, logger)
	aggregator := results.NewAggregator(repos, ledgers, systemClock, true, logger)
	worker := reconcile.NewWorker(queue, repos, ledgers, systemClock, logger)

	authService := auth.NewService(repos.Users, cfg.AuthConfig.JwtSecret, cfg.AuthConfig.TokenTtl, systemClock)
	authHandler := api.NewAuthHandler(authService, logger)
	electionHandler := api.NewElectionHandler(coord, aggregator, repos, logger)
	server := api.NewServer(cfg.ServerConfig.Address, authService, authHandler, electionHandler, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go worker.Run(ctx, cfg.ReconcilerConfig.Interval)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func buildLedgers(cfg *config.Config, systemClock clock.SystemClock) (map[models.Blockchain]ledger.Client, error) {
	ledgers := make(map[models.Blockchain]ledger.Client)

	if cfg.EthereumConfig.Enabled {
		evmClient, err := evm.NewClient(cfg.EthereumConfig)
		if err != nil {
			return nil, xerrors.Errorf("failed to build ethereum client: %w", err)
		}

		ledgers[models.BlockchainEthereum] = evmClient
	}

	if cfg.FabricConfig.Enabled {
		ledgers[models.BlockchainHyperledger] = fabric.NewClient(cfg.FabricConfig, systemClock)
	}

	if len(ledgers) == 0 {
		return nil, xerrors.New("no ledger backend enabled")
	}

	return ledgers, nil
}
