package cli

import (
	"context"
	"errors"
	"io/fs"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/spf13/cobra"
)

type app struct {
	dataFile string
	logLevel string

	cfg    *config.Config
	logger *log.Logger
}

// NewRootCommand builds the fintrack command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fintrack",
		Short:         "Personal finance tracker with a console menu and a chat bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.dataFile, "data-file", "", "transaction file to load and autosave (overrides DATA_FILE)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		newConsoleCommand(a),
		newBotCommand(a),
		newSheetsCommand(a),
		newForecastCommand(a),
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) init() error {
	LoadEnvFile()
	cfg, err := LoadConfig(a.dataFile, a.logLevel)
	if err != nil {
		return err
	}
	logger, err := SetupLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// newPublisher connects to AMQP when configured. A failed connection is
// logged and events are disabled.
func (a *app) newPublisher() services.Publisher {
	if a.cfg.AMQPURL == "" {
		a.logger.Info("AMQP not configured, ledger events disabled")
		return nil
	}
	client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPRoutingKey)
	if err != nil {
		a.logger.Warn("Failed to connect to AMQP, ledger events disabled", log.FieldError, err)
		return nil
	}
	a.logger.Info("AMQP publisher connected", "exchange", a.cfg.AMQPExchange)
	return client
}

// newLedger builds the service and loads DATA_FILE when it exists.
func (a *app) newLedger(ctx context.Context, withEvents bool) (*services.LedgerService, error) {
	var pub services.Publisher
	if withEvents {
		pub = a.newPublisher()
	}
	svc := services.NewLedgerService(ledger.NewProcessor(), pub)
	if _, err := svc.ImportFile(ctx, a.cfg.DataFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			svc.Close()
			return nil, err
		}
		a.logger.InfoContext(ctx, "Data file not found, starting empty", log.FieldPath, a.cfg.DataFile)
	}
	return svc, nil
}
