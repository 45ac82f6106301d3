// The scanner binary runs the tag polling loop against a PC/SC reader
// (or the built-in simulator) and submits resolved scans to the append
// service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/filatag/spool-scanner/common"
	"github.com/filatag/spool-scanner/config"
	"github.com/filatag/spool-scanner/interfaces"
	"github.com/filatag/spool-scanner/logclient"
	"github.com/filatag/spool-scanner/materials"
	"github.com/filatag/spool-scanner/session"
	"github.com/filatag/spool-scanner/transport/pcsc"
	"github.com/filatag/spool-scanner/transport/sim"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Value: "",
		Usage: "path to YAML config file",
	},
	&cli.StringFlag{
		Name:  "endpoint",
		Value: "",
		Usage: "append service URL (overrides config; empty disables submission)",
	},
	&cli.StringFlag{
		Name:  "materials",
		Value: "",
		Usage: "JSON store-index file for material lookup (overrides config)",
	},
	&cli.StringFlag{
		Name:  "reader",
		Value: "",
		Usage: "tag transport: 'pcsc' or 'sim' (overrides config)",
	},
	&cli.IntFlag{
		Name:  "reader-index",
		Value: 0,
		Usage: "PC/SC reader index",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	},
	&cli.StringFlag{
		Name:  "log-service",
		Value: "spool-scanner",
		Usage: "add 'service' tag to logs",
	},
}

func main() {
	app := &cli.App{
		Name:  "scanner",
		Usage: "Scan spool tags and submit them to the append service",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			logJSON := cCtx.Bool("log-json")
			logDebug := cCtx.Bool("log-debug")
			logUID := cCtx.Bool("log-uid")
			logService := cCtx.String("log-service")

			// Setup logger
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

			cfg, err := config.Load(cCtx.String("config"))
			if err != nil {
				logger.Error("Failed to load config", "err", err)
				return err
			}
			if v := cCtx.String("endpoint"); v != "" {
				cfg.Submit.Endpoint = v
			}
			if v := cCtx.String("materials"); v != "" {
				cfg.MaterialsFile = v
			}
			if v := cCtx.String("reader"); v != "" {
				cfg.Reader.Type = v
			}
			if cCtx.IsSet("reader-index") {
				cfg.Reader.Index = cCtx.Int("reader-index")
			}

			// Material table: built-in unless a store-index file is given.
			table := materials.Builtin()
			if cfg.MaterialsFile != "" {
				table, err = materials.LoadFile(cfg.MaterialsFile)
				if err != nil {
					logger.Error("Failed to load materials file", "err", err)
					return err
				}
				logger.Info("Materials loaded", "file", cfg.MaterialsFile, "entries", table.Len())
			}

			// Tag transport
			var transport interfaces.TagTransport
			var toner interfaces.Toner
			switch cfg.Reader.Type {
			case "sim":
				simT := sim.New()
				simT.PresentTagOnce(sim.DemoTag())
				transport = simT
				logger.Info("Using simulated transport with demo tag")
			case "pcsc":
				pcscT, err := pcsc.Connect(cfg.Reader.Index)
				if err != nil {
					logger.Error("Failed to connect PC/SC reader", "err", err)
					return err
				}
				transport = pcscT
				toner = pcsc.Beeper{}
				logger.Info("PC/SC reader connected", "index", cfg.Reader.Index)
			default:
				return fmt.Errorf("invalid reader type: %s", cfg.Reader.Type)
			}
			defer transport.Close()

			// Submission client; a missing endpoint leaves the scanner in
			// degraded mode where the submit step is skipped per scan.
			var submitter session.Submitter
			if cfg.Submit.Endpoint != "" {
				probeEndpoint(logger, cfg.Submit.Endpoint)
				submitter = logclient.New(cfg.Submit.Endpoint, cfg.Submit.Timeout, logger)
			} else {
				logger.Warn("No append endpoint configured")
			}

			scanner, err := session.New(session.Config{
				Transport:     transport,
				Materials:     table,
				Submitter:     submitter,
				Toner:         toner,
				Log:           logger,
				PollInterval:  cfg.PollInterval,
				SubmitTimeout: cfg.Submit.Timeout,
			})
			if err != nil {
				logger.Error("Failed to create scanner", "err", err)
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Scanner is running, present a tag (Ctrl+C to stop)")
			if err := scanner.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Scanner loop failed", "err", err)
				return err
			}

			logger.Info("Scanner stopped")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// probeEndpoint checks append-service reachability once at startup,
// bounded by the association timeout. Failure is a warning; the scanner
// keeps running and each submission retries on its own.
func probeEndpoint(logger *slog.Logger, endpoint string) {
	client := &http.Client{Timeout: session.AssociationTimeout}
	resp, err := client.Head(endpoint)
	if err != nil {
		logger.Warn("Append service not reachable at startup", "err", err)
		return
	}
	resp.Body.Close()
}
