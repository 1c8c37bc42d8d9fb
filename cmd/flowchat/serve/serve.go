// Package servecmder provides the serve command for hosting chat sessions
// over HTTP.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/flowchat/api"
	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/config"
	"github.com/papercomputeco/flowchat/pkg/dotdir"
	eventstreamutils "github.com/papercomputeco/flowchat/pkg/eventstream/utils"
	"github.com/papercomputeco/flowchat/pkg/flow"
	"github.com/papercomputeco/flowchat/pkg/logger"
)

const serveLogFile = "serve.log"

type ServeCommander struct {
	configDir string
	debug     bool

	logger *slog.Logger
}

// serveFlags are the config registry flags the serve command accepts.
var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagBaseURL,
	config.FlagOrgID,
	config.FlagEndpoint,
	config.FlagTimeout,
	config.FlagFlowSession,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

const serveLongDesc string = `Run the flowchat API server.

The server holds any number of independent chat sessions in memory. Each
session keeps its own transcript and sends messages to the configured flow.

Routes:
  GET    /ping
  GET    /prompts
  POST   /sessions
  DELETE /sessions/:id
  POST   /sessions/:id/messages         {"message": "..."}
  POST   /sessions/:id/prompts/:index
  GET    /sessions/:id/history
  DELETE /sessions/:id/history
  POST   /mcp                           MCP tools: ask, history, clear

Logs are written to stdout and as JSON to logs/serve.log in the .flowchat/
directory.`

const serveShortDesc string = "Run the flowchat API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := config.Load(cmder.configDir, cmd, serveFlags)
			if err != nil {
				return err
			}
			return cmder.run(cfg)
		},
	}

	config.AddStringFlags(cmd, config.Flags, serveFlags)

	return cmd
}

func (c *ServeCommander) run(cfg *config.Config) error {
	logFile, err := dotdir.NewManager().OpenLog(c.configDir, serveLogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	c.logger = logger.Multi(
		logger.New(logger.WithDebug(c.debug), logger.WithPretty(true)),
		logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(logFile)),
	)

	server, cleanup, err := c.newServer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	c.logger.Info("starting api server",
		"api_addr", cfg.API.Listen,
		"endpoint_id", cfg.Flow.EndpointID,
		"events", cfg.Events.Provider,
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// newServer assembles the flow client, event publisher and session manager
// behind an API server. cleanup closes the publisher.
func (c *ServeCommander) newServer(cfg *config.Config) (*api.Server, func(), error) {
	clientCfg, err := cfg.Flow.ClientConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := flow.NewClient(clientCfg, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating flow client: %w", err)
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating event publisher: %w", err)
	}
	cleanup := func() {
		if err := publisher.Close(); err != nil {
			c.logger.Warn("closing event publisher", "error", err)
		}
	}

	sessionTTL, err := cfg.API.SessionTTLDuration()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	manager := chat.NewManager(
		chat.NewSessionFactory(client,
			chat.WithPublisher(publisher),
			chat.WithLogger(c.logger),
			chat.WithEndpointID(client.EndpointID()),
		),
		chat.WithMaxSessions(cfg.API.MaxSessions),
		chat.WithIdleTTL(sessionTTL),
	)

	server, err := api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, manager, cfg.Catalog(), c.logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return server, cleanup, nil
}
