// Package mcpcmder provides the mcp command, which serves the flowchat MCP
// tools over stdio for agents that launch it as a subprocess.
package mcpcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/flowchat/api/mcp"
	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/config"
	"github.com/papercomputeco/flowchat/pkg/dotdir"
	eventstreamutils "github.com/papercomputeco/flowchat/pkg/eventstream/utils"
	"github.com/papercomputeco/flowchat/pkg/flow"
	"github.com/papercomputeco/flowchat/pkg/logger"
)

const mcpLogFile = "mcp.log"

type mcpCommander struct {
	configDir string
	debug     bool

	logger *slog.Logger
}

// mcpFlags are the config registry flags the mcp command accepts.
var mcpFlags = []string{
	config.FlagBaseURL,
	config.FlagOrgID,
	config.FlagEndpoint,
	config.FlagTimeout,
	config.FlagFlowSession,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

const mcpLongDesc string = `Serve the flowchat MCP tools over stdio.

Tools:
  ask       Send a message or sample prompt; omit session_id to start a conversation
  history   Return a conversation's transcript
  clear     Empty a conversation's transcript

stdout carries the protocol, so logs only go as JSON to logs/mcp.log in the
.flowchat/ directory. The same tools are served over HTTP at /mcp by
"flowchat serve".`

const mcpShortDesc string = "Serve the flowchat MCP tools over stdio"

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := config.Load(cmder.configDir, cmd, mcpFlags)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cfg)
		},
	}

	config.AddStringFlags(cmd, config.Flags, mcpFlags)

	return cmd
}

func (c *mcpCommander) run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logFile, err := dotdir.NewManager().OpenLog(c.configDir, mcpLogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(logFile))

	server, cleanup, err := c.newServer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	c.logger.Info("serving MCP over stdio", "endpoint_id", cfg.Flow.EndpointID)

	return server.Run(ctx, &sdkmcp.StdioTransport{})
}

// newServer assembles the flow client, event publisher and session manager
// behind the MCP tools. cleanup closes the publisher.
func (c *mcpCommander) newServer(cfg *config.Config) (*mcp.Server, func(), error) {
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

	server, err := mcp.NewServer(mcp.Config{
		Sessions: manager,
		Catalog:  cfg.Catalog(),
		Logger:   c.logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return server, cleanup, nil
}
