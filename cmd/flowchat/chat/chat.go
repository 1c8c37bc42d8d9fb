// Package chatcmder provides the chat command for talking to the configured
// flow from the terminal.
package chatcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/cliui"
	"github.com/papercomputeco/flowchat/pkg/config"
	"github.com/papercomputeco/flowchat/pkg/dotdir"
	eventstreamutils "github.com/papercomputeco/flowchat/pkg/eventstream/utils"
	"github.com/papercomputeco/flowchat/pkg/flow"
	"github.com/papercomputeco/flowchat/pkg/logger"
)

const chatLogFile = "chat.log"

type chatCommander struct {
	configDir string
	debug     bool
	plain     bool

	in  io.Reader
	out io.Writer

	logger *slog.Logger
}

// chatFlags are the config registry flags the chat command accepts.
var chatFlags = []string{
	config.FlagBaseURL,
	config.FlagOrgID,
	config.FlagEndpoint,
	config.FlagTimeout,
	config.FlagFlowSession,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

const chatLongDesc string = `Start an interactive chat session with the configured flow.

Each message is sent to the flow's run endpoint and the text answer is shown.
The conversation is kept in memory for the length of the session only; the
flow itself may keep its own memory (see --flow-session).

Sample prompts can be sent with /1, /2, ... (list them with /prompts).
In the terminal UI, tab cycles through them.

The terminal UI is used when stdin is a terminal. Use --plain for a line
oriented prompt, which is also chosen automatically when input is piped.
The application token is read from flow.token, FLOWCHAT_FLOW_TOKEN or
APPLICATION_TOKEN.

Examples:
  flowchat chat
  flowchat chat --plain
  flowchat chat --endpoint 41708703-20f2-4d0d-8e7a-2a7e7b621b03
  echo "What is the new Indirect Tax rate" | flowchat chat`

const chatShortDesc string = "Interactive chat with the configured flow"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{
		in:  os.Stdin,
		out: os.Stdout,
	}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := config.Load(cmder.configDir, cmd, chatFlags)
			if err != nil {
				return err
			}

			if !cmder.plain && !isTerminal(cmder.in) {
				cmder.plain = true
			}

			return cmder.run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Use a plain line oriented prompt instead of the terminal UI")
	config.AddStringFlags(cmd, config.Flags, chatFlags)

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logFile, err := dotdir.NewManager().OpenLog(c.configDir, chatLogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	fileLogger := logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(logFile))
	c.logger = fileLogger
	if c.plain && c.debug {
		c.logger = logger.Multi(
			fileLogger,
			logger.New(logger.WithDebug(true), logger.WithPretty(true), logger.WithWriter(os.Stderr)),
		)
	}

	clientCfg, err := cfg.Flow.ClientConfig()
	if err != nil {
		return err
	}
	client, err := flow.NewClient(clientCfg, c.logger)
	if err != nil {
		return fmt.Errorf("creating flow client: %w", err)
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	session := chat.NewSession(uuid.NewString(), client,
		chat.WithPublisher(publisher),
		chat.WithLogger(c.logger),
		chat.WithEndpointID(client.EndpointID()),
	)
	catalog := cfg.Catalog()

	c.logger.Info("chat session started",
		"session_id", session.ID(),
		"endpoint_id", client.EndpointID(),
		"plain", c.plain,
	)

	if c.plain {
		fmt.Fprintf(c.out, "\n  %s %s\n",
			cliui.KeyStyle.Render("Flow:"),
			cliui.NameStyle.Render(client.EndpointID()),
		)
		repl := &plainREPL{
			session: session,
			catalog: catalog,
			in:      c.in,
			out:     c.out,
			logger:  c.logger,
		}
		return repl.run(ctx)
	}

	return runChatTUI(ctx, session, catalog, "flowchat · "+client.EndpointID(), c.logger)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
