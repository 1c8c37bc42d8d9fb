package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/flow"
	"github.com/papercomputeco/flowchat/pkg/logger"
	"github.com/papercomputeco/flowchat/pkg/prompts"
)

// echoSender answers with the message, or fails with err when set.
type echoSender struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (e *echoSender) Send(_ context.Context, message string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, message)
	if e.err != nil {
		return "", e.err
	}
	return "echo: " + message, nil
}

func resultText(result *mcp.CallToolResult) string {
	Expect(result.Content).NotTo(BeEmpty())
	text, ok := result.Content[0].(*mcp.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}

var _ = Describe("MCP Server", func() {
	var (
		server   *Server
		sessions *chat.Manager
		sender   *echoSender
		ctx      context.Context
	)

	BeforeEach(func() {
		sender = &echoSender{}
		sessions = chat.NewManager(chat.NewSessionFactory(sender))

		var err error
		server, err = NewServer(Config{
			Sessions: sessions,
			Catalog: prompts.NewCatalog([]prompts.Category{
				{Name: "Taxation", Prompts: []string{"first prompt", "second prompt"}},
			}),
			Logger: logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	Describe("NewServer", func() {
		It("returns an error when the session manager is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("session manager is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Sessions: sessions})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("defaults the prompt catalog", func() {
			s, err := NewServer(Config{Sessions: sessions, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.config.Catalog.Len()).To(Equal(prompts.Default().Len()))
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("ask", func() {
		It("starts a new session when none is given", func() {
			result, output, err := server.handleAsk(ctx, nil, AskInput{Message: "hello"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.SessionID).NotTo(BeEmpty())
			Expect(output.Answer).To(Equal("echo: hello"))
			Expect(sessions.Len()).To(Equal(1))

			var decoded AskOutput
			Expect(json.Unmarshal([]byte(resultText(result)), &decoded)).To(Succeed())
			Expect(decoded).To(Equal(output))
		})

		It("continues an existing session", func() {
			_, first, err := server.handleAsk(ctx, nil, AskInput{Message: "one"})
			Expect(err).NotTo(HaveOccurred())

			_, second, err := server.handleAsk(ctx, nil, AskInput{SessionID: first.SessionID, Message: "two"})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.SessionID).To(Equal(first.SessionID))

			session, ok := sessions.Get(first.SessionID)
			Expect(ok).To(BeTrue())
			Expect(session.History()).To(HaveLen(4))
		})

		It("sends a sample prompt by index", func() {
			_, output, err := server.handleAsk(ctx, nil, AskInput{PromptIndex: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Message).To(Equal("second prompt"))
			Expect(sender.calls).To(Equal([]string{"second prompt"}))
		})

		It("reports an unknown sample prompt", func() {
			result, _, err := server.handleAsk(ctx, nil, AskInput{PromptIndex: 9})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(resultText(result)).To(ContainSubstring("prompt"))
			Expect(sender.calls).To(BeEmpty())
		})

		It("requires a message or a prompt index", func() {
			result, _, err := server.handleAsk(ctx, nil, AskInput{Message: "  "})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(sessions.Len()).To(Equal(0))
		})

		It("reports an unknown session", func() {
			result, _, err := server.handleAsk(ctx, nil, AskInput{SessionID: "missing", Message: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(resultText(result)).To(ContainSubstring(`"missing" not found`))
		})

		It("describes flow failures with their kind", func() {
			sender.err = &flow.TransportError{Op: "sending request", StatusCode: 503, Cause: errors.New("unavailable")}

			result, _, err := server.handleAsk(ctx, nil, AskInput{Message: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(resultText(result)).To(ContainSubstring(string(chat.KindTransport)))
		})
	})

	Describe("history and clear", func() {
		var sessionID string

		BeforeEach(func() {
			_, output, err := server.handleAsk(ctx, nil, AskInput{Message: "hello"})
			Expect(err).NotTo(HaveOccurred())
			sessionID = output.SessionID
		})

		It("returns the transcript in order", func() {
			result, output, err := server.handleHistory(ctx, nil, SessionInput{SessionID: sessionID})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.Count).To(Equal(2))
			Expect(output.Turns).To(Equal([]Turn{
				{Role: "user", Content: "hello"},
				{Role: "assistant", Content: "echo: hello"},
			}))
		})

		It("clears the transcript and reports what was removed", func() {
			_, cleared, err := server.handleClear(ctx, nil, SessionInput{SessionID: sessionID})
			Expect(err).NotTo(HaveOccurred())
			Expect(cleared.Removed).To(Equal(2))

			_, output, err := server.handleHistory(ctx, nil, SessionInput{SessionID: sessionID})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Count).To(BeZero())
			Expect(output.Turns).To(BeEmpty())
		})

		It("requires a session id", func() {
			result, _, err := server.handleHistory(ctx, nil, SessionInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())

			result, _, err = server.handleClear(ctx, nil, SessionInput{SessionID: "missing"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("over an MCP session", func() {
		It("lists the tools and answers an ask call", func() {
			clientTransport, serverTransport := mcp.NewInMemoryTransports()

			serverSession, err := server.mcpServer.Connect(ctx, serverTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = serverSession.Close() })

			client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
			clientSession, err := client.Connect(ctx, clientTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = clientSession.Close() })

			tools, err := clientSession.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			names := make([]string, 0, len(tools.Tools))
			for _, tool := range tools.Tools {
				names = append(names, tool.Name)
			}
			Expect(names).To(ConsistOf("ask", "history", "clear"))

			result, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
				Name:      "ask",
				Arguments: map[string]any{"message": "over the wire"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(resultText(result)).To(ContainSubstring("echo: over the wire"))
			Expect(sessions.Len()).To(Equal(1))
		})
	})
})
