package flow_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flowchat/pkg/flow"
	"github.com/papercomputeco/flowchat/pkg/logger"
)

const helloBody = `{"outputs":[{"outputs":[{"results":{"message":{"data":{"text":"Hello"}}}}]}]}`

// capturedRequest records what the fake flow server received.
type capturedRequest struct {
	method string
	path   string
	header http.Header
	body   map[string]any
}

func newFlowServer(status int, body string, captured *capturedRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.method = r.Method
			captured.path = r.URL.Path
			captured.header = r.Header.Clone()
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &captured.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		captured *capturedRequest
		ctx      context.Context
	)

	newClient := func(cfg flow.Config) *flow.Client {
		cfg.BaseURL = server.URL
		client, err := flow.NewClient(cfg, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return client
	}

	BeforeEach(func() {
		captured = &capturedRequest{}
		ctx = context.Background()
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	Describe("NewClient", func() {
		It("requires a base URL", func() {
			_, err := flow.NewClient(flow.Config{}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("base URL is required")))
		})

		It("rejects a malformed base URL", func() {
			_, err := flow.NewClient(flow.Config{BaseURL: "not a url"}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RunURL", func() {
		It("composes base URL, org and endpoint", func() {
			client, err := flow.NewClient(flow.Config{
				BaseURL: "https://flows.example.com/",
				OrgID:   "org-1",
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(client.RunURL("flow-9")).To(Equal("https://flows.example.com/lf/org-1/api/v1/run/flow-9"))
		})

		It("uses the self-hosted layout without an org", func() {
			client, err := flow.NewClient(flow.Config{BaseURL: "http://localhost:7860"}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(client.RunURL("flow-9")).To(Equal("http://localhost:7860/api/v1/run/flow-9"))
		})
	})

	Describe("Send", func() {
		It("returns the answer text on success", func() {
			server = newFlowServer(http.StatusOK, helloBody, captured)
			client := newClient(flow.Config{OrgID: "org-1", EndpointID: "flow-1"})

			text, err := client.Send(ctx, "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Hello"))
		})

		It("posts the chat payload with bearer authorization", func() {
			server = newFlowServer(http.StatusOK, helloBody, captured)
			client := newClient(flow.Config{
				OrgID:      "org-1",
				EndpointID: "flow-1",
				Token:      "secret-token",
				Tweaks:     flow.Tweaks{"ChatInput-1": {}},
			})

			_, err := client.Send(ctx, "What is the new Indirect Tax rate")
			Expect(err).NotTo(HaveOccurred())

			Expect(captured.method).To(Equal(http.MethodPost))
			Expect(captured.path).To(Equal("/lf/org-1/api/v1/run/flow-1"))
			Expect(captured.header.Get("Authorization")).To(Equal("Bearer secret-token"))
			Expect(captured.header.Get("Content-Type")).To(Equal("application/json"))
			Expect(captured.body["input_value"]).To(Equal("What is the new Indirect Tax rate"))
			Expect(captured.body["output_type"]).To(Equal("chat"))
			Expect(captured.body["input_type"]).To(Equal("chat"))
			Expect(captured.body["tweaks"]).To(HaveKey("ChatInput-1"))
			Expect(captured.body).NotTo(HaveKey("session_id"))
		})

		It("omits tweaks when none are configured", func() {
			server = newFlowServer(http.StatusOK, helloBody, captured)
			client := newClient(flow.Config{EndpointID: "flow-1"})

			_, err := client.Send(ctx, "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.body).NotTo(HaveKey("tweaks"))
			Expect(captured.header.Get("Authorization")).To(BeEmpty())
		})

		It("forwards the configured flow session id", func() {
			server = newFlowServer(http.StatusOK, helloBody, captured)
			client := newClient(flow.Config{EndpointID: "flow-1", SessionID: "visitor-7"})

			_, err := client.Send(ctx, "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.body["session_id"]).To(Equal("visitor-7"))
		})

		It("returns a TransportError for HTTP 500", func() {
			server = newFlowServer(http.StatusInternalServerError, `{"detail":"flow crashed"}`, nil)
			client := newClient(flow.Config{EndpointID: "flow-1"})

			_, err := client.Send(ctx, "hi")
			Expect(err).To(HaveOccurred())

			var transportErr *flow.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
			Expect(transportErr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(transportErr.Error()).To(ContainSubstring("flow crashed"))
		})

		It("returns a TransportError when the flow is unreachable", func() {
			server = newFlowServer(http.StatusOK, helloBody, nil)
			client := newClient(flow.Config{EndpointID: "flow-1"})
			server.Close()

			_, err := client.Send(ctx, "hi")
			Expect(flow.IsTransport(err)).To(BeTrue())

			var transportErr *flow.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
			Expect(transportErr.StatusCode).To(BeZero())
		})

		It("returns a TransportError when the call times out", func() {
			release := make(chan struct{})
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				<-release
				_, _ = w.Write([]byte(helloBody))
			}))
			defer close(release)

			client := newClient(flow.Config{EndpointID: "flow-1", Timeout: 50 * time.Millisecond})

			_, err := client.Send(ctx, "hi")
			Expect(flow.IsTransport(err)).To(BeTrue())
		})

		It("applies the timeout to a caller supplied HTTP client", func() {
			release := make(chan struct{})
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				<-release
				_, _ = w.Write([]byte(helloBody))
			}))
			defer close(release)

			client := newClient(flow.Config{
				EndpointID: "flow-1",
				Timeout:    50 * time.Millisecond,
				HTTPClient: &http.Client{},
			})

			start := time.Now()
			_, err := client.Send(ctx, "hi")
			Expect(flow.IsTransport(err)).To(BeTrue())
			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
			Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
		})

		It("keeps a long error body valid UTF-8", func() {
			body := "x" + strings.Repeat("é", 400)
			server = newFlowServer(http.StatusBadGateway, body, nil)
			client := newClient(flow.Config{EndpointID: "flow-1"})

			_, err := client.Send(ctx, "hi")
			Expect(flow.IsTransport(err)).To(BeTrue())
			Expect(utf8.ValidString(err.Error())).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("..."))
		})

		It("returns a ParseError for an empty outputs array", func() {
			server = newFlowServer(http.StatusOK, `{"outputs": []}`, nil)
			client := newClient(flow.Config{EndpointID: "flow-1"})

			text, err := client.Send(ctx, "hi")
			Expect(text).To(BeEmpty())
			Expect(flow.IsParse(err)).To(BeTrue())
		})

		It("returns an UnexpectedShapeError for a list body", func() {
			server = newFlowServer(http.StatusOK, `["Hello"]`, nil)
			client := newClient(flow.Config{EndpointID: "flow-1"})

			_, err := client.Send(ctx, "hi")
			Expect(flow.IsUnexpectedShape(err)).To(BeTrue())
		})

		It("fails without contacting the flow when no endpoint is configured", func() {
			server = newFlowServer(http.StatusOK, helloBody, captured)
			client := newClient(flow.Config{})

			_, err := client.Send(ctx, "hi")
			Expect(flow.IsTransport(err)).To(BeTrue())
			Expect(captured.method).To(BeEmpty())
		})
	})

	Describe("SendTo", func() {
		It("overrides the endpoint and tweaks for one call", func() {
			server = newFlowServer(http.StatusOK, helloBody, captured)
			client := newClient(flow.Config{
				OrgID:      "org-1",
				EndpointID: "flow-1",
				Tweaks:     flow.Tweaks{"Default-1": {}},
			})

			_, err := client.SendTo(ctx, "flow-2", "hi", flow.Tweaks{"Prompt-1": {"template": "be brief"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.path).To(Equal("/lf/org-1/api/v1/run/flow-2"))
			Expect(captured.body["tweaks"]).To(HaveKey("Prompt-1"))
			Expect(captured.body["tweaks"]).NotTo(HaveKey("Default-1"))
		})
	})
})

var _ = Describe("Request", func() {
	It("round trips through JSON", func() {
		req := flow.NewRequest("hi", flow.Tweaks{
			"ChatInput-RgtFO": {},
			"Prompt-6dcqx":    {"template": "Answer as an advisor", "enabled": true},
		})

		data, err := json.Marshal(req)
		Expect(err).NotTo(HaveOccurred())

		var decoded flow.Request
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded).To(Equal(*req))
	})

	It("omits empty tweaks", func() {
		data, err := json.Marshal(flow.NewRequest("hi", flow.Tweaks{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"input_value":"hi","output_type":"chat","input_type":"chat"}`))
	})
})

var _ = Describe("Tweaks", func() {
	It("clones component maps", func() {
		orig := flow.Tweaks{"Prompt-1": {"template": "a"}}
		clone := orig.Clone()
		clone["Prompt-1"]["template"] = "b"
		Expect(orig["Prompt-1"]["template"]).To(Equal("a"))
	})
})
