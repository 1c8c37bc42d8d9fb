package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/flowchat/cmd/flowchat/config"
	"github.com/papercomputeco/flowchat/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has init, set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("init", "set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "flowchat-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .flowchat dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".flowchat"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	loadLocal := func() *config.Config {
		cfger, err := config.NewConfiger("")
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(execute("set", "flow.endpoint_id", "flow-9")).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, ".flowchat", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(loadLocal().Flow.EndpointID).To(Equal("flow-9"))
		})

		It("redacts the token in its output", func() {
			Expect(execute("set", "flow.token", "AstraCS:secret")).To(Succeed())
			Expect(out.String()).NotTo(ContainSubstring("AstraCS:secret"))
			Expect(loadLocal().Flow.Token).To(Equal("AstraCS:secret"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("set", "invalid_key", "value")).NotTo(Succeed())
		})

		It("requires exactly two arguments", func() {
			Expect(execute("set", "flow.base_url")).NotTo(Succeed())
		})

		It("rejects zero arguments", func() {
			Expect(execute("set")).NotTo(Succeed())
		})

		It("rejects invalid timeout values", func() {
			Expect(execute("set", "flow.timeout", "not-a-duration")).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(execute("set", "events.topic", "chat.events")).To(Succeed())

			out.Reset()
			Expect(execute("get", "events.topic")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("chat.events"))
		})

		It("runs without error for unset key", func() {
			Expect(execute("get", "flow.session_id")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("get", "invalid_key")).NotTo(Succeed())
		})

		It("requires exactly one argument", func() {
			Expect(execute("get")).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("runs without error when no config exists", func() {
			Expect(execute("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("flow.base_url"))
		})

		It("redacts secrets", func() {
			Expect(execute("set", "flow.token", "AstraCS:secret")).To(Succeed())

			out.Reset()
			Expect(execute("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("********"))
			Expect(out.String()).NotTo(ContainSubstring("AstraCS:secret"))
		})

		It("rejects any arguments", func() {
			Expect(execute("list", "extra")).NotTo(Succeed())
		})
	})

	Describe("init subcommand", func() {
		It("writes the requested preset", func() {
			Expect(execute("init", "--preset", "local")).To(Succeed())

			cfg := loadLocal()
			Expect(cfg.Flow.BaseURL).To(Equal("http://localhost:7860"))
			Expect(cfg.Flow.OrgID).To(BeEmpty())
		})

		It("refuses to replace an existing file without --force", func() {
			Expect(execute("init", "--preset", "local")).To(Succeed())
			Expect(execute("init", "--preset", "astra")).To(MatchError(ContainSubstring("already exists")))

			Expect(execute("init", "--preset", "astra", "--force")).To(Succeed())
			Expect(loadLocal().Flow.OrgID).NotTo(BeEmpty())
		})

		It("rejects unknown presets", func() {
			Expect(execute("init", "--preset", "cloud")).To(MatchError(ContainSubstring("unknown preset")))
		})
	})
})
