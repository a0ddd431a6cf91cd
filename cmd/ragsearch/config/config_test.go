package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/elvenok1/servidor-api-rag/cmd/ragsearch/config"
	"github.com/elvenok1/servidor-api-rag/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "ragsearch-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .ragsearch dir so the manager picks it up
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".ragsearch"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("writes the value to config.toml", func() {
			Expect(run("set", "collection.name", "docs_v3")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("collection.name"))

			cfger, err := config.NewConfiger(filepath.Join(tmpDir, ".ragsearch"))
			Expect(err).NotTo(HaveOccurred())
			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Collection.Name).To(Equal("docs_v3"))
		})

		It("rejects an unknown key", func() {
			err := run("set", "proxy.upstream", "http://x")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("rejects an invalid value", func() {
			err := run("set", "vector_store.tls", "sometimes")
			Expect(err).To(MatchError(ContainSubstring("invalid value for vector_store.tls")))
		})

		It("masks credentials in its output", func() {
			Expect(run("set", "embedding.api_key", "sk-secret")).To(Succeed())
			Expect(out.String()).NotTo(ContainSubstring("sk-secret"))
			Expect(out.String()).To(ContainSubstring("********"))
		})
	})

	Describe("get subcommand", func() {
		It("prints the stored value", func() {
			Expect(run("set", "vector_store.timeout", "45s")).To(Succeed())
			out.Reset()

			Expect(run("get", "vector_store.timeout")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("45s"))
		})

		It("prints <not set> for empty keys", func() {
			Expect(run("get", "vector_store.host_override")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(run("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
			Expect(out.String()).To(ContainSubstring(`"openpyxl_final_v2"`))
		})
	})
})
