package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/elvenok1/servidor-api-rag/cmd/ragsearch/init"
	"github.com/elvenok1/servidor-api-rag/pkg/config"
)

func loadConfig(dir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(dir, ".ragsearch", "config.toml"))
	Expect(err).NotTo(HaveOccurred())

	var cfg config.Config
	_, err = toml.Decode(string(data), &cfg)
	Expect(err).NotTo(HaveOccurred())
	return &cfg
}

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "ragsearch-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates a .ragsearch directory with a default config", func() {
		Expect(run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Initialized"))

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Collection.Name).To(Equal("openpyxl_final_v2"))
		Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
	})

	It("applies a preset", func() {
		Expect(run("--preset", "local")).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.VectorStore.Provider).To(Equal("sqlite"))
	})

	It("rejects an unknown preset", func() {
		Expect(run("--preset", "nope")).To(MatchError(ContainSubstring("unknown preset")))
	})

	It("does not overwrite an existing config", func() {
		dir := filepath.Join(tmpDir, ".ragsearch")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[collection]\nname = \"mine\"\n"), 0o600)).To(Succeed())

		Expect(run("--preset", "openai")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))

		cfg := loadConfig(tmpDir)
		Expect(cfg.Collection.Name).To(Equal("mine"))
	})
})
