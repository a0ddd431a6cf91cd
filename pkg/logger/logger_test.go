package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/elvenok1/servidor-api-rag/pkg/logger"
)

func decodeLine(buf *bytes.Buffer) map[string]any {
	var record map[string]any
	ExpectWithOffset(1, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record)).To(Succeed())
	return record
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

var _ = Describe("New", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("writes text at Info by default", func() {
		l := logger.New(logger.WithWriter(buf))
		l.Info("search served", "collection", "openpyxl_final_v2")
		l.Debug("encoder cache miss")

		Expect(buf.String()).To(ContainSubstring("search served"))
		Expect(buf.String()).To(ContainSubstring("collection=openpyxl_final_v2"))
		Expect(buf.String()).NotTo(ContainSubstring("cache miss"))
	})

	It("emits debug records with WithDebug", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithDebug(true))
		l.Debug("encoder cache miss")
		Expect(buf.String()).To(ContainSubstring("encoder cache miss"))
	})

	It("drops records below WithLevel", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithLevel(slog.LevelWarn))
		l.Info("verifying collection")
		Expect(buf.String()).To(BeEmpty())

		l.Warn("config file changed")
		Expect(buf.String()).To(ContainSubstring("config file changed"))
	})

	It("writes JSON records", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true))
		l.Info("search served", "results", 5)

		record := decodeLine(buf)
		Expect(record["msg"]).To(Equal("search served"))
		Expect(record["results"]).To(BeNumerically("==", 5))
	})

	It("prefers JSON over pretty output", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithPretty(true))
		l.Info("verified")
		Expect(decodeLine(buf)).To(HaveKeyWithValue("msg", "verified"))
	})

	It("renders the pretty handler", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithPretty(true))
		l.Info("collection verified")
		Expect(buf.String()).To(ContainSubstring("collection verified"))
	})

	It("includes the caller with WithSource", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithSource(true))
		l.Info("verified")
		Expect(decodeLine(buf)).To(HaveKey(slog.SourceKey))
	})

	It("binds WithAttrs to every record", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithAttrs("service", "ragsearch"))
		l.Info("started")
		Expect(decodeLine(buf)).To(HaveKeyWithValue("service", "ragsearch"))
	})

	It("copies output to every writer", func() {
		other := &bytes.Buffer{}
		l := logger.New(logger.WithWriter(buf, other))
		l.Info("shutting down")

		Expect(buf.String()).To(ContainSubstring("shutting down"))
		Expect(other.String()).To(Equal(buf.String()))
	})
})

var _ = Describe("ParseLevel", func() {
	DescribeTable("known levels",
		func(in string, want slog.Level) {
			level, err := logger.ParseLevel(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(level).To(Equal(want))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry("empty", "", slog.LevelInfo),
		Entry("upper case", "INFO", slog.LevelInfo),
		Entry("warning alias", "warning", slog.LevelWarn),
		Entry("error", " error ", slog.LevelError),
	)

	It("rejects unknown levels", func() {
		_, err := logger.ParseLevel("verbose")
		Expect(err).To(MatchError(ContainSubstring(`unknown log level "verbose"`)))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		Expect(h.Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		Expect(func() {
			logger.Nop().With("k", "v").WithGroup("g").Error("ignored")
		}).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	var console, file *bytes.Buffer

	BeforeEach(func() {
		console = &bytes.Buffer{}
		file = &bytes.Buffer{}
	})

	It("sends each record to every logger", func() {
		l := logger.Multi(
			logger.New(logger.WithWriter(console)),
			logger.New(logger.WithWriter(file), logger.WithJSON(true)),
		)
		l.Info("search served", "request_id", "abc")

		Expect(console.String()).To(ContainSubstring("request_id=abc"))
		Expect(decodeLine(file)).To(HaveKeyWithValue("request_id", "abc"))
	})

	It("respects each logger's level", func() {
		l := logger.Multi(
			logger.New(logger.WithWriter(console)),
			logger.New(logger.WithWriter(file), logger.WithJSON(true), logger.WithDebug(true)),
		)
		l.Debug("startup vector", "dimensions", 384)

		Expect(console.String()).To(BeEmpty())
		Expect(decodeLine(file)).To(HaveKeyWithValue("msg", "startup vector"))
	})

	It("carries With and WithGroup to every handler", func() {
		l := logger.Multi(
			logger.New(logger.WithWriter(console), logger.WithJSON(true)),
			logger.New(logger.WithWriter(file), logger.WithJSON(true)),
		)
		l.With("component", "gate").WithGroup("collection").Info("verified", "name", "docs")

		for _, buf := range []*bytes.Buffer{console, file} {
			record := decodeLine(buf)
			Expect(record).To(HaveKeyWithValue("component", "gate"))
			Expect(record).To(HaveKeyWithValue("collection", HaveKeyWithValue("name", "docs")))
		}
	})

	It("skips nil loggers", func() {
		l := logger.Multi(nil, logger.New(logger.WithWriter(console)))
		l.Info("started")
		Expect(console.String()).To(ContainSubstring("started"))
	})

	It("keeps writing when one handler fails", func() {
		failing := slog.New(failingHandler{})
		l := logger.Multi(failing, logger.New(logger.WithWriter(console)))

		err := l.Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "started", 0))
		Expect(err).To(MatchError("disk full"))
		Expect(console.String()).To(ContainSubstring("started"))
	})
})
