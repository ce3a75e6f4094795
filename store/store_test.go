package store_test

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/YuminosukeSato/rulconform/config"
	"github.com/YuminosukeSato/rulconform/conformal"
	"github.com/YuminosukeSato/rulconform/evaluation"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/store"
)

func newReport(created time.Time, margin float64) *evaluation.Report {
	return &evaluation.Report{
		RunID:  uuid.New(),
		Method: config.MethodTarget,
		Alpha:  0.05,
		Target: 0.95,
		Margin: conformal.Margin{Mode: conformal.ModeWeighted, Value: margin},
		Candidates: []conformal.Candidate{
			{Mode: conformal.ModeNaive, Margin: conformal.Margin{Mode: conformal.ModeNaive, Value: margin + 1}},
			{Mode: conformal.ModeWeighted, Margin: conformal.Margin{Mode: conformal.ModeWeighted, Value: margin}},
		},
		Units: []evaluation.UnitResult{
			{Unit: 81, NumPredictions: 120, Margin: margin, Coverage: 0.97, AvgWidth: margin, IndexDiff: 2},
		},
		Coverage:  0.97,
		AvgWidth:  margin,
		CreatedAt: created,
	}
}

var _ = Describe("calibration run store", Ordered, func() {
	var (
		s   *store.DataStore
		ctx context.Context
	)

	BeforeAll(func() {
		cfg := config.Default().Database
		cfg.Name = filepath.Join(GinkgoT().TempDir(), "runs.db")

		var err error
		s, err = store.Open(cfg)
		Expect(err).To(BeNil())
		ctx = context.TODO()
	})

	AfterAll(func() {
		Expect(s.Close()).To(Succeed())
	})

	Context("empty store", func() {
		It("reports a missing latest run", func() {
			_, err := s.Latest(ctx)
			Expect(errors.Is(err, store.ErrRecordNotFound)).To(BeTrue())
		})

		It("lists nothing", func() {
			runs, err := s.List(ctx, 0)
			Expect(err).To(BeNil())
			Expect(runs).To(BeEmpty())
		})
	})

	Context("with runs", func() {
		var older, newer *store.CalibrationRun

		BeforeAll(func() {
			now := time.Now().UTC().Truncate(time.Second)

			var err error
			older, err = store.NewCalibrationRun(newReport(now.Add(-time.Hour), 10), "train.csv")
			Expect(err).To(BeNil())
			newer, err = store.NewCalibrationRun(newReport(now, 12.5), "test.csv")
			Expect(err).To(BeNil())

			Expect(s.Create(ctx, older)).To(Succeed())
			Expect(s.Create(ctx, newer)).To(Succeed())
		})

		It("gets a run by id", func() {
			run, err := s.Get(ctx, older.ID)
			Expect(err).To(BeNil())
			Expect(run.Source).To(Equal("train.csv"))
			Expect(run.Margin).To(Equal(10.0))
			Expect(run.FittedMargin()).To(Equal(conformal.Margin{Mode: conformal.ModeWeighted, Value: 10}))
		})

		It("round-trips candidates and unit results", func() {
			run, err := s.Get(ctx, newer.ID)
			Expect(err).To(BeNil())

			cands, err := run.CandidateList()
			Expect(err).To(BeNil())
			Expect(cands).To(HaveLen(2))
			Expect(cands[0].Margin.Value).To(Equal(13.5))

			units, err := run.UnitResults()
			Expect(err).To(BeNil())
			Expect(units).To(HaveLen(1))
			Expect(units[0].Unit).To(Equal(81))
			Expect(units[0].IndexDiff).To(Equal(2))
		})

		It("returns the newest run as latest", func() {
			run, err := s.Latest(ctx)
			Expect(err).To(BeNil())
			Expect(run.ID).To(Equal(newer.ID))
		})

		It("lists newest first and honours the limit", func() {
			runs, err := s.List(ctx, 0)
			Expect(err).To(BeNil())
			Expect(runs).To(HaveLen(2))
			Expect(runs[0].ID).To(Equal(newer.ID))
			Expect(runs[1].ID).To(Equal(older.ID))

			runs, err = s.List(ctx, 1)
			Expect(err).To(BeNil())
			Expect(runs).To(HaveLen(1))
		})

		It("reports an unknown id as not found", func() {
			_, err := s.Get(ctx, uuid.New())
			Expect(errors.Is(err, store.ErrRecordNotFound)).To(BeTrue())
		})
	})

	It("assigns an id when none is set", func() {
		run := &store.CalibrationRun{Method: config.MethodBest, Mode: "naive", Alpha: 0.1, Margin: 3, CreatedAt: time.Now().UTC().Add(-24 * time.Hour)}
		Expect(s.Create(ctx, run)).To(Succeed())
		Expect(run.ID).NotTo(Equal(uuid.Nil))
	})

	It("rejects a nil report", func() {
		_, err := store.NewCalibrationRun(nil, "")
		Expect(err).NotTo(BeNil())
	})
})

var _ = Describe("Exists", func() {
	It("is false until the sqlite file is created", func() {
		cfg := config.Default().Database
		cfg.Name = filepath.Join(GinkgoT().TempDir(), "later.db")
		Expect(store.Exists(cfg)).To(BeFalse())

		s, err := store.Open(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Close()).To(Succeed())
		Expect(store.Exists(cfg)).To(BeTrue())
	})

	It("assumes a postgres server is there", func() {
		cfg := config.Default().Database
		cfg.Type = "pgsql"
		Expect(store.Exists(cfg)).To(BeTrue())
	})
})
