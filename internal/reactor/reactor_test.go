package reactor_test

import (
	"context"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/plasmasim/internal/dynamo"
	"github.com/san-kum/plasmasim/internal/kinetics"
	"github.com/san-kum/plasmasim/internal/rates"
	"github.com/san-kum/plasmasim/internal/reactor"
	"github.com/san-kum/plasmasim/internal/ratetable"
)

func mustTable(csv string) *ratetable.Table {
	tbl, err := ratetable.Load(strings.NewReader(csv))
	Expect(err).NotTo(HaveOccurred())
	return tbl
}

func errorEntries(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			out = append(out, e)
		}
	}
	return out
}

var _ = Describe("Reactor", func() {
	var (
		logger *logrus.Logger
		hook   *test.Hook
		ctx    context.Context
	)

	BeforeEach(func() {
		logger, hook = test.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		ctx = context.Background()
	})

	Describe("initial conditions", func() {
		It("splits the feed by the N2:H2 ratio and seeds radicals", func() {
			req := reactor.DefaultRequest()
			red := &kinetics.Reduced{}
			x0, err := reactor.InitialState(red.Species(), req)
			Expect(err).NotTo(HaveOccurred())

			r := req.FeedRatio
			Expect(x0[5]).To(BeNumerically("~", 1e16/(1+3*r), 1))
			Expect(x0[1]).To(BeNumerically("~", 1e16*3*r/(1+3*r), 1))
			Expect(x0[0]).To(Equal(reactor.DefaultSeedDensity))
			Expect(x0[2:5]).To(HaveEach(0.0))
		})

		It("seeds atomic hydrogen in the extended variant", func() {
			req := reactor.DefaultRequest()
			ext := &kinetics.Extended{}
			x0, err := reactor.InitialState(ext.Species(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(x0).To(HaveLen(7))
			Expect(x0[1]).To(Equal(reactor.DefaultSeedDensity))
		})

		It("rejects an override of the wrong length", func() {
			req := reactor.DefaultRequest()
			req.Initial = []float64{1, 2, 3}
			red := &kinetics.Reduced{}
			_, err := reactor.InitialState(red.Species(), req)
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})
	})

	Describe("end-to-end ammonia formation", func() {
		It("produces a non-decreasing NH3 trajectory with the reduced network", func() {
			tbl, err := ratetable.Default()
			Expect(err).NotTo(HaveOccurred())
			rx, err := reactor.New(tbl, logger)
			Expect(err).NotTo(HaveOccurred())

			req := reactor.DefaultRequest()
			req.Variant = "reduced"
			req.Te = 2.0
			req.Tg = 300
			req.FeedRatio = 0.33
			req.TotalDensity = 1e16
			req.Duration = 1e-3
			req.Samples = 100

			resp, err := rx.Run(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Result.Times).To(HaveLen(100))
			Expect(resp.Result.Times[0]).To(Equal(0.0))
			Expect(resp.Result.Times[99]).To(Equal(1e-3))

			nh3 := resp.Series("NH3")
			Expect(nh3[0]).To(Equal(0.0))
			final := nh3[len(nh3)-1]
			Expect(final).To(BeNumerically(">", 0))

			slack := 1e-4 * final
			for i := 1; i < len(nh3); i++ {
				Expect(nh3[i]).To(BeNumerically(">=", nh3[i-1]-slack), "sample %d", i)
			}

			Expect(resp.Plasma.Ne).To(BeNumerically("~", 1e11, 1))
			Expect(resp.Coefficients).To(HaveLen(5))
			Expect(resp.Result.Metrics).To(HaveKey("nh3_yield"))
			Expect(resp.Result.Metrics["n_atom_drift"]).To(BeNumerically("<", 1e-6))
			Expect(errorEntries(hook)).To(BeEmpty())
		})

		It("runs the extended network with catalyst enhancement", func() {
			tbl, err := ratetable.Default()
			Expect(err).NotTo(HaveOccurred())
			rx, err := reactor.New(tbl, logger)
			Expect(err).NotTo(HaveOccurred())

			req := reactor.DefaultRequest()
			req.Variant = "extended"
			req.Te = 3
			req.Samples = 20

			plain, err := rx.Run(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			req.Catalyst = 5
			boosted, err := rx.Run(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			k := func(r *reactor.Response) float64 {
				for _, c := range r.Coefficients {
					if c.Reaction == kinetics.ReactionRecombination {
						return c.Value
					}
				}
				return math.NaN()
			}
			Expect(k(boosted)).To(BeNumerically("~", 5*k(plain), 1e-20))
			Expect(boosted.Result.Final().IsValid()).To(BeTrue())
			Expect(plain.Series("H")).To(HaveLen(20))
		})
	})

	Describe("zero rates", func() {
		It("returns the initial state at every sample", func() {
			var rows []string
			for _, name := range kinetics.ReducedReactions {
				rows = append(rows, name+",0")
			}
			rx, err := reactor.New(mustTable("Reaction,Rate_Constant\n"+strings.Join(rows, "\n")), logger)
			Expect(err).NotTo(HaveOccurred())

			req := reactor.DefaultRequest()
			req.Samples = 25
			resp, err := rx.Run(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			x0 := resp.Result.States[0]
			for _, state := range resp.Result.States {
				for i := range x0 {
					Expect(state[i]).To(BeNumerically("~", x0[i], 1e-9*x0.MaxAbs()))
				}
			}
		})
	})

	Describe("fatal errors", func() {
		var rx *reactor.Reactor

		BeforeEach(func() {
			tbl, err := ratetable.Default()
			Expect(err).NotTo(HaveOccurred())
			rx, err = reactor.New(tbl, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		DescribeTable("are logged and returned",
			func(mutate func(*reactor.Request), want error) {
				req := reactor.DefaultRequest()
				mutate(&req)
				resp, err := rx.Run(ctx, req)
				Expect(resp).To(BeNil())
				Expect(err).To(HaveOccurred())
				if want != nil {
					Expect(err).To(MatchError(want))
				}
				entries := errorEntries(hook)
				Expect(entries).To(HaveLen(1))
				Expect(entries[0].Data).To(HaveKey(logrus.ErrorKey))
			},
			Entry("zero electron temperature", func(r *reactor.Request) { r.Te = 0 }, dynamo.ErrParameterBounds),
			Entry("negative gas temperature", func(r *reactor.Request) { r.Tg = -1 }, dynamo.ErrParameterBounds),
			Entry("negative catalyst", func(r *reactor.Request) { r.Catalyst = -2 }, dynamo.ErrParameterBounds),
			Entry("one sample", func(r *reactor.Request) { r.Samples = 1 }, dynamo.ErrParameterBounds),
			Entry("zero duration", func(r *reactor.Request) { r.Duration = 0 }, dynamo.ErrParameterBounds),
			Entry("unknown variant", func(r *reactor.Request) { r.Variant = "full" }, nil),
			Entry("unknown method", func(r *reactor.Request) { r.Method = "euler" }, nil),
			Entry("unknown density model", func(r *reactor.Request) { r.Density.Model = "maxwell" }, nil),
			Entry("initial length", func(r *reactor.Request) { r.Initial = []float64{1} }, dynamo.ErrDimensionMismatch),
			Entry("negative initial", func(r *reactor.Request) { r.Initial = []float64{-1, 0, 0, 0, 0, 0} }, dynamo.ErrInvalidState),
		)

		It("rejects an empty table", func() {
			empty, err := ratetable.New(nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = reactor.New(empty, logger)
			Expect(err).To(MatchError(ratetable.ErrEmptyTable))
			Expect(errorEntries(hook)).To(HaveLen(1))
		})

		It("reports integrator failure with step context", func() {
			req := reactor.DefaultRequest()
			req.MaxSteps = 1
			_, err := rx.Run(ctx, req)
			Expect(err).To(MatchError(dynamo.ErrMaxSteps))

			entries := errorEntries(hook)
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Data).To(HaveKey("step"))
			Expect(entries[0].Message).To(Equal("simulation failed"))
		})
	})

	Describe("grid search", func() {
		It("finds the catalyst setting with the highest yield", func() {
			tbl, err := ratetable.Default()
			Expect(err).NotTo(HaveOccurred())
			rx, err := reactor.New(tbl, logger)
			Expect(err).NotTo(HaveOccurred())

			gs, err := reactor.NewGridSearch([]string{"catalyst"}, [][]float64{{0, 1, 10}})
			Expect(err).NotTo(HaveOccurred())

			base := reactor.DefaultRequest()
			base.Variant = "extended"
			base.Samples = 10
			best, points, err := gs.Search(ctx, rx, base, "nh3_yield")
			Expect(err).NotTo(HaveOccurred())
			Expect(points).To(HaveLen(3))
			Expect(best.Params).To(HaveKeyWithValue("catalyst", 10.0))
		})

		It("reports points in grid order with the last parameter fastest", func() {
			tbl, err := ratetable.Default()
			Expect(err).NotTo(HaveOccurred())
			rx, err := reactor.New(tbl, logger)
			Expect(err).NotTo(HaveOccurred())

			gs, err := reactor.NewGridSearch([]string{"te", "catalyst"}, [][]float64{{0, 2}, {1, 10}})
			Expect(err).NotTo(HaveOccurred())

			base := reactor.DefaultRequest()
			base.Variant = "extended"
			base.Samples = 5
			best, points, err := gs.Search(ctx, rx, base, "nh3_yield")
			Expect(err).NotTo(HaveOccurred())
			Expect(points).To(HaveLen(4))

			want := [][2]float64{{0, 1}, {0, 10}, {2, 1}, {2, 10}}
			for i, p := range points {
				Expect(p.Params).To(HaveKeyWithValue("te", want[i][0]))
				Expect(p.Params).To(HaveKeyWithValue("catalyst", want[i][1]))
			}
			Expect(points[0].Err).To(MatchError(dynamo.ErrParameterBounds))
			Expect(points[1].Err).To(MatchError(dynamo.ErrParameterBounds))
			Expect(points[2].Err).NotTo(HaveOccurred())
			Expect(points[3].Err).NotTo(HaveOccurred())
			Expect(best.Params).To(HaveKeyWithValue("catalyst", 10.0))
		})

		It("returns the context error when canceled", func() {
			tbl, err := ratetable.Default()
			Expect(err).NotTo(HaveOccurred())
			rx, err := reactor.New(tbl, logger)
			Expect(err).NotTo(HaveOccurred())
			gs, err := reactor.NewGridSearch([]string{"catalyst"}, [][]float64{{1, 2}})
			Expect(err).NotTo(HaveOccurred())

			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, _, err = gs.Search(canceled, rx, reactor.DefaultRequest(), "nh3_yield")
			Expect(err).To(MatchError(context.Canceled))
		})

		It("rejects unknown parameters", func() {
			_, err := reactor.NewGridSearch([]string{"pressure"}, [][]float64{{1}})
			Expect(err).To(HaveOccurred())
			_, err = reactor.NewGridSearch([]string{"te"}, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ensemble", func() {
		It("runs requests concurrently and keeps request order", func() {
			tbl, err := ratetable.Default()
			Expect(err).NotTo(HaveOccurred())
			rx, err := reactor.New(tbl, logger)
			Expect(err).NotTo(HaveOccurred())

			reqs := make([]reactor.Request, 4)
			for i := range reqs {
				reqs[i] = reactor.DefaultRequest()
				reqs[i].Samples = 5
			}
			reqs[1].Variant = "extended"
			reqs[2].Tg = -1
			reqs[3].Method = "rk45"

			responses, errs := reactor.NewEnsemble(rx, 2).Run(ctx, reqs)
			Expect(responses).To(HaveLen(4))
			Expect(errs[0]).NotTo(HaveOccurred())
			Expect(errs[1]).NotTo(HaveOccurred())
			Expect(errs[2]).To(MatchError(dynamo.ErrParameterBounds))
			Expect(errs[3]).NotTo(HaveOccurred())

			Expect(responses[0].Variant).To(Equal("reduced"))
			Expect(responses[1].Variant).To(Equal("extended"))
			Expect(responses[2]).To(BeNil())
			Expect(responses[3].Method).To(Equal("rk45"))
		})

		It("shares the memoized rate source across runs", func() {
			tbl, err := ratetable.Default()
			Expect(err).NotTo(HaveOccurred())
			rx, err := reactor.New(tbl, logger)
			Expect(err).NotTo(HaveOccurred())

			cached, ok := rx.Rater().(*rates.Cached)
			Expect(ok).To(BeTrue())

			reqs := []reactor.Request{reactor.DefaultRequest(), reactor.DefaultRequest()}
			reqs[0].Samples, reqs[1].Samples = 5, 5
			_, errs := reactor.NewEnsemble(rx, 1).Run(ctx, reqs)
			Expect(errs).To(HaveEach(BeNil()))

			hits, misses := cached.Stats()
			Expect(misses).To(Equal(len(kinetics.ReducedReactions)))
			Expect(hits).To(Equal(len(kinetics.ReducedReactions)))
		})
	})

	Describe("registry", func() {
		It("lists the available strategies", func() {
			reg := reactor.NewRegistry()
			Expect(reg.ListVariants()).To(Equal([]string{"extended", "reduced"}))
			Expect(reg.ListMethods()).To(Equal([]string{"rk45", "rosenbrock"}))
			Expect(reg.ListDensityModels()).To(Equal([]string{"power", "saha"}))
		})
	})
})
