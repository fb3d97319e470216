package sim_test

import (
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fsim/internal/control"
	"github.com/san-kum/fsim/internal/physics"
	"github.com/san-kum/fsim/internal/sim"
)

func TestSim(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sim Suite")
}

func modelConfig(m physics.Model, tf float64) sim.Config {
	cfg := sim.DefaultConfig()
	cfg.State0 = m.DefaultState()
	cfg.Dyn = m
	cfg.Params = m.DefaultParams()
	cfg.Kind = m.Kind()
	cfg.TF = tf
	return cfg
}

var _ = Describe("Simulator", func() {
	var s *sim.Simulator

	BeforeEach(func() {
		cfg := modelConfig(physics.NewDecay(), 1)
		cfg.Record = true
		cfg.Method = "rk4"
		var err error
		s, err = sim.New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts fresh with the initial sample recorded", func() {
		Expect(s.Phase()).To(Equal(sim.Fresh))
		Expect(s.Table().Len()).To(Equal(1))
		x, ok := s.Table().At(0).Sol.Vector("x")
		Expect(ok).To(BeTrue())
		Expect(x).To(Equal([]float64{1, 2}))
	})

	Context("when stepping interactively", func() {
		It("lands exactly on the requested time", func() {
			ok, err := s.StepUntil(0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(s.Time()).To(Equal(0.5))
			Expect(s.Phase()).To(Equal(sim.Running))
			Expect(s.Table().Len()).To(Equal(2))
		})

		It("truncates a target past the end and then stops", func() {
			ok, err := s.StepUntil(5, sim.NoWarn())
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(s.Time()).To(Equal(1.0))
			Expect(s.Phase()).To(Equal(sim.Terminated))

			ok, err = s.StepUntil(6, sim.NoWarn())
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(s.Table().Len()).To(Equal(2))
		})

		It("appends to a caller table only when a step was taken", func() {
			table := sim.NewTable()
			s.Push(table, true)
			for _, target := range []float64{0.25, 0.25, 0.75} {
				ok, err := s.StepUntil(target, sim.NoWarn(), sim.NoSave())
				Expect(err).NotTo(HaveOccurred())
				s.Push(table, ok)
			}
			Expect(table.Times()).To(Equal([]float64{0, 0.25, 0.75}))
			Expect(s.Table().Len()).To(Equal(1))
		})

		It("rewinds on Reinit", func() {
			_, err := s.StepUntil(0.5)
			Expect(err).NotTo(HaveOccurred())
			s.Reinit()
			Expect(s.Phase()).To(Equal(sim.Fresh))
			Expect(s.Table().Len()).To(Equal(1))
		})
	})

	Context("when solving", func() {
		It("samples the default grid and follows the exact solution", func() {
			table, err := s.Solve(sim.SolveOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Len()).To(Equal(101))

			x, ok := table.At(-1).Sol.Vector("x")
			Expect(ok).To(BeTrue())
			Expect(x[0]).To(BeNumerically("~", math.Exp(-1), 1e-6))
			Expect(x[1]).To(BeNumerically("~", 2*math.Exp(-1), 1e-6))
		})

		It("discards interactive progress", func() {
			_, err := s.StepUntil(0.5)
			Expect(err).NotTo(HaveOccurred())

			table, err := s.Solve(sim.SolveOptions{SaveAt: []float64{}})
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Times()).To(Equal([]float64{0, 1}))
		})
	})
})

var _ = Describe("Simulator with a stateful controller", func() {
	It("repeats a solve after a partial interactive run", func() {
		model := physics.NewSpringMass()
		pid := control.NewPID(10, 0.1, 5, 0)
		cfg := modelConfig(model, 2)
		cfg.Dyn = control.ApplyInputs(model, map[string]control.Input{"u": pid})
		cfg.Method = "rk4"

		s, err := sim.New(cfg)
		Expect(err).NotTo(HaveOccurred())

		first, err := s.Solve(sim.SolveOptions{SaveStep: 0.1})
		Expect(err).NotTo(HaveOccurred())

		_, err = s.StepUntil(1.3, sim.NoWarn())
		Expect(err).NotTo(HaveOccurred())

		second, err := s.Solve(sim.SolveOptions{SaveStep: 0.1})
		Expect(err).NotTo(HaveOccurred())
		Expect(second.EqualApprox(first, 1e-12)).To(BeTrue())
	})
})

var _ = Describe("Logging a controlled simulation", func() {
	controlled := func() *sim.Simulator {
		model := physics.NewSpringMass()
		cfg := modelConfig(model, 1)
		cfg.Dyn = control.ApplyInputs(model, map[string]control.Input{"u": control.NewPID(2, 1, 0.5, 1)})
		cfg.Method = "euler"
		cfg.Solver.Dt = 0.01
		s, err := sim.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	run := func(s *sim.Simulator, table *sim.Table) []float64 {
		for _, stop := range sim.Range(0, 1, 0.1)[1:] {
			ok, err := s.StepUntil(stop, sim.NoWarn())
			Expect(err).NotTo(HaveOccurred())
			s.Push(table, ok)
		}
		return append([]float64(nil), s.Integrator().State()...)
	}

	It("leaves the trajectory where stepping alone puts it", func() {
		quiet := run(controlled(), nil)

		table := sim.NewTable()
		logged := run(controlled(), table)

		Expect(table.Len()).To(Equal(10))
		Expect(logged).To(Equal(quiet))
	})

	It("records the input the dynamics saw", func() {
		table := sim.NewTable()
		run(controlled(), table)
		u, ok := table.At(-1).Sol.Float("u")
		Expect(ok).To(BeTrue())
		Expect(u).NotTo(BeZero())
	})
})

var _ = DescribeTable("Range",
	func(t0, tf, step float64, want []float64) {
		got := sim.Range(t0, tf, step)
		Expect(got).To(HaveLen(len(want)))
		for i := range want {
			Expect(got[i]).To(BeNumerically("~", want[i], 1e-12))
		}
	},
	Entry("forward on the grid", 0.0, 1.0, 0.25, []float64{0, 0.25, 0.5, 0.75, 1}),
	Entry("backward", 1.0, 0.0, 0.5, []float64{1, 0.5, 0}),
	Entry("off the grid", 0.0, 1.0, 0.3, []float64{0, 0.3, 0.6, 0.9}),
	Entry("accumulated rounding", 0.0, 1.0, 0.1, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}),
)
