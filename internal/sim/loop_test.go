package sim_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/precession/internal/dynamo"
	"github.com/san-kum/precession/internal/integrators"
	"github.com/san-kum/precession/internal/sim"
	"github.com/san-kum/precession/internal/trail"
)

type recorder struct {
	frames []sim.Frame
}

func (r *recorder) Render(f sim.Frame) {
	cp := f
	cp.Trail = make([]r3.Vec, f.Count)
	copy(cp.Trail, f.Trail[:f.Count])
	r.frames = append(r.frames, cp)
}

// failAfter steps normally n times, then fails.
type failAfter struct {
	n     int
	calls int
	inner dynamo.Stepper
}

func (f *failAfter) Step(x dynamo.State, p dynamo.Params) (dynamo.State, error) {
	f.calls++
	if f.calls > f.n {
		return dynamo.State{}, dynamo.ErrDivisionByZero
	}
	return f.inner.Step(x, p)
}

type countingMetric struct{ n int }

func (c *countingMetric) Name() string                  { return "count" }
func (c *countingMetric) Observe(dynamo.State, float64) { c.n++ }
func (c *countingMetric) Value() float64                { return float64(c.n) }
func (c *countingMetric) Reset()                        { c.n = 0 }

var _ = Describe("Loop", func() {
	var (
		params dynamo.Params
		x0     dynamo.State
		rec    *recorder
	)

	BeforeEach(func() {
		var err error
		params, err = dynamo.NewParams(0.99, 2.95e-7, 8.19e-7, 1e6, 0, 0.51, dynamo.DefaultStepsPerUnit)
		Expect(err).NotTo(HaveOccurred())
		x0 = dynamo.InitialState(4.60, 0.51)
		rec = &recorder{}
	})

	newLoop := func(stepper dynamo.Stepper, capacity int) *sim.Loop {
		buf, err := trail.New(capacity)
		Expect(err).NotTo(HaveOccurred())
		l, err := sim.New(stepper, params, x0, buf, rec, sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		return l
	}

	It("rejects an initial position at the origin", func() {
		buf, _ := trail.New(10)
		_, err := sim.New(integrators.NewSymplecticEuler(), params, dynamo.State{Velocity: r3.Vec{X: 1}}, buf, rec, sim.DefaultConfig())
		Expect(errors.Is(err, dynamo.ErrDivisionByZero)).To(BeTrue())
	})

	It("matches direct integration step for step", func() {
		l := newLoop(integrators.NewSymplecticEuler(), 100)
		integ := integrators.NewSymplecticEuler()
		x := x0
		for i := 0; i < 50; i++ {
			Expect(l.Tick()).To(Succeed())
			var err error
			x, err = integ.Step(x, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.State()).To(Equal(x))
		}
		Expect(l.Steps()).To(Equal(50))
		Expect(l.Time()).To(BeNumerically("~", 50*params.Dt, 1e-12))
	})

	It("renders the scaled body and offsets only the trail", func() {
		l := newLoop(integrators.NewSymplecticEuler(), 100)
		Expect(l.Tick()).To(Succeed())

		Expect(rec.frames).To(HaveLen(1))
		f := rec.frames[0]
		body := r3.Scale(0.25, l.State().Position)
		Expect(f.Body).To(Equal(body))
		Expect(f.Count).To(Equal(1))
		Expect(f.Trail[0]).To(Equal(r3.Add(body, r3.Vec{Z: -2})))
		Expect(l.State().Position.Z).To(BeZero())
	})

	It("renders one frame per tick and stops growing the trail at capacity", func() {
		l := newLoop(integrators.NewSymplecticEuler(), 5)
		for i := 0; i < 12; i++ {
			Expect(l.Tick()).To(Succeed())
		}

		Expect(rec.frames).To(HaveLen(12))
		for i, f := range rec.frames {
			want := i + 1
			if want > 5 {
				want = 5
			}
			Expect(f.Count).To(Equal(want))
		}
		Expect(rec.frames[11].Trail).To(Equal(rec.frames[4].Trail))
		Expect(l.Trail().Full()).To(BeTrue())
	})

	It("feeds metrics and observers every tick", func() {
		l := newLoop(integrators.NewSymplecticEuler(), 5)
		m := &countingMetric{}
		l.AddMetric(m)
		for i := 0; i < 7; i++ {
			Expect(l.Tick()).To(Succeed())
		}
		Expect(l.Metrics()).To(HaveKeyWithValue("count", 7.0))
	})

	Context("when the integrator fails", func() {
		It("stops stepping and rendering for good", func() {
			stepper := &failAfter{n: 3, inner: integrators.NewSymplecticEuler()}
			l := newLoop(stepper, 10)

			for i := 0; i < 3; i++ {
				Expect(l.Tick()).To(Succeed())
			}
			before := l.State()

			err := l.Tick()
			Expect(errors.Is(err, dynamo.ErrDivisionByZero)).To(BeTrue())
			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(4))
			Expect(simErr.State).To(Equal(before))

			Expect(l.Tick()).To(MatchError(err))
			Expect(stepper.calls).To(Equal(4))
			Expect(rec.frames).To(HaveLen(3))
			Expect(l.State()).To(Equal(before))
			Expect(l.Err()).To(HaveOccurred())
		})

		It("ends Run with the integration error", func() {
			l := newLoop(&failAfter{n: 2, inner: integrators.NewSymplecticEuler()}, 10)
			err := l.Run(context.Background(), time.Millisecond)
			Expect(errors.Is(err, dynamo.ErrDivisionByZero)).To(BeTrue())
			Expect(rec.frames).To(HaveLen(2))
		})
	})

	Describe("Run", func() {
		It("ticks until the context is cancelled", func() {
			l := newLoop(integrators.NewSymplecticEuler(), 100)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()

			err := l.Run(ctx, time.Millisecond)
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(l.Steps()).To(BeNumerically(">", 1))
			Expect(rec.frames).To(HaveLen(l.Steps()))
		})

		It("renders nothing when the context is already cancelled", func() {
			l := newLoop(integrators.NewSymplecticEuler(), 100)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Expect(l.Run(ctx, time.Millisecond)).To(MatchError(context.Canceled))
			Expect(l.Steps()).To(BeZero())
			Expect(rec.frames).To(BeEmpty())
		})

		It("waits the full interval after a slow frame", func() {
			const (
				renderTime = 20 * time.Millisecond
				interval   = 20 * time.Millisecond
			)
			var starts []time.Time
			slow := sim.RendererFunc(func(sim.Frame) {
				starts = append(starts, time.Now())
				time.Sleep(renderTime)
			})
			buf, err := trail.New(100)
			Expect(err).NotTo(HaveOccurred())
			l, err := sim.New(integrators.NewSymplecticEuler(), params, x0, buf, slow, sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithTimeout(context.Background(), 130*time.Millisecond)
			defer cancel()
			Expect(l.Run(ctx, interval)).To(MatchError(context.DeadlineExceeded))

			Expect(len(starts)).To(BeNumerically(">=", 2))
			Expect(len(starts)).To(BeNumerically("<=", 5))
			for i := 1; i < len(starts); i++ {
				Expect(starts[i].Sub(starts[i-1])).To(BeNumerically(">=", renderTime+interval))
			}
		})

		It("rejects a non-positive interval", func() {
			l := newLoop(integrators.NewSymplecticEuler(), 100)
			Expect(l.Run(context.Background(), 0)).NotTo(Succeed())
			Expect(l.Steps()).To(BeZero())
		})
	})

	Describe("RunSteps", func() {
		It("runs exactly n ticks", func() {
			l := newLoop(integrators.NewSymplecticEuler(), 100)
			Expect(l.RunSteps(context.Background(), 25)).To(Succeed())
			Expect(l.Steps()).To(Equal(25))
		})

		It("honours cancellation", func() {
			l := newLoop(integrators.NewSymplecticEuler(), 100)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(l.RunSteps(ctx, 25)).To(MatchError(context.Canceled))
			Expect(l.Steps()).To(BeZero())
		})
	})
})
