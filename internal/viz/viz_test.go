package viz

import (
	"strings"
	"testing"
	"time"

	"github.com/san-kum/precession/internal/config"
	"github.com/san-kum/precession/internal/dynamo"
	"github.com/san-kum/precession/internal/metrics"
	"github.com/san-kum/precession/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCanvas_Project(t *testing.T) {
	c := NewCanvas(10, 5, 2)
	// 20x20 sub-pixels, 5 sub-pixels per unit.
	tests := []struct {
		p      r3.Vec
		wx, wy int
	}{
		{r3.Vec{}, 10, 10},
		{r3.Vec{X: 1}, 15, 10},
		{r3.Vec{Y: 1}, 10, 5},
		{r3.Vec{X: -2, Y: -2, Z: 7}, 0, 20},
	}
	for _, tt := range tests {
		x, y := c.Project(tt.p)
		if x != tt.wx || y != tt.wy {
			t.Errorf("Project(%v) = (%d, %d), want (%d, %d)", tt.p, x, y, tt.wx, tt.wy)
		}
	}
}

func TestCanvas_SetAndClear(t *testing.T) {
	c := NewCanvas(4, 2, 1)
	c.Set(3, 5)
	if !c.Lit(3, 5) {
		t.Fatal("pixel not lit")
	}
	if c.Lit(2, 5) {
		t.Fatal("neighbour lit")
	}
	c.Set(-1, 0)
	c.Set(100, 100)

	c.Clear()
	if c.Lit(3, 5) {
		t.Fatal("pixel survived Clear")
	}
	if !strings.Contains(c.String(), string(rune(blank))) {
		t.Error("cleared canvas should contain blank braille cells")
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(10, 10, 1)
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i <= 7; i++ {
		if !c.Lit(i, i) {
			t.Errorf("diagonal pixel (%d, %d) not lit", i, i)
		}
	}
}

func TestScene_RenderUsesDrawablePrefixOnly(t *testing.T) {
	s := NewScene(20, 10, 2)
	buf := []r3.Vec{{X: 1, Y: 1}, {X: 1.5, Y: 1}, {X: -1.8, Y: -1.8}}

	s.Render(sim.Frame{Body: r3.Vec{X: 1.5, Y: 1}, Trail: buf, Count: 2})

	c := s.Canvas()
	if !c.Lit(c.Project(buf[0])) {
		t.Error("first trail point not drawn")
	}
	if c.Lit(c.Project(buf[2])) {
		t.Error("point beyond the drawable count was drawn")
	}
	if !c.Lit(c.Project(r3.Vec{})) {
		t.Error("central mass not drawn")
	}
	if _, n := s.Frame(); n != 1 {
		t.Errorf("frames = %d", n)
	}
}

func TestScene_RadiusHistoryBounded(t *testing.T) {
	s := NewDefaultScene()
	for i := 0; i < historyCapacity+50; i++ {
		s.Render(sim.Frame{State: dynamo.InitialState(4.6, 0.5)})
	}
	if len(s.Radii()) != historyCapacity {
		t.Errorf("history length = %d, want %d", len(s.Radii()), historyCapacity)
	}
}

func newTestModel(t *testing.T, cfg *config.Config) (Model, *Scene) {
	t.Helper()
	scene := NewDefaultScene()
	loop, err := cfg.NewLoop(scene)
	if err != nil {
		t.Fatal(err)
	}
	peri := metrics.NewPerihelion()
	loop.AddMetric(peri)
	return NewModel("mercury", loop, scene, peri, time.Millisecond), scene
}

func TestModel_TickAdvancesLoop(t *testing.T) {
	m, scene := newTestModel(t, config.DefaultConfig())

	var next interface{} = m
	for i := 0; i < 3; i++ {
		updated, cmd := next.(Model).Update(TickMsg(time.Now()))
		if cmd == nil {
			t.Fatalf("tick %d did not schedule another tick", i)
		}
		next = updated
	}

	final := next.(Model)
	if final.loop.Steps() != 3 {
		t.Errorf("steps = %d, want 3", final.loop.Steps())
	}
	if _, n := scene.Frame(); n != 3 {
		t.Errorf("frames = %d, want 3", n)
	}
	view := final.View()
	for _, want := range []string{"MERCURY", "RUNNING", "Trail", "3/5000"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_StopsOnIntegrationError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Physics.Alpha = 1e300
	cfg.Physics.SchwarzschildRadius = 1e300
	m, scene := newTestModel(t, cfg)

	updated, cmd := m.Update(TickMsg(time.Now()))
	if cmd != nil {
		t.Error("a failed tick must not schedule another tick")
	}
	got := updated.(Model)
	if got.Err() == nil {
		t.Fatal("expected integration error")
	}
	if _, n := scene.Frame(); n != 0 {
		t.Errorf("rendered %d frames after failure", n)
	}

	again, cmd := got.Update(TickMsg(time.Now()))
	if cmd != nil || again.(Model).loop.Steps() != 0 {
		t.Error("model kept stepping after failure")
	}
	if !strings.Contains(got.View(), "STOPPED") {
		t.Error("view does not report the stop")
	}
}
