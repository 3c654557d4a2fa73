package layout

import (
	"math"
	"testing"
)

const eps = 1e-12

func TestLayoutRow(t *testing.T) {
	for n := 2; n <= 8; n++ {
		got := Layout(n)
		if len(got) != n {
			t.Fatalf("Layout(%d) returned %d placements", n, len(got))
		}
		if got[0].Offset.X != -1 {
			t.Errorf("Layout(%d)[0].Offset.X = %v, want -1", n, got[0].Offset.X)
		}
		if math.Abs(got[n-1].Offset.X-1) > eps {
			t.Errorf("Layout(%d)[last].Offset.X = %v, want 1", n, got[n-1].Offset.X)
		}
		spacing := 2 / float64(n-1)
		for i, p := range got {
			if p.Offset.Y != 0 {
				t.Errorf("Layout(%d)[%d].Offset.Y = %v, want 0", n, i, p.Offset.Y)
			}
			if math.Abs(p.Scale-1/float64(n)) > eps {
				t.Errorf("Layout(%d)[%d].Scale = %v, want %v", n, i, p.Scale, 1/float64(n))
			}
			if i > 0 {
				d := p.Offset.X - got[i-1].Offset.X
				if math.Abs(d-spacing) > eps {
					t.Errorf("Layout(%d) spacing[%d] = %v, want %v", n, i, d, spacing)
				}
			}
		}
	}
}

func TestLayoutSingle(t *testing.T) {
	got := Layout(1)
	if len(got) != 1 {
		t.Fatalf("Layout(1) returned %d placements", len(got))
	}
	if got[0].Offset.X != 0 || got[0].Offset.Y != 0 {
		t.Errorf("Layout(1) offset = %+v, want origin", got[0].Offset)
	}
	if got[0].Scale != 1 {
		t.Errorf("Layout(1) scale = %v, want 1", got[0].Scale)
	}
}

func TestLayoutEmpty(t *testing.T) {
	for _, n := range []int{0, -3} {
		if got := Layout(n); got != nil {
			t.Errorf("Layout(%d) = %v, want nil", n, got)
		}
	}
}

func TestModelTilesRow(t *testing.T) {
	tests := []struct {
		n int
	}{{1}, {2}, {3}, {5}}
	for _, tt := range tests {
		placements := Layout(tt.n)
		prevRight := -1.0
		for i, p := range placements {
			m := p.Model(1)
			left := m.TransformPoint(Point{X: -1, Y: 0}).X
			right := m.TransformPoint(Point{X: 1, Y: 0}).X
			if math.Abs(left-prevRight) > 1e-9 {
				t.Errorf("n=%d instance %d left edge = %v, want %v", tt.n, i, left, prevRight)
			}
			prevRight = right
		}
		if math.Abs(prevRight-1) > 1e-9 {
			t.Errorf("n=%d rightmost edge = %v, want 1", tt.n, prevRight)
		}
	}
}

func TestAspectCorrection(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		wantSy float64
	}{
		{"landscape", 800, 600, 800.0 / 600.0},
		{"portrait", 600, 800, 600.0 / 800.0},
		{"square", 512, 512, 1},
		{"zero height", 800, 0, 1},
		{"zero width", 0, 600, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := AspectCorrection(tt.w, tt.h)
			if m.A != 1 || m.B != 0 || m.C != 0 || m.D != 0 || m.F != 0 {
				t.Errorf("AspectCorrection(%d, %d) = %+v, want pure y scale", tt.w, tt.h, m)
			}
			if math.Abs(m.E-tt.wantSy) > eps {
				t.Errorf("AspectCorrection(%d, %d).E = %v, want %v", tt.w, tt.h, m.E, tt.wantSy)
			}
		})
	}
}

func TestResizeChangesOnlyAspect(t *testing.T) {
	placements := Layout(3)
	before := make([]Placement, len(placements))
	copy(before, placements)

	a1 := AspectCorrection(800, 600)
	a2 := AspectCorrection(600, 800)

	for i, p := range placements {
		m1 := Compose(p, a1, 1)
		m2 := Compose(p, a2, 1)

		if m1.A != m2.A || m1.C != m2.C {
			t.Errorf("instance %d: x transform changed on resize: %+v -> %+v", i, m1, m2)
		}
		if math.Abs(m1.E-p.Scale*800.0/600.0) > eps {
			t.Errorf("instance %d: E before = %v, want %v", i, m1.E, p.Scale*800.0/600.0)
		}
		if math.Abs(m2.E-p.Scale*600.0/800.0) > eps {
			t.Errorf("instance %d: E after = %v, want %v", i, m2.E, p.Scale*600.0/800.0)
		}
		if p != before[i] {
			t.Errorf("instance %d placement mutated: %+v -> %+v", i, before[i], p)
		}
	}
}

func TestComposeSquareWindow(t *testing.T) {
	aspect := AspectCorrection(500, 500)
	if !aspect.IsIdentity() {
		t.Fatalf("AspectCorrection(500, 500) = %+v, want identity", aspect)
	}
	if AspectCorrection(800, 600).IsIdentity() {
		t.Error("AspectCorrection(800, 600) is identity")
	}
	for i, p := range Layout(4) {
		got := Compose(p, aspect, 0.5)
		want := p.Model(0.5)
		if got != want {
			t.Errorf("instance %d: Compose = %+v, want model %+v", i, got, want)
		}
		if !got.ApproxEqual(Identity().Multiply(want), eps) {
			t.Errorf("instance %d: square window changed the model", i)
		}
	}
}

func TestContentScale(t *testing.T) {
	if got := ContentScale(1920, 1080); math.Abs(got-0.5625) > eps {
		t.Errorf("ContentScale(1920, 1080) = %v, want 0.5625", got)
	}
	if got := ContentScale(0, 1080); got != 1 {
		t.Errorf("ContentScale(0, 1080) = %v, want 1", got)
	}
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(10, 0).Multiply(Scale(2, 2))
	p := m.TransformPoint(Point{X: 1, Y: 1})
	if p.X != 12 || p.Y != 2 {
		t.Errorf("Translate*Scale applied to (1,1) = %+v, want (12,2)", p)
	}
	if !Identity().Multiply(m).ApproxEqual(m, 0) {
		t.Error("Identity * m != m")
	}
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
}

func TestMat4ColumnMajor(t *testing.T) {
	m := Matrix{A: 2, B: 0, C: 0.5, D: 0, E: 3, F: -0.25}
	got := m.Mat4()
	want := Mat4{
		2, 0, 0, 0,
		0, 3, 0, 0,
		0, 0, 1, 0,
		0.5, -0.25, 0, 1,
	}
	if got != want {
		t.Errorf("Mat4() = %v, want %v", got, want)
	}
	b := got.Bytes()
	if len(b) != 64 {
		t.Fatalf("Bytes() len = %d, want 64", len(b))
	}
	// 2.0f = 0x40000000 little-endian.
	if b[0] != 0 || b[1] != 0 || b[2] != 0 || b[3] != 0x40 {
		t.Errorf("Bytes()[0:4] = %x, want 00000040", b[0:4])
	}
}
