// SPDX-License-Identifier: MIT
package window

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type pair struct{ start, end int }

func collect(t *testing.T, n int, spec Spec) []pair {
	t.Helper()
	seq, err := Indices(n, spec)
	require.NoError(t, err)

	out := []pair{}
	for a, b := range seq {
		out = append(out, pair{a, b})
	}
	return out
}

func TestIndices(t *testing.T) {
	tests := []struct {
		name string
		n    int
		spec Spec
		want []pair
	}{
		{"Integer", 10, Spec{Size: 5, Step: 3},
			[]pair{{0, 5}, {3, 8}}},
		{"Short Windows", 10, Spec{Size: 5, Step: 3, IncludeShort: true},
			[]pair{{0, 5}, {3, 8}, {6, 10}, {9, 10}}},
		{"Short Min 2", 10, Spec{Size: 5, Step: 3, IncludeShort: true, MinLength: 2},
			[]pair{{0, 5}, {3, 8}, {6, 10}}},
		{"Short Min 4", 10, Spec{Size: 5, Step: 3, IncludeShort: true, MinLength: 4},
			[]pair{{0, 5}, {3, 8}, {6, 10}}},
		{"Short Min 5", 10, Spec{Size: 5, Step: 3, IncludeShort: true, MinLength: 5},
			[]pair{{0, 5}, {3, 8}}},
		{"Float Step", 10, Spec{Size: 5, Step: 3.3, AllowFloat: true},
			[]pair{{0, 5}, {3, 8}}},
		{"Float Step Short", 10, Spec{Size: 5, Step: 3.3, AllowFloat: true, IncludeShort: true},
			[]pair{{0, 5}, {3, 8}, {7, 10}}},
		{"Float Size Short", 10, Spec{Size: 3.7, Step: 2.1, AllowFloat: true, IncludeShort: true},
			[]pair{{0, 4}, {2, 6}, {4, 8}, {6, 10}, {8, 10}}},
		{"Float Size", 10, Spec{Size: 3.7, Step: 2.1, AllowFloat: true},
			[]pair{{0, 4}, {2, 6}, {4, 8}, {6, 10}}},
		{"Step One", 4, Spec{Size: 2, Step: 1},
			[]pair{{0, 2}, {1, 3}, {2, 4}}},
		{"Whole Signal", 4, Spec{Size: 4, Step: 1},
			[]pair{{0, 4}}},
		{"Window Too Long", 4, Spec{Size: 5, Step: 1},
			[]pair{}},
		{"Window Too Long Short", 4, Spec{Size: 5, Step: 3, IncludeShort: true},
			[]pair{{0, 4}, {3, 4}}},
		{"Empty Signal", 0, Spec{Size: 2, Step: 2},
			[]pair{}},
		{"Half Rounds To Even", 10, Spec{Size: 2.5, Step: 2.5, AllowFloat: true},
			[]pair{{0, 2}, {2, 5}, {5, 8}, {8, 10}}},
		{"Sub-sample Window Skipped", 3, Spec{Size: 0.4, Step: 1, AllowFloat: true},
			[]pair{}},
		{"Huge Size Short", 10, Spec{Size: 1e19, Step: 3, IncludeShort: true},
			[]pair{{0, 10}, {3, 10}, {6, 10}, {9, 10}}},
		{"Huge Size", 10, Spec{Size: 1e19, Step: 3},
			[]pair{}},
		{"Huge Step", 10, Spec{Size: 3, Step: 1e19},
			[]pair{{0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collect(t, tt.n, tt.spec))
		})
	}
}

func TestIndicesInvariants(t *testing.T) {
	for n := 0; n <= 40; n++ {
		for size := 1; size <= 12; size++ {
			for step := 1; step <= 7; step++ {
				spec := Spec{Size: float64(size), Step: float64(step)}
				for _, p := range collect(t, n, spec) {
					if p.end-p.start != size || p.end > n || p.start < 0 {
						t.Fatalf("n=%d size=%d step=%d: bad window %v", n, size, step, p)
					}
				}

				spec.IncludeShort = true
				prev := -1
				for _, p := range collect(t, n, spec) {
					if p.start >= p.end || p.end > n || p.start <= prev {
						t.Fatalf("n=%d size=%d step=%d short: bad window %v", n, size, step, p)
					}
					prev = p.start
				}
			}
		}
	}
}

func TestWindowsHugeSize(t *testing.T) {
	seq, err := Windows(Series(make([]float64, 10)), Spec{Size: 1e19, Step: 3, IncludeShort: true}, -1)
	require.NoError(t, err)

	var lengths []int
	for w := range seq {
		lengths = append(lengths, w.Dim(0))
	}
	assert.Equal(t, []int{10, 7, 4, 1}, lengths)
}

func TestIndicesRestartable(t *testing.T) {
	seq, err := Indices(10, Spec{Size: 5, Step: 3, IncludeShort: true})
	require.NoError(t, err)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, 4, count())
	assert.Equal(t, 4, count())
}

func TestIndicesEarlyBreak(t *testing.T) {
	seq, err := Indices(100, Spec{Size: 2, Step: 1})
	require.NoError(t, err)

	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestIndicesErrors(t *testing.T) {
	tests := []struct {
		name string
		n    int
		spec Spec
		want error
	}{
		{"Fractional Size", 10, Spec{Size: 2.5, Step: 1}, ErrNotInteger},
		{"Fractional Step", 10, Spec{Size: 2, Step: 1.5}, ErrNotInteger},
		{"Zero Size", 10, Spec{Size: 0, Step: 1}, ErrInvalidWindow},
		{"Negative Step", 10, Spec{Size: 2, Step: -1}, ErrInvalidWindow},
		{"NaN Size", 10, Spec{Size: math.NaN(), Step: 1, AllowFloat: true}, ErrInvalidWindow},
		{"Infinite Step", 10, Spec{Size: 2, Step: math.Inf(1), AllowFloat: true}, ErrInvalidWindow},
		{"Negative Length", -1, Spec{Size: 2, Step: 1}, ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Indices(tt.n, tt.spec)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, seq)
		})
	}
}

func TestCursorSinglePass(t *testing.T) {
	c, err := NewCursor(10, Spec{Size: 5, Step: 3})
	require.NoError(t, err)

	a, b, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, pair{0, 5}, pair{a, b})

	a, b, ok = c.Next()
	require.True(t, ok)
	assert.Equal(t, pair{3, 8}, pair{a, b})

	_, _, ok = c.Next()
	assert.False(t, ok)
	_, _, ok = c.Next()
	assert.False(t, ok, "an exhausted cursor stays exhausted")
}

func TestWindowsSeries(t *testing.T) {
	sig := Series{0, 1, 2, 3}

	tests := []struct {
		name string
		spec Spec
		want [][]float64
	}{
		{"Size 2 Step 1", Spec{Size: 2, Step: 1}, [][]float64{{0, 1}, {1, 2}, {2, 3}}},
		{"Size 2 Step 2", Spec{Size: 2, Step: 2}, [][]float64{{0, 1}, {2, 3}}},
		{"Size 3 Step 2", Spec{Size: 3, Step: 2}, [][]float64{{0, 1, 2}}},
		{"Size 3 Step 2 Short", Spec{Size: 3, Step: 2, IncludeShort: true}, [][]float64{{0, 1, 2}, {2, 3}}},
		{"Size 3 Step 2 Min 3", Spec{Size: 3, Step: 2, IncludeShort: true, MinLength: 3}, [][]float64{{0, 1, 2}}},
		{"Size 4 Step 2", Spec{Size: 4, Step: 2}, [][]float64{{0, 1, 2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Windows(sig, tt.spec, -1)
			require.NoError(t, err)

			got := [][]float64{}
			for w := range seq {
				s, ok := w.(Series)
				require.True(t, ok, "a Series is cut into Series")
				got = append(got, []float64(s))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowsSeriesViewsDoNotGrow(t *testing.T) {
	sig := Series{0, 1, 2, 3}
	seq, err := Windows(sig, Spec{Size: 2, Step: 2}, 0)
	require.NoError(t, err)

	for w := range seq {
		s := w.(Series)
		assert.Equal(t, len(s), cap(s))
	}
}

func testMatrix() Frames {
	// 0..14 laid out as 5 rows x 3 columns.
	data := make([]float64, 15)
	for i := range data {
		data[i] = float64(i)
	}
	return NewFrames(5, 3, data)
}

func TestWindowsFramesLastAxis(t *testing.T) {
	seq, err := Windows(testMatrix(), Spec{Size: 2, Step: 1}, -1)
	require.NoError(t, err)

	var got []*mat.Dense
	for w := range seq {
		got = append(got, w.(Frames).Dense)
	}
	require.Len(t, got, 2)

	assert.True(t, mat.Equal(got[0], mat.NewDense(5, 2, []float64{
		0, 1, 3, 4, 6, 7, 9, 10, 12, 13,
	})))
	assert.True(t, mat.Equal(got[1], mat.NewDense(5, 2, []float64{
		1, 2, 4, 5, 7, 8, 10, 11, 13, 14,
	})))
}

func TestWindowsFramesFirstAxis(t *testing.T) {
	seq, err := Windows(testMatrix(), Spec{Size: 2, Step: 1}, 0)
	require.NoError(t, err)

	var got []*mat.Dense
	for w := range seq {
		got = append(got, w.(Frames).Dense)
	}
	require.Len(t, got, 4)

	for i, m := range got {
		start := float64(3 * i)
		want := mat.NewDense(2, 3, []float64{
			start, start + 1, start + 2,
			start + 3, start + 4, start + 5,
		})
		assert.True(t, mat.Equal(m, want), "window %d", i)
	}
}

func TestWindowsFramesShort(t *testing.T) {
	tests := []struct {
		name      string
		short     bool
		wantCount int
	}{
		{"Include Short", true, 2},
		{"Exclude Short", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Windows(testMatrix(), Spec{Size: 3, Step: 2, IncludeShort: tt.short}, -1)
			require.NoError(t, err)

			var got []Frames
			for w := range seq {
				got = append(got, w.(Frames))
			}
			require.Len(t, got, tt.wantCount)

			r, c := got[0].Dims()
			assert.Equal(t, [2]int{5, 3}, [2]int{r, c})

			if tt.short {
				r, c = got[1].Dims()
				assert.Equal(t, [2]int{5, 1}, [2]int{r, c})
				assert.Equal(t, []float64{2, 5, 8, 11, 14}, mat.Col(nil, 0, got[1]))
			}
		})
	}
}

func TestWindowsErrors(t *testing.T) {
	tests := []struct {
		name string
		sig  Signal
		spec Spec
		axis int
		want error
	}{
		{"Nil Signal", nil, Spec{Size: 2, Step: 1}, -1, ErrUnsupportedSignal},
		{"Nil Frames", Frames{}, Spec{Size: 2, Step: 1}, -1, ErrUnsupportedSignal},
		{"Axis Too Large", testMatrix(), Spec{Size: 2, Step: 1}, 2, ErrAxisRange},
		{"Axis Too Small", testMatrix(), Spec{Size: 2, Step: 1}, -3, ErrAxisRange},
		{"Series Axis", Series{1, 2, 3}, Spec{Size: 2, Step: 1}, 1, ErrAxisRange},
		{"Bad Spec", Series{1, 2, 3}, Spec{Size: 1.5, Step: 1}, 0, ErrNotInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Windows(tt.sig, tt.spec, tt.axis)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalizeAxis(t *testing.T) {
	tests := []struct {
		axis, rank int
		want       int
		wantErr    bool
	}{
		{-1, 2, 1, false},
		{-2, 2, 0, false},
		{0, 2, 0, false},
		{1, 2, 1, false},
		{2, 2, 0, true},
		{-3, 2, 0, true},
		{-1, 1, 0, false},
	}

	for _, tt := range tests {
		got, err := NormalizeAxis(tt.axis, tt.rank)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrAxisRange)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func BenchmarkIndices(b *testing.B) {
	spec := Spec{Size: 1024, Step: 512}
	seq, _ := Indices(48000*60, spec)

	b.ReportAllocs()
	for b.Loop() {
		for range seq {
		}
	}
}
