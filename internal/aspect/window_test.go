package aspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryMatches(t *testing.T) {
	w := Info{
		Handle:         1,
		ClassName:      "C:/Games/demo.exe",
		Title:          "Demo",
		ExecutablePath: `C:\Games\demo.exe`,
		PID:            42,
	}
	cases := []struct {
		name string
		q    Query
		want bool
	}{
		{"zero query", Query{}, false},
		{"class and title", Query{ClassName: `C:\Games\demo.exe`, Title: "Demo"}, true},
		{"class case-insensitive", Query{ClassName: `c:\games\DEMO.exe`}, true},
		{"title mismatch", Query{ClassName: `C:\Games\demo.exe`, Title: "demo"}, false},
		{"pid", Query{PID: 42}, true},
		{"pid mismatch", Query{PID: 7, Title: "Demo"}, false},
		{"exe base name", Query{ExecutablePath: "Demo.EXE"}, true},
		{"exe full path", Query{ExecutablePath: "C:/Games/demo.exe"}, true},
		{"exe other dir", Query{ExecutablePath: "D:/Games/demo.exe"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.q.Matches(w))
		})
	}
}

func TestQueryExeRequiresKnownPath(t *testing.T) {
	q := Query{ExecutablePath: "demo.exe"}
	assert.False(t, q.Matches(Info{Title: "Demo"}))
}

func TestNormalizedPath(t *testing.T) {
	assert.Equal(t, "C:/Games/demo.exe", NormalizedPath(`C:\Games\.\bin\..\demo.exe`))
	assert.Equal(t, "", NormalizedPath(""))
}

func TestRectSize(t *testing.T) {
	r := Rect{Left: -10, Top: 5, Right: 90, Bottom: 55}
	assert.Equal(t, int32(100), r.Width())
	assert.Equal(t, int32(50), r.Height())
}

func TestFormulaHelpers(t *testing.T) {
	assert.Equal(t, int32(1119), HeightFor(1936, 16.0/9, 16, 39, Truncate))
	assert.Equal(t, int32(1040), WidthFor(807, 4.0/3, 16, 39, Truncate))
	assert.Equal(t, int32(2), Truncate(2.9))
	assert.Equal(t, int32(3), Nearest(2.5))
	assert.Equal(t, int32(-2), Truncate(-2.9))
}

func TestParseRounding(t *testing.T) {
	for _, s := range []string{"", "truncate", "TRUNC"} {
		f, err := ParseRounding(s)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), f(1.9))
	}
	f, err := ParseRounding("nearest")
	assert.NoError(t, err)
	assert.Equal(t, int32(2), f(1.5))

	_, err = ParseRounding("banker")
	assert.Error(t, err)
}
