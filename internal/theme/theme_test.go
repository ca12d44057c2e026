package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeColor_ExactMatch(t *testing.T) {
	m := MustGet(Matrix)
	assert.Equal(t, "#FF4444", m.NodeColor("Bug Fix"))

	r := MustGet(Regular)
	assert.Equal(t, "#ef4444", r.NodeColor("Bug Fix"))
}

func TestNodeColor_FallsBackToDefault(t *testing.T) {
	for _, th := range All() {
		for _, typ := range []string{"", "project", "bug fix", "Unknown Type", "PROJECT"} {
			assert.Equal(t, th.DefaultNodeColor, th.NodeColor(typ), "theme %s type %q", th.Name, typ)
		}
	}
}

func TestParse(t *testing.T) {
	n, err := Parse(" Matrix ")
	require.NoError(t, err)
	assert.Equal(t, Matrix, n)

	_, err = Parse("solarized")
	assert.Error(t, err)
}

func TestToggle(t *testing.T) {
	assert.Equal(t, Regular, Matrix.Toggle())
	assert.Equal(t, Matrix, Regular.Toggle())
}

func TestStore_DefaultsToMatrix(t *testing.T) {
	s := NewStore("")
	assert.Equal(t, Matrix, s.Current().Name)
}

func TestStore_NotifiesOnlyOnChange(t *testing.T) {
	s := NewStore(Matrix)

	var seen []Name
	cancel := s.Subscribe(func(th Theme) { seen = append(seen, th.Name) })

	s.Set(Matrix)
	s.Set(Regular)
	s.Set(Regular)
	s.Toggle()

	assert.Equal(t, []Name{Regular, Matrix}, seen)

	cancel()
	s.Toggle()
	assert.Len(t, seen, 2)
}

func TestStore_IgnoresUnknownName(t *testing.T) {
	s := NewStore(Regular)
	s.Set("neon")
	assert.Equal(t, Regular, s.Current().Name)
}
