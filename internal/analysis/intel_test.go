package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var intelModule = map[string]string{
	"go.mod": "module example.com/intel\n",
	"shapes/shapes.go": `package shapes

// Rect is an axis-aligned rectangle.
type Rect struct {
	Width, Height int
}

// Area returns Width*Height.
func (r Rect) Area() int { return r.Width * r.Height }

func NewRect(w, h int) Rect { return Rect{w, h} }

func NewSquare(s int) Rect { return NewRect(s, s) }
`,
	"app.go": `package intel

import "example.com/intel/shapes"

func Total() int {
	rect := shapes.NewRect(2, 3)
	rectangles := 1
	return rect.Area() * rectangles
}
`,
}

func TestHoverInfo(t *testing.T) {
	cb := load(t, testOptions(), intelModule)

	// "NewRect" in app.go line 6
	h, err := cb.HoverInfo("app.go", 6, 18)
	require.NoError(t, err)
	assert.Equal(t, "NewRect", h.Name)
	assert.Equal(t, "function", h.Kind)
	assert.Equal(t, "func example.com/intel/shapes.NewRect(w int, h int) example.com/intel/shapes.Rect", h.Signature)
	assert.Equal(t, "shapes/shapes.go", h.Definition.File)
	assert.Equal(t, 11, h.Definition.Line)
	assert.EqualValues(t, "example.com/intel/shapes.NewRect", h.Symbol)

	// "Area" in app.go line 8
	h, err = cb.HoverInfo("app.go", 8, 14)
	require.NoError(t, err)
	assert.Equal(t, "method", h.Kind)
	assert.Equal(t, "Area returns Width*Height.", h.Doc)
	assert.EqualValues(t, "example.com/intel/shapes.Rect.Area", h.Symbol)

	// local variable
	h, err = cb.HoverInfo("app.go", 6, 2)
	require.NoError(t, err)
	assert.Equal(t, "variable", h.Kind)
	assert.Empty(t, h.Symbol)

	_, err = cb.HoverInfo("app.go", 2, 1)
	assert.ErrorIs(t, err, ErrNoIdentifier)
	_, err = cb.HoverInfo("missing.go", 1, 1)
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, err = cb.HoverInfo("app.go", 99, 1)
	assert.Error(t, err)
}

func labels(cs []Completion) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Label)
	}
	return out
}

func TestCompletions(t *testing.T) {
	cb := load(t, testOptions(), intelModule)

	// after "shapes.New" on line 6
	cs, err := cb.Completions("app.go", 6, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"NewRect", "NewSquare"}, labels(cs))
	assert.Equal(t, "function", cs[0].Kind)

	// after "rect" on line 8: both locals are in scope
	cs, err = cb.Completions("app.go", 8, 13)
	require.NoError(t, err)
	assert.Equal(t, []string{"rect", "rectangles"}, labels(cs))

	// after "rect." on line 8
	cs, err = cb.Completions("app.go", 8, 14)
	require.NoError(t, err)
	assert.Equal(t, []string{"Area", "Height", "Width"}, labels(cs))

	// "rectangles" is not visible before its declaration
	cs, err = cb.Completions("app.go", 6, 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"rect"}, labels(cs))
}
