package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodesVariants(t *testing.T) {
	nodes, err := ParseNodes([]byte(`[
		{"t":"p","xp":[1,2],"c":["hello ",{"t":"em","c":["world"]}]},
		{"t":"img","s":"i_1.jpg"},
		{"c":["plain ","run"]},
		"bare"
	]`))
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	p := nodes[0]
	assert.Equal(t, KindElement, p.Kind())
	assert.Equal(t, "p", p.Tag())
	assert.False(t, p.IsTextNode())
	assert.Equal(t, "", p.Text())
	require.Len(t, p.Items(), 2)
	require.Len(t, p.Children(), 1)
	assert.Equal(t, "em", p.Children()[0].Tag())
	assert.Equal(t, "world", p.Children()[0].Text())

	assert.Equal(t, KindImage, nodes[1].Kind())
	assert.Equal(t, "i_1.jpg", nodes[1].ImageSrc())

	assert.Equal(t, KindText, nodes[2].Kind())
	assert.Equal(t, "plain run", nodes[2].Text())

	assert.Equal(t, KindText, nodes[3].Kind())
	assert.Equal(t, "bare", nodes[3].Text())
}

func TestSoftHyphensStripped(t *testing.T) {
	nodes, err := ParseNodes([]byte(`[{"t":"p","c":["hy\u00adphen\u00adated"]},{"c":"so\u00adft"}]`))
	require.NoError(t, err)
	assert.Equal(t, "hyphenated", nodes[0].Text())
	assert.Equal(t, "soft", nodes[1].Text())
}

func TestImageSourceFallbacks(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"s field", `{"t":"img","s":"a.jpg"}`, "a.jpg"},
		{"src field", `{"t":"img","src":"b.png"}`, "b.png"},
		{"s wins", `{"t":"img","s":"a.jpg","src":"b.png"}`, "a.jpg"},
		{"string content", `{"t":"img","c":"c.gif"}`, "c.gif"},
		{"nested record", `{"t":"img","c":[{"src":"d.jpg"}]}`, "d.jpg"},
		{"image tag", `{"t":"image","s":"e.jpg"}`, "e.jpg"},
		{"none", `{"t":"img"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Node
			require.NoError(t, n.UnmarshalJSON([]byte(tt.json)))
			assert.Equal(t, KindImage, n.Kind())
			assert.Equal(t, tt.want, n.ImageSrc())
		})
	}
}

func TestNestedListsFlatten(t *testing.T) {
	nodes, err := ParseNodes([]byte(`[{"t":"p","c":[["a",["b"]],null,"c"]}]`))
	require.NoError(t, err)
	assert.True(t, nodes[0].IsTextNode())
	assert.Equal(t, "abc", nodes[0].Text())
}

func TestParseNodesInvalid(t *testing.T) {
	for _, input := range []string{
		`[{"t":5,"c":["x"]}]`,
		`[{"t":"p","c":[1,2]}]`,
		`[{"t":"p","c":true}]`,
		`[42]`,
		`"just a string"`,
	} {
		_, err := ParseNodes([]byte(input))
		var perr *ParseError
		assert.True(t, errors.As(err, &perr), input)
	}
}

func TestParseNodesEmpty(t *testing.T) {
	nodes, err := ParseNodes([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestConstructors(t *testing.T) {
	n := NewElement("p", NewText("a\u00adb"), NewImage("x.jpg"))
	assert.Equal(t, "ab", n.Items()[0].Text())
	assert.Len(t, n.Children(), 1)
	assert.Equal(t, "x.jpg", n.Children()[0].ImageSrc())
	assert.Equal(t, "", n.ImageSrc())
	assert.Equal(t, "element", KindElement.String())
}
