package mindmap

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// levelColors are applied by depth; deeper levels reuse the last entry.
var levelColors = []color.Attribute{
	color.FgMagenta,
	color.FgBlue,
	color.FgGreen,
	color.FgYellow,
	color.FgRed,
}

// LevelColor returns the color used for nodes at depth.
func LevelColor(depth int) color.Attribute {
	if depth < 0 {
		depth = 0
	}
	if depth >= len(levelColors) {
		depth = len(levelColors) - 1
	}
	return levelColors[depth]
}

// RenderTree writes m as an indented tree. m must be a validated mind map.
func RenderTree(w io.Writer, m MindMap, colorize bool) error {
	root := color.New(color.FgCyan, color.Bold)
	if colorize {
		root.EnableColor()
	} else {
		root.DisableColor()
	}

	if _, err := root.Fprintln(w, m.Topic); err != nil {
		return err
	}

	r := &treeRenderer{w: w, m: m, colorize: colorize}
	r.walk(RootParent, "", 0)
	return r.err
}

type treeRenderer struct {
	w        io.Writer
	m        MindMap
	colorize bool
	err      error
}

func (r *treeRenderer) walk(parent int, prefix string, depth int) {
	children := r.m.Children(parent)
	for i, child := range children {
		if r.err != nil {
			return
		}

		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}

		c := color.New(LevelColor(depth))
		if r.colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}

		if _, err := fmt.Fprint(r.w, prefix+branch); err != nil {
			r.err = err
			return
		}
		if _, err := c.Fprintln(r.w, child.Text); err != nil {
			r.err = err
			return
		}

		// Skip self-parented nodes, including id 0 under the root sentinel.
		if child.ID != parent {
			r.walk(child.ID, prefix+indent, depth+1)
		}
	}
}
