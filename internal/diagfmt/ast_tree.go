package diagfmt

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"formula/internal/ast"
)

// block is a rendered subtree: its lines and the column of its root.
type block struct {
	lines []string
	width int
	root  int
}

const treeGap = 2

// layoutTree draws the node label centred over its children, joined to
// them by / | \ connectors. Columns are terminal cells, so identifiers
// outside ASCII line up too.
func layoutTree(b *ast.Builder, id ast.ExprID) block {
	label := nodeLabel(b, id, nil)
	lw := runewidth.StringWidth(label)
	kids := b.Exprs.Children(id)
	if len(kids) == 0 {
		return block{lines: []string{label}, width: lw, root: lw / 2}
	}

	children := make([]block, len(kids))
	roots := make([]int, len(kids))
	offset, height := 0, 0
	for i, kid := range kids {
		children[i] = layoutTree(b, kid)
		roots[i] = offset + children[i].root
		offset += children[i].width + treeGap
		height = max(height, len(children[i].lines))
	}
	childWidth := offset - treeGap

	root := (roots[0] + roots[len(roots)-1]) / 2
	labelAt := root - lw/2
	shift := 0
	if labelAt < 0 {
		shift, labelAt = -labelAt, 0
		root += shift
	}
	width := max(childWidth+shift, labelAt+lw)

	conn := []byte(strings.Repeat(" ", width))
	for _, r := range roots {
		r += shift
		switch {
		case r < root:
			conn[r] = '/'
		case r > root:
			conn[r] = '\\'
		default:
			conn[r] = '|'
		}
	}

	lines := make([]string, 0, height+2)
	lines = append(lines, padCells(strings.Repeat(" ", labelAt)+label, width), string(conn))
	for row := range height {
		var sb strings.Builder
		sb.WriteString(strings.Repeat(" ", shift))
		for i, c := range children {
			line := ""
			if row < len(c.lines) {
				line = c.lines[row]
			}
			sb.WriteString(padCells(line, c.width))
			if i < len(children)-1 {
				sb.WriteString(strings.Repeat(" ", treeGap))
			}
		}
		lines = append(lines, padCells(sb.String(), width))
	}
	return block{lines: lines, width: width, root: root}
}

func padCells(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
