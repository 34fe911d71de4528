package wrangle

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Explain returns a tree of every selected record and the variants it
// expanded into, grouped by file.
func (d *Document) Explain() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s, %d-bit", d.Options.Mode, int(d.Options.Bitness)))

	var file treeprint.Tree
	current := ""
	for _, block := range d.Blocks {
		if file == nil || block.File != current {
			file = tree.AddBranch(block.File)
			current = block.File
		}
		rec := file.AddBranch(fmt.Sprintf("%d: %s", block.Record.Line, block.Record.Text))
		for _, v := range block.Variants {
			rec.AddNode(v.String())
		}
	}

	return tree
}
