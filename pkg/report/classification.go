package report

import (
	"fmt"

	"github.com/arthur-debert/libmerge/pkg/classify"
	"github.com/arthur-debert/libmerge/pkg/paths"
)

// Classification prints, per prefix, the directories found only under lib,
// those split across lib and lib64, and the unowned entries of each side.
func (r *Reporter) Classification(a *classify.Analysis) {
	if a == nil {
		return
	}
	for _, c := range a.Classifications {
		l := paths.NewLayout(c.Prefix)
		lib, lib64 := l.Lib+"/", l.Lib64+"/"

		r.println(r.render("Header", c.Prefix))

		pure := c.PureLib.Sorted()
		pure = append(pure, fmt.Sprintf("(+ %d files)", c.LibFiles.Len()))
		r.list(fmt.Sprintf("pure %s:", lib), pure)
		r.list(fmt.Sprintf("split %s+%s:", lib, lib64), c.MixedLib.Sorted())
		r.list(fmt.Sprintf("unowned files for %s:", lib), c.LibUnowned.Sorted())
		r.list(fmt.Sprintf("unowned files for %s:", lib64), c.Lib64Unowned.Sorted())

		if n := c.Excludes.Len(); n > 0 {
			r.println("")
			r.println(r.render("Muted", fmt.Sprintf("%d lib64 file(s) will be stripped from the merged split directories", n)))
		}
		r.println("")
	}
}
