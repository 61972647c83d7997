package prismatenant

import (
	"fmt"
	"sort"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

// InjectTester runs Inject with cfg on each schema that is a key in m.
// They are sorted first for a predictable test ordering.
// Each schema is tested in a separate call to t.Run.
// The output of each injection is compared against the corresponding value in m,
// and then injected again to make sure a second pass changes nothing.
// A mismatch produces a call to t.Error
// showing a diff and the scanned blocks of the input.
// An invalid cfg produces a call to t.Fatal.
//
// Programs keeping a Prisma schema in source control
// can call this with excerpts of that schema
// to pin down the exact text the patch produces.
func InjectTester(t *testing.T, cfg Config, m map[string]string) {
	inj, err := NewInjector(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Test the items of m in the same order every time.
	var sorted sort.StringSlice
	for pre := range m {
		sorted = append(sorted, pre)
	}
	sorted.Sort()

	for i, pre := range sorted {
		post := m[pre]
		t.Run(fmt.Sprintf("%03d", i+1), func(t *testing.T) {
			got := inj.Inject(pre).Schema
			if got != post {
				t.Errorf("mismatch (-want +got):\n%s\n%s", cmp.Diff(post, got), spew.Sdump(Parse(pre)))
				return
			}
			again := inj.Inject(got)
			if again.Changed() || again.Schema != got {
				t.Errorf("second pass not idempotent (-first +second):\n%s", cmp.Diff(got, again.Schema))
			}
		})
	}
}
