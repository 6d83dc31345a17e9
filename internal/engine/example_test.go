// Package engine_test shows how a search drives a Checker.
package engine_test

import (
	"context"
	"fmt"

	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/engine"
	"github.com/arx-deidentifier/arx-sub007/internal/groupify"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
	"github.com/arx-deidentifier/arx-sub007/internal/metric"
	"github.com/arx-deidentifier/arx-sub007/internal/privacy"
)

// ExampleChecker_Check evaluates two nodes of a one column lattice. The
// second node generalizes the first, so its table is rolled up.
func ExampleChecker_Check() {
	// 1) Four rows with zip codes 0,0,1,1 and a hierarchy merging both at level 1.
	input, _ := dataset.FromRows([][]int32{{0}, {0}, {1}, {1}})
	h, _ := dataset.HierarchyFromTable([][]int32{{0, 2}, {1, 2}})
	data, err := dataset.New(&dataset.Raw{
		Header:       []string{"zip"},
		Input:        input,
		Dictionaries: []*dataset.Dictionary{dataset.DictionaryOf("0", "1", "0-1")},
	}, []*dataset.Hierarchy{h})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	// 2) 3-anonymity without suppression, measured by discernibility.
	k, _ := privacy.NewKAnonymity(3)
	checker, err := engine.NewChecker(data, engine.Options{
		Model:  groupify.Model{Predicate: k},
		Metric: metric.Discernibility{},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	// 3) Nodes are interned so results are memoized on them.
	space, _ := lattice.NewSpace(data.MaxLevels())
	for _, levels := range [][]int{{0}, {1}} {
		node, _ := space.Get(levels)
		r, err := checker.Check(context.Background(), node, false)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		if r.InformationLoss != nil {
			fmt.Printf("%s anonymous=%v loss=%g\n", node, r.PrivacyModelFulfilled, *r.InformationLoss)
		} else {
			fmt.Printf("%s anonymous=%v bound=%g\n", node, r.PrivacyModelFulfilled, *r.LowerBound)
		}
	}
	// Output:
	// [0] anonymous=false bound=8
	// [1] anonymous=true loss=16
}
