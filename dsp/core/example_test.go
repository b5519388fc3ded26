package core_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
)

func ExampleSanitize() {
	fmt.Println(core.Sanitize(math.NaN()), core.Sanitize(0.5))

	// Output:
	// 0 0.5
}
