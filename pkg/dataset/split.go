package dataset

import (
	"math"
	"math/rand"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/window"
)

//Split shuffles examples with seed and holds out ceil(ratio*n) of them for validation.
//At least one example stays in the training set.
func Split(examples []window.Example, ratio float64, seed int64) (train, validation []window.Example) {
	n := len(examples)
	if n == 0 {
		return nil, nil
	}

	nVal := int(math.Ceil(ratio * float64(n)))
	if nVal >= n {
		nVal = n - 1
	}
	if nVal < 0 {
		nVal = 0
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	validation = make([]window.Example, 0, nVal)
	train = make([]window.Example, 0, n-nVal)
	for i, idx := range perm {
		if i < nVal {
			validation = append(validation, examples[idx])
		} else {
			train = append(train, examples[idx])
		}
	}
	return train, validation
}
