package data

import "errors"

// Sample represents a single data point.
type Sample struct {
	X []float64
	Y float64
}

// Batch represents a collection of data points.
type Batch struct {
	X [][]float64
	Y []float64
}

// Samples streams the rows of X with their targets through out, in order.
// Close the returned done chan to stop early. out is closed when streaming ends.
func Samples(X [][]float64, Y []float64, out chan<- Sample) (done chan struct{}, err error) {
	if len(X) != len(Y) {
		return nil, errors.New("data: X and Y length mismatch")
	}
	done = make(chan struct{})

	go func() {
		defer close(out)
		for i := range X {
			select {
			case <-done:
				return
			case out <- Sample{X: X[i], Y: Y[i]}:
			}
		}
	}()
	return done, nil
}

// Batcher reads from a Sample channel and emits mini-batches of batchSize.
// The last batch may be smaller. Close the returned done chan to stop early.
func Batcher(in <-chan Sample, batchSize int, out chan<- Batch) (done chan struct{}) {
	done = make(chan struct{})
	if batchSize < 1 {
		batchSize = 1
	}

	go func() {
		defer close(out)

		var X [][]float64
		var Y []float64

		for {
			select {
			case <-done:
				return

			case s, ok := <-in:
				if !ok {
					// flush the trailing partial batch
					if len(Y) > 0 {
						select {
						case out <- Batch{X: X, Y: Y}:
						case <-done:
						}
					}
					return
				}

				X = append(X, s.X)
				Y = append(Y, s.Y)

				if len(Y) == batchSize {
					select {
					case out <- Batch{X: X, Y: Y}:
					case <-done:
						return
					}
					X = nil
					Y = nil
				}
			}
		}
	}()

	return done
}
