package fanin

import (
	"sync"

	"tickerscan/internal/domain/model"
)

// FanIn merges several ticker channels into one. The output channel is closed
// once every input channel is closed.
func FanIn(channels ...<-chan model.Ticker) <-chan model.Ticker {
	out := make(chan model.Ticker)
	var wg sync.WaitGroup
	wg.Add(len(channels))

	for _, ch := range channels {
		go func(c <-chan model.Ticker) {
			defer wg.Done()
			for v := range c {
				out <- v
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
