package feedback

import (
	"sync"
	"testing"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("serializes same key", func(t *testing.T) {
		k := newKeyedMutex()
		counter := 0

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := k.Lock("a")
				defer unlock()
				counter++
			}()
		}
		wg.Wait()

		if counter != 50 {
			t.Errorf("counter = %d, want 50", counter)
		}
		if k.size() != 0 {
			t.Errorf("size() = %d after all unlocks, want 0", k.size())
		}
	})

	t.Run("different keys do not block", func(t *testing.T) {
		k := newKeyedMutex()
		unlockA := k.Lock("a")
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlock := k.Lock("b")
			unlock()
			close(done)
		}()
		<-done

		if k.size() != 1 {
			t.Errorf("size() = %d, want 1", k.size())
		}
	})
}
