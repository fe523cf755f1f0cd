package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameKey(t *testing.T) {
	l := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(Internship("i-1"))
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.Size())
}

func TestLockMultipleKeysInAnyOrder(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := l.Lock(Student("s-1"), Internship("i-1"))
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := l.Lock(Internship("i-1"), Student("s-1"), Student("s-1"))
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, l.Size())
}

func TestUnlockIsIdempotent(t *testing.T) {
	l := New()
	unlock := l.Lock(Representative("r-1"), "")
	assert.Equal(t, 1, l.Size())
	unlock()
	unlock()
	assert.Equal(t, 0, l.Size())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalize([]string{"b", "", "a", "b"}))
}
