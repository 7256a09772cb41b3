package concurrency

import (
	"sync"
)

// LockManager hands out one mutex per key, created on first use. The Discord
// layer keys them by user id so double-clicked buttons queue behind each
// other instead of racing into the engine.
type LockManager struct {
	locks sync.Map
}

// NewLockManager creates an empty lock manager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// GetLock returns the mutex for key, creating it on first use
func (lm *LockManager) GetLock(key string) *sync.Mutex {
	lock, _ := lm.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Do runs fn while holding key's mutex
func (lm *LockManager) Do(key string, fn func()) {
	lock := lm.GetLock(key)
	lock.Lock()
	defer lock.Unlock()
	fn()
}
