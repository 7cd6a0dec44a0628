package service

import "sync"

// GameLocks hands out one mutex per game so intent submission and turn
// resolution never interleave on the same snapshot. Both the keyspace
// listener and the poller can fire for the same deadline; the lock also
// keeps them from resolving a turn twice.
type GameLocks struct {
	m sync.Map
}

// For returns the mutex for a game.
func (l *GameLocks) For(gameID string) *sync.Mutex {
	v, _ := l.m.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Forget drops the mutex of a finished game.
func (l *GameLocks) Forget(gameID string) {
	l.m.Delete(gameID)
}
