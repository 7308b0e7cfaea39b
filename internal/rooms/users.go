package rooms

import (
	"sync"

	"roomchat/internal/models"
)

// Users is the server-wide set of claimed display names.
type Users struct {
	mu    sync.Mutex
	names map[models.Username]struct{}
}

func NewUsers() *Users {
	return &Users{names: make(map[models.Username]struct{})}
}

// Claim inserts name if nobody holds it and reports whether it did.
func (u *Users) Claim(name models.Username) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, taken := u.names[name]; taken {
		return false
	}
	u.names[name] = struct{}{}
	return true
}

// ClaimRandom claims and returns a fresh guest name.
func (u *Users) ClaimRandom() models.Username {
	for {
		name := models.RandomUsername()
		if u.Claim(name) {
			return name
		}
	}
}

// Release frees name and reports whether it was claimed.
func (u *Users) Release(name models.Username) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.names[name]; !ok {
		return false
	}
	delete(u.names, name)
	return true
}

func (u *Users) Contains(name models.Username) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.names[name]
	return ok
}

func (u *Users) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.names)
}
