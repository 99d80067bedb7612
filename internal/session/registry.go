package session

import "sync"

// KnownUsers is the append-only set of user ids the bot has ever seen. It is
// the broadcast fan-out target list and nothing else.
type KnownUsers struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewKnownUsers creates an empty registry.
func NewKnownUsers() *KnownUsers {
	return &KnownUsers{ids: make(map[int64]struct{})}
}

// Add records a user id. Safe to call for every inbound message.
func (k *KnownUsers) Add(userID int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.ids[userID] = struct{}{}
}

// IDs returns a snapshot of every known user id.
func (k *KnownUsers) IDs() []int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]int64, 0, len(k.ids))
	for id := range k.ids {
		out = append(out, id)
	}
	return out
}

// Len returns the number of known users.
func (k *KnownUsers) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.ids)
}

// Relay maps the message id of a forwarded user message in the admin chat
// back to the originating user, so the admin can answer by replying to that
// message. Entries are created only for messages the admin chat actually
// received, read (not removed) on reply, and retained for the process
// lifetime.
type Relay struct {
	mu sync.Mutex
	m  map[int]int64
}

// NewRelay creates an empty relay map.
func NewRelay() *Relay {
	return &Relay{m: make(map[int]int64)}
}

// Record associates an admin-chat message id with the user it was forwarded
// from.
func (r *Relay) Record(adminMessageID int, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[adminMessageID] = userID
}

// Lookup returns the user a forwarded message originated from.
func (r *Relay) Lookup(adminMessageID int) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.m[adminMessageID]
	return userID, ok
}
