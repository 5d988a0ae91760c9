package notification

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of most-recent notifications retained.
const DefaultCapacity = 10

// ErrNotFound signals that no notification has the given id.
var ErrNotFound = errors.New("notification: not found")

// Notification is a transient message produced by a user-facing action.
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
}

// Log is a bounded, newest-first notification list.
type Log struct {
	mu          sync.Mutex
	items       []Notification
	capacity    int
	idGenerator func() string
	now         func() time.Time
}

// NewLog creates a Log holding at most capacity entries. A non-positive
// capacity uses DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity:    capacity,
		idGenerator: uuid.NewString,
		now:         time.Now,
	}
}

// WithClock overrides the timestamp source.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

// WithIDGenerator overrides the id source.
func (l *Log) WithIDGenerator(gen func() string) *Log {
	l.idGenerator = gen
	return l
}

// Add prepends an unread notification, evicting the oldest beyond capacity.
func (l *Log) Add(title, description string) Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := Notification{
		ID:          l.idGenerator(),
		Title:       title,
		Description: description,
		Timestamp:   l.now(),
	}

	keep := len(l.items)
	if keep > l.capacity-1 {
		keep = l.capacity - 1
	}
	next := make([]Notification, 0, keep+1)
	next = append(next, n)
	next = append(next, l.items[:keep]...)
	l.items = next
	return n
}

// Delete removes the notification with id.
func (l *Log) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, n := range l.items {
		if n.ID == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// MarkRead flags one notification as read.
func (l *Log) MarkRead(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

// MarkAllRead flags every notification as read.
func (l *Log) MarkAllRead() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		l.items[i].Read = true
	}
}

// UnreadCount reports how many notifications are unread.
func (l *Log) UnreadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, n := range l.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// List returns a copy of the notifications, newest first.
func (l *Log) List() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Notification, len(l.items))
	copy(out, l.items)
	return out
}

// Len reports the number of retained notifications.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Clear drops every notification.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}
