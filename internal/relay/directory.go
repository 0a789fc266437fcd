package relay

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

// Board is a directory entry.
type Board struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Directory is the in-memory list of known boards.
type Directory struct {
	mu     sync.RWMutex
	boards map[string]Board
	now    func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{boards: make(map[string]Board), now: time.Now}
}

// Create adds a board with a fresh id.
func (d *Directory) Create(title string) Board {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled board"
	}
	b := Board{ID: ksuid.New().String(), Title: title, UpdatedAt: d.now().UTC()}
	d.mu.Lock()
	d.boards[b.ID] = b
	d.mu.Unlock()
	return b
}

// Touch records activity on a board, adding it if a client joined an id
// that was never created through the directory.
func (d *Directory) Touch(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.boards[id]
	if !ok {
		b = Board{ID: id, Title: id}
	}
	b.UpdatedAt = d.now().UTC()
	d.boards[id] = b
}

// List returns boards, most recently updated first.
func (d *Directory) List() []Board {
	d.mu.RLock()
	out := make([]Board, 0, len(d.boards))
	for _, b := range d.boards {
		out = append(out, b)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}
