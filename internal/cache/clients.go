package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/lalith-99/visaflow/internal/apperr"
	"github.com/lalith-99/visaflow/internal/models"
	"github.com/lalith-99/visaflow/internal/repository"
)

// Clients is a cached view over a ClientRepository.
type Clients struct {
	repo repository.ClientRepository

	mu      sync.RWMutex
	items   []models.Client
	loading bool
	errMsg  string
}

func NewClients(repo repository.ClientRepository) *Clients {
	return &Clients{repo: repo, items: make([]models.Client, 0)}
}

func (c *Clients) Mount(ctx context.Context) *Clients {
	c.Load(ctx)
	return c
}

func (c *Clients) Load(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	clients, err := c.repo.GetAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = apperr.Normalize(err, "Failed to load clients").Message
		return
	}
	c.items = clients
}

func (c *Clients) Items() []models.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Client, 0, len(c.items))
	for _, cl := range c.items {
		out = append(out, cl.Clone())
	}
	return out
}

func (c *Clients) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Clients) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

func (c *Clients) Create(ctx context.Context, cl models.Client) (*models.Client, error) {
	created, err := c.repo.Create(ctx, cl)
	if err != nil {
		return nil, apperr.Normalize(err, "Failed to create client")
	}
	c.mu.Lock()
	c.items = append(c.items, created.Clone())
	c.mu.Unlock()
	return created, nil
}

func (c *Clients) Update(ctx context.Context, id int64, patch models.ClientPatch) (*models.Client, error) {
	updated, err := c.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, apperr.Normalize(err, "Failed to update client")
	}
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == updated.ID {
			c.items[i] = updated.Clone()
			break
		}
	}
	c.mu.Unlock()
	return updated, nil
}

func (c *Clients) Delete(ctx context.Context, id int64) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return apperr.Normalize(err, "Failed to delete client")
	}
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// Search returns cached clients whose name or email contains term,
// case-insensitively. An empty term returns everything.
func (c *Clients) Search(term string) []models.Client {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Client, 0)
	for _, cl := range c.Items() {
		if term == "" ||
			strings.Contains(strings.ToLower(cl.Name), term) ||
			strings.Contains(strings.ToLower(cl.Email), term) {
			out = append(out, cl)
		}
	}
	return out
}

// Names maps client Id to name for the cached clients.
func (c *Clients) Names() map[int64]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make(map[int64]string, len(c.items))
	for _, cl := range c.items {
		names[cl.ID] = cl.Name
	}
	return names
}

// Find returns the cached client with the given Id.
func (c *Clients) Find(id int64) (*models.Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cl := range c.items {
		if cl.ID == id {
			cp := cl.Clone()
			return &cp, true
		}
	}
	return nil, false
}
