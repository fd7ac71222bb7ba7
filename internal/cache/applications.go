// Package cache holds per-consumer views over the entity stores: a local
// copy of a collection plus loading and error state, kept in step with the
// store by splicing in the result of each mutation.
//
// Two views of the same store do not see each other's changes until they
// reload.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lalith-99/visaflow/internal/apperr"
	"github.com/lalith-99/visaflow/internal/models"
	"github.com/lalith-99/visaflow/internal/repository"
	"github.com/lalith-99/visaflow/internal/workflow"
)

// Applications is a cached view over an ApplicationRepository.
type Applications struct {
	repo repository.ApplicationRepository

	mu      sync.RWMutex
	items   []models.Application
	loading bool
	errMsg  string
}

func NewApplications(repo repository.ApplicationRepository) *Applications {
	return &Applications{repo: repo, items: make([]models.Application, 0)}
}

// Mount is the initial full load a view does when it is first used.
func (c *Applications) Mount(ctx context.Context) *Applications {
	c.Load(ctx)
	return c
}

// Load replaces the cache with the store's current collection. A failure
// is kept in Err rather than returned, and the previous items stay.
func (c *Applications) Load(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	apps, err := c.repo.GetAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = apperr.Normalize(err, "Failed to load applications").Message
		return
	}
	c.items = apps
}

func (c *Applications) Items() []models.Application {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Application, 0, len(c.items))
	for _, a := range c.items {
		out = append(out, a.Clone())
	}
	return out
}

func (c *Applications) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err is the message of the last failed load, or "".
func (c *Applications) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

func (c *Applications) Create(ctx context.Context, a models.Application) (*models.Application, error) {
	created, err := c.repo.Create(ctx, a)
	if err != nil {
		return nil, apperr.Normalize(err, "Failed to create application")
	}
	c.mu.Lock()
	c.items = append(c.items, created.Clone())
	c.mu.Unlock()
	return created, nil
}

func (c *Applications) Update(ctx context.Context, id int64, patch models.ApplicationPatch) (*models.Application, error) {
	updated, err := c.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, apperr.Normalize(err, "Failed to update application")
	}
	c.splice(updated)
	return updated, nil
}

func (c *Applications) UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Application, error) {
	updated, err := c.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, apperr.Normalize(err, "Failed to update application status")
	}
	c.splice(updated)
	return updated, nil
}

func (c *Applications) AddMessage(ctx context.Context, id int64, msg models.Message) (*models.Application, error) {
	updated, err := c.repo.AddMessage(ctx, id, msg)
	if err != nil {
		return nil, apperr.Normalize(err, "Failed to add message")
	}
	c.splice(updated)
	return updated, nil
}

// splice replaces the cached entry with the same Id. Entries the cache has
// never loaded are not added.
func (c *Applications) splice(a *models.Application) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == a.ID {
			c.items[i] = a.Clone()
			return
		}
	}
}

// StatusCounts counts cached applications per status. Every status is
// present in the result, possibly with 0.
func (c *Applications) StatusCounts() map[models.Status]int {
	counts := make(map[models.Status]int, len(workflow.Statuses()))
	for _, s := range workflow.Statuses() {
		counts[s] = 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.items {
		counts[a.Status]++
	}
	return counts
}

// Recent returns up to n applications, most recently updated first.
func (c *Applications) Recent(n int) []models.Application {
	items := c.Items()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// Filter returns the cached applications matching both the status keyword
// (see workflow.StatusFilter) and the search term. The term matches the
// owning client's name or the visa type, case-insensitively. clientNames
// maps client Id to name.
func (c *Applications) Filter(search, statusKeyword string, clientNames map[int64]string) ([]models.Application, error) {
	status, all, ok := workflow.StatusFilter(statusKeyword)
	if !ok {
		return nil, apperr.Validation("Unknown status filter", map[string]string{"filter": statusKeyword})
	}
	term := strings.ToLower(strings.TrimSpace(search))

	out := make([]models.Application, 0)
	for _, a := range c.Items() {
		if !all && a.Status != status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(clientNames[a.ClientID]), term) &&
			!strings.Contains(strings.ToLower(string(a.VisaType)), term) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
