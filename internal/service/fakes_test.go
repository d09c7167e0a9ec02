package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/directory"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

// In-memory repository fakes. They mirror the postgres behavior the
// services rely on: generated IDs, pgx.ErrNoRows on missing rows, and
// copies on read so a caller mutation is only visible after Update.

// sameFacilityCode mirrors the repositories' canonical facility
// comparison, so "T-700" and "t 700" identify the same site.
func sameFacilityCode(a, b string) bool {
	return strings.EqualFold(directory.NormalizeFacility(a), directory.NormalizeFacility(b))
}

type memTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	now := time.Now().UTC()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now().UTC()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (r *memTicketRepo) ListActive(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return r.list(func(t domain.Ticket) bool { return !t.Archived() }, filter), nil
}

func (r *memTicketRepo) ListArchived(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return r.list(func(t domain.Ticket) bool { return t.Archived() }, filter), nil
}

func (r *memTicketRepo) list(keep func(domain.Ticket) bool, filter repository.TicketFilter) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if !keep(ticket) {
			continue
		}
		if filter.Facility != nil && !sameFacilityCode(ticket.Facility, *filter.Facility) {
			continue
		}
		if filter.Area != nil && ticket.Area != *filter.Area {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(*filter.SearchTerm)
			comment := ""
			if ticket.CloseComment != nil {
				comment = *ticket.CloseComment
			}
			haystack := strings.ToLower(ticket.Description + " " + comment + " " + ticket.RemediationNotes)
			if !strings.Contains(haystack, term) {
				continue
			}
		}
		result = append(result, ticket)
	}
	return result
}

func (r *memTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *memTicketRepo) Stats(_ context.Context) (*repository.DashboardStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.DashboardStats{
		ByFacility: map[string]int64{},
		ByArea:     map[string]int64{},
	}
	for _, ticket := range r.tickets {
		if ticket.Archived() {
			stats.ArchivedCount++
			continue
		}
		stats.ActiveTotal++
		stats.ByFacility[ticket.Facility]++
		stats.ByArea[string(ticket.Area)]++
		switch ticket.Status {
		case domain.TicketStatusReported:
			stats.ReportedCount++
		case domain.TicketStatusInProgress:
			stats.InProgressCount++
		}
		if len(ticket.Images) > 0 {
			stats.ActiveWithImages++
		}
	}
	return stats, nil
}

type memMaterialRepo struct {
	mu    sync.Mutex
	seq   int
	lines map[string]domain.MaterialLine
}

func newMemMaterialRepo() *memMaterialRepo {
	return &memMaterialRepo{lines: make(map[string]domain.MaterialLine)}
}

func (r *memMaterialRepo) Create(_ context.Context, line *domain.MaterialLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	line.ID = fmt.Sprintf("line-%d", r.seq)
	line.CreatedAt = time.Now().UTC()
	r.lines[line.ID] = *line
	return nil
}

func (r *memMaterialRepo) Update(_ context.Context, line *domain.MaterialLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lines[line.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.lines[line.ID] = *line
	return nil
}

func (r *memMaterialRepo) GetByID(_ context.Context, id string) (*domain.MaterialLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.lines[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := line
	return &copied, nil
}

func (r *memMaterialRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.MaterialLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.MaterialLine
	for _, line := range r.lines {
		if line.TicketID == ticketID {
			result = append(result, line)
		}
	}
	return result, nil
}

func (r *memMaterialRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lines[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.lines, id)
	return nil
}

func (r *memMaterialRepo) DeleteByTicket(_ context.Context, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, line := range r.lines {
		if line.TicketID == ticketID {
			delete(r.lines, id)
		}
	}
	return nil
}

type memActorRepo struct {
	mu     sync.Mutex
	seq    int
	actors map[string]domain.Actor
}

func newMemActorRepo() *memActorRepo {
	return &memActorRepo{actors: make(map[string]domain.Actor)}
}

func (r *memActorRepo) add(actor domain.Actor) *domain.Actor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if actor.ID == "" {
		r.seq++
		actor.ID = fmt.Sprintf("actor-%d", r.seq)
	}
	actor.CreatedAt = time.Now().UTC().Add(time.Duration(r.seq) * time.Millisecond)
	r.actors[actor.ID] = actor
	copied := actor
	return &copied
}

func (r *memActorRepo) Create(_ context.Context, actor *domain.Actor) error {
	stored := r.add(*actor)
	*actor = *stored
	return nil
}

func (r *memActorRepo) GetByID(_ context.Context, id string) (*domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.actors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := actor
	return &copied, nil
}

func (r *memActorRepo) GetByUsername(_ context.Context, username string) (*domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, actor := range r.actors {
		if actor.Username == username {
			copied := actor
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memActorRepo) List(_ context.Context) ([]domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Actor
	for _, actor := range r.actors {
		result = append(result, actor)
	}
	return result, nil
}

func (r *memActorRepo) FindTechnician(_ context.Context, facility string, area domain.WorkArea) (*domain.Actor, error) {
	return r.find(func(a domain.Actor) bool {
		return a.Role == domain.RoleFacilityTechnician && sameFacilityCode(a.Facility, facility) && a.Area == area
	})
}

func (r *memActorRepo) FindCoordinator(_ context.Context, facility string) (*domain.Actor, error) {
	return r.find(func(a domain.Actor) bool {
		return a.Role == domain.RoleProcurementCoordinator && sameFacilityCode(a.Facility, facility)
	})
}

func (r *memActorRepo) FirstAdministrator(_ context.Context) (*domain.Actor, error) {
	return r.find(func(a domain.Actor) bool {
		return a.Role == domain.RoleAdministrator
	})
}

func (r *memActorRepo) find(match func(domain.Actor) bool) (*domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.Actor
	for _, actor := range r.actors {
		if !match(actor) {
			continue
		}
		copied := actor
		if best == nil || copied.CreatedAt.Before(best.CreatedAt) {
			best = &copied
		}
	}
	if best == nil {
		return nil, pgx.ErrNoRows
	}
	return best, nil
}

func (r *memActorRepo) ListUnbound(_ context.Context) ([]domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Actor
	for _, actor := range r.actors {
		if actor.Role != domain.RoleAdministrator && actor.Facility == "" {
			result = append(result, actor)
		}
	}
	return result, nil
}

func (r *memActorRepo) UpdateBinding(_ context.Context, id, facility string, area domain.WorkArea) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.actors[id]
	if !ok {
		return pgx.ErrNoRows
	}
	actor.Facility = facility
	actor.Area = area
	r.actors[id] = actor
	return nil
}

type fakeFileStore struct {
	mu      sync.Mutex
	seq     int
	saved   []string
	deleted []string
	failing bool
}

func (f *fakeFileStore) Save(_ context.Context, fileName string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return "", fmt.Errorf("store unavailable")
	}
	f.seq++
	ref := fmt.Sprintf("upload-%d-%s", f.seq, fileName)
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *fakeFileStore) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
