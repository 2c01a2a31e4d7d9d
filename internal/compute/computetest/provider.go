// Package computetest provides an in-memory compute.Provider for tests.
package computetest

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
)

// Provider is an in-memory compute.Provider. Mutations take effect
// immediately unless a phase script is queued for the instance with Script.
type Provider struct {
	mu sync.Mutex

	ProviderName string
	Power        bool
	// ListErr, CreateErr, UpdateErr and DeleteErr are returned by the
	// matching call when set.
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	instances map[string]*compute.Instance
	order     []string
	scripts   map[string][]compute.Phase
	nextID    int

	Created []compute.CreateRequest
	Updated []compute.Change
	Deleted []string
	Gets    int
}

var _ compute.Provider = (*Provider)(nil)

// New returns an empty provider. power enables stop/start support.
func New(name string, power bool) *Provider {
	return &Provider{
		ProviderName: name,
		Power:        power,
		instances:    map[string]*compute.Instance{},
		scripts:      map[string][]compute.Phase{},
	}
}

// Seed adds an existing instance and returns its id.
func (p *Provider) Seed(inst compute.Instance) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if inst.ID == "" {
		inst.ID = p.newID()
	}
	if inst.Phase == "" {
		inst.Phase = compute.PhaseRunning
	}
	cp := inst
	cp.Meta = maps.Clone(inst.Meta)
	p.instances[cp.ID] = &cp
	p.order = append(p.order, cp.ID)
	return cp.ID
}

// Script queues the phases reported by successive Get calls for id. The
// last phase sticks. compute.PhaseDeleted makes Get return ErrNotFound.
func (p *Provider) Script(id string, phases ...compute.Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[id] = append(p.scripts[id], phases...)
}

// ScriptNext queues phases for the next instance Create will build.
func (p *Provider) ScriptNext(phases ...compute.Phase) {
	p.Script(fmt.Sprintf("srv-%d", p.nextID+1), phases...)
}

// Instances returns a copy of every live instance in creation order.
func (p *Provider) Instances() []compute.Instance {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]compute.Instance, 0, len(p.order))
	for _, id := range p.order {
		if inst, ok := p.instances[id]; ok {
			out = append(out, *inst)
		}
	}
	return out
}

func (p *Provider) Name() string       { return p.ProviderName }
func (p *Provider) PowerControl() bool { return p.Power }

// List matches by substring, like many provider name filters.
func (p *Provider) List(ctx context.Context, name string) ([]compute.Instance, error) {
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	var out []compute.Instance
	for _, inst := range p.Instances() {
		if strings.Contains(inst.Name, name) {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (p *Provider) Get(ctx context.Context, id string) (*compute.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Gets++

	if script := p.scripts[id]; len(script) > 0 {
		phase := script[0]
		if len(script) > 1 {
			p.scripts[id] = script[1:]
		}
		if phase == compute.PhaseDeleted {
			return nil, compute.ErrNotFound
		}
		inst, ok := p.instances[id]
		if !ok {
			inst = &compute.Instance{ID: id}
		}
		cp := *inst
		cp.Phase = phase
		cp.Status = string(phase)
		return &cp, nil
	}

	inst, ok := p.instances[id]
	if !ok {
		return nil, compute.ErrNotFound
	}
	cp := *inst
	return &cp, nil
}

func (p *Provider) Create(ctx context.Context, req compute.CreateRequest) (*compute.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	p.Created = append(p.Created, req)

	phase := compute.PhaseRunning
	if !req.Start {
		phase = compute.PhaseStopped
	}
	inst := &compute.Instance{
		ID:        p.newID(),
		Name:      req.Name,
		Status:    string(phase),
		Phase:     phase,
		Flavor:    req.Flavor,
		Image:     req.Image,
		Meta:      maps.Clone(req.Meta),
		Addresses: []string{fmt.Sprintf("10.0.0.%d", p.nextID)},
	}
	p.instances[inst.ID] = inst
	p.order = append(p.order, inst.ID)

	cp := *inst
	cp.Phase = compute.PhaseBuilding
	cp.Status = string(compute.PhaseBuilding)
	return &cp, nil
}

func (p *Provider) Update(ctx context.Context, id string, change compute.Change) (*compute.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.UpdateErr != nil {
		return nil, p.UpdateErr
	}
	inst, ok := p.instances[id]
	if !ok {
		return nil, compute.ErrNotFound
	}
	p.Updated = append(p.Updated, change)

	if change.Meta != nil {
		inst.Meta = maps.Clone(change.Meta)
	}
	if change.Power != "" {
		inst.Phase = change.Power
		inst.Status = string(change.Power)
	}
	cp := *inst
	return &cp, nil
}

func (p *Provider) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.DeleteErr != nil {
		return p.DeleteErr
	}
	if _, ok := p.instances[id]; !ok {
		return compute.ErrNotFound
	}
	delete(p.instances, id)
	p.Deleted = append(p.Deleted, id)
	return nil
}

func (p *Provider) newID() string {
	p.nextID++
	return fmt.Sprintf("srv-%d", p.nextID)
}
