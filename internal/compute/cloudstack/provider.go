// Package cloudstack adapts the Apache CloudStack API to compute.Provider.
//
// Virtual machine lifecycle calls are issued without waiting for their async
// jobs; convergence is confirmed by polling the machine state. Tag changes
// are applied synchronously so that a metadata reset is never reordered.
package cloudstack

import (
	"context"
	"fmt"
	"maps"

	"github.com/apache/cloudstack-go/v2/cloudstack"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	"github.com/alexisbeaulieu97/convergo/internal/logger"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// ProviderName identifies CloudStack in errors and logs.
const ProviderName = "cloudstack"

const resourceTypeVM = "UserVm"

// Provider implements compute.Provider for CloudStack virtual machines.
type Provider struct {
	vms  *cloudstack.CloudStackClient
	tags *cloudstack.CloudStackClient
	zone string
	// Expunge destroys machines immediately instead of leaving them
	// recoverable in the Destroyed state.
	Expunge bool
	log     *logger.Logger
}

var (
	_ compute.Provider         = (*Provider)(nil)
	_ compute.DesiredValidator = (*Provider)(nil)
)

// New returns a Provider scoped to zone. An empty zone lists across zones.
func New(creds Credentials, zone string, log *logger.Logger) *Provider {
	return &Provider{
		vms:  cloudstack.NewClient(creds.Endpoint, creds.APIKey, creds.SecretKey, creds.VerifySSL),
		tags: cloudstack.NewAsyncClient(creds.Endpoint, creds.APIKey, creds.SecretKey, creds.VerifySSL),
		zone: zone,
		log:  log,
	}
}

func (p *Provider) Name() string { return ProviderName }

// PowerControl is true: machines can be stopped and started.
func (p *Provider) PowerControl() bool { return true }

// ValidateDesired requires a zone for deployment and rejects file
// injection, which the API has no equivalent for.
func (p *Provider) ValidateDesired(d compute.Desired) error {
	if d.Zone == "" {
		return convergoerrors.NewValidationError("zone_id", fmt.Sprintf("required when state is %s (or set %s)", d.State, EnvZone), nil)
	}
	if len(d.Files) > 0 {
		return convergoerrors.NewValidationError("files", "file injection is not supported by cloudstack", nil)
	}
	return nil
}

// List filters by name server-side; CloudStack matches names loosely.
func (p *Provider) List(ctx context.Context, name string) ([]compute.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := p.vms.VirtualMachine.NewListVirtualMachinesParams()
	params.SetName(name)
	if p.zone != "" {
		params.SetZoneid(p.zone)
	}
	resp, err := p.vms.VirtualMachine.ListVirtualMachines(params)
	if err != nil {
		return nil, err
	}

	out := make([]compute.Instance, 0, len(resp.VirtualMachines))
	for _, vm := range resp.VirtualMachines {
		out = append(out, instanceFrom(vm))
	}
	p.log.Debug("listed virtual machines", "provider", ProviderName, "filter", name, "count", len(out))
	return out, nil
}

func (p *Provider) Get(ctx context.Context, id string) (*compute.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := p.vms.VirtualMachine.NewListVirtualMachinesParams()
	params.SetId(id)
	resp, err := p.vms.VirtualMachine.ListVirtualMachines(params)
	if err != nil {
		return nil, err
	}
	if resp.Count == 0 || len(resp.VirtualMachines) == 0 {
		return nil, compute.ErrNotFound
	}
	inst := instanceFrom(resp.VirtualMachines[0])
	return &inst, nil
}

func (p *Provider) Create(ctx context.Context, req compute.CreateRequest) (*compute.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := p.vms.VirtualMachine.NewDeployVirtualMachineParams(req.Flavor, req.Image, req.Zone)
	params.SetName(req.Name)
	params.SetDisplayname(req.Name)
	params.SetStartvm(req.Start)
	if req.KeyName != "" {
		params.SetKeypair(req.KeyName)
	}
	if req.Network != "" {
		params.SetNetworkids([]string{req.Network})
	}

	resp, err := p.vms.VirtualMachine.DeployVirtualMachine(params)
	if err != nil {
		return nil, err
	}
	p.log.Debug("deploy accepted", "provider", ProviderName, "id", resp.Id, "job", resp.JobID)

	if len(req.Meta) > 0 {
		if err := p.createTags(resp.Id, req.Meta); err != nil {
			return nil, convergoerrors.NewProviderError(ProviderName, resp.Id, fmt.Errorf("tag new machine: %w", err))
		}
	}

	return &compute.Instance{
		ID:     resp.Id,
		Name:   req.Name,
		Status: resp.State,
		Phase:  compute.PhaseBuilding,
		Flavor: req.Flavor,
		Image:  req.Image,
		Meta:   maps.Clone(req.Meta),
	}, nil
}

// Update replaces the machine's tags and starts or stops it.
func (p *Provider) Update(ctx context.Context, id string, change compute.Change) (*compute.Instance, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if change.Meta != nil {
		if err := p.resetTags(id, current.Meta, change.Meta); err != nil {
			return nil, err
		}
	}

	switch change.Power {
	case compute.PhaseRunning:
		resp, err := p.vms.VirtualMachine.StartVirtualMachine(p.vms.VirtualMachine.NewStartVirtualMachineParams(id))
		if err != nil {
			return nil, err
		}
		p.log.Debug("start accepted", "provider", ProviderName, "id", id, "job", resp.JobID)
	case compute.PhaseStopped:
		resp, err := p.vms.VirtualMachine.StopVirtualMachine(p.vms.VirtualMachine.NewStopVirtualMachineParams(id))
		if err != nil {
			return nil, err
		}
		p.log.Debug("stop accepted", "provider", ProviderName, "id", id, "job", resp.JobID)
	case "":
	default:
		return nil, fmt.Errorf("unsupported power state %q", change.Power)
	}

	return p.Get(ctx, id)
}

func (p *Provider) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := p.vms.VirtualMachine.NewDestroyVirtualMachineParams(id)
	if p.Expunge {
		params.SetExpunge(true)
	}
	resp, err := p.vms.VirtualMachine.DestroyVirtualMachine(params)
	if err != nil {
		return err
	}
	p.log.Debug("destroy accepted", "provider", ProviderName, "id", id, "job", resp.JobID, "expunge", p.Expunge)
	return nil
}

func (p *Provider) createTags(id string, tags map[string]string) error {
	params := p.tags.Resourcetags.NewCreateTagsParams([]string{id}, resourceTypeVM, tags)
	_, err := p.tags.Resourcetags.CreateTags(params)
	return err
}

// resetTags makes the machine's tags equal to want, removing what is stale
// before adding what is missing.
func (p *Provider) resetTags(id string, have, want map[string]string) error {
	stale, missing := tagDelta(have, want)

	if len(stale) > 0 {
		params := p.tags.Resourcetags.NewDeleteTagsParams([]string{id}, resourceTypeVM)
		params.SetTags(stale)
		if _, err := p.tags.Resourcetags.DeleteTags(params); err != nil {
			return err
		}
	}
	if len(missing) > 0 {
		return p.createTags(id, missing)
	}
	return nil
}

// tagDelta returns the tags to delete and the tags to create to turn have
// into want. A changed value appears in both.
func tagDelta(have, want map[string]string) (stale, missing map[string]string) {
	stale = map[string]string{}
	missing = map[string]string{}
	for k, v := range have {
		if w, ok := want[k]; !ok || w != v {
			stale[k] = v
		}
	}
	for k, v := range want {
		if h, ok := have[k]; !ok || h != v {
			missing[k] = v
		}
	}
	return stale, missing
}

func instanceFrom(vm *cloudstack.VirtualMachine) compute.Instance {
	inst := compute.Instance{
		ID:     vm.Id,
		Name:   vm.Name,
		Status: vm.State,
		Phase:  phaseOf(vm.State),
		Flavor: vm.Serviceofferingid,
		Image:  vm.Templateid,
	}
	if len(vm.Tags) > 0 {
		inst.Meta = make(map[string]string, len(vm.Tags))
		for _, tag := range vm.Tags {
			inst.Meta[tag.Key] = tag.Value
		}
	}
	if vm.Publicip != "" {
		inst.Addresses = append(inst.Addresses, vm.Publicip)
	}
	for _, nic := range vm.Nic {
		if nic.Ipaddress != "" {
			inst.Addresses = append(inst.Addresses, nic.Ipaddress)
		}
	}
	return inst
}

// phaseOf maps CloudStack machine states onto compute phases.
func phaseOf(state string) compute.Phase {
	switch state {
	case "Running":
		return compute.PhaseRunning
	case "Stopped", "Shutdown":
		return compute.PhaseStopped
	case "Error":
		return compute.PhaseError
	case "Destroyed", "Expunging":
		return compute.PhaseDeleted
	case "":
		return ""
	default:
		// Starting, Stopping, Migrating, Restoring.
		return compute.PhaseBuilding
	}
}
