// Package rackspace adapts the Rackspace (OpenStack Nova) compute API to
// compute.Provider through gophercloud.
//
// Rackspace authenticates against identity v2 with a username and API key
// (RAX-KSKEY:apiKeyCredentials); tokens are not renewed within an invocation.
package rackspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/diskconfig"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/keypairs"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	"github.com/alexisbeaulieu97/convergo/internal/logger"
)

// ProviderName identifies Rackspace in errors and logs.
const ProviderName = "rax"

// Provider implements compute.Provider for Rackspace cloud servers.
type Provider struct {
	client *gophercloud.ServiceClient
	log    *logger.Logger
}

var _ compute.Provider = (*Provider)(nil)

// New authenticates and returns a Provider for the credentials' region.
func New(ctx context.Context, creds Credentials, log *logger.Logger) (*Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	providerClient, err := authenticate(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("authenticate against %s: %w", creds.IdentityEndpoint, err)
	}

	client, err := openstack.NewComputeV2(providerClient, gophercloud.EndpointOpts{Region: creds.Region})
	if err != nil {
		return nil, fmt.Errorf("locate compute endpoint in region %s: %w", creds.Region, err)
	}

	log.Debug("authenticated", "provider", ProviderName, "region", creds.Region, "endpoint", client.Endpoint)
	return NewWithClient(client, log), nil
}

// NewWithClient wraps an existing compute service client.
func NewWithClient(client *gophercloud.ServiceClient, log *logger.Logger) *Provider {
	return &Provider{client: client, log: log}
}

func (p *Provider) Name() string { return ProviderName }

// PowerControl is false: Rackspace servers are either active or deleted.
func (p *Provider) PowerControl() bool { return false }

// List filters by name server-side. Nova treats the filter as a regular
// expression, so callers must still compare names exactly.
func (p *Provider) List(ctx context.Context, name string) ([]compute.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := servers.List(p.client, servers.ListOpts{Name: name}).AllPages()
	if err != nil {
		return nil, err
	}
	found, err := servers.ExtractServers(pages)
	if err != nil {
		return nil, err
	}

	out := make([]compute.Instance, 0, len(found))
	for i := range found {
		out = append(out, instanceFrom(&found[i]))
	}
	p.log.Debug("listed servers", "provider", ProviderName, "filter", name, "count", len(out))
	return out, nil
}

func (p *Provider) Get(ctx context.Context, id string) (*compute.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	srv, err := servers.Get(p.client, id).Extract()
	if err != nil {
		if isNotFound(err) {
			return nil, compute.ErrNotFound
		}
		return nil, err
	}
	inst := instanceFrom(srv)
	return &inst, nil
}

func (p *Provider) Create(ctx context.Context, req compute.CreateRequest) (*compute.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	srv, err := servers.Create(p.client, createOpts(req)).Extract()
	if err != nil {
		return nil, err
	}
	p.log.Debug("server create accepted", "provider", ProviderName, "id", srv.ID)

	inst := instanceFrom(srv)
	// The create response only carries the id and admin password.
	if inst.Name == "" {
		inst.Name = req.Name
	}
	if inst.Phase == "" {
		inst.Phase = compute.PhaseBuilding
	}
	return &inst, nil
}

// Update resets server metadata. Power changes are not supported.
func (p *Provider) Update(ctx context.Context, id string, change compute.Change) (*compute.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if change.Power != "" {
		return nil, fmt.Errorf("power state changes are not supported by %s", ProviderName)
	}

	if change.Meta != nil {
		if _, err := servers.ResetMetadata(p.client, id, servers.MetadataOpts(change.Meta)).Extract(); err != nil {
			return nil, err
		}
	}
	return p.Get(ctx, id)
}

func (p *Provider) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := servers.Delete(p.client, id).ExtractErr()
	if isNotFound(err) {
		return compute.ErrNotFound
	}
	return err
}

func createOpts(req compute.CreateRequest) servers.CreateOptsBuilder {
	var opts servers.CreateOptsBuilder = servers.CreateOpts{
		Name:        req.Name,
		ImageRef:    req.Image,
		FlavorRef:   req.Flavor,
		Metadata:    req.Meta,
		Personality: personality(req.Files),
	}
	if req.KeyName != "" {
		opts = keypairs.CreateOptsExt{CreateOptsBuilder: opts, KeyName: req.KeyName}
	}
	switch req.DiskConfig {
	case "auto":
		opts = diskconfig.CreateOptsExt{CreateOptsBuilder: opts, DiskConfig: diskconfig.Auto}
	case "manual":
		opts = diskconfig.CreateOptsExt{CreateOptsBuilder: opts, DiskConfig: diskconfig.Manual}
	}
	return opts
}

func personality(files map[string][]byte) servers.Personality {
	if len(files) == 0 {
		return nil
	}
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make(servers.Personality, 0, len(paths))
	for _, path := range paths {
		out = append(out, &servers.File{Path: path, Contents: files[path]})
	}
	return out
}

func instanceFrom(srv *servers.Server) compute.Instance {
	return compute.Instance{
		ID:        srv.ID,
		Name:      srv.Name,
		Status:    srv.Status,
		Phase:     phaseOf(srv.Status),
		Flavor:    refID(srv.Flavor),
		Image:     refID(srv.Image),
		Meta:      srv.Metadata,
		Addresses: addressesOf(srv),
	}
}

// phaseOf maps Nova server statuses onto compute phases.
func phaseOf(status string) compute.Phase {
	switch status {
	case "ACTIVE":
		return compute.PhaseRunning
	case "SHUTOFF", "SUSPENDED", "PAUSED", "SHELVED", "SHELVED_OFFLOADED":
		return compute.PhaseStopped
	case "ERROR":
		return compute.PhaseError
	case "DELETED", "SOFT_DELETED":
		return compute.PhaseDeleted
	case "":
		return ""
	default:
		// BUILD, REBUILD, REBOOT, RESIZE, MIGRATING and friends.
		return compute.PhaseBuilding
	}
}

func refID(ref map[string]interface{}) string {
	if id, ok := ref["id"].(string); ok {
		return id
	}
	return ""
}

// addressesOf returns the public IPv4 first, then every network address in
// network-name order.
func addressesOf(srv *servers.Server) []string {
	var out []string
	seen := map[string]bool{}
	add := func(addr string) {
		if addr != "" && !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}

	add(srv.AccessIPv4)

	networks := make([]string, 0, len(srv.Addresses))
	for network := range srv.Addresses {
		networks = append(networks, network)
	}
	sort.Strings(networks)

	for _, network := range networks {
		entries, ok := srv.Addresses[network].([]interface{})
		if !ok {
			continue
		}
		for _, entry := range entries {
			if m, ok := entry.(map[string]interface{}); ok {
				if addr, ok := m["addr"].(string); ok {
					add(addr)
				}
			}
		}
	}
	add(srv.AccessIPv6)
	return out
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound gophercloud.ErrDefault404
	if errors.As(err, &notFound) {
		return true
	}
	var unexpected gophercloud.ErrUnexpectedResponseCode
	return errors.As(err, &unexpected) && unexpected.Actual == http.StatusNotFound
}
