package rackspace

import (
	"context"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"
	tokens2 "github.com/gophercloud/gophercloud/openstack/identity/v2/tokens"
)

// apiKeyAuth is the Rackspace identity v2 API key credential. It replaces
// the password credential gophercloud builds from AuthOptions.
type apiKeyAuth struct {
	Username string
	APIKey   string
}

var _ tokens2.AuthOptionsBuilder = apiKeyAuth{}

func (a apiKeyAuth) ToTokenV2CreateMap() (map[string]interface{}, error) {
	if a.Username == "" || a.APIKey == "" {
		return nil, gophercloud.ErrMissingInput{Argument: "username and api key"}
	}
	return map[string]interface{}{
		"auth": map[string]interface{}{
			"RAX-KSKEY:apiKeyCredentials": map[string]interface{}{
				"username": a.Username,
				"apiKey":   a.APIKey,
			},
		},
	}, nil
}

// authenticate exchanges the API key for a token at the identity endpoint
// and resolves service endpoints from the returned catalog.
func authenticate(ctx context.Context, creds Credentials) (*gophercloud.ProviderClient, error) {
	client, err := openstack.NewClient(creds.IdentityEndpoint)
	if err != nil {
		return nil, err
	}
	client.Context = ctx

	identity, err := openstack.NewIdentityV2(client, gophercloud.EndpointOpts{})
	if err != nil {
		return nil, err
	}
	identity.Endpoint = gophercloud.NormalizeURL(creds.IdentityEndpoint)

	result := tokens2.Create(identity, apiKeyAuth{Username: creds.Username, APIKey: creds.APIKey})
	if err := client.SetTokenAndAuthResult(result); err != nil {
		return nil, err
	}
	catalog, err := result.ExtractServiceCatalog()
	if err != nil {
		return nil, err
	}
	client.EndpointLocator = func(opts gophercloud.EndpointOpts) (string, error) {
		return openstack.V2EndpointURL(catalog, opts)
	}
	return client, nil
}
