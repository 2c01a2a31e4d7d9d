package cloudstack

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// Environment variables consulted when a parameter is empty.
const (
	EnvAPIKey    = "CLOUDSTACK_API_KEY"
	EnvSecretKey = "CLOUDSTACK_SECRET_KEY"
	EnvEndpoint  = "CLOUDSTACK_ENDPOINT"
	EnvZone      = "CLOUDSTACK_ZONE"
)

// Params are the caller-facing parameters of the cloudstack module.
type Params struct {
	APIKey     string            `yaml:"api_key"`
	SecretKey  string            `yaml:"secret_key"`
	APIHost    string            `yaml:"api_host"`
	Name       string            `yaml:"name"`
	TemplateID string            `yaml:"template_id"`
	OfferingID string            `yaml:"offering_id"`
	ZoneID     string            `yaml:"zone_id"`
	KeyName    string            `yaml:"key_name"`
	NetworkID  string            `yaml:"network_id"`
	Meta       map[string]string `yaml:"meta"`
	Wait       bool              `yaml:"wait"`
	// WaitFor is in seconds.
	WaitFor   int    `yaml:"wait_for"`
	State     string `yaml:"state"`
	VerifySSL *bool  `yaml:"verify_ssl"`
	// Expunge skips the recoverable Destroyed state on delete.
	Expunge bool `yaml:"expunge"`
}

// Desired converts the parameters into a compute.Desired. Templates map to
// images and service offerings to flavors.
func (p Params) Desired(lookup func(string) (string, bool)) compute.Desired {
	return compute.Desired{
		Name:        strings.TrimSpace(p.Name),
		Flavor:      strings.TrimSpace(p.OfferingID),
		Image:       strings.TrimSpace(p.TemplateID),
		Meta:        p.Meta,
		KeyName:     p.KeyName,
		Network:     p.NetworkID,
		Zone:        firstNonEmpty(p.ZoneID, env(lookup, EnvZone)),
		State:       compute.ParseState(p.State),
		Wait:        p.Wait,
		WaitTimeout: time.Duration(p.WaitFor) * time.Second,
	}
}

// Credentials address and sign requests to a CloudStack API.
type Credentials struct {
	Endpoint  string
	APIKey    string
	SecretKey string
	VerifySSL bool
}

// ResolveCredentials fills credentials from the parameters, falling back to
// the environment. lookup is usually os.LookupEnv.
func ResolveCredentials(p Params, lookup func(string) (string, bool)) (Credentials, error) {
	creds := Credentials{
		Endpoint:  firstNonEmpty(p.APIHost, env(lookup, EnvEndpoint)),
		APIKey:    firstNonEmpty(p.APIKey, env(lookup, EnvAPIKey)),
		SecretKey: firstNonEmpty(p.SecretKey, env(lookup, EnvSecretKey)),
		VerifySSL: true,
	}
	if p.VerifySSL != nil {
		creds.VerifySSL = *p.VerifySSL
	}

	switch {
	case creds.APIKey == "":
		return Credentials{}, convergoerrors.NewValidationError("api_key", fmt.Sprintf("required (or set %s)", EnvAPIKey), nil)
	case creds.SecretKey == "":
		return Credentials{}, convergoerrors.NewValidationError("secret_key", fmt.Sprintf("required (or set %s)", EnvSecretKey), nil)
	case creds.Endpoint == "":
		return Credentials{}, convergoerrors.NewValidationError("api_host", fmt.Sprintf("required (or set %s)", EnvEndpoint), nil)
	}
	creds.Endpoint = apiURL(creds.Endpoint)
	return creds, nil
}

// apiURL accepts either a bare host or a full API URL.
func apiURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	if !strings.HasSuffix(host, "/client/api") {
		host += "/client/api"
	}
	return host
}

func env(lookup func(string) (string, bool), key string) string {
	if lookup == nil {
		return ""
	}
	v, _ := lookup(key)
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
