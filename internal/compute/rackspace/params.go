package rackspace

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// DefaultIdentityEndpoint is the Rackspace cloud identity service.
const DefaultIdentityEndpoint = "https://identity.api.rackspacecloud.com/v2.0/"

// Environment variables consulted when a credential parameter is empty.
const (
	EnvCredsFile        = "RAX_CREDS_FILE"
	EnvUsername         = "RAX_USERNAME"
	EnvAPIKey           = "RAX_API_KEY"
	EnvRegion           = "RAX_REGION"
	EnvIdentityEndpoint = "RAX_IDENTITY_ENDPOINT"
)

// Params are the caller-facing parameters of the rax module.
type Params struct {
	State string `yaml:"state"`
	// Credentials is a YAML file holding username and api_key.
	Credentials      string            `yaml:"credentials"`
	Username         string            `yaml:"username"`
	APIKey           string            `yaml:"api_key"`
	Region           string            `yaml:"region"`
	IdentityEndpoint string            `yaml:"identity_endpoint"`
	Name             string            `yaml:"name"`
	Flavor           string            `yaml:"flavor"`
	Image            string            `yaml:"image"`
	Meta             map[string]string `yaml:"meta"`
	KeyName          string            `yaml:"key_name"`
	Files            map[string]string `yaml:"files"`
	DiskConfig       string            `yaml:"disk_config"`
	Wait             bool              `yaml:"wait"`
	// WaitTimeout is in seconds.
	WaitTimeout int `yaml:"wait_timeout"`
}

// Desired converts the parameters into a compute.Desired.
func (p Params) Desired() compute.Desired {
	return compute.Desired{
		Name:        strings.TrimSpace(p.Name),
		Flavor:      strings.TrimSpace(p.Flavor),
		Image:       strings.TrimSpace(p.Image),
		Meta:        p.Meta,
		KeyName:     p.KeyName,
		Files:       p.Files,
		DiskConfig:  strings.ToLower(strings.TrimSpace(p.DiskConfig)),
		State:       compute.ParseState(p.State),
		Wait:        p.Wait,
		WaitTimeout: time.Duration(p.WaitTimeout) * time.Second,
	}
}

// Credentials authenticate against the identity service.
type Credentials struct {
	Username         string `yaml:"username"`
	APIKey           string `yaml:"api_key"`
	Region           string `yaml:"region"`
	IdentityEndpoint string `yaml:"identity_endpoint"`
}

type credentialsFile struct {
	Username string `yaml:"username"`
	APIKey   string `yaml:"api_key"`
}

// ResolveCredentials fills credentials from, in order, the explicit
// parameters, the credentials file and the environment. lookup is usually
// os.LookupEnv.
func ResolveCredentials(p Params, lookup func(string) (string, bool)) (Credentials, error) {
	creds := Credentials{
		Username:         p.Username,
		APIKey:           p.APIKey,
		Region:           p.Region,
		IdentityEndpoint: p.IdentityEndpoint,
	}

	path := p.Credentials
	if path == "" {
		path = env(lookup, EnvCredsFile)
	}
	if path != "" && (creds.Username == "" || creds.APIKey == "") {
		file, err := readCredentialsFile(path)
		if err != nil {
			return Credentials{}, err
		}
		creds.Username = firstNonEmpty(creds.Username, file.Username)
		creds.APIKey = firstNonEmpty(creds.APIKey, file.APIKey)
	}

	creds.Username = firstNonEmpty(creds.Username, env(lookup, EnvUsername))
	creds.APIKey = firstNonEmpty(creds.APIKey, env(lookup, EnvAPIKey))
	creds.Region = strings.ToUpper(firstNonEmpty(creds.Region, env(lookup, EnvRegion)))
	creds.IdentityEndpoint = firstNonEmpty(creds.IdentityEndpoint, env(lookup, EnvIdentityEndpoint), DefaultIdentityEndpoint)

	switch {
	case creds.Username == "":
		return Credentials{}, convergoerrors.NewValidationError("username", fmt.Sprintf("required (or set %s)", EnvUsername), nil)
	case creds.APIKey == "":
		return Credentials{}, convergoerrors.NewValidationError("api_key", fmt.Sprintf("required (or set %s)", EnvAPIKey), nil)
	case creds.Region == "":
		return Credentials{}, convergoerrors.NewValidationError("region", fmt.Sprintf("required (or set %s)", EnvRegion), nil)
	}
	return creds, nil
}

func readCredentialsFile(path string) (credentialsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return credentialsFile{}, convergoerrors.NewFileLoadError(path, err)
	}
	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return credentialsFile{}, convergoerrors.NewParseError(path, 0, err)
	}
	return file, nil
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
