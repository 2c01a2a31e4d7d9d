package hosts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

func TestParseEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		line  string
		want  Entry
		valid bool
	}{
		{"ip and name", "127.0.0.1 localhost", Entry{IP: "127.0.0.1", Hostname: "localhost"}, true},
		{"aliases comma joined", "10.0.0.1\tdb  db.local   db-primary", Entry{IP: "10.0.0.1", Hostname: "db", Aliases: "db.local,db-primary"}, true},
		{"ip only", "10.0.0.2", Entry{IP: "10.0.0.2"}, true},
		{"trailing space", "192.168.1.1 host1 ", Entry{IP: "192.168.1.1", Hostname: "host1"}, true},
		{"comment", "# 127.0.0.1 localhost", Entry{}, false},
		{"indented comment", "   #comment", Entry{}, false},
		{"blank", "   ", Entry{}, false},
		{"empty", "", Entry{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseEntry(tt.line)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParamsDesired(t *testing.T) {
	t.Parallel()

	d := Params{IP: " 127.0.0.1 ", Hostname: "localhost", Aliases: "foo, bar,,baz "}.Desired()
	assert.Equal(t, "127.0.0.1", d.IP)
	assert.Equal(t, []string{"foo", "bar", "baz"}, d.Aliases)
	assert.Equal(t, reconcile.TargetPresent, d.State)
	assert.Equal(t, "foo,bar,baz", d.AliasColumn())
	assert.Equal(t, "127.0.0.1 localhost foo bar baz", d.Line())

	bare := Params{IP: "192.168.1.1", Hostname: "host1", State: "ABSENT"}.Desired()
	assert.Nil(t, bare.Aliases)
	assert.Equal(t, reconcile.TargetAbsent, bare.State)
	assert.Equal(t, "192.168.1.1 host1 ", bare.Line())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		desired   Desired
		wantField string
	}{
		{"present with both", Desired{IP: "10.0.0.1", Hostname: "db", State: reconcile.TargetPresent}, ""},
		{"present without ip", Desired{Hostname: "db", State: reconcile.TargetPresent}, "ip"},
		{"present without hostname", Desired{IP: "10.0.0.1", State: reconcile.TargetPresent}, "hostname"},
		{"absent with ip only", Desired{IP: "10.0.0.1", State: reconcile.TargetAbsent}, ""},
		{"absent with hostname only", Desired{Hostname: "db", State: reconcile.TargetAbsent}, ""},
		{"absent with neither", Desired{State: reconcile.TargetAbsent}, "ip"},
		{"absent with both", Desired{IP: "10.0.0.1", Hostname: "db", State: reconcile.TargetAbsent}, "ip"},
		{"malformed ip", Desired{IP: "10.0.0", Hostname: "db", State: reconcile.TargetPresent}, "ip"},
		{"malformed hostname", Desired{IP: "10.0.0.1", Hostname: "bad host", State: reconcile.TargetPresent}, "hostname"},
		{"malformed alias", Desired{IP: "10.0.0.1", Hostname: "db", Aliases: []string{"ok", "no#way"}, State: reconcile.TargetPresent}, "aliases[1]"},
		{"underscore alias", Desired{IP: "10.0.0.1", Hostname: "db", Aliases: []string{"db_primary"}, State: reconcile.TargetPresent}, ""},
		{"zoned ipv6", Desired{IP: "fe80::1%eth0", Hostname: "router", State: reconcile.TargetPresent}, ""},
		{"unknown state", Desired{IP: "10.0.0.1", Hostname: "db", State: "stopped"}, "state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.desired)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var valErr *convergoerrors.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.wantField, valErr.Field)
		})
	}
}

func observedFrom(entries ...Entry) []reconcile.Observed[Entry] {
	out := make([]reconcile.Observed[Entry], 0, len(entries))
	for i, e := range entries {
		out = append(out, reconcile.Observed[Entry]{Handle: reconcile.IndexHandle(i), Entry: e})
	}
	return out
}

func TestMatch(t *testing.T) {
	t.Parallel()

	localhost := Entry{IP: "127.0.0.1", Hostname: "localhost"}
	aliased := Entry{IP: "127.0.0.1", Hostname: "localhost", Aliases: "foo,bar"}

	tests := []struct {
		name      string
		desired   Desired
		observed  []reconcile.Observed[Entry]
		identity  bool
		full      bool
		wantIndex int
	}{
		{
			name:     "nothing observed",
			desired:  Desired{IP: "127.0.0.1", Hostname: "localhost"},
			observed: nil,
		},
		{
			name:      "exact without aliases",
			desired:   Desired{IP: "127.0.0.1", Hostname: "localhost"},
			observed:  observedFrom(localhost),
			identity:  true,
			full:      true,
			wantIndex: 0,
		},
		{
			name:      "desired without aliases ignores observed aliases",
			desired:   Desired{IP: "127.0.0.1", Hostname: "localhost"},
			observed:  observedFrom(aliased),
			identity:  true,
			full:      true,
			wantIndex: 0,
		},
		{
			name:      "missing aliases is partial",
			desired:   Desired{IP: "127.0.0.1", Hostname: "localhost", Aliases: []string{"foo", "bar"}},
			observed:  observedFrom(localhost),
			identity:  true,
			full:      false,
			wantIndex: 0,
		},
		{
			name:      "alias order matters",
			desired:   Desired{IP: "127.0.0.1", Hostname: "localhost", Aliases: []string{"bar", "foo"}},
			observed:  observedFrom(aliased),
			identity:  true,
			full:      false,
			wantIndex: 0,
		},
		{
			name:      "ip alone locates the entry but is not a full match",
			desired:   Desired{IP: "127.0.0.1", Hostname: "other"},
			observed:  observedFrom(localhost),
			identity:  true,
			full:      false,
			wantIndex: 0,
		},
		{
			name:      "hostname alone locates the entry but is not a full match",
			desired:   Desired{IP: "10.9.9.9", Hostname: "localhost"},
			observed:  observedFrom(localhost),
			identity:  true,
			full:      false,
			wantIndex: 0,
		},
		{
			name:      "absent by hostname never fully matches",
			desired:   Desired{Hostname: "localhost", State: reconcile.TargetAbsent},
			observed:  observedFrom(localhost),
			identity:  true,
			full:      false,
			wantIndex: 0,
		},
		{
			name:    "first identity match wins over a later full match",
			desired: Desired{IP: "10.0.0.2", Hostname: "web"},
			observed: observedFrom(
				Entry{IP: "10.0.0.1", Hostname: "db"},
				Entry{IP: "10.0.0.9", Hostname: "web"},
				Entry{IP: "10.0.0.2", Hostname: "web"},
			),
			identity:  true,
			full:      false,
			wantIndex: 1,
		},
		{
			name:    "aliases of later duplicates are never inspected",
			desired: Desired{IP: "127.0.0.1", Hostname: "localhost", Aliases: []string{"foo", "bar"}},
			observed: observedFrom(
				localhost,
				aliased,
			),
			identity:  true,
			full:      false,
			wantIndex: 0,
		},
		{
			name:     "aliases are not identity",
			desired:  Desired{IP: "10.0.0.3", Hostname: "foo"},
			observed: observedFrom(aliased),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Match(tt.desired, tt.observed)
			assert.Equal(t, tt.identity, got.IdentityMatch, "identity")
			assert.Equal(t, tt.full, got.FullMatch, "full")
			if tt.identity {
				assert.Equal(t, tt.wantIndex, got.Handle.Index())
			} else {
				assert.False(t, got.Handle.Valid())
			}
			if got.FullMatch {
				assert.True(t, got.IdentityMatch)
			}
		})
	}
}
