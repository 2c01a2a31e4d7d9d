package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("tasks.yaml", 12, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "tasks.yaml", parseErr.Path)
	require.Equal(t, 12, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "tasks.yaml:12")
}

func TestValidationErrorIncludesField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("hostname", "required when state is present", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "hostname", validationErr.Field)
	require.Equal(t, "validation error: hostname: required when state is present", err.Error())
}

func TestObservationErrorIncludesTarget(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("permission denied")
	err := NewObservationError("/etc/hosts", underlying)

	var obsErr *ObservationError
	require.ErrorAs(t, err, &obsErr)
	require.Equal(t, "/etc/hosts", obsErr.Target)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestFileLoadErrorIncludesPath(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("no such file")
	err := NewFileLoadError("/tmp/missing", underlying)

	var loadErr *FileLoadError
	require.ErrorAs(t, err, &loadErr)
	require.Contains(t, err.Error(), "/tmp/missing")
	require.True(t, stdErrors.Is(err, underlying))
}

func TestProviderErrorMessages(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("instance entered ERROR")

	tests := []struct {
		name     string
		provider string
		id       string
		want     string
	}{
		{"provider and id", "rax", "abc", "provider error [rax] on abc: instance entered ERROR"},
		{"provider only", "rax", "", "provider error [rax]: instance entered ERROR"},
		{"id only", "", "abc", "provider error on abc: instance entered ERROR"},
		{"bare", "", "", "provider error: instance entered ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewProviderError(tt.provider, tt.id, underlying)
			require.Equal(t, tt.want, err.Error())
			require.True(t, stdErrors.Is(err, underlying))
		})
	}
}

func TestTimeoutErrorReportsAttempts(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("srv-1", "ACTIVE", 3)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, 3, timeoutErr.Attempts)
	require.Equal(t, "timeout waiting for srv-1 to become ACTIVE after 3 attempts", err.Error())
}

func TestNilReceiversAreSafe(t *testing.T) {
	t.Parallel()

	var parseErr *ParseError
	var valErr *ValidationError
	var obsErr *ObservationError
	var provErr *ProviderError

	require.Empty(t, parseErr.Error())
	require.Empty(t, valErr.Error())
	require.Empty(t, obsErr.Error())
	require.Empty(t, provErr.Error())
	require.Nil(t, provErr.Unwrap())
}
