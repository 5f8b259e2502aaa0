package remote

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/sbackup/internal/errors"
	"github.com/thoreinstein/sbackup/internal/logging"
)

func TestChecker_ProbeCommand(t *testing.T) {
	c := NewChecker(&fakeExecutor{})
	assert.Equal(t, []string{"ssh", "backup@nas", `echo "test"`}, c.ProbeCommand("backup@nas"))

	c = NewChecker(&fakeExecutor{}, WithSSHCommand("/usr/local/bin/ssh"))
	assert.Equal(t, "/usr/local/bin/ssh", c.ProbeCommand("nas")[0])
}

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name       string
		result     *Result
		wantErr    bool
		wantDetail string
	}{
		{
			name:   "exact reply",
			result: &Result{Stdout: []byte("test\n")},
		},
		{
			name:   "crlf reply",
			result: &Result{Stdout: []byte("test\r\n")},
		},
		{
			name:   "only the first line matters",
			result: &Result{Stdout: []byte("test\nWelcome to nas\n")},
		},
		{
			name:       "empty output",
			result:     &Result{ExitCode: 255, Stderr: []byte("ssh: Could not resolve hostname nas\n")},
			wantErr:    true,
			wantDetail: "ssh: Could not resolve hostname nas",
		},
		{
			name:    "different text",
			result:  &Result{Stdout: []byte("hello\n")},
			wantErr: true,
		},
		{
			name:    "banner before reply",
			result:  &Result{Stdout: []byte("Welcome\ntest\n")},
			wantErr: true,
		},
		{
			name:    "reply with trailing space",
			result:  &Result{Stdout: []byte("test \n")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeExecutor{results: []*Result{tt.result}}
			c := NewChecker(fake, WithCheckerLogger(logging.ForTest(t)))

			err := c.Check(context.Background(), "nas")

			require.Len(t, fake.calls, 1)
			assert.Equal(t, "ssh", fake.calls[0].Name)
			assert.Equal(t, []string{"nas", `echo "test"`}, fake.calls[0].Args)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConnectionFailed))
			if tt.wantDetail != "" {
				assert.Equal(t, []string{tt.wantDetail}, errors.Details(err))
			}
		})
	}
}

func TestChecker_LaunchFailure(t *testing.T) {
	fake := &fakeExecutor{err: exec.ErrNotFound}
	c := NewChecker(fake)

	err := c.Check(context.Background(), "nas")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConnectionFailed))
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
