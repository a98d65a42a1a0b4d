package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in        string
		expected  Host
		metal     bool
		expectErr bool
	}{
		{in: "darwin", expected: Host{OS: Darwin}, metal: true},
		{in: "macOS", expected: Host{OS: Darwin}, metal: true},
		{in: "linux", expected: Host{OS: Linux}},
		{in: "Windows", expected: Host{OS: Windows}},
		{in: "auto", expected: Host{OS: runtime.GOOS}, metal: runtime.GOOS == "darwin"},
		{in: "", expected: Host{OS: runtime.GOOS}, metal: runtime.GOOS == "darwin"},
		{in: "amiga", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()

			host, err := Parse(tc.in)
			if tc.expectErr {
				require.ErrorContains(t, err, "invalid platform")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, host)
			require.Equal(t, tc.metal, host.MetalCapable())
		})
	}
}
