package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientOptionsFromURL(t *testing.T) {
	testCases := []struct {
		name         string
		url          string
		expectPrefix string
		expectErr    bool
	}{
		{name: "plain", url: "mqtt://localhost:1883/", expectPrefix: ""},
		{name: "with prefix", url: "mqtt://localhost:1883/brake/", expectPrefix: "brake/"},
		{name: "no scheme", url: "//broker:1883/a/b/", expectPrefix: "a/b/"},
		{name: "bad url", url: "://", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts, prefix, err := ClientOptionsFromURL(tc.url)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, opts)
			require.Equal(t, tc.expectPrefix, prefix)
		})
	}
}

func TestMatchFilter(t *testing.T) {
	testCases := []struct {
		filter, topic string
		match         bool
	}{
		{"brake/cmd", "brake/cmd", true},
		{"brake/cmd", "brake/peer", false},
		{"brake/#", "brake/cmd", true},
		{"brake/#", "brake/a/b", true},
		{"brake/#", "other/cmd", false},
		{"#", "anything/at/all", true},
		{"brake/+", "brake/cmd", true},
		{"brake/+", "brake/a/b", false},
		{"brake/+/x", "brake/a/x", true},
		{"brake/cmd", "brake/cmd/extra", false},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.match, matchFilter(tc.filter, tc.topic),
			"filter %q topic %q", tc.filter, tc.topic)
	}
}

func TestClientOptionsClientID(t *testing.T) {
	opts, _, err := ClientOptionsFromURL("mqtt://localhost:1883/brake/?client-id=braked-1")
	require.NoError(t, err)
	require.Equal(t, "braked-1", opts.ClientID)
}
