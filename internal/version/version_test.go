package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current string
		latest  string
		want    bool
	}{
		{"newer patch", "v1.2.3", "v1.2.4", true},
		{"newer minor", "1.2.3", "1.3.0", true},
		{"newer major", "1.9.9", "2.0.0", true},
		{"equal", "v1.2.3", "1.2.3", false},
		{"older", "1.3.0", "1.2.9", false},
		{"dev build always older", "dev", "v0.0.1", true},
		{"commit hash treated as dev", "ab12cd3", "v1.0.0", true},
		{"latest dev never newer", "v1.0.0", "dev", false},
		{"prerelease suffix ignored", "1.2.3", "1.2.4-rc1", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNewer(tt.current, tt.latest))
		})
	}
}

func TestClient_LatestRelease(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/polagate/dotledger/releases/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tag_name": "v1.4.0", "name": "v1.4.0"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	release, err := c.LatestRelease(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", release.TagName)
}

func TestClient_LatestRelease_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.LatestRelease(context.Background())
	assert.ErrorIs(t, err, ErrReleaseFetchFailed)
}
