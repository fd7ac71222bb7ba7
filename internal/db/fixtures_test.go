package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lalith-99/visaflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Embedded(t *testing.T) {
	f, err := Load(context.Background(), "", zap.NewNop())
	require.NoError(t, err)

	require.NotEmpty(t, f.Clients)
	require.NotEmpty(t, f.Applications)
	assert.Equal(t, "portal/client-abc123def", f.Clients[0].PortalLink)

	for _, a := range f.Applications {
		assert.NotZero(t, a.ClientID)
		assert.NotEmpty(t, a.VisaType)
	}
	assert.Equal(t, models.StatusInReview, f.Applications[0].Status)
	assert.Equal(t, "University of Sydney", f.Applications[0].FormData.ApplicationDetails.Institution)
}

func writeFixtures(t *testing.T, clients, apps string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, clientsFile), []byte(clients), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, applicationsFile), []byte(apps), 0o600))
	return dir
}

func TestLoad_FromDir(t *testing.T) {
	dir := writeFixtures(t,
		`[{"Id": 7, "name": "Only", "portalLink": "portal/client-only00001", "createdAt": "2024-01-01T00:00:00Z"}]`,
		`[]`,
	)

	f, err := Load(context.Background(), dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, f.Clients, 1)
	assert.Equal(t, int64(7), f.Clients[0].ID)
	assert.Empty(t, f.Applications)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		clients string
		apps    string
	}{
		{"duplicate client id", `[{"Id":1,"portalLink":"portal/a"},{"Id":1,"portalLink":"portal/b"}]`, `[]`},
		{"duplicate portal link", `[{"Id":1,"portalLink":"portal/a"},{"Id":2,"portalLink":"portal/a"}]`, `[]`},
		{"zero application id", `[]`, `[{"Id":0,"clientId":1}]`},
		{"malformed json", `[{`, `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFixtures(t, tt.clients, tt.apps)
			_, err := Load(context.Background(), dir, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"), zap.NewNop())
	assert.Error(t, err)
}
