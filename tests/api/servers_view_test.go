package api_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/testutils"
	"github.com/sergeii/mcscan/tests/testapp"
)

type serverDetailPlayerSchema struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

type serverDetailSchema struct {
	Info    serverListSchema           `json:"info"`
	Players []serverDetailPlayerSchema `json:"players"`
}

func TestAPI_ViewServer_OK(t *testing.T) {
	ts, repo, cancel := testapp.PrepareTestServerWithRepo(t)
	defer cancel()

	playerID := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	require.NoError(t, repo.Save(context.TODO(), status.ServerStatus{
		Address:       "mc.example.com",
		VersionName:   "Velocity 3.3.0",
		Protocol:      765,
		MOTD:          "§6Welcome",
		MaxPlayers:    500,
		OnlinePlayers: 1,
		Players:       []status.Player{{Username: "Notch", ID: playerID}},
		DiscoveredAt:  "2024-03-01T12:00:00Z",
		ProbedAt:      time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC),
	}))

	tests := []struct {
		name    string
		address string
	}{
		{"as stored", "mc.example.com"},
		{"with default port", "mc.example.com:25565"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var detail serverDetailSchema
			resp := testutils.Get(
				t, ts, "/api/servers/"+url.PathEscape(tt.address),
				testutils.BindJSON(&detail),
			)

			assert.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, "mc.example.com", detail.Info.Address)
			assert.Equal(t, "Velocity 3.3.0", detail.Info.VersionName)
			assert.Equal(t, "velocity-3-3-0", detail.Info.VersionSlug)
			assert.Equal(t, "Welcome", detail.Info.MOTDPlain)
			assert.Equal(t, `<span style="color:#FFAA00;">Welcome</span>`, detail.Info.MOTDHTML)
			assert.Equal(t, 500, detail.Info.MaxPlayers)
			assert.Equal(t, 1, detail.Info.OnlinePlayers)
			assert.Equal(t, []serverDetailPlayerSchema{
				{Username: "Notch", ID: "069a79f4-44e9-4726-a5be-fca90e38aaf5"},
			}, detail.Players)
		})
	}
}

func TestAPI_ViewServer_NoPlayers(t *testing.T) {
	ts, repo, cancel := testapp.PrepareTestServerWithRepo(t)
	defer cancel()

	require.NoError(t, repo.Save(context.TODO(), status.ServerStatus{
		Address:     "1.1.1.1:25566",
		VersionName: "1.20.4",
		ProbedAt:    time.Now(),
	}))

	resp := testutils.Get(t, ts, "/api/servers/1.1.1.1:25566")

	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Body, `"players":[]`)
}

func TestAPI_ViewServer_NotFound(t *testing.T) {
	ts, repo, cancel := testapp.PrepareTestServerWithRepo(t)
	defer cancel()

	require.NoError(t, repo.Save(context.TODO(), status.ServerStatus{
		Address:  "1.1.1.1:25566",
		ProbedAt: time.Now(),
	}))

	for _, address := range []string{"2.2.2.2", "1.1.1.1", "1.1.1.1:25565"} {
		resp := testutils.Get(
			t, ts, "/api/servers/"+address,
			testutils.ExpectNoBody(),
		)
		assert.Equal(t, 404, resp.StatusCode, address)
	}
}

func TestAPI_ViewServer_InvalidAddress(t *testing.T) {
	ts, cancel := testapp.PrepareTestServer(t)
	defer cancel()

	for _, address := range []string{"1.1.1.1:0", "1.1.1.1:99999", "1.1.1.1:port"} {
		var body map[string]string
		resp := testutils.Get(
			t, ts, "/api/servers/"+address,
			testutils.BindJSON(&body),
		)
		assert.Equal(t, 400, resp.StatusCode, address)
		assert.Equal(t, "Invalid server address", body["error"])
	}
}
