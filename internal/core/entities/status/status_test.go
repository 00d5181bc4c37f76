package status_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/entities/target"
	"github.com/sergeii/mcscan/internal/validation"
	"github.com/sergeii/mcscan/pkg/minecraft/slp"
)

func decodeResponse(t *testing.T, payload string) slp.Response {
	var resp slp.Response
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))
	return resp
}

func TestNewFromResponse_OK(t *testing.T) {
	probedAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	tgt := target.New("1.1.1.1:25565", "1727784000")
	resp := decodeResponse(t, `{
		"version": {"name": "1.20.4", "protocol": 765},
		"players": {
			"max": 100,
			"online": 5,
			"sample": [{"name": "thinkofdeath", "id": "4566e69f-c907-48ee-8d71-d7ba5aa00d20"}]
		},
		"description": {"text": "Hello world"}
	}`)

	got, dropped := status.NewFromResponse(tgt, resp, probedAt)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, status.ServerStatus{
		Address:       "1.1.1.1:25565",
		VersionName:   "1.20.4",
		Protocol:      765,
		MOTD:          "Hello world",
		MaxPlayers:    100,
		OnlinePlayers: 5,
		Players: []status.Player{
			{Username: "thinkofdeath", ID: uuid.MustParse("4566e69f-c907-48ee-8d71-d7ba5aa00d20")},
		},
		DiscoveredAt: "1727784000",
		ProbedAt:     probedAt,
	}, got)
}

func TestNewFromResponse_DescriptionShapes(t *testing.T) {
	tgt := target.New("1.1.1.1", "2024-10-01T12:00:00Z")
	plain := decodeResponse(t, `{"version":{"name":"1.8"},"players":{"max":20},"description":"A Minecraft Server"}`)
	object := decodeResponse(t, `{"version":{"name":"1.8"},"players":{"max":20},"description":{"text":"A Minecraft Server"}}`)
	split := decodeResponse(
		t, `{"version":{"name":"1.8"},"players":{"max":20},"description":{"text":"A ","extra":["Minecraft ",{"text":"Server"}]}}`,
	)

	fromPlain, _ := status.NewFromResponse(tgt, plain, time.Time{})
	fromObject, _ := status.NewFromResponse(tgt, object, time.Time{})
	fromSplit, _ := status.NewFromResponse(tgt, split, time.Time{})

	assert.Equal(t, "A Minecraft Server", fromPlain.MOTD)
	assert.Equal(t, fromPlain.MOTD, fromObject.MOTD)
	assert.Equal(t, fromPlain.MOTD, fromSplit.MOTD)
	assert.Equal(t, fromPlain, fromObject)
}

func TestNewFromResponse_MOTDIsNormalized(t *testing.T) {
	tgt := target.New("1.1.1.1", "")
	// "é" as a single code point and as "e" followed by a combining acute accent
	composed := decodeResponse(t, `{"description":"Caf\u00e9"}`)
	decomposed := decodeResponse(t, `{"description":{"text":"Cafe\u0301"}}`)

	fromComposed, _ := status.NewFromResponse(tgt, composed, time.Time{})
	fromDecomposed, _ := status.NewFromResponse(tgt, decomposed, time.Time{})
	assert.Equal(t, "Caf\u00e9", fromComposed.MOTD)
	assert.Equal(t, fromComposed.MOTD, fromDecomposed.MOTD)
}

func TestNewFromResponse_SampleFiltering(t *testing.T) {
	tests := []struct {
		name        string
		sample      string
		wantPlayers []status.Player
		wantDropped int
	}{
		{
			"no sample",
			`null`,
			[]status.Player{},
			0,
		},
		{
			"empty sample",
			`[]`,
			[]status.Player{},
			0,
		},
		{
			"one valid one invalid",
			`[{"name":"Notch","id":"069a79f4-44e9-4726-a5be-fca90e38aaf5"},{"name":"§aAnonymous","id":"not-a-uuid"}]`,
			[]status.Player{
				{Username: "Notch", ID: uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")},
			},
			1,
		},
		{
			"all invalid",
			`[{"name":"one","id":""},{"name":"two","id":"00000000-0000-0000-0000-00000000000z"}]`,
			[]status.Player{},
			2,
		},
		{
			"order is preserved",
			`[{"name":"b","id":"4566e69f-c907-48ee-8d71-d7ba5aa00d20"},{"name":"a","id":"069a79f4-44e9-4726-a5be-fca90e38aaf5"}]`,
			[]status.Player{
				{Username: "b", ID: uuid.MustParse("4566e69f-c907-48ee-8d71-d7ba5aa00d20")},
				{Username: "a", ID: uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")},
			},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := decodeResponse(t, `{"players":{"max":10,"online":2,"sample":`+tt.sample+`}}`)
			got, dropped := status.NewFromResponse(target.New("1.1.1.1", ""), resp, time.Time{})
			assert.NotNil(t, got.Players)
			assert.Equal(t, tt.wantPlayers, got.Players)
			assert.Equal(t, tt.wantDropped, dropped)
			assert.Equal(t, 10, got.MaxPlayers)
		})
	}
}

func TestServerStatus_Validate(t *testing.T) {
	validate := validation.MustNew()

	valid := status.ServerStatus{Address: "1.1.1.1", MaxPlayers: 20, OnlinePlayers: 1}
	require.NoError(t, valid.Validate(validate))

	// proxies hiding their player counts report negative values
	hidden := status.ServerStatus{Address: "1.1.1.1", MaxPlayers: -1, OnlinePlayers: -1}
	require.NoError(t, hidden.Validate(validate))

	noAddress := status.ServerStatus{MaxPlayers: 20}
	require.Error(t, noAddress.Validate(validate))
}
