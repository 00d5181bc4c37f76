package model

import (
	"time"

	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/pkg/minecraft/styles"
)

type Server struct {
	Address       string    `json:"address"`
	VersionName   string    `json:"version_name"` // Paper 1.20.4, etc
	VersionSlug   string    `json:"version_slug"`
	Protocol      int       `json:"protocol"`
	MOTD          string    `json:"motd"`
	MOTDPlain     string    `json:"motd_plain"`
	MOTDHTML      string    `json:"motd_html"`
	MaxPlayers    int       `json:"max_players"`
	OnlinePlayers int       `json:"online_players"`
	DiscoveredAt  string    `json:"discovered_at"`
	ProbedAt      time.Time `json:"probed_at"`
}

func NewServerFromDomain(svr status.ServerStatus) Server {
	return Server{
		Address:       svr.Address,
		VersionName:   svr.VersionName,
		VersionSlug:   status.VersionSlug(svr.VersionName),
		Protocol:      svr.Protocol,
		MOTD:          svr.MOTD,
		MOTDPlain:     styles.Clean(svr.MOTD),
		MOTDHTML:      styles.ToHTML(svr.MOTD),
		MaxPlayers:    svr.MaxPlayers,
		OnlinePlayers: svr.OnlinePlayers,
		DiscoveredAt:  svr.DiscoveredAt,
		ProbedAt:      svr.ProbedAt,
	}
}

type ServerPlayer struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

type ServerDetail struct {
	Info    Server         `json:"info"`
	Players []ServerPlayer `json:"players"`
}

func NewServerDetailFromDomain(svr status.ServerStatus) ServerDetail {
	players := make([]ServerPlayer, 0, len(svr.Players))
	for _, p := range svr.Players {
		players = append(players, ServerPlayer{
			Username: p.Username,
			ID:       p.ID.String(),
		})
	}
	return ServerDetail{
		Info:    NewServerFromDomain(svr),
		Players: players,
	}
}
