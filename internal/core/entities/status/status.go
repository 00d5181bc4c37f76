package status

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"

	"github.com/sergeii/mcscan/internal/core/entities/target"
	"github.com/sergeii/mcscan/pkg/minecraft/slp"
)

type Player struct {
	Username string    `json:"username"`
	ID       uuid.UUID `json:"id"`
}

// ServerStatus is the public status of a reachable server
type ServerStatus struct {
	Address       string    `json:"address"        validate:"required"`
	VersionName   string    `json:"version_name"`
	Protocol      int       `json:"protocol"`
	MOTD          string    `json:"motd"`
	MaxPlayers    int       `json:"max_players"`
	OnlinePlayers int       `json:"online_players"`
	Players       []Player  `json:"players"`
	DiscoveredAt  string    `json:"discovered_at"`
	ProbedAt      time.Time `json:"probed_at"`
}

var Blank ServerStatus

// NewFromResponse maps a status response into a ServerStatus.
// Sample entries with ids that are not valid UUIDs are dropped;
// their number is returned along with the status
func NewFromResponse(tgt target.Target, resp slp.Response, probedAt time.Time) (ServerStatus, int) {
	players, dropped := newPlayersFromSample(resp.Players.Sample)
	svrStatus := ServerStatus{
		Address:       tgt.Address,
		VersionName:   resp.Version.Name,
		Protocol:      resp.Version.Protocol,
		MOTD:          NormalizeMOTD(resp.Description),
		MaxPlayers:    resp.Players.Max,
		OnlinePlayers: resp.Players.Online,
		Players:       players,
		DiscoveredAt:  tgt.DiscoveredAt,
		ProbedAt:      probedAt,
	}
	return svrStatus, dropped
}

// NormalizeMOTD flattens either shape of the description into NFC normalized text
func NormalizeMOTD(desc slp.Description) string {
	return norm.NFC.String(desc.String())
}

// VersionSlug turns a version name such as "Paper 1.20.4" into "paper-1-20-4"
func VersionSlug(versionName string) string {
	return slug.Make(versionName)
}

func newPlayersFromSample(sample []slp.Sample) ([]Player, int) {
	players := make([]Player, 0, len(sample))
	dropped := 0
	for _, entry := range sample {
		id, err := uuid.Parse(entry.ID)
		if err != nil {
			dropped++
			continue
		}
		players = append(players, Player{Username: entry.Name, ID: id})
	}
	return players, dropped
}

func (s ServerStatus) Validate(v *validator.Validate) error {
	return v.Struct(&s)
}

func (s ServerStatus) String() string {
	return s.Address
}
