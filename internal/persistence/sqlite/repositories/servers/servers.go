package servers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sergeii/mcscan/internal/core/entities/filterset"
	"github.com/sergeii/mcscan/internal/core/entities/status"
	"github.com/sergeii/mcscan/internal/core/repositories"
)

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, svr status.ServerStatus) error {
	item, err := json.Marshal(svr)
	if err != nil {
		return fmt.Errorf("save: marshal: %w", err)
	}

	// `excluded` refers to the row that caused the conflict
	const query = `
INSERT INTO servers (address, version_slug, online_players, probed_at, item)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(address)
DO UPDATE SET
	version_slug = excluded.version_slug,
	online_players = excluded.online_players,
	probed_at = excluded.probed_at,
	item = excluded.item;
`
	_, err = r.db.ExecContext(
		ctx, query,
		svr.Address,
		status.VersionSlug(svr.VersionName),
		svr.OnlinePlayers,
		svr.ProbedAt.UnixNano(),
		string(item),
	)
	if err != nil {
		return fmt.Errorf("save: exec: %w", err)
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, address string) (status.ServerStatus, error) {
	var item string
	row := r.db.QueryRowContext(ctx, `SELECT item FROM servers WHERE address = ?;`, address)
	if err := row.Scan(&item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.Blank, repositories.ErrServerNotFound
		}
		return status.Blank, fmt.Errorf("get: %w", err)
	}
	return decodeServer(item)
}

func (r *Repository) List(ctx context.Context, fs filterset.ServerFilterSet) ([]status.ServerStatus, error) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if minPlayers, ok := fs.GetMinPlayers(); ok {
		conds = append(conds, "online_players >= ?")
		args = append(args, minPlayers)
	}
	if versionSlug, ok := fs.GetVersionSlug(); ok {
		conds = append(conds, "version_slug = ?")
		args = append(args, versionSlug)
	}
	if probedAfter, ok := fs.GetProbedAfter(); ok {
		conds = append(conds, "probed_at >= ?")
		args = append(args, probedAfter.UnixNano())
	}

	query := "SELECT item FROM servers"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY probed_at DESC, address ASC;"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: query: %w", err)
	}
	defer rows.Close() // nolint: errcheck

	servers := make([]status.ServerStatus, 0)
	for rows.Next() {
		var item string
		if err = rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		svr, err := decodeServer(item)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		servers = append(servers, svr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return servers, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM servers;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}

func decodeServer(item string) (status.ServerStatus, error) {
	var svr status.ServerStatus
	if err := json.Unmarshal([]byte(item), &svr); err != nil {
		return status.Blank, fmt.Errorf("unmarshal: %w", err)
	}
	if svr.Players == nil {
		svr.Players = []status.Player{}
	}
	return svr, nil
}
