package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type ResultRepository interface {
	Save(ctx context.Context, result *entity.Result) error
	ListByRoom(ctx context.Context, code string) ([]*entity.Result, error)
}

type resultRepository struct {
	conn *sql.DB
}

func NewResultRepository(conn *sql.DB) ResultRepository {
	return &resultRepository{
		conn: conn,
	}
}

// Save - archiving the same game twice is a no-op.
func (that *resultRepository) Save(ctx context.Context, result *entity.Result) error {
	query := `INSERT INTO results (room_code, game_number, winner_id, is_draw, board, players, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	board, err := json.Marshal(result.Board)
	if err != nil {
		return fmt.Errorf("could not marshal board: %w", err)
	}

	players, err := json.Marshal(result.Players)
	if err != nil {
		return fmt.Errorf("could not marshal players: %w", err)
	}

	_, err = that.conn.ExecContext(ctx, query,
		result.RoomCode,
		result.GameNumber,
		result.WinnerID,
		result.IsDraw,
		string(board),
		string(players),
		result.FinishedAt.UTC().Format(time.RFC3339Nano),
	)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return nil
	}

	if err != nil {
		return fmt.Errorf("can't save result: %w", err)
	}

	return nil
}

func (that *resultRepository) ListByRoom(ctx context.Context, code string) ([]*entity.Result, error) {
	query := `SELECT room_code, game_number, winner_id, is_draw, board, players, finished_at
		FROM results WHERE room_code = ? ORDER BY game_number`

	rows, err := that.conn.QueryContext(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("can't list results: %w", err)
	}
	defer rows.Close()

	results := make([]*entity.Result, 0)
	for rows.Next() {
		var (
			result     entity.Result
			winnerID   sql.NullString
			board      string
			players    string
			finishedAt string
		)

		if err = rows.Scan(&result.RoomCode, &result.GameNumber, &winnerID, &result.IsDraw, &board, &players, &finishedAt); err != nil {
			return nil, fmt.Errorf("can't scan result: %w", err)
		}

		if winnerID.Valid {
			result.WinnerID = &winnerID.String
		}

		if err = json.Unmarshal([]byte(board), &result.Board); err != nil {
			return nil, fmt.Errorf("failed to unmarshal board: %w", err)
		}

		if err = json.Unmarshal([]byte(players), &result.Players); err != nil {
			return nil, fmt.Errorf("failed to unmarshal players: %w", err)
		}

		if result.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("failed to parse finish time: %w", err)
		}

		results = append(results, &result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list results: %w", err)
	}

	return results, nil
}
