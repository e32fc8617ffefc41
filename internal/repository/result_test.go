package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
)

func finishedRoom(t *testing.T, code string) *entity.Room {
	t.Helper()

	room := newRoom(t, code)
	room, err := tictactoe.Join(room, tictactoe.Seat{ID: "p1"}, testNow)
	require.NoError(t, err)

	for _, cell := range []int{0, 3, 1, 4, 2} {
		room, _, err = tictactoe.MakeTurn(room, room.CurrentPlayer().ID, cell, testNow)
		require.NoError(t, err)
	}
	require.True(t, room.IsFinished())

	return room
}

func TestResultRepository(t *testing.T) {
	t.Run("Save and list", func(t *testing.T) {
		sqliteStorage := suite.NewSQLite(t)
		resultRepo := NewResultRepository(sqliteStorage.Connection)

		// Given: a finished game
		result := entity.NewResult(finishedRoom(t, "RES001"))

		// When: it is archived
		err := resultRepo.Save(context.Background(), result)
		require.NoError(t, err)

		// Then: it is listed for its room only
		results, err := resultRepo.ListByRoom(context.Background(), "RES001")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, result, results[0])

		others, err := resultRepo.ListByRoom(context.Background(), "OTHER0")
		require.NoError(t, err)
		assert.Empty(t, others)
	})

	t.Run("Saving the same game twice keeps one row", func(t *testing.T) {
		sqliteStorage := suite.NewSQLite(t)
		resultRepo := NewResultRepository(sqliteStorage.Connection)

		result := entity.NewResult(finishedRoom(t, "RES002"))

		require.NoError(t, resultRepo.Save(context.Background(), result))
		require.NoError(t, resultRepo.Save(context.Background(), result))

		results, err := resultRepo.ListByRoom(context.Background(), "RES002")
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("Draw has no winner", func(t *testing.T) {
		sqliteStorage := suite.NewSQLite(t)
		resultRepo := NewResultRepository(sqliteStorage.Connection)

		room := newRoom(t, "RES003")
		room, err := tictactoe.Join(room, tictactoe.Seat{ID: "p1"}, testNow)
		require.NoError(t, err)
		for _, cell := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
			room, _, err = tictactoe.MakeTurn(room, room.CurrentPlayer().ID, cell, testNow)
			require.NoError(t, err)
		}

		require.NoError(t, resultRepo.Save(context.Background(), entity.NewResult(room)))

		results, err := resultRepo.ListByRoom(context.Background(), "RES003")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Nil(t, results[0].WinnerID)
		assert.True(t, results[0].IsDraw)
	})
}
