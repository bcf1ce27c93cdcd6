package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
	"github.com/google/uuid"
)

type RoomRepository struct {
	db DBTX
}

func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) List(
	ctx context.Context,
	unitID *uuid.UUID,
) ([]models.Room, error) {
	args := []any{}
	whereParts := []string{"TRUE"}

	if unitID != nil {
		args = append(args, *unitID)
		whereParts = append(whereParts, fmt.Sprintf("unidade_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT id, unidade_id, nome, numero, cor, capacidade_maxima,
		       profissional_1_nome, profissional_2_nome, profissional_3_nome,
		       created_at, updated_at
		FROM salas
		WHERE %s
		ORDER BY numero ASC, id ASC
	`, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roomList := make([]models.Room, 0)
	for rows.Next() {
		var (
			room                models.Room
			prof1, prof2, prof3 *string
		)
		if err := rows.Scan(
			&room.ID,
			&room.UnitID,
			&room.Name,
			&room.Number,
			&room.Color,
			&room.Capacity,
			&prof1,
			&prof2,
			&prof3,
			&room.CreatedAt,
			&room.UpdatedAt,
		); err != nil {
			return nil, err
		}

		room.Professionals = make(models.SlotNames)
		for slot, name := range map[int]*string{1: prof1, 2: prof2, 3: prof3} {
			if name != nil && strings.TrimSpace(*name) != "" {
				room.Professionals[slot] = *name
			}
		}
		roomList = append(roomList, room)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return roomList, nil
}
