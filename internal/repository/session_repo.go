package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gfreitas-a/ClinicRoomBack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ActiveSessionFilter narrows the fetch to one refresh cycle's scope: a
// single day, optionally one unit and one room. Only rows with a tabulated
// authorization code and a non-terminal status are returned.
type ActiveSessionFilter struct {
	Date   time.Time
	UnitID *uuid.UUID
	RoomID *uuid.UUID
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	id, sala_id, sala_nome, sala_numero, sala_cor, capacidade_maxima,
	profissional_1_nome, profissional_2_nome, profissional_3_nome,
	paciente_nome, data_agendamento, horario_inicio::text, horario_fim::text,
	status, profissional_ativo, sessao_iniciada_em,
	tempo_profissional_1, tempo_profissional_2, tempo_profissional_3,
	codigo_autorizacao, numero_guia, created_at, updated_at
`

func (r *SessionRepository) ListActive(
	ctx context.Context,
	filter ActiveSessionFilter,
) ([]models.Session, error) {
	args := []any{filter.Date}
	whereParts := []string{
		"data_agendamento = $1",
		"codigo_autorizacao IS NOT NULL",
		fmt.Sprintf("status IN ('%s', '%s')", models.StatusWaiting, models.StatusInSegment),
	}

	if filter.UnitID != nil {
		args = append(args, *filter.UnitID)
		whereParts = append(whereParts, fmt.Sprintf("unidade_id = $%d", len(args)))
	}
	if filter.RoomID != nil {
		args = append(args, *filter.RoomID)
		whereParts = append(whereParts, fmt.Sprintf("sala_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM vw_agendamentos_completo
		WHERE %s
		ORDER BY sala_numero ASC, horario_inicio ASC, id ASC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepository) GetByID(
	ctx context.Context,
	sessionID uuid.UUID,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM vw_agendamentos_completo
		WHERE id = $1
	`, sessionColumns)

	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

// BeginSegment atomically claims a professional slot for the session. The
// occupancy check runs inside the same UPDATE, so two operators acting on
// stale snapshots cannot both claim the slot: the loser matches no row and
// gets pgx.ErrNoRows back.
func (r *SessionRepository) BeginSegment(
	ctx context.Context,
	sessionID uuid.UUID,
	slot int,
) error {
	query := `
		UPDATE agendamentos
		SET profissional_ativo = $2,
		    sessao_iniciada_em = NOW(),
		    status = 'em_atendimento',
		    updated_at = NOW()
		WHERE id = $1
		  AND status = 'aguardando'
		  AND NOT EXISTS (
			SELECT 1
			FROM agendamentos outro
			WHERE outro.sala_id = agendamentos.sala_id
			  AND outro.id <> agendamentos.id
			  AND outro.status = 'em_atendimento'
			  AND outro.profissional_ativo = $2
		  )
		RETURNING id
	`
	var id uuid.UUID
	return r.db.QueryRow(ctx, query, sessionID, slot).Scan(&id)
}

// AdvanceRotation commits the elapsed minutes of the active segment into
// that slot's counter, clears the active slot, and recomputes completion in
// the same statement. A session that is not in a segment matches no row.
func (r *SessionRepository) AdvanceRotation(
	ctx context.Context,
	sessionID uuid.UUID,
	thresholdMinutes int,
) error {
	query := `
		WITH decorrido AS (
			SELECT id,
			       profissional_ativo AS slot,
			       GREATEST(0, FLOOR(EXTRACT(EPOCH FROM (NOW() - sessao_iniciada_em)) / 60))::int AS minutos
			FROM agendamentos
			WHERE id = $1
			  AND status = 'em_atendimento'
			  AND profissional_ativo IS NOT NULL
			  AND sessao_iniciada_em IS NOT NULL
		)
		UPDATE agendamentos a
		SET tempo_profissional_1 = a.tempo_profissional_1 + CASE WHEN d.slot = 1 THEN d.minutos ELSE 0 END,
		    tempo_profissional_2 = a.tempo_profissional_2 + CASE WHEN d.slot = 2 THEN d.minutos ELSE 0 END,
		    tempo_profissional_3 = a.tempo_profissional_3 + CASE WHEN d.slot = 3 THEN d.minutos ELSE 0 END,
		    profissional_ativo = NULL,
		    sessao_iniciada_em = NULL,
		    status = CASE WHEN
		        a.tempo_profissional_1 + CASE WHEN d.slot = 1 THEN d.minutos ELSE 0 END >= $2 AND
		        a.tempo_profissional_2 + CASE WHEN d.slot = 2 THEN d.minutos ELSE 0 END >= $2 AND
		        a.tempo_profissional_3 + CASE WHEN d.slot = 3 THEN d.minutos ELSE 0 END >= $2
		      THEN 'em_atendimento' ELSE 'aguardando' END,
		    updated_at = NOW()
		FROM decorrido d
		WHERE a.id = d.id
		RETURNING a.id
	`
	var id uuid.UUID
	return r.db.QueryRow(ctx, query, sessionID, thresholdMinutes).Scan(&id)
}

// Finalize terminally closes the session and drops its active professional
// reference. Already-closed sessions match no row.
func (r *SessionRepository) Finalize(ctx context.Context, sessionID uuid.UUID) error {
	query := `
		UPDATE agendamentos
		SET status = 'concluido',
		    profissional_ativo = NULL,
		    sessao_iniciada_em = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status <> 'concluido'
		RETURNING id
	`
	var id uuid.UUID
	return r.db.QueryRow(ctx, query, sessionID).Scan(&id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		session                models.Session
		prof1, prof2, prof3    *string
		tempo1, tempo2, tempo3 int
	)

	err := row.Scan(
		&session.ID,
		&session.RoomID,
		&session.RoomName,
		&session.RoomNumber,
		&session.RoomColor,
		&session.RoomCapacity,
		&prof1,
		&prof2,
		&prof3,
		&session.PatientName,
		&session.Date,
		&session.StartTime,
		&session.EndTime,
		&session.Status,
		&session.ActiveSlot,
		&session.SegmentStartedAt,
		&tempo1,
		&tempo2,
		&tempo3,
		&session.AuthorizationCode,
		&session.GuideNumber,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Professionals = make(models.SlotNames)
	for slot, name := range map[int]*string{1: prof1, 2: prof2, 3: prof3} {
		if name != nil && strings.TrimSpace(*name) != "" {
			session.Professionals[slot] = *name
		}
	}
	session.SlotMinutes = models.SlotMinutes{1: tempo1, 2: tempo2, 3: tempo3}

	return &session, nil
}
