package repository

import (
	"context"

	"telehealth-core/internal/domain/specialist"
	"telehealth-core/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SpecialistRepository struct{}

func NewSpecialistRepository() *SpecialistRepository {
	return &SpecialistRepository{}
}

const specialistSelect = `
SELECT id, name, timezone_offset_min, languages, rating, accepting, consultation_types
FROM specialists`

func (r *SpecialistRepository) FindByID(ctx context.Context, db infra.DBTX, id uuid.UUID) (*specialist.Specialist, error) {
	const query = specialistSelect + ` WHERE id = $1`

	s, err := scanSpecialist(db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows || isInvalidUUID(err) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "specialist not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "find specialist", err)
	}
	return s, nil
}

// FindByIDs loads directory attributes for the match engine's candidate pool.
// Missing ids are skipped, not errors: presence entries can outlive rows.
func (r *SpecialistRepository) FindByIDs(ctx context.Context, db infra.DBTX, ids []uuid.UUID) ([]*specialist.Specialist, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = specialistSelect + ` WHERE id = ANY($1)`

	rows, err := db.Query(ctx, query, ids)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "find specialists", err)
	}
	defer rows.Close()

	var result []*specialist.Specialist
	for rows.Next() {
		s, err := scanSpecialist(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "scan specialist", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "iterate specialists", err)
	}
	return result, nil
}

func scanSpecialist(row pgx.Row) (*specialist.Specialist, error) {
	var (
		id                uuid.UUID
		name              string
		timezoneOffsetMin int
		languages         []string
		rating            float64
		accepting         bool
		consultationTypes []string
	)
	if err := row.Scan(&id, &name, &timezoneOffsetMin, &languages, &rating, &accepting, &consultationTypes); err != nil {
		return nil, err
	}
	return specialist.NewSpecialist(id, name, timezoneOffsetMin, languages, rating, accepting, consultationTypes)
}
