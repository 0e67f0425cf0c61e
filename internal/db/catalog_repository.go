package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/model"
)

// CatalogRepository reads and writes catalog records. It implements
// catalog.Source.
type CatalogRepository struct {
	db *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

var _ catalog.Source = (*CatalogRepository)(nil)

// Load reads every catalog table in one read-only snapshot transaction.
func (r *CatalogRepository) Load(ctx context.Context) (*catalog.Records, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning catalog read: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec := &catalog.Records{}
	loaders := []struct {
		name string
		load func(context.Context, pgx.Tx, *catalog.Records) error
	}{
		{"effects", loadEffects},
		{"abilities", loadAbilities},
		{"links", loadLinks},
		{"messages", loadMessages},
		{"restrictions", loadRestrictions},
		{"damage components", loadDamage},
	}
	for _, l := range loaders {
		if err := l.load(ctx, tx, rec); err != nil {
			return nil, fmt.Errorf("loading %s: %w", l.name, err)
		}
	}
	return rec, nil
}

func loadEffects(ctx context.Context, tx pgx.Tx, rec *catalog.Records) error {
	rows, err := tx.Query(ctx, `SELECT id, name, kind, params FROM effect_definitions ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying effect definitions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e    catalog.EffectDefinition
			kind string
		)
		if err := rows.Scan(&e.ID, &e.Name, &kind, &e.Params); err != nil {
			return fmt.Errorf("scanning effect row: %w", err)
		}
		k, ok := catalog.ParseEffectKind(kind)
		if !ok {
			return fmt.Errorf("effect %d: unknown kind %q", e.ID, kind)
		}
		e.Kind = k
		rec.Effects = append(rec.Effects, e)
	}
	return rows.Err()
}

func loadAbilities(ctx context.Context, tx pgx.Tx, rec *catalog.Records) error {
	rows, err := tx.Query(ctx, `
		SELECT id, name, plain_name, kind, toggle, violent, target_flags
		FROM abilities ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying abilities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a     catalog.Ability
			kind  string
			flags []string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.PlainName, &kind, &a.Toggle, &a.Violent, &flags); err != nil {
			return fmt.Errorf("scanning ability row: %w", err)
		}
		k, ok := catalog.ParseAbilityKind(kind)
		if !ok {
			return fmt.Errorf("ability %d: unknown kind %q", a.ID, kind)
		}
		f, ok := catalog.ParseTargetFlags(flags)
		if !ok {
			return fmt.Errorf("ability %d: unknown target flag in %v", a.ID, flags)
		}
		if len(flags) == 0 {
			f = catalog.TargetIgnore
		}
		a.Kind, a.TargetFlags = k, f
		rec.Abilities = append(rec.Abilities, a)
	}
	return rows.Err()
}

func loadLinks(ctx context.Context, tx pgx.Tx, rec *catalog.Records) error {
	rows, err := tx.Query(ctx, `
		SELECT ability_id, effect_id, sort_order, phase, chance_percent, condition, overrides
		FROM ability_effects ORDER BY ability_id, sort_order`)
	if err != nil {
		return fmt.Errorf("querying ability effects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l     catalog.AbilityEffect
			phase string
		)
		if err := rows.Scan(&l.AbilityID, &l.EffectID, &l.Order, &phase, &l.ChancePercent, &l.Condition, &l.Overrides); err != nil {
			return fmt.Errorf("scanning ability effect row: %w", err)
		}
		p, ok := catalog.ParsePhase(phase)
		if !ok {
			return fmt.Errorf("ability %d: unknown phase %q", l.AbilityID, phase)
		}
		l.Phase = p
		rec.Links = append(rec.Links, l)
	}
	return rows.Err()
}

func loadMessages(ctx context.Context, tx pgx.Tx, rec *catalog.Records) error {
	rows, err := tx.Query(ctx, `
		SELECT ability_id, actor_hit, target_hit, room_hit, actor_miss, target_miss, room_miss, wear_off, wear_off_room
		FROM ability_messages ORDER BY ability_id`)
	if err != nil {
		return fmt.Errorf("querying ability messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m catalog.Messages
		if err := rows.Scan(&m.AbilityID, &m.ActorHit, &m.TargetHit, &m.RoomHit,
			&m.ActorMiss, &m.TargetMiss, &m.RoomMiss, &m.WearOff, &m.WearOffRoom); err != nil {
			return fmt.Errorf("scanning ability message row: %w", err)
		}
		rec.Messages = append(rec.Messages, m)
	}
	return rows.Err()
}

func loadRestrictions(ctx context.Context, tx pgx.Tx, rec *catalog.Records) error {
	rows, err := tx.Query(ctx, `
		SELECT ability_id, min_position, min_level, mana_cost, move_cost, cooldown_ms, cast_time_ms
		FROM ability_restrictions ORDER BY ability_id`)
	if err != nil {
		return fmt.Errorf("querying ability restrictions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                  catalog.Restriction
			pos                string
			cooldownMs, castMs int64
		)
		if err := rows.Scan(&r.AbilityID, &pos, &r.MinLevel, &r.ManaCost, &r.MoveCost, &cooldownMs, &castMs); err != nil {
			return fmt.Errorf("scanning ability restriction row: %w", err)
		}
		p, ok := model.ParsePosition(pos)
		if !ok {
			return fmt.Errorf("ability %d: unknown position %q", r.AbilityID, pos)
		}
		r.MinPosition = p
		r.Cooldown = time.Duration(cooldownMs) * time.Millisecond
		r.CastTime = time.Duration(castMs) * time.Millisecond
		rec.Restrictions = append(rec.Restrictions, r)
	}
	return rows.Err()
}

func loadDamage(ctx context.Context, tx pgx.Tx, rec *catalog.Records) error {
	rows, err := tx.Query(ctx, `SELECT ability_id, element, formula FROM damage_components ORDER BY ability_id`)
	if err != nil {
		return fmt.Errorf("querying damage components: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d catalog.DamageComponent
		if err := rows.Scan(&d.AbilityID, &d.Element, &d.Formula); err != nil {
			return fmt.Errorf("scanning damage component row: %w", err)
		}
		rec.DamageComponents = append(rec.DamageComponents, d)
	}
	return rows.Err()
}

// Replace overwrites the whole catalog with rec in one transaction.
// rec is validated with catalog.Build first.
func (r *CatalogRepository) Replace(ctx context.Context, rec *catalog.Records) error {
	if _, err := catalog.Build(rec); err != nil {
		return fmt.Errorf("validating catalog: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Children cascade from abilities and effect definitions.
	if _, err := tx.Exec(ctx, `DELETE FROM abilities`); err != nil {
		return fmt.Errorf("clearing abilities: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM effect_definitions`); err != nil {
		return fmt.Errorf("clearing effect definitions: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range rec.Effects {
		params := e.Params
		if params == nil {
			params = map[string]string{}
		}
		batch.Queue(`INSERT INTO effect_definitions (id, name, kind, params) VALUES ($1, $2, $3, $4)`,
			e.ID, e.Name, e.Kind.String(), params)
	}
	for _, a := range rec.Abilities {
		flags := a.TargetFlags.Names()
		if flags == nil {
			flags = []string{}
		}
		batch.Queue(`INSERT INTO abilities (id, name, plain_name, kind, toggle, violent, target_flags)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.Name, a.PlainName, a.Kind.String(), a.Toggle, a.Violent, flags)
	}
	for _, l := range rec.Links {
		overrides := l.Overrides
		if overrides == nil {
			overrides = map[string]string{}
		}
		batch.Queue(`INSERT INTO ability_effects (ability_id, effect_id, sort_order, phase, chance_percent, condition, overrides)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.AbilityID, l.EffectID, l.Order, l.Phase.String(), l.ChancePercent, l.Condition, overrides)
	}
	for _, m := range rec.Messages {
		batch.Queue(`INSERT INTO ability_messages
			(ability_id, actor_hit, target_hit, room_hit, actor_miss, target_miss, room_miss, wear_off, wear_off_room)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			m.AbilityID, m.ActorHit, m.TargetHit, m.RoomHit, m.ActorMiss, m.TargetMiss, m.RoomMiss, m.WearOff, m.WearOffRoom)
	}
	for _, rs := range rec.Restrictions {
		batch.Queue(`INSERT INTO ability_restrictions
			(ability_id, min_position, min_level, mana_cost, move_cost, cooldown_ms, cast_time_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rs.AbilityID, rs.MinPosition.String(), rs.MinLevel, rs.ManaCost, rs.MoveCost,
			rs.Cooldown.Milliseconds(), rs.CastTime.Milliseconds())
	}
	for _, d := range rec.DamageComponents {
		batch.Queue(`INSERT INTO damage_components (ability_id, element, formula) VALUES ($1, $2, $3)`,
			d.AbilityID, d.Element, d.Formula)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting catalog records: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing catalog: %w", err)
	}
	return nil
}
