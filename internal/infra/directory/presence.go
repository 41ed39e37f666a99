package directory

import (
	"context"
	"strconv"
	"time"

	"telehealth-core/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	onlineSetKey          = "presence:online"
	acceptingKeyPrefix    = "presence:accepting:"
	inFlightKeyPrefix     = "presence:inflight:"
	lastAssignedKeyPrefix = "presence:last_assigned:"

	// inFlightTTL bounds counter staleness to roughly a hold lifecycle, so a
	// crashed instance cannot pin a specialist as busy forever.
	inFlightTTL = 15 * time.Minute
)

// PresenceEntry is one live row of the directory snapshot.
type PresenceEntry struct {
	SpecialistID   uuid.UUID
	Accepting      bool
	InFlight       int
	LastAssignedAt time.Time
}

// PresenceStore tracks which specialists are online and how loaded they are.
// Entries decay via heartbeat TTLs; the snapshot is advisory by design and the
// match engine re-validates exclusivity through Reserve.
type PresenceStore struct {
	redis        *redis.Client
	heartbeatTTL time.Duration
}

func NewPresenceStore(redisClient *redis.Client, heartbeatTTL time.Duration) *PresenceStore {
	if heartbeatTTL <= 0 {
		heartbeatTTL = 30 * time.Second
	}
	return &PresenceStore{
		redis:        redisClient,
		heartbeatTTL: heartbeatTTL,
	}
}

// Heartbeat marks the specialist online until the TTL lapses and records the
// accepting flag. Called periodically by the directory's edge integration.
func (s *PresenceStore) Heartbeat(ctx context.Context, specialistID uuid.UUID, accepting bool, now time.Time) error {
	deadline := now.Add(s.heartbeatTTL)

	accepted := "0"
	if accepting {
		accepted = "1"
	}

	pipe := s.redis.TxPipeline()
	pipe.ZAdd(ctx, onlineSetKey, redis.Z{Score: float64(deadline.UnixMilli()), Member: specialistID.String()})
	pipe.Set(ctx, acceptingKeyPrefix+specialistID.String(), accepted, s.heartbeatTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Wrap(err, "presence heartbeat")
	}
	return nil
}

func (s *PresenceStore) MarkOffline(ctx context.Context, specialistID uuid.UUID) error {
	pipe := s.redis.TxPipeline()
	pipe.ZRem(ctx, onlineSetKey, specialistID.String())
	pipe.Del(ctx, acceptingKeyPrefix+specialistID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Wrap(err, "presence mark offline")
	}
	return nil
}

// Snapshot returns all specialists whose heartbeat has not lapsed, with their
// current load counters. Lapsed members are pruned as a side effect.
func (s *PresenceStore) Snapshot(ctx context.Context, now time.Time) ([]PresenceEntry, error) {
	cutoff := strconv.FormatInt(now.UnixMilli(), 10)

	if err := s.redis.ZRemRangeByScore(ctx, onlineSetKey, "-inf", "("+cutoff).Err(); err != nil {
		return nil, errs.Wrap(err, "presence prune")
	}

	members, err := s.redis.ZRangeByScore(ctx, onlineSetKey, &redis.ZRangeBy{Min: cutoff, Max: "+inf"}).Result()
	if err != nil {
		return nil, errs.Wrap(err, "presence list online")
	}
	if len(members) == 0 {
		return nil, nil
	}

	pipe := s.redis.Pipeline()
	acceptingCmds := make([]*redis.StringCmd, len(members))
	inFlightCmds := make([]*redis.StringCmd, len(members))
	lastAssignedCmds := make([]*redis.StringCmd, len(members))
	for i, m := range members {
		acceptingCmds[i] = pipe.Get(ctx, acceptingKeyPrefix+m)
		inFlightCmds[i] = pipe.Get(ctx, inFlightKeyPrefix+m)
		lastAssignedCmds[i] = pipe.Get(ctx, lastAssignedKeyPrefix+m)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, errs.Wrap(err, "presence snapshot")
	}

	entries := make([]PresenceEntry, 0, len(members))
	for i, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}

		entry := PresenceEntry{SpecialistID: id}
		if v, err := acceptingCmds[i].Result(); err == nil {
			entry.Accepting = v == "1"
		}
		if v, err := inFlightCmds[i].Result(); err == nil {
			if n, convErr := strconv.Atoi(v); convErr == nil && n > 0 {
				entry.InFlight = n
			}
		}
		if v, err := lastAssignedCmds[i].Result(); err == nil {
			if ms, convErr := strconv.ParseInt(v, 10, 64); convErr == nil {
				entry.LastAssignedAt = time.UnixMilli(ms).UTC()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RecordAssignment bumps the in-flight counter and the fairness timestamp
// after a successful match reservation.
func (s *PresenceStore) RecordAssignment(ctx context.Context, specialistID uuid.UUID, now time.Time) error {
	key := inFlightKeyPrefix + specialistID.String()

	pipe := s.redis.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, inFlightTTL)
	pipe.Set(ctx, lastAssignedKeyPrefix+specialistID.String(), strconv.FormatInt(now.UnixMilli(), 10), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Wrap(err, "presence record assignment")
	}
	return nil
}

// ReleaseAssignment decrements the in-flight counter when the routed hold
// resolves (commit, release, or expiry).
func (s *PresenceStore) ReleaseAssignment(ctx context.Context, specialistID uuid.UUID) error {
	key := inFlightKeyPrefix + specialistID.String()

	n, err := s.redis.Decr(ctx, key).Result()
	if err != nil {
		return errs.Wrap(err, "presence release assignment")
	}
	if n <= 0 {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return errs.Wrap(err, "presence clear assignment counter")
		}
	}
	return nil
}
