package repo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	errx "github.com/rishi-ai/orchestrator/internal/core/error"
	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// CourageBonus is awarded once, when a user shares a problem for the
// first time.
const CourageBonus = 15

// Progress is a user's accumulated standing.
type Progress struct {
	KarmicPoints int    `json:"karmic_points"`
	StreakDays   int    `json:"streak_days"`
	Level        string `json:"level"`
}

// LevelFromPoints maps karmic points to a named level.
func LevelFromPoints(points int) string {
	switch {
	case points >= 200:
		return "Sage"
	case points >= 120:
		return "Practitioner"
	case points >= 60:
		return "Seeker"
	default:
		return "Starter"
	}
}

// ProgressRepository tracks per-user karmic point totals in Redis hashes.
type ProgressRepository struct {
	rdb redis.Cmdable
}

func NewProgressRepository(rdb redis.Cmdable) *ProgressRepository {
	return &ProgressRepository{rdb: rdb}
}

func progressKey(userID string) string { return fmt.Sprintf("progress:%s", userID) }
func userSeenKey(userID string) string { return fmt.Sprintf("user:%s:seen", userID) }

// UpsertUser marks a user as seen and awards the courage bonus exactly once.
func (r *ProgressRepository) UpsertUser(ctx context.Context, userID string) error {
	first, err := r.rdb.SetNX(ctx, userSeenKey(userID), 1, 0).Result()
	if err != nil {
		return errx.WrapRedis(err)
	}
	if !first {
		return nil
	}

	logx.Info().Str("user_id", userID).Msg("first sighting; awarding courage bonus")
	if err := r.rdb.HIncrBy(ctx, progressKey(userID), "karmic_points", CourageBonus).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

// AddPoints credits karmic points for a completed practice or milestone.
func (r *ProgressRepository) AddPoints(ctx context.Context, userID string, points int) error {
	if err := r.rdb.HIncrBy(ctx, progressKey(userID), "karmic_points", int64(points)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

// GetProgress returns the user's totals. An unseen user is upserted on the
// way through so the response always carries the courage bonus floor.
func (r *ProgressRepository) GetProgress(ctx context.Context, userID string) (*Progress, error) {
	if err := r.UpsertUser(ctx, userID); err != nil {
		return nil, err
	}

	vals, err := r.rdb.HGetAll(ctx, progressKey(userID)).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}

	p := &Progress{}
	fmt.Sscanf(vals["karmic_points"], "%d", &p.KarmicPoints)
	fmt.Sscanf(vals["streak_days"], "%d", &p.StreakDays)
	p.Level = LevelFromPoints(p.KarmicPoints)
	return p, nil
}
