package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/config"
)

// PlantSetCache 用 redis 缓存每个用户的授权厂区集合。
// 授权数据读多写少且考勤子系统从不修改它，按 TTL 过期即可，不做失效通知。
type PlantSetCache struct {
	cfg *config.Config
	rdb *redis.Client
}

func NewPlantSetCache(cfg *config.Config, rdb *redis.Client) *PlantSetCache {
	return &PlantSetCache{
		cfg: cfg,
		rdb: rdb,
	}
}

func (c *PlantSetCache) key(userID int64) string {
	return fmt.Sprintf("authorized_plants_%d", userID)
}

// GetPlantSet 查询缓存，未命中或 redis 出错时返回 false，由调用方回源数据库。
func (c *PlantSetCache) GetPlantSet(ctx context.Context, userID int64) ([]int64, bool) {
	values, err := c.rdb.LRange(ctx, c.key(userID), 0, -1).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("读取授权厂区缓存失败", "userID", userID, "error", err)
		}
		return nil, false
	}
	if len(values) == 0 {
		return nil, false
	}

	plantIDs := make([]int64, 0, len(values))
	for _, v := range values {
		var plantID int64
		if _, err := fmt.Sscanf(v, "%d", &plantID); err != nil {
			return nil, false
		}
		plantIDs = append(plantIDs, plantID)
	}

	// 空集合用哨兵占位，这里要剔除
	if len(plantIDs) == 1 && plantIDs[0] == emptySetSentinel {
		return []int64{}, true
	}

	return plantIDs, true
}

const emptySetSentinel = int64(-1)

// SetPlantSet 写入缓存，失败只记日志不影响请求。
func (c *PlantSetCache) SetPlantSet(ctx context.Context, userID int64, plantIDs []int64) {
	key := c.key(userID)

	values := make([]any, 0, len(plantIDs))
	for _, plantID := range plantIDs {
		values = append(values, plantID)
	}
	if len(values) == 0 {
		// 空集合也要缓存，否则没有授权的用户每次都会回源
		values = append(values, emptySetSentinel)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, time.Duration(c.cfg.Redis.PlantCacheTTL)*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("写入授权厂区缓存失败", "userID", userID, "error", err)
	}
}
