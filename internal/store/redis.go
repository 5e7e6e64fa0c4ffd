package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "spacetrack:"

// RedisStore keeps each record as a JSON string and tracks membership in one
// sorted set per entity, scored by id. Ids come from INCR and are never reused.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore parses redisURL, connects and verifies the connection.
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) missionKey(id int64) string {
	return s.prefix + "mission:" + strconv.FormatInt(id, 10)
}

func (s *RedisStore) activityKey(id int64) string {
	return s.prefix + "activity:" + strconv.FormatInt(id, 10)
}

func (s *RedisStore) missionSeqKey() string    { return s.prefix + "mission:seq" }
func (s *RedisStore) activitySeqKey() string   { return s.prefix + "activity:seq" }
func (s *RedisStore) missionIndexKey() string  { return s.prefix + "missions" }
func (s *RedisStore) activityIndexKey() string { return s.prefix + "activities" }

func (s *RedisStore) CreateMission(ctx context.Context, in MissionInput) (Mission, error) {
	id, err := s.client.Incr(ctx, s.missionSeqKey()).Result()
	if err != nil {
		return Mission{}, fmt.Errorf("next mission id: %w", err)
	}
	mission := newMission(id, in, s.now())
	if err := s.insert(ctx, s.missionKey(id), s.missionIndexKey(), id, mission); err != nil {
		return Mission{}, fmt.Errorf("insert mission: %w", err)
	}
	return mission, nil
}

func (s *RedisStore) ListMissions(ctx context.Context, filter MissionFilter) ([]Mission, error) {
	missions, err := s.loadMissions(ctx)
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		return missions, nil
	}
	filtered := make([]Mission, 0, len(missions))
	for _, mission := range missions {
		if filter.Match(mission) {
			filtered = append(filtered, mission)
		}
	}
	return filtered, nil
}

func (s *RedisStore) GetMission(ctx context.Context, id int64) (Mission, error) {
	var mission Mission
	if err := s.get(ctx, s.missionKey(id), &mission); err != nil {
		return Mission{}, fmt.Errorf("get mission: %w", err)
	}
	return mission, nil
}

func (s *RedisStore) UpdateMission(ctx context.Context, id int64, in MissionInput) (Mission, error) {
	mission, err := s.GetMission(ctx, id)
	if err != nil {
		return Mission{}, err
	}
	applyMissionInput(&mission, in)
	mission.UpdatedAt = s.now()
	if err := s.replace(ctx, s.missionKey(id), mission); err != nil {
		return Mission{}, fmt.Errorf("update mission: %w", err)
	}
	return mission, nil
}

func (s *RedisStore) DeleteMission(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.remove(ctx, s.missionKey(id), s.missionIndexKey(), id)
	if err != nil {
		return false, fmt.Errorf("delete mission: %w", err)
	}
	return deleted, nil
}

func (s *RedisStore) CreateActivity(ctx context.Context, in ActivityInput) (Activity, error) {
	id, err := s.client.Incr(ctx, s.activitySeqKey()).Result()
	if err != nil {
		return Activity{}, fmt.Errorf("next activity id: %w", err)
	}
	activity := newActivity(id, in, s.now())
	if err := s.insert(ctx, s.activityKey(id), s.activityIndexKey(), id, activity); err != nil {
		return Activity{}, fmt.Errorf("insert activity: %w", err)
	}
	return activity, nil
}

func (s *RedisStore) ListActivities(ctx context.Context, filter ActivityFilter) ([]Activity, error) {
	ids, err := s.client.ZRange(ctx, s.activityIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list activity ids: %w", err)
	}
	activities := make([]Activity, 0, len(ids))
	if err := s.loadAll(ctx, ids, s.activityKey, func(raw string) error {
		var activity Activity
		if err := json.Unmarshal([]byte(raw), &activity); err != nil {
			return err
		}
		activities = append(activities, activity)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	if !filter.IsZero() {
		names := map[int64]string{}
		if filter.Search != "" {
			missions, err := s.loadMissions(ctx)
			if err != nil {
				return nil, err
			}
			for _, mission := range missions {
				names[mission.ID] = mission.Name
			}
		}
		filtered := activities[:0]
		for _, activity := range activities {
			if filter.Match(activity, names[activity.MissionID]) {
				filtered = append(filtered, activity)
			}
		}
		activities = filtered
	}
	SortActivities(activities)
	return activities, nil
}

func (s *RedisStore) GetActivity(ctx context.Context, id int64) (Activity, error) {
	var activity Activity
	if err := s.get(ctx, s.activityKey(id), &activity); err != nil {
		return Activity{}, fmt.Errorf("get activity: %w", err)
	}
	return activity, nil
}

func (s *RedisStore) UpdateActivity(ctx context.Context, id int64, in ActivityInput) (Activity, error) {
	activity, err := s.GetActivity(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	applyActivityInput(&activity, in)
	activity.UpdatedAt = s.now()
	if err := s.replace(ctx, s.activityKey(id), activity); err != nil {
		return Activity{}, fmt.Errorf("update activity: %w", err)
	}
	return activity, nil
}

func (s *RedisStore) DeleteActivity(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.remove(ctx, s.activityKey(id), s.activityIndexKey(), id)
	if err != nil {
		return false, fmt.Errorf("delete activity: %w", err)
	}
	return deleted, nil
}

func (s *RedisStore) loadMissions(ctx context.Context) ([]Mission, error) {
	ids, err := s.client.ZRange(ctx, s.missionIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list mission ids: %w", err)
	}
	missions := make([]Mission, 0, len(ids))
	if err := s.loadAll(ctx, ids, s.missionKey, func(raw string) error {
		var mission Mission
		if err := json.Unmarshal([]byte(raw), &mission); err != nil {
			return err
		}
		missions = append(missions, mission)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load missions: %w", err)
	}
	SortMissions(missions)
	return missions, nil
}

// loadAll fetches the records for ids with one MGET. Members whose key has
// vanished between ZRANGE and MGET are skipped.
func (s *RedisStore) loadAll(ctx context.Context, ids []string, key func(int64) string, decode func(string) error) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse index member %q: %w", raw, err)
		}
		keys = append(keys, key(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		if err := decode(raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string, target any) error {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), target)
}

func (s *RedisStore) insert(ctx context.Context, key, indexKey string, id int64, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, 0)
		pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
		return nil
	})
	return err
}

// replace overwrites an existing record only; a record deleted since it was read
// is reported as ErrNotFound instead of being recreated.
func (s *RedisStore) replace(ctx context.Context, key string, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	ok, err := s.client.SetXX(ctx, key, payload, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) remove(ctx context.Context, key, indexKey string, id int64) (bool, error) {
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, key)
		pipe.ZRem(ctx, indexKey, strconv.FormatInt(id, 10))
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted.Val() > 0, nil
}
