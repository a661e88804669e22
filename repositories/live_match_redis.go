package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Dosada05/hockey-live/models"
	"github.com/redis/go-redis/v9"
)

const liveMatchIndexKey = "livematch:index"

// Все мутации выполняются Lua-скриптами: проверка существования, запись и чтение результата
// выполняются сервером Redis как одна операция.
var (
	fetchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
return {redis.call('HGETALL', KEYS[1]), redis.call('LRANGE', KEYS[2], 0, -1)}
`)

	incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return {redis.call('HGETALL', KEYS[1]), redis.call('LRANGE', KEYS[2], 0, -1)}
`)

	setFieldsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
redis.call('HSET', KEYS[1], unpack(ARGV))
return {redis.call('HGETALL', KEYS[1]), redis.call('LRANGE', KEYS[2], 0, -1)}
`)

	appendEventScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
redis.call('RPUSH', KEYS[2], ARGV[1])
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return {redis.call('HGETALL', KEYS[1]), redis.call('LRANGE', KEYS[2], 0, -1)}
`)

	deleteScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('DEL', KEYS[1], KEYS[2])
redis.call('SREM', KEYS[3], ARGV[1])
return 1
`)
)

type redisLiveMatchRepository struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisLiveMatchRepository(rdb *redis.Client) LiveMatchRepository {
	return &redisLiveMatchRepository{rdb: rdb, now: time.Now}
}

// Хеш-тег {id} держит документ и список событий в одном слоте кластера.
func (r *redisLiveMatchRepository) keyMatch(matchID string) string { return "livematch:{" + matchID + "}" }
func (r *redisLiveMatchRepository) keyEvents(matchID string) string { return r.keyMatch(matchID) + ":events" }

func (r *redisLiveMatchRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

func (r *redisLiveMatchRepository) Create(ctx context.Context, m *models.LiveMatch) error {
	m.ApplyDefaults()
	now := r.now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	fields, err := encodeLiveMatchFields(m)
	if err != nil {
		return err
	}
	events := make([]interface{}, 0, len(m.MatchEvents))
	for _, ev := range m.MatchEvents {
		raw, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to encode match event: %w", err)
		}
		events = append(events, string(raw))
	}

	key, eventsKey := r.keyMatch(m.MatchID), r.keyEvents(m.MatchID)
	err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrLiveMatchConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			pipe.Del(ctx, eventsKey)
			if len(events) > 0 {
				pipe.RPush(ctx, eventsKey, events...)
			}
			pipe.SAdd(ctx, liveMatchIndexKey, m.MatchID)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		// ключ изменился между WATCH и EXEC, матч создан параллельно
		return ErrLiveMatchConflict
	}
	return err
}

func (r *redisLiveMatchRepository) GetByMatchID(ctx context.Context, matchID string) (*models.LiveMatch, error) {
	return r.run(ctx, fetchScript, matchID)
}

func (r *redisLiveMatchRepository) List(ctx context.Context, filter LiveMatchFilter) ([]*models.LiveMatch, error) {
	ids, err := r.rdb.SMembers(ctx, liveMatchIndexKey).Result()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.LiveMatch, 0, len(ids))
	for _, id := range ids {
		m, err := r.GetByMatchID(ctx, id)
		if errors.Is(err, ErrLiveMatchNotFound) {
			continue // удалён между SMEMBERS и чтением
		}
		if err != nil {
			return nil, err
		}
		if matchesFilter(m, filter) {
			matches = append(matches, m)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].MatchID < matches[j].MatchID
	})
	return matches, nil
}

func (r *redisLiveMatchRepository) IncrementScore(ctx context.Context, matchID string, side models.TeamSide) (*models.LiveMatch, error) {
	var field string
	switch side {
	case models.Team1:
		field = "team1_score"
	case models.Team2:
		field = "team2_score"
	default:
		return nil, fmt.Errorf("invalid team side %d", side)
	}
	return r.run(ctx, incrementScript, matchID, field, r.timestamp())
}

func (r *redisLiveMatchRepository) UpdateTimer(ctx context.Context, matchID string, totalSeconds int, isPaused bool) (*models.LiveMatch, error) {
	return r.run(ctx, setFieldsScript, matchID,
		"total_seconds", strconv.Itoa(totalSeconds),
		"is_paused", strconv.FormatBool(isPaused),
		"updated_at", r.timestamp(),
	)
}

func (r *redisLiveMatchRepository) AppendEvent(ctx context.Context, matchID string, event models.MatchEvent) (*models.LiveMatch, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match event: %w", err)
	}
	return r.run(ctx, appendEventScript, matchID, string(raw), r.timestamp())
}

func (r *redisLiveMatchRepository) SetQuarter(ctx context.Context, matchID string, quarter models.Quarter) (*models.LiveMatch, error) {
	return r.run(ctx, setFieldsScript, matchID, "current_quarter", string(quarter), "updated_at", r.timestamp())
}

func (r *redisLiveMatchRepository) SetStatus(ctx context.Context, matchID string, status models.MatchStatus) (*models.LiveMatch, error) {
	return r.run(ctx, setFieldsScript, matchID, "status", string(status), "updated_at", r.timestamp())
}

func (r *redisLiveMatchRepository) Delete(ctx context.Context, matchID string) error {
	keys := []string{r.keyMatch(matchID), r.keyEvents(matchID), liveMatchIndexKey}
	n, err := deleteScript.Run(ctx, r.rdb, keys, matchID).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLiveMatchNotFound
	}
	return nil
}

func (r *redisLiveMatchRepository) run(ctx context.Context, script *redis.Script, matchID string, args ...interface{}) (*models.LiveMatch, error) {
	keys := []string{r.keyMatch(matchID), r.keyEvents(matchID)}
	res, err := script.Run(ctx, r.rdb, keys, args...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLiveMatchNotFound
		}
		return nil, err
	}
	return decodeLiveMatchReply(res)
}

func encodeLiveMatchFields(m *models.LiveMatch) (map[string]interface{}, error) {
	quarters, err := json.Marshal(m.Quarters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quarters: %w", err)
	}
	team1Players, err := json.Marshal(m.Team1Players)
	if err != nil {
		return nil, fmt.Errorf("failed to encode team1 players: %w", err)
	}
	team2Players, err := json.Marshal(m.Team2Players)
	if err != nil {
		return nil, fmt.Errorf("failed to encode team2 players: %w", err)
	}

	return map[string]interface{}{
		"match_id":        m.MatchID,
		"tournament_id":   m.TournamentID,
		"team1_name":      m.Team1Name,
		"team2_name":      m.Team2Name,
		"team1_id":        m.Team1ID,
		"team2_id":        m.Team2ID,
		"venue":           m.Venue,
		"match_date":      m.MatchDate,
		"match_time":      m.MatchTime,
		"status":          string(m.Status),
		"team1_score":     strconv.Itoa(m.Team1Score),
		"team2_score":     strconv.Itoa(m.Team2Score),
		"quarters":        string(quarters),
		"current_quarter": string(m.CurrentQuarter),
		"total_seconds":   strconv.Itoa(m.TotalSeconds),
		"is_paused":       strconv.FormatBool(m.IsPaused),
		"team1_players":   string(team1Players),
		"team2_players":   string(team2Players),
		"created_at":      m.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":      m.UpdatedAt.Format(time.RFC3339Nano),
	}, nil
}

// decodeLiveMatchReply разбирает ответ скрипта: {HGETALL, LRANGE}.
func decodeLiveMatchReply(res interface{}) (*models.LiveMatch, error) {
	parts, ok := res.([]interface{})
	if !ok || len(parts) != 2 {
		return nil, fmt.Errorf("unexpected live match reply %T", res)
	}
	flat, ok := parts[0].([]interface{})
	if !ok || len(flat)%2 != 0 {
		return nil, fmt.Errorf("unexpected live match hash reply %T", parts[0])
	}
	rawEvents, ok := parts[1].([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected live match events reply %T", parts[1])
	}

	h := make(map[string]string, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		k, _ := flat[i].(string)
		v, _ := flat[i+1].(string)
		h[k] = v
	}

	m := &models.LiveMatch{
		MatchID:        h["match_id"],
		TournamentID:   h["tournament_id"],
		Team1Name:      h["team1_name"],
		Team2Name:      h["team2_name"],
		Team1ID:        h["team1_id"],
		Team2ID:        h["team2_id"],
		Venue:          h["venue"],
		MatchDate:      h["match_date"],
		MatchTime:      h["match_time"],
		Status:         models.MatchStatus(h["status"]),
		CurrentQuarter: models.Quarter(h["current_quarter"]),
	}

	var err error
	if m.Team1Score, err = strconv.Atoi(h["team1_score"]); err != nil {
		return nil, fmt.Errorf("invalid team1_score of match %s: %w", m.MatchID, err)
	}
	if m.Team2Score, err = strconv.Atoi(h["team2_score"]); err != nil {
		return nil, fmt.Errorf("invalid team2_score of match %s: %w", m.MatchID, err)
	}
	if m.TotalSeconds, err = strconv.Atoi(h["total_seconds"]); err != nil {
		return nil, fmt.Errorf("invalid total_seconds of match %s: %w", m.MatchID, err)
	}
	if m.IsPaused, err = strconv.ParseBool(h["is_paused"]); err != nil {
		return nil, fmt.Errorf("invalid is_paused of match %s: %w", m.MatchID, err)
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, h["created_at"]); err != nil {
		return nil, fmt.Errorf("invalid created_at of match %s: %w", m.MatchID, err)
	}
	if m.UpdatedAt, err = time.Parse(time.RFC3339Nano, h["updated_at"]); err != nil {
		return nil, fmt.Errorf("invalid updated_at of match %s: %w", m.MatchID, err)
	}

	if err := json.Unmarshal([]byte(h["quarters"]), &m.Quarters); err != nil {
		return nil, fmt.Errorf("failed to decode quarters of match %s: %w", m.MatchID, err)
	}
	if err := json.Unmarshal([]byte(h["team1_players"]), &m.Team1Players); err != nil {
		return nil, fmt.Errorf("failed to decode team1 players of match %s: %w", m.MatchID, err)
	}
	if err := json.Unmarshal([]byte(h["team2_players"]), &m.Team2Players); err != nil {
		return nil, fmt.Errorf("failed to decode team2 players of match %s: %w", m.MatchID, err)
	}

	m.MatchEvents = make([]models.MatchEvent, 0, len(rawEvents))
	for i, raw := range rawEvents {
		s, _ := raw.(string)
		var ev models.MatchEvent
		if err := json.Unmarshal([]byte(s), &ev); err != nil {
			return nil, fmt.Errorf("failed to decode event %d of match %s: %w", i, m.MatchID, err)
		}
		m.MatchEvents = append(m.MatchEvents, ev)
	}

	m.ApplyDefaults()
	return m, nil
}
