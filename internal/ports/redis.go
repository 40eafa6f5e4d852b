package ports

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "stressdock:used_ports"

var _ Registry = (*RedisRegistry)(nil)

// RedisRegistry keeps the used-port set in a Redis SET so several runner
// processes can share one host-port namespace. SADD's reply doubles as the
// atomic claim: 1 means the port was free and is now ours.
type RedisRegistry struct {
	client redis.Cmdable
	key    string
}

func NewRedisRegistry(client redis.Cmdable, key string) *RedisRegistry {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisRegistry{client: client, key: key}
}

func (r *RedisRegistry) TryReserve(ctx context.Context, port int) (bool, error) {
	added, err := r.client.SAdd(ctx, r.key, strconv.Itoa(port)).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (r *RedisRegistry) Release(ctx context.Context, ports ...int) error {
	if len(ports) == 0 {
		return nil
	}
	return r.client.SRem(ctx, r.key, members(ports)...).Err()
}

func (r *RedisRegistry) Add(ctx context.Context, ports ...int) error {
	if len(ports) == 0 {
		return nil
	}
	return r.client.SAdd(ctx, r.key, members(ports)...).Err()
}

func (r *RedisRegistry) Count(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, r.key).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func members(ports []int) []interface{} {
	out := make([]interface{}, 0, len(ports))
	for _, p := range ports {
		out = append(out, strconv.Itoa(p))
	}
	return out
}
