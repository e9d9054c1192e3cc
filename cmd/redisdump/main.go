// redisdump prints a JSON snapshot of the whole Redis keyspace (type, TTL,
// value per key) for inspecting rate windows, recent-history lists and
// presence sets while the chat is running.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type keyDump struct {
	Type  string `json:"type"`
	TTL   int64  `json:"ttl"`
	Value any    `json:"value"`
}

func readValue(ctx context.Context, r *redis.Client, key, t string) (any, error) {
	switch t {
	case "string":
		return r.Get(ctx, key).Result()
	case "hash":
		return r.HGetAll(ctx, key).Result()
	case "list":
		return r.LRange(ctx, key, 0, -1).Result()
	case "set":
		return r.SMembers(ctx, key).Result()
	case "zset":
		return r.ZRangeWithScores(ctx, key, 0, -1).Result()
	case "stream":
		return r.XRangeN(ctx, key, "-", "+", 100).Result()
	}
	return fmt.Sprintf("<type %q not handled>", t), nil
}

func main() {
	host := envOr("REDIS_HOST", "localhost")
	port := envOr("REDIS_PORT", "6379")
	db, _ := strconv.Atoi(envOr("REDIS_DB", "0"))

	r := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		DB:       db,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx := context.Background()

	dump := map[string]keyDump{}

	// SCAN instead of KEYS so large keyspaces don't stall the server.
	iter := r.Scan(ctx, 0, "*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		t, err := r.Type(ctx, key).Result()
		if err != nil {
			fmt.Fprintf(os.Stderr, "type %s: %v\n", key, err)
			continue
		}
		ttl, _ := r.TTL(ctx, key).Result()
		val, err := readValue(ctx, r, key, t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", key, err)
			continue
		}
		dump[key] = keyDump{Type: t, TTL: int64(ttl.Seconds()), Value: val}
	}
	if err := iter.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "scan:", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
