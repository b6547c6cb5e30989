// Package cache stores procedure responses in Redis so that repeated page
// loads with the same input skip the network.
//
// Only success-branch envelopes are stored. The cache is a collaborator of
// the domain fetchers and is never consulted by pagination or aggregation.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Procedure: "mobile.getGames",
//		Input:     encodedEnvelope,
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch and Put
//	}
//
//	_ = manager.Put(ctx, key, cache.NewEntry(body, 5*time.Minute))
//
// # Metrics
//
//   - rpc_cache_hits_total{procedure} - Cache hits
//   - rpc_cache_misses_total{procedure} - Cache misses
//   - rpc_cache_written_bytes_total - Bytes written to Redis
//   - rpc_cache_errors_total{operation} - Cache operation errors
package cache
