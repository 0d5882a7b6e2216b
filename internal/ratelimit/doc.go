// Package ratelimit provides fixed-window request limiting per key.
//
// RedisLimiter shares one window across every API instance through Redis
// counters. MemoryLimiter keeps the window in process and serves single
// node deployments and the fallback path when Redis is unreachable.
package ratelimit
