// Package l2cache implements a second-level cache for an object/relational
// persistence layer: named regions holding disassembled entity, collection,
// query-result and timestamp state, and per-region access strategies that
// implement the read-only, read-write, nonstrict-read-write and transactional
// concurrency protocols.
//
// Components:
//   - Region: a named cache partition bound to one Engine.
//   - AccessStrategy: protocol object the persistence context calls during
//     load and flush. Strategies are stateless; per-key state lives in the engine.
//   - Engine: binding to a concrete cache engine. Provided by
//     NewProviderEngineFactory (byte stores such as Ristretto, BigCache, Redis),
//     treecache (hierarchical, optimistic or pessimistic node locking) and
//     oscache (single-process LRU with refresh periods and cron expiry).
//   - SoftLock: token returned by LockItem/LockRegion, consumed once by the
//     matching unlock.
//
// Flow:
//
//	f, _ := l2cache.NewRegionFactory(l2cache.Options{Engines: engines})
//	r, _ := f.BuildEntityRegion(ctx, "app.User", desc)
//	s, _ := r.BuildAccessStrategy(l2cache.ReadWrite)
//
//	ts := f.NextTimestamp()             // session start
//	v, ok, _ := s.Get(ctx, k, ts)       // miss -> load from the database
//	_, _ = s.PutFromLoad(ctx, k, v, ts, ver)
//
//	lock, _ := s.LockItem(ctx, k, ver)  // flush
//	_, _ = s.AfterUpdate(ctx, k, v2, ver2, ver, lock)
//
// The cache is advisory: the database stays the system of record, so callers
// may treat *CacheError as non-fatal and fall through to the database.
package l2cache
