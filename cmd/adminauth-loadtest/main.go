package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	adminAuth "github.com/MrEthical07/adminAuth"
	"github.com/MrEthical07/adminAuth/memstore"
	"github.com/MrEthical07/adminAuth/permission"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const loadPassword = "load-test-password"

type account struct {
	login string
	token string
}

func main() {
	var (
		users       = flag.Int("users", 1000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		logins      = flag.Int("logins", 2000, "login operations")
		resolves    = flag.Int("resolves", 200000, "identity resolution operations")
		iterations  = flag.Int("iterations", 1000, "PBKDF2 iterations")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "aid", "id cache key prefix")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *logins <= 0 || *resolves <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, logins, and resolves must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := adminAuth.DefaultConfig()
	cfg.JWT.Secret = []byte("loadtest-secret-0123456789abcdef")
	cfg.Password.Iterations = *iterations
	cfg.Cache.RedisPrefix = *prefix
	cfg.Notifications.DropIfFull = true

	store := memstore.New()
	engine, err := adminAuth.New().
		WithConfig(cfg).
		WithUserDirectory(store).
		WithPermissionStore(store).
		WithRedis(client).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	accounts := make([]account, *users)
	fmt.Printf("seeding %d accounts...\n", *users)
	startSeed := time.Now()
	for i := range accounts {
		salt, hash, err := engine.HashPassword(loadPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash failed: %v\n", err)
			os.Exit(1)
		}
		acc, err := store.CreateUser(ctx, memstore.NewUser{
			Email:        fmt.Sprintf("admin%d@example.com", i),
			Phone:        fmt.Sprintf("+1555%07d", i),
			Salt:         salt,
			PasswordHash: hash,
			IsActive:     true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
			os.Exit(1)
		}
		if err := store.Grant(ctx, acc.ID, permission.PreviewUserProfile, permission.PreviewUserList); err != nil {
			fmt.Fprintf(os.Stderr, "grant failed: %v\n", err)
			os.Exit(1)
		}
		accounts[i] = account{login: acc.Email}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*logins, *concurrency, 7919, func(r *rand.Rand) error {
		idx := r.Intn(len(accounts))
		res, err := engine.Login(ctx, accounts[idx].login, loadPassword)
		if err != nil {
			return err
		}
		// Tokens are immutable strings; a racing overwrite only swaps one
		// valid token for another.
		setToken(&accounts[idx], res.Token)
		return nil
	})

	tokens := collectTokens(accounts)
	if len(tokens) == 0 {
		fmt.Fprintln(os.Stderr, "no successful logins; skipping resolve phase")
		os.Exit(1)
	}

	resolveStats := runPhase(*resolves, *concurrency, 6151, func(r *rand.Rand) error {
		id, err := engine.ResolveIdentity(ctx, tokens[r.Intn(len(tokens))])
		if err != nil {
			return err
		}
		if !id.HasPermission(permission.PreviewUserProfile) {
			return adminAuth.ErrForbidden
		}
		return nil
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("resolve", resolveStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("id cache: hits=%d misses=%d\n",
		snap.Counters[adminAuth.MetricIDCacheHit],
		snap.Counters[adminAuth.MetricIDCacheMiss],
	)
}

var tokenMu sync.Mutex

func setToken(a *account, token string) {
	tokenMu.Lock()
	a.token = token
	tokenMu.Unlock()
}

func collectTokens(accounts []account) []string {
	tokenMu.Lock()
	defer tokenMu.Unlock()
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a.token != "" {
			out = append(out, a.token)
		}
	}
	return out
}

func runPhase(ops, concurrency int, seed int64, op func(*rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
