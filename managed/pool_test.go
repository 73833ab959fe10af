// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package managed

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
	"unsafe"
	"weak"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spaolacci/murmur3"
	"github.com/stretchr/testify/require"
)

// text weighs a string by its length alone, so tests can choose sizes.
type text struct{}

func (text) Kind() string                 { return "text" }
func (text) Hash(s string) uint64         { return murmur3.Sum64([]byte(s)) }
func (text) Equal(a, b string) bool       { return a == b }
func (text) Size(s string) int            { return len(s) }
func (text) Clone(s string) string        { return strings.Clone(s) }
func (text) Anchor(s string) (*byte, int) { return unsafe.StringData(s), len(s) }
func (text) Rebuild(p *byte, n int) string {
	return unsafe.String(p, n)
}

// colliding hashes every value to the same bucket.
type colliding struct{ text }

func (colliding) Hash(string) uint64 { return 42 }

func quietPool(cfg Config) (*Pool, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return New(cfg, WithLogger(log)), hook
}

func hitsOf(t *testing.T, p *Pool, v string) uint32 {
	t.Helper()
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, _, ok := lookup(p, text{}.Hash(v), v, Variant[string, byte](text{}))
	require.True(t, ok, "%q not interned", v)
	return e.hits.Load()
}

func contains(p *Pool, v string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, _, ok := lookup(p, text{}.Hash(v), v, Variant[string, byte](text{}))
	return ok
}

func distinct(prefix string, n int) []string {
	values := make([]string, n)
	for i := range values {
		values[i] = fmt.Sprintf("%s-%05d", prefix, i)
	}
	return values
}

func TestInternReturnsCanonicalCopy(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	a := strings.Repeat("tracker.example.org/announce", 2)
	b := strings.Clone(a)

	first := Intern(p, a, text{})
	require.Equal(a, first)
	require.NotSame(unsafe.StringData(a), unsafe.StringData(first))

	second := Intern(p, b, text{})
	require.Equal(b, second)
	require.Same(unsafe.StringData(first), unsafe.StringData(second))
	require.Equal(1, p.Len())
}

func TestInternCopiesSubstrings(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	backing := strings.Repeat("x", 4096) + "name.utf-8"
	got := Intern(p, backing[4096:], text{})
	require.Equal("name.utf-8", got)
	require.NotSame(unsafe.StringData(backing[4096:]), unsafe.StringData(got))
}

func TestHitCounting(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	v := Intern(p, "announce-list", text{})
	require.Zero(hitsOf(t, p, v))

	Intern(p, strings.Clone("announce-list"), text{})
	require.EqualValues(1, hitsOf(t, p, v))

	stats := p.Stats()
	require.EqualValues(1, stats.Hits)
	require.EqualValues(1, stats.Misses)
	runtime.KeepAlive(v)
}

func TestHitsSaturate(t *testing.T) {
	var m meta
	m.hits.Store(MaxHits - 1)
	m.hit()
	m.hit()
	require.EqualValues(t, MaxHits, m.hits.Load())

	m.hits.Store(1)
	m.age()
	m.age()
	require.Zero(t, m.hits.Load())
}

func TestCollisionsKeepDistinctValues(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	a := Intern(p, "piece length", colliding{})
	b := Intern(p, "pieces", colliding{})
	require.Equal(2, p.Len())
	require.Len(p.buckets[42], 2)

	require.Same(unsafe.StringData(a), unsafe.StringData(Intern(p, strings.Clone(a), colliding{})))
	require.Same(unsafe.StringData(b), unsafe.StringData(Intern(p, strings.Clone(b), colliding{})))
}

func TestImmediateCleanupOnInsert(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	keep := distinct("peer", DefaultImmediateTrigger)
	for i, v := range keep {
		keep[i] = Intern(p, v, text{})
		Intern(p, strings.Clone(v), text{})
	}
	require.Equal(DefaultImmediateTrigger, p.Len())

	extra := Intern(p, "one more", text{})
	require.LessOrEqual(p.Len(), DefaultImmediateGoal)
	require.True(contains(p, extra))
	require.Positive(p.Stats().Weighted)
	runtime.KeepAlive(keep)
}

func TestImmediateCleanupPrefersZeroHits(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	hot := distinct("hot", 600)
	cold := distinct("cold", DefaultImmediateTrigger-len(hot))
	for i, v := range hot {
		hot[i] = Intern(p, v, text{})
		Intern(p, strings.Clone(v), text{})
	}
	for i, v := range cold {
		cold[i] = Intern(p, v, text{})
	}

	Intern(p, "trigger", text{})
	require.LessOrEqual(p.Len(), DefaultImmediateGoal)
	for _, v := range hot {
		require.True(contains(p, v), "hit entry %q evicted before zero-hit entries", v)
	}
	require.Zero(p.Stats().Weighted)
	runtime.KeepAlive(cold)
}

func TestScheduledZeroHitBeforeWeighted(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(Config{
		ImmediateTrigger: 1000,
		ImmediateGoal:    1000,
		ScheduledTrigger: 10,
		ScheduledGoal:    5,
		AgingThreshold:   1000,
	})

	cold := distinct("c", 8)
	hot := distinct("h", 6)
	for i, v := range cold {
		cold[i] = Intern(p, v, text{})
	}
	for i, v := range hot {
		hot[i] = Intern(p, v, text{})
		for range 3 {
			Intern(p, strings.Clone(v), text{})
		}
	}
	require.Equal(14, p.Len())

	p.Sweep()

	require.Equal(6, p.Len())
	for _, v := range hot {
		require.EqualValues(3, hitsOf(t, p, v))
	}
	for _, v := range cold {
		require.False(contains(p, v))
	}
	stats := p.Stats()
	require.EqualValues(8, stats.ZeroHit)
	require.Zero(stats.Weighted)
}

func TestWeightedRemovesLowestSavingsFirst(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(Config{
		ImmediateTrigger: 1000,
		ImmediateGoal:    1000,
		ScheduledTrigger: 5,
		ScheduledGoal:    4,
		AgingThreshold:   1000,
	})

	values := distinct("v", 10)
	for i, v := range values {
		values[i] = Intern(p, v, text{})
		for range i + 1 {
			Intern(p, strings.Clone(v), text{})
		}
	}

	p.Sweep()

	require.Equal(3, p.Len())
	for i, v := range values {
		require.Equal(i >= 7, contains(p, v), "value %d", i)
	}
	require.EqualValues(7, p.Stats().Weighted)
}

func TestWeightedRanksBySavings(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(Config{
		ImmediateTrigger: 1000,
		ImmediateGoal:    1000,
		ScheduledTrigger: 3,
		ScheduledGoal:    3,
		AgingThreshold:   1000,
	})

	// a and b both save 100 bytes, c saves 10.
	a := Intern(p, strings.Repeat("a", 100), text{})
	b := Intern(p, strings.Repeat("b", 10), text{})
	c := Intern(p, strings.Repeat("c", 10), text{})
	Intern(p, strings.Clone(a), text{})
	for range 10 {
		Intern(p, strings.Clone(b), text{})
	}
	Intern(p, strings.Clone(c), text{})

	p.Sweep()

	require.True(contains(p, a))
	require.True(contains(p, b))
	require.False(contains(p, c))
}

func TestAgingDecaysHits(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(Config{
		ScheduledTrigger: 1000,
		ScheduledGoal:    1000,
		AgingThreshold:   1,
	})

	v := Intern(p, "stats.download.added.time", text{})
	Intern(p, strings.Clone(v), text{})
	require.EqualValues(1, hitsOf(t, p, v))

	p.Sweep()
	require.Zero(hitsOf(t, p, v))
	p.Sweep()
	require.Zero(hitsOf(t, p, v))

	// Once the pool is big enough to be cleaned, the aged entry goes first.
	p.cfg.ScheduledTrigger = 1
	p.Sweep()
	require.False(contains(p, v))
	require.EqualValues(1, p.Stats().ZeroHit)
}

func TestPermanentEntriesSurvive(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(Config{
		ImmediateTrigger: 4,
		ImmediateGoal:    2,
		ScheduledTrigger: 1,
		ScheduledGoal:    1,
		AgingThreshold:   1,
	})

	for _, k := range []string{"path", "name", "length"} {
		Seed(p, k, text{})
	}
	keep := distinct("x", 4)
	for i, v := range keep {
		keep[i] = Intern(p, v, text{})
	}
	require.LessOrEqual(p.Len(), 4)

	p.Sweep()
	require.Equal(3, p.Len())
	require.Equal(3, p.Stats().Permanent)
	require.True(contains(p, "path"))
	runtime.KeepAlive(keep)
}

func TestSeedReturnsExisting(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	first := Seed(p, "encoding", text{})
	second := Seed(p, strings.Clone("encoding"), text{})
	require.Same(unsafe.StringData(first), unsafe.StringData(second))
	require.Same(unsafe.StringData(first), unsafe.StringData(Intern(p, strings.Clone("encoding"), text{})))
	require.Equal(1, p.Len())
}

func internDiscarding(p *Pool, n int) {
	for i := range n {
		Intern(p, fmt.Sprintf("%064d", i), text{})
	}
}

func TestReclaimUnreferencedValues(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	internDiscarding(p, 32)
	require.Equal(32, p.Len())

	require.Eventually(func() bool {
		runtime.GC()
		p.Sweep()
		return p.Len() == 0
	}, 10*time.Second, 20*time.Millisecond)
	require.EqualValues(32, p.Stats().Reclaimed)
}

func TestDoubleRemovalIsLogged(t *testing.T) {
	require := require.New(t)
	p, hook := quietPool(DefaultConfig())

	v := Intern(p, "resume data", text{})
	s := p.buckets[text{}.Hash(v)][0]
	s.header().state = destroyed
	p.queue.push(s)

	p.Sweep()

	var warned []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = append(warned, e.Message)
		}
	}
	require.Equal([]string{"double removal of reclaimed entry"}, warned)
	require.Equal(1, p.Len())
	runtime.KeepAlive(v)
}

func TestEvictedEntryIgnoredByReclaim(t *testing.T) {
	require := require.New(t)
	p, hook := quietPool(DefaultConfig())

	v := Intern(p, "dndflags", text{})
	p.mu.Lock()
	s := p.buckets[text{}.Hash(v)][0]
	p.evict(s, ZeroHit)
	p.mu.Unlock()
	p.queue.push(s)

	p.Sweep()
	require.Zero(p.Len())
	for _, e := range hook.AllEntries() {
		require.NotEqual(logrus.WarnLevel, e.Level)
	}
	runtime.KeepAlive(v)
}

func TestDeadEntryIsAMiss(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	v := Intern(p, "tracker_cache", text{})
	s := p.buckets[text{}.Hash(v)][0].(*entry[string, byte])
	s.ref = weak.Pointer[byte]{}

	again := Intern(p, strings.Clone("tracker_cache"), text{})
	require.Equal("tracker_cache", again)
	require.Equal(2, p.Len())
	require.Zero(hitsOf(t, p, again))
	runtime.KeepAlive(v)
}

func TestConcurrentIntern(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	values := distinct("host", 200)
	results := make([][]string, 16)
	var wg sync.WaitGroup
	for g := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := make([]string, len(values))
			for i, v := range values {
				out[i] = Intern(p, strings.Clone(v), text{})
			}
			results[g] = out
		}()
	}
	wg.Wait()

	require.Equal(len(values), p.Len())
	for i := range values {
		want := unsafe.StringData(results[0][i])
		for g := range results {
			require.Same(want, unsafe.StringData(results[g][i]))
		}
	}
}

func TestCompactKeepsEntries(t *testing.T) {
	require := require.New(t)
	p, _ := quietPool(DefaultConfig())

	keep := distinct("k", 50)
	for i, v := range keep {
		keep[i] = Intern(p, v, text{})
	}
	p.Sweep()
	require.Equal(50, p.Len())
	for _, v := range keep {
		require.True(contains(p, v))
	}
}
