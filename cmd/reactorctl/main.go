// Command reactorctl is a small demo/smoke binary exercising the reactor,
// fupool, pathset, and rope packages together: it attaches an object event
// to a reactor and drains it, resolves a future through fupool, builds a
// pathset and prints its minimal top-level cover, and splices a rope.
// With --snapshot, a point-in-time summary is persisted to an embedded
// key-value store for later inspection.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/li-xilin/gox/fupool"
	"github.com/li-xilin/gox/pathset"
	"github.com/li-xilin/gox/reactor"
	"github.com/li-xilin/gox/reactorcfg"
	"github.com/li-xilin/gox/reactorlog"
	"github.com/li-xilin/gox/rope"
)

func main() {
	var (
		configPath   = flag.String("config", "", "path to a JSON config file layered onto compiled-in defaults")
		snapshotFlag = flag.Bool("snapshot", false, "write a demo-run snapshot to the configured embedded db")
	)
	flag.Parse()

	cfg, err := reactorcfg.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *snapshotFlag {
		cfg.Snapshot.Enabled = true
	}

	log := reactorlog.Component(`reactorctl`)

	ps := demoPathSet(cfg)
	top := ps.FindTop()

	r := demoRope()

	pool := fupool.NewPool()
	defer pool.Close()
	done := demoFuture(pool)

	var metrics *reactor.Metrics
	if cfg.Reactor.EnableMetrics {
		metrics = reactor.NewMetrics()
	}
	rx, err := reactor.New(
		reactor.WithTimerCapacityHint(cfg.Reactor.TimerCapacityHint),
		reactor.WithMetrics(metrics),
	)
	if err != nil {
		log.Err().Err(err).Log(`failed to construct reactor`)
		os.Exit(1)
	}
	defer rx.Close()

	obj := reactor.NewObjectEvent("demo-object")
	if err := rx.Add(obj); err != nil {
		log.Err().Err(err).Log(`failed to attach object event`)
		os.Exit(1)
	}
	obj.SetResultFlags(reactor.Read)

	n, err := rx.Wait()
	if err != nil {
		log.Err().Err(err).Log(`wait failed`)
		os.Exit(1)
	}
	fmt.Printf("reactor: %d event(s) pending\n", n)
	for ev := rx.PopEvent(); ev != nil; ev = rx.PopEvent() {
		fmt.Printf("reactor: popped event userdata=%v flags=%v\n", ev.UserData(), ev.ResultFlags())
	}

	fmt.Printf("pathset: top-level cover: %v\n", pathsOf(top))
	fmt.Printf("rope: spliced contents: %q\n", r.Splice())
	fmt.Printf("fupool: future result: %d\n", <-done)

	if cfg.Snapshot.Enabled {
		if err := writeSnapshot(cfg.Snapshot.DBPath, ps, metrics); err != nil {
			log.Err().Err(err).Log(`snapshot write failed`)
			os.Exit(1)
		}
		fmt.Printf("snapshot written to %s\n", cfg.Snapshot.DBPath)
	}
}

func demoPathSet(cfg reactorcfg.Config) *pathset.PathSet {
	ps := pathset.New(
		pathset.WithMaxDepth(cfg.PathSet.MaxDepth),
		pathset.WithMaxPathLength(cfg.PathSet.MaxPathLength),
	)
	_, _ = ps.Insert(0x01, "/a", false)
	_, _ = ps.Insert(0x02, "/a/b", false)
	_, _ = ps.Insert(0x04, "/b/a", false)
	_, _ = ps.Insert(0x08, "/b/b", false)
	return ps
}

func pathsOf(entries []pathset.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func demoRope() *rope.Rope {
	r := rope.New("hello, ")
	r.Append("reactorctl")
	return r
}

func demoFuture(pool *fupool.Pool) <-chan int {
	fut := pool.Init("demo payload")
	resultCh := make(chan int, 1)
	go func() {
		promise := pool.StartPromise(fut.Seq())
		if !promise.Empty() {
			promise.Commit(200)
		}
	}()
	go func() {
		_, _ = pool.Wait(fut, -1)
		resultCh <- fut.Retcode()
		pool.Free(fut)
	}()
	return resultCh
}

type snapshotDoc struct {
	Timestamp time.Time         `json:"timestamp"`
	PathSet   string            `json:"pathset"`
	Metrics   *reactor.Snapshot `json:"metrics,omitempty"`
}

func writeSnapshot(dbPath string, ps *pathset.PathSet, metrics *reactor.Metrics) error {
	db, err := buntdb.Open(dbPath)
	if err != nil {
		return fmt.Errorf("reactorctl: opening snapshot db: %w", err)
	}
	defer db.Close()

	doc := snapshotDoc{Timestamp: time.Now(), PathSet: ps.Dump()}
	if metrics != nil {
		snap := metrics.Snapshot()
		doc.Metrics = &snap
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("reactorctl: marshalling snapshot: %w", err)
	}

	return db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(fmt.Sprintf("snapshot:%d", time.Now().UnixNano()), string(b), nil)
		return err
	})
}
