package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/store"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure store dispatch and change feed latency",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  "iters",
				Usage: "Samples per row",
				Value: 1_000,
			},
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Write a CPU profile to this file",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var (
	fanout  = []int{0, 1, 10, 100}
	senders = []int{1, 4, 16}
	bursts  = []int{1, 10, 100, 1_000}
	docs    = []int{10, 100, 1_000}
)

type counter struct{ n int }

type bump struct{}

func count(s counter, _ bump) (counter, store.Effect[bump]) {
	s.n++
	return s, store.None[bump]()
}

func quiet() store.Option {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return store.WithLogger(logrus.NewEntry(l))
}

func newCounter() *store.Store[counter, bump] {
	return store.New[counter, bump](counter{}, store.ReducerFunc[counter, bump](count), quiet())
}

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String("profile"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Uint("iters"))
	log.Printf("warming up")
	benchmarkSend(ctx, iters, false)

	benchmarkSend(ctx, iters, true)
	benchmarkContention(iters)
	benchmarkStream(iters)
	benchmarkFeed(ctx, iters)
	return nil
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "ops/s"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, calc *tachymeter.Metrics) {
	tbl.AppendRow(table.Row{
		name,
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
		humanize.Comma(int64(calc.Rate.Second)),
	})
}

// benchmarkSend times an uncontended Send with observers attached.
func benchmarkSend(ctx context.Context, iters int, shouldRender bool) {
	tbl := newTable("Send")

	for _, n := range fanout {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		s := newCounter()
		ctx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range s.Observe(ctx) {
				}
			}()
		}

		wall := time.Now()
		for range iters {
			start := time.Now()
			s.Send(bump{})
			tach.AddTime(time.Since(start))
		}
		tach.SetWallTime(time.Since(wall))

		s.Teardown()
		cancel()
		wg.Wait()
		appendCalc(tbl, fmt.Sprintf("send: %d observers", n), tach.Calc())
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkContention has several goroutines sending at once, so most sends
// queue behind whichever caller is draining.
func benchmarkContention(iters int) {
	tbl := newTable("Concurrent Send")

	for _, n := range senders {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		s := newCounter()

		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		per := max(iters/n, 1)
		wall := time.Now()
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range per {
					start := time.Now()
					s.Send(bump{})
					d := time.Since(start)
					mu.Lock()
					tach.AddTime(d)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		tach.SetWallTime(time.Since(wall))

		if got := s.State().n; got != per*n {
			log.Printf("contention %d: reduced %d of %d", n, got, per*n)
		}
		s.Teardown()
		appendCalc(tbl, fmt.Sprintf("send: %d goroutines", n), tach.Calc())
	}

	tbl.Render()
}

type burst struct {
	size int
	got  int
}

type burstAction struct {
	start bool
}

func reduceBurst(s burst, a burstAction) (burst, store.Effect[burstAction]) {
	if !a.start {
		s.got++
		return s, store.None[burstAction]()
	}
	s.got = 0
	size := s.size
	return s, store.Stream("burst", store.CauseOf("bench", "burst"), func(ctx context.Context) iter.Seq[burstAction] {
		return func(yield func(burstAction) bool) {
			for range size {
				if !yield(burstAction{}) {
					return
				}
			}
		}
	})
}

// benchmarkStream times a stream effect from arming to its last emission
// being reduced.
func benchmarkStream(iters int) {
	tbl := newTable("Stream")
	samples := max(iters/10, 1)

	for _, n := range bursts {
		tach := tachymeter.New(&tachymeter.Config{Size: samples})
		s := store.New[burst, burstAction](burst{size: n}, store.ReducerFunc[burst, burstAction](reduceBurst), quiet())

		wall := time.Now()
		for range samples {
			start := time.Now()
			s.Send(burstAction{start: true})
			if _, err := store.Await(context.Background(), s, func(b burst) bool { return b.got == n }); err != nil {
				log.Printf("stream %d: %v", n, err)
				break
			}
			tach.AddTime(time.Since(start))
		}
		tach.SetWallTime(time.Since(wall))

		s.Teardown()
		s.Wait()
		appendCalc(tbl, fmt.Sprintf("stream: %s actions", humanize.Comma(int64(n))), tach.Calc())
	}

	tbl.Render()
}

// benchmarkFeed times a write to the in-memory document store until a watch
// on the same collection observes it.
func benchmarkFeed(ctx context.Context, iters int) {
	tbl := newTable("Document Feed")
	samples := max(iters/10, 1)

	for _, n := range docs {
		db := docstore.NewMemory()
		for i := range n {
			doc := docstore.Document{ID: fmt.Sprintf("doc-%06d", i), Data: map[string]any{"n": i}}
			if _, err := docstore.Put(ctx, db, "bench", doc); err != nil {
				log.Fatal(err)
			}
		}

		ctx, cancel := context.WithCancel(ctx)
		seen := make(chan docstore.Version, 1)
		go func() {
			for snap, err := range db.Watch(ctx, docstore.Collection("bench")) {
				if err != nil {
					return
				}
				select {
				case seen <- snap.Version:
				case <-ctx.Done():
					return
				}
			}
		}()
		<-seen

		tach := tachymeter.New(&tachymeter.Config{Size: samples})
		wall := time.Now()
		for i := range samples {
			doc := docstore.Document{ID: "doc-000000", Data: map[string]any{"n": -i}}
			start := time.Now()
			v, err := docstore.Put(ctx, db, "bench", doc)
			if err != nil {
				log.Fatal(err)
			}
			for got := range seen {
				if got >= v {
					break
				}
			}
			tach.AddTime(time.Since(start))
		}
		tach.SetWallTime(time.Since(wall))

		cancel()
		db.Close()
		appendCalc(tbl, fmt.Sprintf("feed: %s docs", humanize.Comma(int64(n))), tach.Calc())
	}

	tbl.Render()
}
