// Command ecsd runs a small demonstration world: a spawner system creates
// linked entities, a reaper marks old ones for destruction, and persisted
// queries track the live population. Per-tick deltas are exposed over the
// optional websocket observer endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lexazan/ape-ecs/internal/config"
	"github.com/Lexazan/ape-ecs/internal/core/observability/log"
	"github.com/Lexazan/ape-ecs/internal/observer"
	"github.com/Lexazan/ape-ecs/pkg/ecs"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))
	if err := run(cfg, logger); err != nil {
		logger.Error("ecsd exited", log.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stopCh
		cancel()
	}()

	world := ecs.NewWorld(ecs.WithLogger(logger))
	reg := world.Registry()
	for _, name := range cfg.World.Components {
		if _, err := reg.RegisterComponent(name); err != nil {
			return err
		}
	}
	for _, name := range cfg.World.Tags {
		if _, err := reg.RegisterTag(name); err != nil {
			return err
		}
	}

	position, err := reg.RegisterComponent("Position")
	if err != nil {
		return err
	}
	link, err := reg.RegisterComponent("Link")
	if err != nil {
		return err
	}
	active, err := reg.RegisterTag("Active")
	if err != nil {
		return err
	}

	hub, err := world.CreateEntityWithID("hub")
	if err != nil {
		return err
	}
	if _, err := hub.AddComponent(position, map[string]any{"x": 0, "y": 0}); err != nil {
		return err
	}

	spawner := world.RegisterSystem("spawner", func(s *ecs.System, tick ecs.Tick) {
		e := s.World().CreateEntity()
		c, err := e.AddComponent(position, map[string]any{"x": int(tick), "y": 0})
		if err != nil {
			return
		}
		c.Update(map[string]any{"spawned": uint64(tick)})
		lc, err := e.AddComponent(link, nil)
		if err != nil {
			return
		}
		lc.SetRef("hub", hub.ID())
		_ = e.AddTag(active)
	})

	world.RegisterSystem("reaper", func(s *ecs.System, tick ecs.Tick) {
		alive, err := s.World().CreateQuery(ecs.QueryInit{All: []ecs.TypeID{position}})
		if err != nil {
			return
		}
		results, err := alive.Execute()
		if err != nil {
			return
		}
		if results.Len() <= 10 {
			return
		}
		for id := range results {
			if id == hub.ID() {
				continue
			}
			_ = s.World().MarkForDestroy(id)
			break
		}
	})

	activeQuery, err := spawner.CreateQuery(ecs.QueryInit{
		All:          []ecs.TypeID{position},
		Only:         []ecs.TypeID{active},
		Persist:      true,
		TrackAdded:   true,
		TrackRemoved: true,
	})
	if err != nil {
		return err
	}
	hubRefs, err := spawner.CreateQuery(ecs.QueryInit{
		Reverse:      &ecs.ReverseClause{Target: hub.ID(), Type: link},
		Persist:      true,
		TrackAdded:   true,
		TrackRemoved: true,
	})
	if err != nil {
		return err
	}
	tracked := []struct {
		name  string
		query *ecs.Query
	}{
		{"active", activeQuery},
		{"hub-referrers", hubRefs},
	}

	// Delta sets are overwritten on every maintenance pass, and a tick runs
	// one pass per system plus the boundary pass. Harvest after each pass and
	// broadcast the per-tick union.
	added := make([]ecs.EntitySet, len(tracked))
	removed := make([]ecs.EntitySet, len(tracked))
	for i := range tracked {
		added[i] = make(ecs.EntitySet)
		removed[i] = make(ecs.EntitySet)
	}

	var srv *observer.Server
	if cfg.Observer.Enabled {
		srv = observer.NewServer(cfg.Observer.Addr, logger)
		world.OnIndexUpdate(func() {
			for i, t := range tracked {
				for id := range t.query.Added() {
					added[i].Add(id)
				}
				for id := range t.query.Removed() {
					removed[i].Add(id)
				}
			}
		})
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if srv != nil {
		group.Go(func() error {
			return srv.Run(groupCtx)
		})
	}

	group.Go(func() error {
		ticker := time.NewTicker(cfg.World.TickEvery.Std())
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				world.RunSystems()
				tick := world.Tick()
				if srv == nil {
					continue
				}
				delta := observer.TickDelta{Tick: uint64(tick)}
				for i, t := range tracked {
					qd := observer.QueryDelta{Query: t.name}
					for id := range added[i] {
						qd.Added = append(qd.Added, string(id))
					}
					for id := range removed[i] {
						qd.Removed = append(qd.Removed, string(id))
					}
					clear(added[i])
					clear(removed[i])
					if len(qd.Added) > 0 || len(qd.Removed) > 0 {
						delta.Queries = append(delta.Queries, qd)
					}
				}
				srv.Broadcast(delta)
			}
		}
	})

	logger.Info("ecsd running",
		log.Duration("tick_every", cfg.World.TickEvery.Std()),
		log.Int("entities", world.EntityCount()),
	)
	return group.Wait()
}
