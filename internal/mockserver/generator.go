package mockserver

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/lostfound/tui/internal/client"
)

type item struct {
	name        string
	category    string
	description string
}

var catalog = []item{
	{"Calculator", "Electronics", "Casio fx-991ES scientific calculator with a cracked cover"},
	{"Water Bottle", "Personal", "Blue steel Milton bottle with a dented cap"},
	{"ID Card", "Documents", "College ID card on a red lanyard"},
	{"Earphones", "Electronics", "White wired earphones in a small black pouch"},
	{"Umbrella", "Personal", "Black folding umbrella with a wooden handle"},
	{"Lab Record", "Books", "Physics lab record notebook with brown cover"},
	{"Wallet", "Personal", "Brown leather wallet with bus pass inside"},
	{"Charger", "Electronics", "65W laptop charger with a frayed cable"},
}

var (
	blocks    = []string{"A Block", "B Block", "C Block", "Library", "Canteen"}
	floors    = []string{"Ground", "First", "Second", "Third"}
	locations = []string{"near the staircase", "classroom 204", "reading hall", "lab 3", "main corridor"}
)

// Generator publishes synthetic reports on an interval.
type Generator struct {
	server   *Server
	interval time.Duration
	rng      *rand.Rand
	log      *slog.Logger
}

// NewGenerator creates a generator. A fixed seed gives a repeatable
// sequence.
func NewGenerator(server *Server, interval time.Duration, seed uint64) *Generator {
	return &Generator{
		server:   server,
		interval: interval,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:      server.log.With("component", "generator"),
	}
}

// Seed files n historical reports spread over the past 60 days so every
// time filter has something to show. Nothing is broadcast.
func (g *Generator) Seed(n int, now time.Time) {
	students := g.server.store.Students()
	if len(students) == 0 {
		return
	}
	for i := 0; i < n; i++ {
		// Oldest first so ids grow with created_at.
		age := time.Duration(n-i) * 60 * 24 * time.Hour / time.Duration(n+1)
		g.server.store.AddReport(students[g.rng.IntN(len(students))], g.next(), now.Add(-age))
	}
	g.log.Info("seeded reports", "count", n)
}

// Start publishes one report per interval until ctx is cancelled.
func (g *Generator) Start(ctx context.Context) {
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Tick()
		}
	}
}

// Tick publishes one report.
func (g *Generator) Tick() client.Report {
	students := g.server.store.Students()
	user := students[g.rng.IntN(len(students))]
	return g.server.Publish(user, g.next())
}

func (g *Generator) next() client.Report {
	it := catalog[g.rng.IntN(len(catalog))]
	typ := client.TypeLost
	if g.rng.IntN(2) == 1 {
		typ = client.TypeFound
	}
	return client.Report{
		Type:             typ,
		ItemName:         it.name,
		Category:         it.category,
		Description:      it.description,
		Block:            blocks[g.rng.IntN(len(blocks))],
		Floor:            floors[g.rng.IntN(len(floors))],
		SpecificLocation: locations[g.rng.IntN(len(locations))],
	}
}
