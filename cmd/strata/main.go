package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/strata-db/strata/dataflow"
	"github.com/strata-db/strata/domain"
	"github.com/strata-db/strata/internal/logger"
	"github.com/strata-db/strata/ops"
	"github.com/strata-db/strata/server"
	"github.com/strata-db/strata/state"
)

var (
	buildString = "unknown"
	ko          = koanf.New(".")
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	initFlags(ko)

	if ko.Bool("version") {
		fmt.Println(buildString)
		os.Exit(0)
	}
	logger.SetDevelopment(ko.Bool("dev"))
	log.Info().Str("build", buildString).Msg("starting strata")

	// A small demo view chain: articles feed a projection that keeps only
	// (title, id), and an identity view sits on top of the projection.
	graph := dataflow.NewGraph()
	articles := graph.AddBase("articles", []string{"id", "author", "title"})
	projection := ops.NewPermute(articles, []int{2, 0})
	titles := graph.AddNode("titles", []string{"title", "id"}, projection)
	reference := graph.AddNode("titles_view", []string{"title", "id"}, ops.NewIdentity(titles))

	remap := graph.Commit()
	articles = articles.Remap(remap)
	titles = titles.Remap(remap)
	reference = reference.Remap(remap)
	log.Info().
		Stringer("articles", articles).
		Stringer("titles", titles).
		Stringer("view", reference).
		Msg("committed the demo graph")

	states := state.NewMap()
	if err := openState(states, articles); err != nil {
		log.Fatal().Err(err).Msg("error opening the state backend")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	worker := domain.NewWorker(graph, states, ko.Int("domain.buffer"))
	worker.Start(ctx)

	go server.Run(ko, graph)

	seed(worker, articles)

	<-ctx.Done()
	worker.Wait()
	log.Info().Msg("received interrupt signal; shutting down")
}

// openState materializes the base table so the unmaterialized projection can
// be queried through it.
func openState(states *state.Map, base dataflow.NodeAddress) error {
	switch backend := ko.String("state.backend"); backend {
	case "badger":
		st, err := state.NewBadger(0, 2)
		if err != nil {
			return err
		}
		states.Set(base, st)
	case "memory":
		states.Set(base, state.NewMemory(0, 2))
	default:
		return fmt.Errorf("unknown state backend: %s", backend)
	}
	return nil
}

func seed(worker *domain.Worker, articles dataflow.NodeAddress) {
	rows := []dataflow.Row{
		{dataflow.IntValue(1), dataflow.TextValue("maple"), dataflow.TextValue("incremental views in practice")},
		{dataflow.IntValue(2), dataflow.TextValue("birch"), dataflow.TextValue("projections that cost nothing")},
	}
	for _, row := range rows {
		worker.Inject(articles, dataflow.Message{
			From: articles,
			Data: dataflow.UpdateOf(dataflow.PositiveRecord(row)),
		})
	}
}
