package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/golang/glog"
	"github.com/sbezverk/sorttools/dataset"
	"github.com/sbezverk/sorttools/service"
	psort "github.com/sbezverk/sorttools/sort"
	"github.com/sbezverk/sorttools/store"
	"golang.org/x/exp/slices"
)

var (
	numElements = flag.Int("num_elements", 1_000_000, "number of random elements to sort")
	numThreads  = flag.Int("num_threads", runtime.NumCPU(), "number of workers sorting chunks concurrently")
	strategy    = flag.String("strategy", "pairwise", "chunk merge strategy, pairwise or kway")
	seed        = flag.Int64("seed", 0, "random seed, 0 picks a time based seed")
	input       = flag.String("input", "", "dataset file to sort instead of random data")
	output      = flag.String("output", "", "dataset file to write the sorted elements to")
	verify      = flag.Bool("verify", false, "compare the result against a baseline sort")
	resultsDB   = flag.String("results_db", "", "bbolt database recording every run")
	history     = flag.Bool("history", false, "print the runs recorded in --results_db and exit")
	server      = flag.String("server", "", "address of a psortd to sort on instead of in process")
)

var errVerify = errors.New("result does not match the baseline sort")

func main() {
	flag.Set("logtostderr", "true")
	flag.Parse()

	err := run()
	glog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "psort: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *history {
		return printHistory()
	}
	st, err := psort.ParseStrategy(*strategy)
	if err != nil {
		return err
	}

	var data []int32
	if *input != "" {
		if data, err = dataset.ReadFile(*input); err != nil {
			return err
		}
	} else {
		data = dataset.Generate(*numElements, *seed)
	}
	var expected []int32
	if *verify {
		expected = slices.Clone(data)
		slices.Sort(expected)
	}

	start := time.Now()
	if *server != "" {
		err = sortRemote(data)
	} else {
		err = psort.SortWithOptions(data, psort.Options{Workers: *numThreads, Strategy: st})
	}
	if err != nil {
		return err
	}
	result := &store.Result{
		NumElements: len(data),
		NumWorkers:  psort.EffectiveWorkers(len(data), *numThreads),
		Strategy:    st.String(),
		Elapsed:     time.Since(start),
		Timestamp:   start.UTC(),
	}

	if *verify && !slices.Equal(data, expected) {
		return errVerify
	}
	if *output != "" {
		if err := dataset.WriteFile(*output, data); err != nil {
			return err
		}
	}
	fmt.Println(result.CSV())

	if *resultsDB == "" {
		return nil
	}
	s, err := store.NewStore(*resultsDB)
	if err != nil {
		return err
	}
	if err := s.Add(result); err != nil {
		s.Stop()
		return fmt.Errorf("failed to record result with error: %w", err)
	}

	return s.Stop()
}

func sortRemote(data []int32) error {
	conn, err := service.Dial(*server)
	if err != nil {
		return fmt.Errorf("failed to connect to %s with error: %w", *server, err)
	}
	defer conn.Close()

	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = float64(v)
	}
	sorted, err := service.NewClient(conn).Sort(context.Background(), values, *numThreads)
	if err != nil {
		return fmt.Errorf("remote sort on %s failed with error: %w", *server, err)
	}
	if len(sorted) != len(data) {
		return fmt.Errorf("remote sort returned %d elements, sent %d", len(sorted), len(data))
	}
	for i, v := range sorted {
		data[i] = int32(v)
	}

	return nil
}

func printHistory() error {
	if *resultsDB == "" {
		return errors.New("--history requires --results_db")
	}
	s, err := store.NewStore(*resultsDB)
	if err != nil {
		return err
	}
	defer s.Stop()
	l, err := s.List()
	if err != nil {
		return err
	}
	for _, r := range l {
		fmt.Printf("%s,%s,%s\n", r.Timestamp.Format(time.RFC3339), r.CSV(), r.Strategy)
	}

	return nil
}
