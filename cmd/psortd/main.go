package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/golang/glog"
	"github.com/sbezverk/sorttools"
	"github.com/sbezverk/sorttools/service"
	psort "github.com/sbezverk/sorttools/sort"
)

var (
	addr       = flag.String("addr", ":50051", "address to serve sorttools.SortService on")
	maxWorkers = flag.Int("max_workers", runtime.NumCPU(), "maximum workers per request, also the shared pool size")
	strategy   = flag.String("strategy", "pairwise", "chunk merge strategy, pairwise or kway")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if err := sorttools.HostAddrValidator(*addr); err != nil {
		glog.Errorf("%+v", err)
		glog.Flush()
		os.Exit(1)
	}
	st, err := psort.ParseStrategy(*strategy)
	if err != nil {
		glog.Errorf("%+v", err)
		glog.Flush()
		os.Exit(1)
	}
	stopCh := sorttools.SetupSignalHandler()
	srv, err := service.New(*addr, service.Config{MaxWorkers: *maxWorkers, Strategy: st})
	if err != nil {
		glog.Errorf("failed to start sort service on %s with error: %+v", *addr, err)
		glog.Flush()
		os.Exit(1)
	}
	<-stopCh
	srv.Stop()
}
