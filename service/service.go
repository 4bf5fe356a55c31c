// Package service exposes the parallel sort over gRPC.
//
// The service is sorttools.SortService with a single unary method, Sort. The request is a
// google.protobuf.Struct carrying "values", a list of numbers, and "workers", a number; the
// reply is a google.protobuf.ListValue holding the values in ascending order.
package service

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/golang/glog"
	psort "github.com/sbezverk/sorttools/sort"
	"github.com/sbezverk/sorttools/workerpool"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	grpcpeer "google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName   = "sorttools.SortService"
	SortMethod    = "/" + ServiceName + "/Sort"
	MaxRcvMsgSize = 64 * 1024 * 1024

	valuesField  = "values"
	workersField = "workers"
)

// SortServer is the server side of sorttools.SortService.
type SortServer interface {
	Sort(context.Context, *structpb.Struct) (*structpb.ListValue, error)
}

// ServiceDesc describes sorttools.SortService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SortServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Sort",
			Handler:    sortHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sorttools/sort.proto",
}

func sortHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SortServer).Sort(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SortMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SortServer).Sort(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

// Config tunes a sort server.
type Config struct {
	// MaxWorkers caps the workers a single request may ask for and sizes the shared pool.
	// Zero means GOMAXPROCS.
	MaxWorkers int
	Strategy   psort.Strategy
}

// Server is a running sort service.
type Server interface {
	Addr() net.Addr
	Stop()
}

type sortSrv struct {
	conn     net.Listener
	gSrv     *grpc.Server
	pool     *workerpool.Pool
	strategy psort.Strategy
}

var _ SortServer = &sortSrv{}

func (srv *sortSrv) Addr() net.Addr {
	return srv.conn.Addr()
}

func (srv *sortSrv) Stop() {
	glog.Infof("Stopping sort service on %s", srv.conn.Addr())
	srv.gSrv.GracefulStop()
	srv.pool.Close()
}

// New listens on addr and serves sorttools.SortService.
func New(addr string, cfg Config) (Server, error) {
	conn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	return NewWithListener(conn, cfg), nil
}

// NewWithListener serves sorttools.SortService on an existing listener.
func NewWithListener(conn net.Listener, cfg Config) Server {
	srv := &sortSrv{
		conn:     conn,
		pool:     workerpool.New(cfg.MaxWorkers),
		strategy: cfg.Strategy,
		gSrv: grpc.NewServer(
			grpc.MaxRecvMsgSize(MaxRcvMsgSize),
			grpc.KeepaliveParams(keepalive.ServerParameters{Time: time.Second * 30, Timeout: time.Second * 10}),
			grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{MinTime: time.Second * 10, PermitWithoutStream: true}),
		),
	}
	srv.gSrv.RegisterService(&ServiceDesc, srv)

	go func() {
		if err := srv.gSrv.Serve(conn); err != nil {
			glog.Errorf("sort service on %s terminated with error: %+v", conn.Addr(), err)
		}
	}()
	glog.Infof("Sort service listening on %s with %d workers", conn.Addr(), srv.pool.NumWorkers())

	return srv
}

func (srv *sortSrv) Sort(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	if p, ok := grpcpeer.FromContext(ctx); ok {
		glog.V(5).Infof("Incoming Sort from: %s", p.Addr)
	}
	lv := req.GetFields()[valuesField].GetListValue()
	if lv == nil {
		return nil, status.Errorf(codes.InvalidArgument, "request field %q must be a list of numbers", valuesField)
	}
	values := make([]float64, len(lv.GetValues()))
	for i, v := range lv.GetValues() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "element %d of %q is not a number", i, valuesField)
		}
		values[i] = n.NumberValue
	}
	workers := min(int(req.GetFields()[workersField].GetNumberValue()), srv.pool.NumWorkers())

	// Sorting is not interruptible, so a request already abandoned is not started.
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		}
		return nil, status.Error(codes.Canceled, err.Error())
	}
	err := psort.SortWithOptions(values, psort.Options{
		Workers:  workers,
		Strategy: srv.strategy,
		Pool:     srv.pool,
	})
	if err != nil {
		glog.Errorf("failed to sort %d values with error: %+v", len(values), err)
		return nil, status.Errorf(codes.Internal, "sort failed: %v", err)
	}

	out := &structpb.ListValue{Values: make([]*structpb.Value, len(values))}
	for i, v := range values {
		out.Values[i] = structpb.NewNumberValue(v)
	}

	return out, nil
}
