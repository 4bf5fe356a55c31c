package service

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-test/deep"
	psort "github.com/sbezverk/sorttools/sort"
	"github.com/sbezverk/sorttools/workerpool"
	"golang.org/x/exp/slices"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func setup(t *testing.T, cfg Config) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := NewWithListener(lis, cfg)
	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial bufnet with error: %+v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
	})
	return conn
}

func TestSort(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		input   []float64
		workers int
	}{
		{
			name:    "empty",
			cfg:     Config{MaxWorkers: 4},
			input:   []float64{},
			workers: 4,
		},
		{
			name:    "descending pairwise",
			cfg:     Config{MaxWorkers: 4},
			input:   []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0, -1, -2, -3, -4, -5, -6, -7, -8, -9, -10},
			workers: 2,
		},
		{
			name:    "mixed kway",
			cfg:     Config{MaxWorkers: 8, Strategy: psort.KWay},
			input:   []float64{3.5, -1.25, 3.5, 1e9, 0, -7, 2, 2, 11, 0.5},
			workers: 5,
		},
		{
			name:    "workers capped by server",
			cfg:     Config{MaxWorkers: 2},
			input:   []float64{5, 4, 3, 2, 1},
			workers: 64,
		},
		{
			name:    "zero workers",
			cfg:     Config{MaxWorkers: 2},
			input:   []float64{2, 1, 3},
			workers: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(setup(t, tt.cfg))
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			expected := slices.Clone(tt.input)
			slices.Sort(expected)
			got, err := c.Sort(ctx, tt.input, tt.workers)
			if err != nil {
				t.Fatalf("supposed to succeed but failed with error: %+v", err)
			}
			if diff := deep.Equal(got, expected); diff != nil {
				t.Errorf("%+v", diff)
			}
		})
	}
}

func TestSortInvalidArgument(t *testing.T) {
	conn := setup(t, Config{MaxWorkers: 2})
	tests := []struct {
		name string
		req  *structpb.Struct
	}{
		{
			name: "missing values",
			req:  &structpb.Struct{Fields: map[string]*structpb.Value{}},
		},
		{
			name: "values not a list",
			req: &structpb.Struct{Fields: map[string]*structpb.Value{
				valuesField: structpb.NewNumberValue(1),
			}},
		},
		{
			name: "non numeric element",
			req: &structpb.Struct{Fields: map[string]*structpb.Value{
				valuesField: structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
					structpb.NewNumberValue(1),
					structpb.NewStringValue("two"),
				}}),
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := new(structpb.ListValue)
			err := conn.Invoke(context.Background(), SortMethod, tt.req, out)
			if status.Code(err) != codes.InvalidArgument {
				t.Fatalf("expected InvalidArgument, got: %+v", err)
			}
		})
	}
}

func TestSortCanceledBeforeStart(t *testing.T) {
	srv := &sortSrv{pool: workerpool.New(1)}
	defer srv.pool.Close()
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		valuesField: structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
			structpb.NewNumberValue(2),
			structpb.NewNumberValue(1),
		}}),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := srv.Sort(ctx, req); status.Code(err) != codes.Canceled {
		t.Fatalf("expected Canceled, got: %+v", err)
	}

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if _, err := srv.Sort(ctx, req); status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got: %+v", err)
	}
}
