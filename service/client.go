package service

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls sorttools.SortService.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient returns a client using an established connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial connects to a sort service at addr without transport security.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.Dial(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(MaxRcvMsgSize)),
	)
}

// Sort sends values to the service and returns them sorted ascending.
func (c *Client) Sort(ctx context.Context, values []float64, workers int) ([]float64, error) {
	lv := &structpb.ListValue{Values: make([]*structpb.Value, len(values))}
	for i, v := range values {
		lv.Values[i] = structpb.NewNumberValue(v)
	}
	req := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			valuesField:  structpb.NewListValue(lv),
			workersField: structpb.NewNumberValue(float64(workers)),
		},
	}
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, SortMethod, req, out); err != nil {
		return nil, err
	}
	sorted := make([]float64, len(out.GetValues()))
	for i, v := range out.GetValues() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("reply element %d is not a number", i)
		}
		sorted[i] = n.NumberValue
	}

	return sorted, nil
}
