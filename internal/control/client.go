package control

import (
	"context"
	"errors"
	"io"
	"net"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.klb.dev/smartclip/internal/settings"
)

// Client calls a running daemon's control service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial returns a Client whose connections are made by dial, typically
// ipc.Dial. token is sent as a bearer token when non-empty.
func Dial(dial func(context.Context) (net.Conn, error), token string) (*Client, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return dial(ctx)
		}),
	}
	if token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearer(token)))
	}
	conn, err := grpc.NewClient("passthrough:///smartclip", opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, fullMethod(method), in, out)
}

// History returns entries matching query, at most limit when limit > 0.
func (c *Client) History(ctx context.Context, query string, fuzzy bool, limit int) ([]Entry, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"query": structpb.NewStringValue(query),
		"fuzzy": structpb.NewBoolValue(fuzzy),
		"limit": structpb.NewNumberValue(float64(limit)),
	}}
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "History", req, out); err != nil {
		return nil, err
	}
	return entriesFromStruct(out), nil
}

// Select commits history entry i and returns its text.
func (c *Client) Select(ctx context.Context, i int, paste bool) (string, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"index": structpb.NewNumberValue(float64(i)),
		"paste": structpb.NewBoolValue(paste),
	}}
	out := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, "Select", req, out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Copy puts text on the clipboard through the daemon.
func (c *Client) Copy(ctx context.Context, text string) error {
	return c.invoke(ctx, "Copy", wrapperspb.String(text), new(emptypb.Empty))
}

// Paste returns the most recent history entry.
func (c *Client) Paste(ctx context.Context) (string, error) {
	out := new(httpbody.HttpBody)
	if err := c.invoke(ctx, "Paste", &emptypb.Empty{}, out); err != nil {
		return "", err
	}
	return string(out.GetData()), nil
}

// Status returns the daemon status as key/value pairs.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "Status", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// Settings returns the active settings.
func (c *Client) Settings(ctx context.Context) (settings.Settings, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "GetSettings", &emptypb.Empty{}, out); err != nil {
		return settings.Settings{}, err
	}
	return settingsFromStruct(out)
}

// ApplySettings changes the given keys and returns the resulting settings.
func (c *Client) ApplySettings(ctx context.Context, patch map[string]any) (settings.Settings, error) {
	req, err := structpb.NewStruct(patch)
	if err != nil {
		return settings.Settings{}, err
	}
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "ApplySettings", req, out); err != nil {
		return settings.Settings{}, err
	}
	return settingsFromStruct(out)
}

// Cancel closes an open recall session and reports whether one was open.
func (c *Client) Cancel(ctx context.Context) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, "Cancel", &emptypb.Empty{}, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Watch calls fn for each engine event of the given kinds (all when empty)
// until ctx is done, the stream fails, or fn returns an error.
func (c *Client) Watch(ctx context.Context, kinds []string, fn func(map[string]any) error) error {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("Watch"))
	if err != nil {
		return err
	}
	vals := make([]any, len(kinds))
	for i, k := range kinds {
		vals[i] = k
	}
	req, err := structpb.NewStruct(map[string]any{"kinds": vals})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(req); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		ev := new(structpb.Struct)
		if err := stream.RecvMsg(ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(ev.AsMap()); err != nil {
			return err
		}
	}
}

type bearer string

func (b bearer) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (bearer) RequireTransportSecurity() bool { return false }
