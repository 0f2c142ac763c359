package control

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.klb.dev/smartclip/internal/engine"
	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/hotkey"
	"go.klb.dev/smartclip/internal/hub"
	"go.klb.dev/smartclip/internal/recall"
	"go.klb.dev/smartclip/internal/settings"
)

// Engine is the part of *engine.Engine the service drives.
type Engine interface {
	Snapshot(ctx context.Context) ([]history.Entry, error)
	Select(ctx context.Context, i int, paste bool) (string, error)
	Copy(ctx context.Context, text string) error
	Current(ctx context.Context) (history.Entry, bool, error)
	Cancel(ctx context.Context) (bool, error)
	Settings(ctx context.Context) (settings.Settings, error)
	ApplySettings(ctx context.Context, s settings.Settings) (settings.Settings, error)
	Status(ctx context.Context) (engine.Status, error)
}

// Service implements ControlServer.
type Service struct {
	e     Engine
	h     *hub.Hub
	token string // empty = no auth
}

// NewService returns a Service over e, streaming events from h. token may be
// empty to disable auth.
func NewService(e Engine, h *hub.Hub, token string) *Service {
	return &Service{e: e, h: h, token: token}
}

var _ ControlServer = (*Service)(nil)

// History implements ControlServer.History.
func (s *Service) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	entries, err := s.e.Snapshot(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	f := req.GetFields()
	query := f["query"].GetStringValue()
	var ms []history.Match
	if f["fuzzy"].GetBoolValue() {
		ms = history.Fuzzy(entries, query)
	} else {
		ms = history.Filter(entries, query)
	}
	if limit := int(f["limit"].GetNumberValue()); limit > 0 && len(ms) > limit {
		ms = ms[:limit]
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"entries": matchesValue(ms),
		"total":   structpb.NewNumberValue(float64(len(entries))),
	}}, nil
}

// Select implements ControlServer.Select.
func (s *Service) Select(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	f := req.GetFields()
	idx, ok := f["index"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "index is required")
	}
	text, err := s.e.Select(ctx, int(idx.GetNumberValue()), f["paste"].GetBoolValue())
	if err != nil {
		return nil, toStatus(err)
	}
	slog.Debug("entry selected", "index", int(idx.GetNumberValue()), "preview", hub.Preview(text))
	return wrapperspb.String(text), nil
}

// Copy implements ControlServer.Copy.
func (s *Service) Copy(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	if req.GetValue() == "" {
		return &emptypb.Empty{}, nil
	}
	if err := s.e.Copy(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// Paste implements ControlServer.Paste.
func (s *Service) Paste(ctx context.Context, _ *emptypb.Empty) (*httpbody.HttpBody, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	e, ok, err := s.e.Current(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	body := &httpbody.HttpBody{ContentType: "text/plain; charset=utf-8"}
	if ok {
		body.Data = []byte(e.Text)
	}
	return body, nil
}

// Status implements ControlServer.Status.
func (s *Service) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	st, err := s.e.Status(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return statusStruct(st), nil
}

// GetSettings implements ControlServer.GetSettings.
func (s *Service) GetSettings(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	cur, err := s.e.Settings(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return settingsStruct(cur)
}

// ApplySettings implements ControlServer.ApplySettings. Keys absent from the
// request keep their current values. When the apply partly fails the error
// is returned and the settings now in effect are logged.
func (s *Service) ApplySettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	cur, err := s.e.Settings(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	next, err := mergeSettings(cur, req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	applied, err := s.e.ApplySettings(ctx, next)
	if err != nil {
		slog.Warn("settings apply incomplete", "err", err, "swap_hotkey", applied.SwapHotkey)
		return nil, toStatus(err)
	}
	return settingsStruct(applied)
}

// Cancel implements ControlServer.Cancel.
func (s *Service) Cancel(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	open, err := s.e.Cancel(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(open), nil
}

// Watch implements ControlServer.Watch.
func (s *Service) Watch(req *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()
	if err := s.auth(ctx); err != nil {
		return err
	}

	var kinds []hub.Kind
	for _, v := range req.GetFields()["kinds"].GetListValue().GetValues() {
		kinds = append(kinds, hub.Kind(v.GetStringValue()))
	}
	sub := hub.NewChanSubscriber("watch", kinds...)
	s.h.Register(sub)
	defer s.h.Unregister(sub)
	defer sub.Close()

	slog.Info("watch started", "subscriber", sub.ID(), "kinds", kinds)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-sub.Events():
			if err := stream.SendMsg(eventStruct(ev)); err != nil {
				return err
			}
		}
	}
}

func settingsStruct(s settings.Settings) (*structpb.Struct, error) {
	out, err := toStruct(s)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// auth validates the bearer token in ctx metadata. Skipped when s.token is empty.
func (s *Service) auth(ctx context.Context) error {
	if s.token == "" {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing authorization header")
	}
	const prefix = "Bearer "
	tok := vals[0]
	if len(tok) > len(prefix) && tok[:len(prefix)] == prefix {
		tok = tok[len(prefix):]
	}
	if tok != s.token {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	return nil
}

// toStatus maps engine errors to gRPC status codes.
func toStatus(err error) error {
	var be *hotkey.BindingError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, engine.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, recall.ErrIndexOutOfRange):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, settings.ErrInvalidCapacity), errors.As(err, &be):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
