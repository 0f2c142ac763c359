package control

import (
	"context"
	"io"
	"net/http"
	"strconv"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const maxCopyBody = 16 << 20

// NewGateway returns an HTTP/JSON front for svc:
//
//	GET   /v1/history?q=&fuzzy=&limit=
//	POST  /v1/history/{index}/select?paste=
//	POST  /v1/copy        (raw text body)
//	GET   /v1/paste       (text/plain)
//	GET   /v1/status
//	GET   /v1/settings
//	PATCH /v1/settings    (JSON object of keys to change)
//	POST  /v1/cancel
//
// Calls go straight to svc in-process; the Authorization header is passed
// through as gRPC metadata so the same token check applies.
func NewGateway(svc *Service) (*gwruntime.ServeMux, error) {
	mux := gwruntime.NewServeMux()
	g := &gateway{svc: svc, mux: mux}

	routes := []struct {
		method, path string
		h            gwruntime.HandlerFunc
	}{
		{"GET", "/v1/history", g.history},
		{"POST", "/v1/history/{index}/select", g.selectEntry},
		{"POST", "/v1/copy", g.copy},
		{"GET", "/v1/paste", g.paste},
		{"GET", "/v1/status", g.status},
		{"GET", "/v1/settings", g.getSettings},
		{"PATCH", "/v1/settings", g.applySettings},
		{"POST", "/v1/cancel", g.cancel},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.path, rt.h); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

type gateway struct {
	svc *Service
	mux *gwruntime.ServeMux
}

func (g *gateway) context(r *http.Request) context.Context {
	ctx := r.Context()
	if auth := r.Header.Get("Authorization"); auth != "" {
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", auth))
	}
	return ctx
}

func (g *gateway) reply(w http.ResponseWriter, r *http.Request, resp proto.Message, err error) {
	_, out := gwruntime.MarshalerForRequest(g.mux, r)
	if err != nil {
		gwruntime.HTTPError(r.Context(), g.mux, out, w, r, err)
		return
	}
	data, err := out.Marshal(resp)
	if err != nil {
		gwruntime.HTTPError(r.Context(), g.mux, out, w, r, status.Error(codes.Internal, err.Error()))
		return
	}
	w.Header().Set("Content-Type", out.ContentType(resp))
	_, _ = w.Write(data)
}

func (g *gateway) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	g.reply(w, r, nil, status.Error(codes.InvalidArgument, msg))
}

func (g *gateway) history(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q := r.URL.Query()
	fields := map[string]*structpb.Value{
		"query": structpb.NewStringValue(q.Get("q")),
	}
	if v := q.Get("fuzzy"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			g.badRequest(w, r, "fuzzy: "+err.Error())
			return
		}
		fields["fuzzy"] = structpb.NewBoolValue(b)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			g.badRequest(w, r, "limit: "+err.Error())
			return
		}
		fields["limit"] = structpb.NewNumberValue(float64(n))
	}
	resp, err := g.svc.History(g.context(r), &structpb.Struct{Fields: fields})
	g.reply(w, r, resp, err)
}

func (g *gateway) selectEntry(w http.ResponseWriter, r *http.Request, params map[string]string) {
	idx, err := strconv.Atoi(params["index"])
	if err != nil {
		g.badRequest(w, r, "index: "+err.Error())
		return
	}
	paste, _ := strconv.ParseBool(r.URL.Query().Get("paste"))
	resp, err := g.svc.Select(g.context(r), &structpb.Struct{Fields: map[string]*structpb.Value{
		"index": structpb.NewNumberValue(float64(idx)),
		"paste": structpb.NewBoolValue(paste),
	}})
	g.reply(w, r, resp, err)
}

func (g *gateway) copy(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCopyBody))
	if err != nil {
		g.badRequest(w, r, err.Error())
		return
	}
	resp, err := g.svc.Copy(g.context(r), wrapperspb.String(string(body)))
	g.reply(w, r, resp, err)
}

func (g *gateway) paste(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	body, err := g.svc.Paste(g.context(r), &emptypb.Empty{})
	if err != nil {
		g.reply(w, r, nil, err)
		return
	}
	w.Header().Set("Content-Type", body.GetContentType())
	_, _ = w.Write(body.GetData())
}

func (g *gateway) status(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := g.svc.Status(g.context(r), &emptypb.Empty{})
	g.reply(w, r, resp, err)
}

func (g *gateway) getSettings(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := g.svc.GetSettings(g.context(r), &emptypb.Empty{})
	g.reply(w, r, resp, err)
}

func (g *gateway) applySettings(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	in, _ := gwruntime.MarshalerForRequest(g.mux, r)
	patch := &structpb.Struct{}
	if err := in.NewDecoder(r.Body).Decode(patch); err != nil {
		g.badRequest(w, r, "body: "+err.Error())
		return
	}
	resp, err := g.svc.ApplySettings(g.context(r), patch)
	g.reply(w, r, resp, err)
}

func (g *gateway) cancel(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := g.svc.Cancel(g.context(r), &emptypb.Empty{})
	g.reply(w, r, resp, err)
}
