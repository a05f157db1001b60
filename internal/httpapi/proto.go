package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxIngestBody caps device payloads in either encoding. A full telemetry
// body is under 300 bytes in JSON.
const maxIngestBody = 4096

// maxAdminBody caps admin JSON bodies; the settings update carries the
// whole hardware profile.
const maxAdminBody = 64 << 10

const protobufContentType = "application/x-protobuf"

var errBodyTooLarge = errors.New("request body too large")

// isProtobuf returns true if the request's Content-Type indicates a
// protobuf payload. Firmware sends "application/x-protobuf".
func isProtobuf(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == protobufContentType ||
		ct == "application/protobuf" ||
		ct == "application/octet-stream"
}

// readBody reads at most limit bytes, failing if the body is longer.
func readBody(r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// protoToJSON decodes a protobuf google.protobuf.Struct and re-encodes it
// as JSON, so that both encodings share one set of request types.
func protoToJSON(body []byte) ([]byte, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(body, &st); err != nil {
		return nil, err
	}
	return json.Marshal(st.AsMap())
}

// jsonToProto is the inverse for responses.
func jsonToProto(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// writeProto marshals v as a Struct and writes it with the given HTTP
// status.
func writeProto(w http.ResponseWriter, status int, v any) {
	data, err := jsonToProto(v)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// reply answers in the request's encoding.
func reply(w http.ResponseWriter, r *http.Request, status int, v any) {
	if isProtobuf(r) {
		writeProto(w, status, v)
		return
	}
	writeJSON(w, status, v)
}
