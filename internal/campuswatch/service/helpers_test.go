package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/store/memory"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

var quiet = slog.New(slog.DiscardHandler)

// newDirectory returns a memory store holding rooms 3 and 5, active
// student 1 and inactive student 7.
func newDirectory() *memory.Store {
	st := memory.New()
	st.PutRoom(store.RoomRecord{ID: 3, Name: "Lab 3", Location: "North wing", Active: true})
	st.PutRoom(store.RoomRecord{ID: 5, Name: "Library", Location: "Ground floor", Active: true})
	st.PutStudent(store.StudentRecord{ID: 1, Name: "Ada", Active: true})
	st.PutStudent(store.StudentRecord{ID: 7, Name: "Grace", Active: false})
	return st
}

func mustCreateDevice(t *testing.T, st *memory.Store, typ types.DeviceType, token string, active bool) store.DeviceRecord {
	t.Helper()
	d, err := st.CreateDevice(context.Background(), store.DeviceRecord{
		Name:   string(typ) + "-" + token,
		Type:   typ,
		Token:  token,
		Active: active,
	})
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	return d
}

// sequenceTokens yields the given tokens in order, then fails the test.
func sequenceTokens(t *testing.T, tokens ...string) service.TokenGenerator {
	i := 0
	return func() (string, error) {
		if i >= len(tokens) {
			t.Fatalf("token generator called %d times, only %d tokens queued", i+1, len(tokens))
		}
		tok := tokens[i]
		i++
		return tok, nil
	}
}

func defaults() service.StaticSettings {
	return service.StaticSettings(service.DefaultSettings())
}
