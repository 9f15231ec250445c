package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/api/middleware"
	"github.com/angelmondragon/shiplist-backend/internal/manufacturing"
	"github.com/angelmondragon/shiplist-backend/internal/sessions"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

// fakeSessions overrides only the methods a test sets; anything else panics
// through the nil embedded interface.
type fakeSessions struct {
	sessions.Service
	viewFn      func(ctx context.Context, editor sessions.Editor) (*manufacturing.View, error)
	setQueryFn  func(ctx context.Context, editor sessions.Editor, query manufacturing.Query) (*manufacturing.View, error)
	gestureFn   func(ctx context.Context, editor sessions.Editor, g sessions.Gesture) (*manufacturing.View, error)
	moveFn      func(ctx context.Context, editor sessions.Editor, from, to int) (*manufacturing.View, error)
	confirmFn   func(ctx context.Context, editor sessions.Editor) (*manufacturing.View, error)
	splitFn     func(ctx context.Context, editor sessions.Editor, rowID string, firstQty int) (*manufacturing.View, error)
	setStatusFn func(ctx context.Context, editor sessions.Editor, rowID string, status enums.RowStatus) (*manufacturing.View, error)
	addNoteFn   func(ctx context.Context, editor sessions.Editor, rowID, text string) (*manufacturing.View, error)
	resetFn     func(ctx context.Context, editor sessions.Editor) error
}

func (f *fakeSessions) View(ctx context.Context, editor sessions.Editor) (*manufacturing.View, error) {
	return f.viewFn(ctx, editor)
}

func (f *fakeSessions) SetQuery(ctx context.Context, editor sessions.Editor, query manufacturing.Query) (*manufacturing.View, error) {
	return f.setQueryFn(ctx, editor, query)
}

func (f *fakeSessions) Gesture(ctx context.Context, editor sessions.Editor, g sessions.Gesture) (*manufacturing.View, error) {
	return f.gestureFn(ctx, editor, g)
}

func (f *fakeSessions) Move(ctx context.Context, editor sessions.Editor, from, to int) (*manufacturing.View, error) {
	return f.moveFn(ctx, editor, from, to)
}

func (f *fakeSessions) ConfirmSave(ctx context.Context, editor sessions.Editor) (*manufacturing.View, error) {
	return f.confirmFn(ctx, editor)
}

func (f *fakeSessions) Split(ctx context.Context, editor sessions.Editor, rowID string, firstQty int) (*manufacturing.View, error) {
	return f.splitFn(ctx, editor, rowID, firstQty)
}

func (f *fakeSessions) SetStatus(ctx context.Context, editor sessions.Editor, rowID string, status enums.RowStatus) (*manufacturing.View, error) {
	return f.setStatusFn(ctx, editor, rowID, status)
}

func (f *fakeSessions) AddNote(ctx context.Context, editor sessions.Editor, rowID, text string) (*manufacturing.View, error) {
	return f.addNoteFn(ctx, editor, rowID, text)
}

func (f *fakeSessions) Reset(ctx context.Context, editor sessions.Editor) error {
	return f.resetFn(ctx, editor)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func editorRequest(method, target, body string, editorID uuid.UUID, role enums.EditorRole) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.WithEditor(req.Context(), editorID, role))
}

func withRowID(req *http.Request, rowID string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("rowId", rowID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, resp.Body.String())
	}
	return env
}

func viewWithRows(ids ...string) *manufacturing.View {
	rows := make([]manufacturing.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, manufacturing.Row{Line: manufacturing.Line{ID: manufacturing.RowID(id), Status: enums.RowStatusNotStarted}})
	}
	return &manufacturing.View{Mode: manufacturing.ModeSorting, Rows: rows}
}
