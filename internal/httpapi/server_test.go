package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/Cheese-ChessClock/internal/board"
	"github.com/park285/Cheese-ChessClock/internal/kv"
	"github.com/park285/Cheese-ChessClock/internal/match"
	"github.com/park285/Cheese-ChessClock/internal/presetbook"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	router *gin.Engine
	reg    *match.Registry
	clock  *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	lib, err := presetbook.Open(context.Background(), kv.NewMemoryStore())
	if err != nil {
		t.Fatalf("presetbook.Open: %v", err)
	}
	fc := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	promReg := prometheus.NewRegistry()
	reg := match.NewRegistry(
		match.WithWallClock(fc),
		match.WithMetrics(match.NewMetrics(promReg)),
		match.WithCodeGenerator(func() string { return "calm-heron" }),
	)
	srv := New(Deps{
		Library:   lib,
		Registry:  reg,
		Metrics:   promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		StoreName: "memory",
	})
	return &fixture{router: srv.Router(), reg: reg, clock: fc}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthAndTypes(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if h := decode[clockdto.Health](t, w); h.Status != "ok" || h.Store != "memory" {
		t.Fatalf("health = %+v", h)
	}
	types := decode[[]clockdto.TypeView](t, f.do(t, http.MethodGet, "/preset-types", nil))
	if len(types) != 5 || types[0].Key != "fischer" || types[4].Key != "fixed_moves" {
		t.Fatalf("types = %+v", types)
	}
}

func TestPresetEndpoints(t *testing.T) {
	f := newFixture(t)
	groups := decode[[]clockdto.GroupView](t, f.do(t, http.MethodGet, "/presets", nil))
	if len(groups) != 6 || groups[5].Key != presetbook.CustomGroupKey {
		t.Fatalf("groups = %d", len(groups))
	}
	p := decode[clockdto.PresetView](t, f.do(t, http.MethodGet, "/presets/blitz-3-2", nil))
	if p.Title != "3|2" || p.TypeName != "Fischer Increment" || len(p.Raw) == 0 || p.PlayerCount != 2 {
		t.Fatalf("preset = %+v", p)
	}
	w := f.do(t, http.MethodGet, "/presets/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing preset status = %d", w.Code)
	}
	if e := decode[clockdto.DomainError](t, w); e.Code != clockdto.CodeNotFound || !strings.Contains(e.Message, "nope") {
		t.Fatalf("error = %+v", e)
	}
}

func TestCustomPresetCreateAndDelete(t *testing.T) {
	f := newFixture(t)
	req := map[string]any{
		"title": "4 | 2d",
		"type":  3,
		"stages": []map[string]any{{
			"time":  map[string]int{"hours": 0, "minutes": 4, "seconds": 0},
			"delay": map[string]int{"hours": 0, "minutes": 0, "seconds": 2},
		}},
	}
	w := f.do(t, http.MethodPost, "/presets/custom", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	p := decode[clockdto.PresetView](t, w)
	if !p.IsCustom || p.ID == "" || p.Type != 3 {
		t.Fatalf("preset = %+v", p)
	}
	if w := f.do(t, http.MethodDelete, "/presets/custom/"+p.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := f.do(t, http.MethodDelete, "/presets/custom/"+p.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", w.Code)
	}

	req["type"] = 6
	w = f.do(t, http.MethodPost, "/presets/custom", req)
	if e := decode[clockdto.DomainError](t, w); w.Code != http.StatusBadRequest || e.Code != clockdto.CodeInvalidPreset {
		t.Fatalf("unknown type: %d %+v", w.Code, e)
	}
}

func TestBoardEndpoints(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/board/encode", map[string]any{
		"fen": "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("encode status = %d body=%s", w.Code, w.Body.String())
	}
	v := decode[clockdto.BoardView](t, w)
	if v.SideToMove != "black" || len(v.Pieces) != 32 {
		t.Fatalf("board = %+v", v)
	}
	st, err := board.Deserialize(v.Code)
	if err != nil || st.SideToMove() != board.Black {
		t.Fatalf("code does not decode: %v", err)
	}

	back := decode[clockdto.BoardView](t, f.do(t, http.MethodGet, "/board/"+v.URLCode, nil))
	if back.Code != v.Code {
		t.Fatalf("decoded code = %s want %s", back.Code, v.Code)
	}
	fen := f.do(t, http.MethodGet, "/board/"+v.URLCode+"/fen", nil)
	if !strings.HasPrefix(fen.Body.String(), "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b") {
		t.Fatalf("fen = %q", fen.Body.String())
	}
	png := f.do(t, http.MethodGet, "/board/"+v.URLCode+"/png?size=24", nil)
	if png.Code != http.StatusOK || png.Header().Get("Content-Type") != "image/png" || !bytes.HasPrefix(png.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("png status=%d type=%s", png.Code, png.Header().Get("Content-Type"))
	}

	bad := f.do(t, http.MethodGet, "/board/AAAA", nil)
	if e := decode[clockdto.DomainError](t, bad); bad.Code != http.StatusBadRequest || e.Code != clockdto.CodeInvalidBoard {
		t.Fatalf("bad code: %d %+v", bad.Code, e)
	}
	w = f.do(t, http.MethodPost, "/board/encode", map[string]any{
		"sideToMove": "white",
		"pieces":     []map[string]int{{"type": 13, "row": 0, "col": 0}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid piece status = %d", w.Code)
	}
	for _, typ := range []int{268, -1, 256} {
		w = f.do(t, http.MethodPost, "/board/encode", map[string]any{
			"pieces": []map[string]int{{"type": typ, "row": 0, "col": 0}},
		})
		if e := decode[clockdto.DomainError](t, w); w.Code != http.StatusBadRequest || e.Code != clockdto.CodeInvalidBoard {
			t.Fatalf("piece type %d: status=%d err=%+v", typ, w.Code, e)
		}
	}
}

func TestSavedMatchEndpoints(t *testing.T) {
	f := newFixture(t)
	st, _ := board.New(board.White, board.PlacedPiece{Type: board.BlackKing, Tile: board.Tile{Row: 0, Col: 4}})
	w := f.do(t, http.MethodPost, "/saved-matches", clockdto.SaveMatchRequest{Board: st.Serialize(), PresetID: "rapid-10-0"})
	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d body=%s", w.Code, w.Body.String())
	}
	saved := decode[clockdto.SavedMatchView](t, w)
	if saved.PresetID != "rapid-10-0" || saved.NextPlayer != "white" {
		t.Fatalf("saved = %+v", saved)
	}
	list := decode[[]clockdto.SavedMatchView](t, f.do(t, http.MethodGet, "/saved-matches", nil))
	if len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}
	if w := f.do(t, http.MethodDelete, "/saved-matches/"+saved.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/saved-matches/"+saved.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", w.Code)
	}
}

func TestMatchFlow(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/matches", clockdto.CreateMatchRequest{PresetID: "blitz-3-2", PlayerNames: []string{"Ann", "Ben"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}
	st := decode[clockdto.MatchState](t, w)
	if st.Code != "calm-heron" || st.Status != "ready" || !strings.Contains(st.Message, "3|2") {
		t.Fatalf("created = %+v", st)
	}

	st = decode[clockdto.MatchState](t, f.do(t, http.MethodPost, "/matches/calm-heron/tap", clockdto.TapRequest{Player: 0}))
	if st.Active != 1 || st.Message != "Ben to move." {
		t.Fatalf("after first tap = %+v", st)
	}
	f.clock.advance(4 * time.Second)
	f.reg.Step(context.Background())
	st = decode[clockdto.MatchState](t, f.do(t, http.MethodPost, "/matches/calm-heron/tap", clockdto.TapRequest{Player: 1}))
	if st.Players[1].RemainingMs != 178000 || st.Active != 0 {
		t.Fatalf("after move = %+v", st.Players[1])
	}

	w = f.do(t, http.MethodPost, "/matches/calm-heron/tap", clockdto.TapRequest{Player: 1})
	if e := decode[clockdto.DomainError](t, w); w.Code != http.StatusConflict || e.Code != clockdto.CodeNotOnMove {
		t.Fatalf("wrong player: %d %+v", w.Code, e)
	}
	if w := f.do(t, http.MethodPost, "/matches/calm-heron/pause", nil); w.Code != http.StatusOK {
		t.Fatalf("pause = %d", w.Code)
	}
	w = f.do(t, http.MethodPost, "/matches/calm-heron/tap", clockdto.TapRequest{Player: 0})
	if e := decode[clockdto.DomainError](t, w); e.Code != clockdto.CodePaused {
		t.Fatalf("tap while paused: %+v", e)
	}
	if w := f.do(t, http.MethodPost, "/matches/calm-heron/resume", nil); w.Code != http.StatusOK {
		t.Fatalf("resume = %d", w.Code)
	}
	st = decode[clockdto.MatchState](t, f.do(t, http.MethodPost, "/matches/calm-heron/restart", nil))
	if st.Status != "ready" || st.Players[1].RemainingMs != 180000 {
		t.Fatalf("after restart = %+v", st)
	}

	w = f.do(t, http.MethodPost, "/matches", clockdto.CreateMatchRequest{PresetID: "blitz-3-2"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code collision status = %d", w.Code)
	}
	if w := f.do(t, http.MethodDelete, "/matches/calm-heron", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/matches/calm-heron", nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", w.Code)
	}

	metrics := f.do(t, http.MethodGet, "/metrics", nil)
	if !strings.Contains(metrics.Body.String(), "clock_matches_active 0") {
		t.Fatalf("metrics = %s", metrics.Body.String())
	}
}

func TestMatchWebsocket(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.router)
	defer ts.Close()
	if w := f.do(t, http.MethodPost, "/matches", clockdto.CreateMatchRequest{PresetID: "bullet-1-0"}); w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/matches/calm-heron/ws", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var st clockdto.MatchState
	if err := wsjson.Read(ctx, conn, &st); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if st.Status != "ready" {
		t.Fatalf("first frame = %+v", st)
	}
	f.do(t, http.MethodPost, "/matches/calm-heron/tap", clockdto.TapRequest{Player: 1})
	if err := wsjson.Read(ctx, conn, &st); err != nil {
		t.Fatalf("tap frame: %v", err)
	}
	if st.Status != "running" || st.Active != 0 {
		t.Fatalf("tap frame = %+v", st)
	}

	_ = f.reg.Remove("calm-heron")
	_, _, err = conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Fatalf("expected normal closure, got %v", err)
	}
}
