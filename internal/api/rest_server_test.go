package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annel0/blockworld/internal/auth"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/storage"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/annel0/blockworld/internal/world/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	rs       *RestServer
	world    *world.World
	entities *entity.EntityManager
}

func newTestServer(t *testing.T, tokens *auth.TokenManager) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logging.NewWriterLogger("api-test", io.Discard, logging.ERROR)

	player := entity.NewPlayer(1, vec.Vec3Float{})
	em := entity.NewEntityManager(player, entity.NewInventory())

	params := world.DefaultParams()
	params.Extent = world.Extent{Width: 4, Depth: 4, MaxHeight: 8}
	params.FluidLevel = 0
	params.MinTrees, params.MaxTrees = 0, 0

	codec, err := storage.NewLedgerCodec(storage.NewMemoryStore(), false, log)
	require.NoError(t, err)
	t.Cleanup(codec.Close)

	w, err := world.New(ctx, world.Options{
		ID:        "api-test",
		Dimension: "OverWorld",
		Params:    params,
		Seed:      &world.Seed{OffsetX: 12.5, OffsetZ: -3.25},
		Observer:  player,
		Pickups:   em,
		Store:     codec,
		Logger:    log,
	})
	require.NoError(t, err)
	w.GenerateAll(ctx)

	reg := prometheus.NewRegistry()
	rs := NewRestServer(Config{
		World:      w,
		Entities:   em,
		Inventory:  em.Inventory(),
		Tokens:     tokens,
		Registerer: reg,
		Gatherer:   reg,
		Logger:     log,
	})
	return &testServer{rs: rs, world: w, entities: em}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.rs.Router().ServeHTTP(w, req)

	var resp GenericResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	w, _ := ts.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"world":"api-test"`)
}

func TestGetBlock(t *testing.T) {
	ts := newTestServer(t, nil)

	w, resp := ts.do(t, http.MethodGet, "/api/world/block?x=1&y=0&z=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["solid"], "дно мира всегда твёрдое")
	assert.NotEqual(t, "None", data["type"])

	w, _ = ts.do(t, http.MethodGet, "/api/world/block?x=1&z=1", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "без y запрос некорректен")

	w, _ = ts.do(t, http.MethodGet, "/api/world/block?x=a&y=0&z=1", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDestroyAndPlace(t *testing.T) {
	ts := newTestServer(t, nil)
	h := ts.world.HeightAt(1, 1)

	w, resp := ts.do(t, http.MethodPost, "/api/world/destroy", map[string]int{"x": 1, "y": h, "z": 1}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Grass", data["previous"])
	assert.Equal(t, 1.0, data["count"])

	pickupID := uint64(data["pickup_id"].(float64))
	_, ok := ts.entities.GetPickup(pickupID)
	assert.True(t, ok, "предмет создан менеджером сущностей")
	assert.False(t, ts.world.IsSolid(vec.Vec3{X: 1, Y: h, Z: 1}))

	body := map[string]interface{}{"x": 1, "y": h, "z": 1, "type": "stone"}
	w, resp = ts.do(t, http.MethodPost, "/api/world/place", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	info := resp.Data.(map[string]interface{})
	assert.Equal(t, "Stone", info["type"])
	assert.Equal(t, true, info["realized"])
}

func TestPlaceFromInventory(t *testing.T) {
	ts := newTestServer(t, nil)
	h := ts.world.HeightAt(2, 2)
	body := map[string]interface{}{"x": 2, "y": h + 1, "z": 2, "type": "stone", "from_inventory": true}

	w, _ := ts.do(t, http.MethodPost, "/api/world/place", body, "")
	assert.Equal(t, http.StatusConflict, w.Code, "пустой инвентарь")
	assert.False(t, ts.world.IsSolid(vec.Vec3{X: 2, Y: h + 1, Z: 2}))

	inv := ts.entities.Inventory()
	inv.Add(block.Stone, 2)
	w, _ = ts.do(t, http.MethodPost, "/api/world/place", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, inv.Count(block.Stone), "блок списан из инвентаря")
	assert.True(t, ts.world.IsSolid(vec.Vec3{X: 2, Y: h + 1, Z: 2}))
}

func TestHit(t *testing.T) {
	ts := newTestServer(t, nil)
	h := ts.world.HeightAt(1, 1)
	pos := map[string]int{"x": 1, "y": h, "z": 1, "damage": 2}

	w, resp := ts.do(t, http.MethodPost, "/api/world/hit", pos, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Grass", data["type"])
	assert.Equal(t, 1.0, data["remaining"], "у травы прочность 3")
	assert.Equal(t, false, data["destroyed"])
	assert.True(t, ts.world.IsSolid(vec.Vec3{X: 1, Y: h, Z: 1}))

	w, resp = ts.do(t, http.MethodPost, "/api/world/hit", pos, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["destroyed"])
	assert.Equal(t, 1.0, data["count"])
	_, ok := ts.entities.GetPickup(uint64(data["pickup_id"].(float64)))
	assert.True(t, ok, "разбитый блок роняет предмет")
	assert.False(t, ts.world.IsSolid(vec.Vec3{X: 1, Y: h, Z: 1}))

	w, _ = ts.do(t, http.MethodPost, "/api/world/hit", pos, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "по воздуху не бьют")

	w, _ = ts.do(t, http.MethodPost, "/api/world/hit", map[string]int{"x": 1, "y": 0, "z": 1, "damage": -1}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t, nil)

	cases := []struct {
		name string
		body interface{}
	}{
		{"воздух", map[string]interface{}{"x": 0, "y": 9, "z": 0, "type": "none"}},
		{"неизвестный тип", map[string]interface{}{"x": 0, "y": 9, "z": 0, "type": "diamond"}},
		{"нет координат", map[string]interface{}{"type": "stone"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, resp := ts.do(t, http.MethodPost, "/api/world/place", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestThrow(t *testing.T) {
	ts := newTestServer(t, nil)

	body := map[string]interface{}{
		"origin":  map[string]float64{"x": 1, "y": 5, "z": 1},
		"type":    "wood",
		"count":   4,
		"impulse": map[string]float64{"x": 0, "y": 2, "z": 3},
	}
	w, resp := ts.do(t, http.MethodPost, "/api/world/throw", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	id := uint64(resp.Data.(map[string]interface{})["pickup_id"].(float64))
	p, ok := ts.entities.GetPickup(id)
	require.True(t, ok)
	assert.Equal(t, 4, p.Count)

	body["count"] = -1
	w, _ = ts.do(t, http.MethodPost, "/api/world/throw", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReset(t *testing.T) {
	ts := newTestServer(t, nil)
	before := ts.world.Seed()

	w, _ := ts.do(t, http.MethodPost, "/api/world/reset", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before, ts.world.Seed(), "сброс без wipe сохраняет сид")
	assert.True(t, ts.world.Generating())

	w, _ = ts.do(t, http.MethodPost, "/api/world/reset", map[string]bool{"wipe": true}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, before, ts.world.Seed(), "wipe создаёт новый сид")
}

func TestStats(t *testing.T) {
	ts := newTestServer(t, nil)

	w, resp := ts.do(t, http.MethodGet, "/api/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Contains(t, data, "world")
	assert.Contains(t, data, "process")
	assert.Contains(t, data, "entities")
}

func TestJWTProtection(t *testing.T) {
	tokens, err := auth.NewTokenManager("api-secret", "blockworld", time.Hour)
	require.NoError(t, err)
	ts := newTestServer(t, tokens)

	body := map[string]interface{}{"x": 0, "y": 9, "z": 0, "type": "sand"}

	w, _ := ts.do(t, http.MethodPost, "/api/world/place", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "без токена")

	w, _ = ts.do(t, http.MethodPost, "/api/world/place", body, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "недействительный токен")

	builder, err := tokens.Generate("builder", false)
	require.NoError(t, err)
	w, _ = ts.do(t, http.MethodPost, "/api/world/place", body, builder)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/world/reset", nil, builder)
	assert.Equal(t, http.StatusForbidden, w.Code, "сброс требует can_reset")

	admin, err := tokens.Generate("admin", true)
	require.NoError(t, err)
	w, _ = ts.do(t, http.MethodPost, "/api/world/reset", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/world/block?x=0&y=9&z=0", nil, "")
	assert.Equal(t, http.StatusOK, w.Code, "чтение не требует токена")
}

func TestMetricsEndpointServesWorldAPI(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodGet, "/health", nil, "")

	w, _ := ts.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("%s_http_request_duration_seconds", "blockworld_api"))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5с", formatUptime(5*time.Second))
	assert.Equal(t, "2м 3с", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1ч 0м 0с", formatUptime(time.Hour))
	assert.Equal(t, "1д 2ч 0м 0с", formatUptime(26*time.Hour))
}
