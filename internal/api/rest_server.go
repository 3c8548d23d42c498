package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/blockworld/internal/auth"
	"github.com/annel0/blockworld/internal/logging"
	"github.com/annel0/blockworld/internal/middleware"
	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
	"github.com/annel0/blockworld/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// WorldService - операции мира, доступные через REST
type WorldService interface {
	Inspect(p vec.Vec3) world.BlockInfo
	PlaceTile(ctx context.Context, p vec.Vec3, t block.BlockType) error
	RegisterDestruction(ctx context.Context, p vec.Vec3) world.DestroyResult
	Hit(ctx context.Context, p vec.Vec3, damage int) (world.HitResult, error)
	ThrowItem(ctx context.Context, origin vec.Vec3Float, t block.BlockType, count int, impulse vec.Vec3Float) (uint64, error)
	Reset(ctx context.Context, wipe bool) error
	Stats() world.Stats
}

// EntityStats - источник статистики сущностей (EntityManager)
type EntityStats interface {
	GetStats() map[string]interface{}
}

// Inventory - запас блоков игрока для установки (entity.Inventory)
type Inventory interface {
	Take(t block.BlockType, count int) bool
	Add(t block.BlockType, count int)
}

// RestServer представляет REST API сервер мира
type RestServer struct {
	router    *gin.Engine
	world     WorldService
	entities  EntityStats
	inventory Inventory
	tokens    *auth.TokenManager
	port      string
	metrics   *ServerMetrics
	log       *logging.Logger
	srv       *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string       // порт для запуска сервера
	World    WorldService // обязателен
	Entities EntityStats  // может быть nil
	// Inventory нужен для установки из инвентаря; nil - такие запросы отклоняются
	Inventory Inventory
	Tokens    *auth.TokenManager // nil - без авторизации
	// Registerer/Gatherer для HTTP-метрик и /metrics; nil - дефолтный регистр
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Logger == nil {
		config.Logger = logging.GetAPILogger()
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("blockworld_api"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("blockworld_api", config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	server := &RestServer{
		router:    router,
		world:     config.World,
		entities:  config.Entities,
		inventory: config.Inventory,
		tokens:    config.Tokens,
		port:      config.Port,
		metrics:   NewServerMetrics(),
		log:       config.Logger,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	api.GET("/stats", rs.handleStats)
	api.GET("/world/block", rs.handleGetBlock)

	// Изменяющие эндпоинты (требуют JWT, если он настроен)
	protected := api.Group("/world")
	protected.Use(rs.jwtMiddleware())
	{
		protected.POST("/place", rs.handlePlace)
		protected.POST("/destroy", rs.handleDestroy)
		protected.POST("/hit", rs.handleHit)
		protected.POST("/throw", rs.handleThrow)
		protected.POST("/reset", rs.resetMiddleware(), rs.handleReset)
	}
}

// Router возвращает gin.Engine (для тестов и встраивания)
func (rs *RestServer) Router() *gin.Engine {
	return rs.router
}

// Start запускает HTTP сервер; блокируется до остановки
func (rs *RestServer) Start() error {
	rs.srv = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.log.Info("🌐 REST API запущен на %s", rs.port)
	if err := rs.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("REST API: %w", err)
	}
	return nil
}

// Shutdown корректно останавливает сервер
func (rs *RestServer) Shutdown(ctx context.Context) error {
	if rs.srv == nil {
		return nil
	}
	return rs.srv.Shutdown(ctx)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PositionRequest - координаты блока
type PositionRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
	Z *int `json:"z" binding:"required"`
}

func (r PositionRequest) pos() vec.Vec3 {
	return vec.Vec3{X: *r.X, Y: *r.Y, Z: *r.Z}
}

// PlaceRequest - установка блока
type PlaceRequest struct {
	PositionRequest
	Type string `json:"type" binding:"required"`
	// FromInventory списывает блок из инвентаря игрока перед установкой
	FromInventory bool `json:"from_inventory"`
}

// HitRequest - удар по блоку
type HitRequest struct {
	PositionRequest
	Damage int `json:"damage" binding:"required"`
}

// ThrowRequest - бросок предмета
type ThrowRequest struct {
	Origin  vec.Vec3Float `json:"origin"`
	Type    string        `json:"type" binding:"required"`
	Count   int           `json:"count" binding:"required"`
	Impulse vec.Vec3Float `json:"impulse"`
}

// ResetRequest - сброс мира
type ResetRequest struct {
	Wipe bool `json:"wipe"`
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	stats := rs.world.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"world":      stats.ID,
		"generating": stats.Generating,
		"uptime":     rs.metrics.GetUptime(),
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	data := gin.H{
		"world":   rs.world.Stats(),
		"process": rs.metrics.Snapshot(),
	}
	if rs.entities != nil {
		data["entities"] = rs.entities.GetStats()
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: data})
}

func (rs *RestServer) handleGetBlock(c *gin.Context) {
	p, err := queryPos(c)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: rs.world.Inspect(p)})
}

func (rs *RestServer) handlePlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	t, err := block.ParseBlockType(req.Type)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.FromInventory {
		if rs.inventory == nil {
			abort(c, http.StatusServiceUnavailable, "Инвентарь не подключён")
			return
		}
		if t == block.None || !rs.inventory.Take(t, 1) {
			abort(c, http.StatusConflict, fmt.Sprintf("В инвентаре нет блока %s", t))
			return
		}
	}

	p := req.pos()
	if err := rs.world.PlaceTile(c.Request.Context(), p, t); err != nil {
		if req.FromInventory {
			rs.inventory.Add(t, 1)
		}
		status := http.StatusInternalServerError
		if errors.Is(err, world.ErrUnknownBlockType) || errors.Is(err, world.ErrAirPlacement) {
			status = http.StatusBadRequest
		}
		abort(c, status, err.Error())
		return
	}

	rs.log.Info("Блок %s установлен в %v (оператор %q)", t, p, c.GetString(ctxOperator))
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок установлен", Data: rs.world.Inspect(p)})
}

func (rs *RestServer) handleDestroy(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	p := req.pos()
	res := rs.world.RegisterDestruction(c.Request.Context(), p)
	rs.log.Info("Блок %s снесён в %v (оператор %q)", res.Previous, p, c.GetString(ctxOperator))
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок снесён",
		Data: gin.H{
			"previous":  res.Previous.String(),
			"pickup_id": res.PickupID,
			"count":     res.Count,
		},
	})
}

func (rs *RestServer) handleHit(c *gin.Context) {
	var req HitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	p := req.pos()
	res, err := rs.world.Hit(c.Request.Context(), p, req.Damage)
	switch {
	case errors.Is(err, world.ErrInvalidDamage):
		abort(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, world.ErrNotRealized):
		abort(c, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, world.ErrNotMineable):
		abort(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	data := gin.H{
		"type":      res.Type.String(),
		"remaining": res.Remaining,
		"destroyed": res.Destroyed,
	}
	if res.Destroyed {
		data["pickup_id"] = res.Drop.PickupID
		data["count"] = res.Drop.Count
		rs.log.Info("Блок %s разбит в %v (оператор %q)", res.Type, p, c.GetString(ctxOperator))
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Удар нанесён", Data: data})
}

func (rs *RestServer) handleThrow(c *gin.Context) {
	var req ThrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	t, err := block.ParseBlockType(req.Type)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	id, err := rs.world.ThrowItem(c.Request.Context(), req.Origin, t, req.Count, req.Impulse)
	switch {
	case errors.Is(err, world.ErrInvalidCount), errors.Is(err, world.ErrUnknownBlockType):
		abort(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, world.ErrNoSpawner):
		abort(c, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Предмет брошен", Data: gin.H{"pickup_id": id}})
}

func (rs *RestServer) handleReset(c *gin.Context) {
	var req ResetRequest
	// Пустое тело допустимо: сброс без очистки
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, "Неверный формат запроса")
			return
		}
	}

	if err := rs.world.Reset(c.Request.Context(), req.Wipe); err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}
	rs.log.Warn("Мир сброшен (wipe=%v, оператор %q)", req.Wipe, c.GetString(ctxOperator))
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир сброшен", Data: rs.world.Stats()})
}

func queryPos(c *gin.Context) (vec.Vec3, error) {
	var coords [3]int
	for i, name := range []string{"x", "y", "z"} {
		raw, ok := c.GetQuery(name)
		if !ok {
			return vec.Vec3{}, fmt.Errorf("параметр %s обязателен", name)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("параметр %s: %w", name, err)
		}
		coords[i] = v
	}
	return vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
