// Package server exposes the navigator and simulation over HTTP and a websocket snapshot stream
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/navigation"
	"github.com/lixenwraith/chunkflow/parameter"
	"github.com/lixenwraith/chunkflow/vmath"
)

// API binds handlers to a navigator, a simulation and a snapshot broadcaster
type API struct {
	nav *navigation.Navigator
	sim *navigation.Simulation
	hub *Broadcaster
	log logrus.FieldLogger
}

func NewAPI(sim *navigation.Simulation, hub *Broadcaster, log logrus.FieldLogger) *API {
	return &API{
		nav: sim.Navigator(),
		sim: sim,
		hub: hub,
		log: log.WithField("component", "api"),
	}
}

// NewRouter builds the gin engine with recovery, request logging and CORS
func NewRouter(api *API, cfg Config) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(api.log))

	corsCfg := cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	g := r.Group("/api")
	g.GET("/terrain", api.terrain)
	g.GET("/route", api.route)
	g.GET("/field/:chunk/:side", api.field)
	g.PUT("/obstacles/:chunk", api.obstacles)
	g.GET("/locate", api.locate)
	g.POST("/agents", api.spawn)
	g.POST("/agents/destination", api.destination)
	g.GET("/agents", api.agents)
	g.GET("/agents/stream", api.stream)
	return r
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("Request")
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// fail maps domain errors onto status codes
func (a *API) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, grid.ErrOutOfBounds):
		status = http.StatusBadRequest
	case errors.Is(err, navigation.ErrNoPathFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		a.log.WithError(err).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func intParam(raw, name string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return v, nil
}

func floatQuery(c *gin.Context, name string) (float64, error) {
	v, err := strconv.ParseFloat(c.DefaultQuery(name, "0"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return v, nil
}

type terrainResponse struct {
	ChunksX   int         `json:"chunks_x"`
	ChunksY   int         `json:"chunks_y"`
	ChunkSize int         `json:"chunk_size"`
	CellSize  float64     `json:"cell_size"`
	Origin    vmath.Vec3F `json:"origin"`
	Chunks    int         `json:"chunks"`
	Gateways  int         `json:"gateways"`
}

func (a *API) terrain(c *gin.Context) {
	t := a.nav.Terrain()
	c.JSON(http.StatusOK, terrainResponse{
		ChunksX:   t.NumChunksX,
		ChunksY:   t.NumChunksY,
		ChunkSize: t.ChunkSize,
		CellSize:  t.CellSize,
		Origin:    t.Origin,
		Chunks:    t.NumChunks(),
		Gateways:  a.nav.Catalog().Len(),
	})
}

type routeResponse struct {
	Route []int    `json:"route"`
	Sides []string `json:"sides"`
}

func (a *API) route(c *gin.Context) {
	start, err := intParam(c.Query("start"), "start")
	if err != nil {
		a.fail(c, err)
		return
	}
	dest, err := intParam(c.Query("dest"), "dest")
	if err != nil {
		a.fail(c, err)
		return
	}

	route, err := a.nav.ComputeChunkRoute(start, dest)
	if err != nil {
		a.fail(c, err)
		return
	}
	legs, err := route.Legs(a.nav.Terrain())
	if err != nil {
		a.fail(c, err)
		return
	}
	resp := routeResponse{Route: route, Sides: make([]string, len(legs))}
	for i, leg := range legs {
		resp.Sides[i] = leg.Side.String()
	}
	c.JSON(http.StatusOK, resp)
}

type fieldResponse struct {
	Chunk      int      `json:"chunk"`
	Side       string   `json:"side"`
	Width      int      `json:"width"`
	Version    uint64   `json:"version"`
	Directions []string `json:"directions"`
	// Unreached cells are reported as -1
	Integration []int64 `json:"integration"`
}

func (a *API) field(c *gin.Context) {
	chunk, err := intParam(c.Param("chunk"), "chunk")
	if err != nil {
		a.fail(c, err)
		return
	}
	side, err := grid.ParseSide(c.Param("side"))
	if err != nil {
		a.fail(c, badRequest(err))
		return
	}

	f, err := a.nav.GetDirectionField(chunk, side)
	if err != nil {
		a.fail(c, err)
		return
	}
	resp := fieldResponse{
		Chunk:       f.Chunk,
		Side:        f.Side.String(),
		Width:       f.Width,
		Version:     f.Version,
		Directions:  make([]string, len(f.Directions)),
		Integration: make([]int64, len(f.Integration)),
	}
	for i, d := range f.Directions {
		resp.Directions[i] = d.String()
	}
	for i, v := range f.Integration {
		if v == parameter.IntegrationUnreachable {
			resp.Integration[i] = -1
		} else {
			resp.Integration[i] = int64(v)
		}
	}
	c.JSON(http.StatusOK, resp)
}

type obstacleRequest struct {
	Mask []bool `json:"mask" binding:"required"`
}

func (a *API) obstacles(c *gin.Context) {
	chunk, err := intParam(c.Param("chunk"), "chunk")
	if err != nil {
		a.fail(c, err)
		return
	}
	var req obstacleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, badRequest(err))
		return
	}
	version, err := a.nav.SetObstacles(chunk, req.Mask)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chunk": chunk, "version": version, "sealed": a.nav.Sealed(chunk)})
}

func (a *API) locate(c *gin.Context) {
	var pos vmath.Vec3F
	var err error
	if pos.X, err = floatQuery(c, "x"); err != nil {
		a.fail(c, err)
		return
	}
	if pos.Y, err = floatQuery(c, "y"); err != nil {
		a.fail(c, err)
		return
	}
	if pos.Z, err = floatQuery(c, "z"); err != nil {
		a.fail(c, err)
		return
	}

	cell, err := a.nav.CellIndexFromWorldPosition(pos)
	if err != nil {
		a.fail(c, err)
		return
	}
	t := a.nav.Terrain()
	c.JSON(http.StatusOK, gin.H{
		"chunk": t.ChunkIndexFromGridIndex(cell),
		"cell":  cell,
		"local": t.LocalIndexFromGridIndex(cell),
	})
}

type spawnRequest struct {
	Chunk int `json:"chunk"`
	Count int `json:"count" binding:"required"`
}

func (a *API) spawn(c *gin.Context) {
	var req spawnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, badRequest(err))
		return
	}
	if req.Count <= 0 {
		a.fail(c, fmt.Errorf("%w: count must be positive", errBadRequest))
		return
	}
	ids, err := a.sim.Spawn(req.Chunk, req.Count)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ids": ids})
}

func (a *API) destination(c *gin.Context) {
	var pos vmath.Vec3F
	if err := c.ShouldBindJSON(&pos); err != nil {
		a.fail(c, badRequest(err))
		return
	}
	if err := a.sim.Command(c.Request.Context(), pos); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, a.sim.Snapshot())
}

func (a *API) agents(c *gin.Context) {
	c.JSON(http.StatusOK, a.sim.Snapshot())
}
