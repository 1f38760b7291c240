package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agenthands/linkgraph/internal/core"
	"github.com/agenthands/linkgraph/internal/core/community"
	"github.com/agenthands/linkgraph/internal/core/model"
	"github.com/agenthands/linkgraph/internal/driver"
	"github.com/agenthands/linkgraph/internal/platform/logger"
)

// Runner executes one crawl.
type Runner interface {
	Run(ctx context.Context) (*core.Result, error)
}

// PageStore looks pages up in the persisted graph.
type PageStore interface {
	Page(ctx context.Context, title model.Title) (driver.PageRecord, bool, error)
}

type Server struct {
	Runner Runner
	// Pages, when set, answers /pages/:title for titles the last crawl does
	// not hold in memory, including after a restart.
	Pages PageStore
	// BaseContext bounds crawls started through POST /crawl. Crawls do not
	// inherit the request context, so a client hanging up does not abort
	// them; cancel BaseContext on shutdown instead.
	BaseContext context.Context
	Log         *logger.Logger

	running atomic.Bool
	mu      sync.RWMutex
	last    *core.Result
	aliases map[string]model.Title
}

func NewServer(runner Runner, log *logger.Logger) *Server {
	return &Server{
		Runner: runner,
		Log:    logger.OrNop(log).With("component", "server"),
	}
}

// SetResult makes res the graph served by the read endpoints.
func (s *Server) SetResult(res *core.Result) {
	idx := community.AliasIndex(res.Enriched.Nodes)
	s.mu.Lock()
	s.last = res
	s.aliases = idx
	s.mu.Unlock()
}

// Publish lets the server receive results as a pipeline sink.
func (s *Server) Publish(ctx context.Context, res *core.Result) error {
	s.SetResult(res)
	return nil
}

func (s *Server) result() *core.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/crawl", s.Crawl)
	r.GET("/graph", s.Graph)
	r.GET("/graph/view", s.View)
	r.GET("/graph/legacy", s.Legacy)
	r.GET("/missing", s.Missing)
	r.GET("/components", s.Components)
	r.GET("/pages/:title", s.Page)

	return r
}

func (s *Server) Health(c *gin.Context) {
	status := gin.H{"status": "ok", "crawling": s.running.Load()}
	if res := s.result(); res != nil {
		status["run_id"] = res.RunID
		status["finished_at"] = res.FinishedAt
	}
	c.JSON(http.StatusOK, status)
}

type CrawlResponse struct {
	RunID      string          `json:"run_id"`
	Metadata   model.Metadata  `json:"metadata"`
	Crawl      core.CrawlStats `json:"crawl"`
	Uncrawled  int             `json:"uncrawled"`
	Unknown    int             `json:"unknown"`
	Unresolved int             `json:"unresolved"`
}

func (s *Server) Crawl(c *gin.Context) {
	if !s.running.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "A crawl is already running"})
		return
	}
	defer s.running.Store(false)

	base := s.BaseContext
	if base == nil {
		base = context.WithoutCancel(c.Request.Context())
	}
	ctx, cancel := context.WithCancel(base)
	defer cancel()

	res, err := s.Runner.Run(ctx)
	if err != nil {
		s.Log.Error("crawl failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Crawl failed"})
		return
	}
	s.SetResult(res)

	c.JSON(http.StatusOK, CrawlResponse{
		RunID:      res.RunID,
		Metadata:   res.Enriched.Metadata,
		Crawl:      res.Crawl,
		Uncrawled:  len(res.Missing.Uncrawled),
		Unknown:    len(res.Missing.Unknown),
		Unresolved: len(res.RedirectReport.Unresolved),
	})
}

// requireResult writes 404 and returns nil when no crawl has finished yet.
func (s *Server) requireResult(c *gin.Context) *core.Result {
	res := s.result()
	if res == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No crawl has completed yet"})
	}
	return res
}

func (s *Server) Graph(c *gin.Context) {
	if res := s.requireResult(c); res != nil {
		c.JSON(http.StatusOK, res.Enriched)
	}
}

func (s *Server) Legacy(c *gin.Context) {
	if res := s.requireResult(c); res != nil {
		c.JSON(http.StatusOK, res.Legacy)
	}
}

// View serves the display graph. Query parameters: hide (repeatable),
// all=true to keep every component, non_english=true to keep translations.
func (s *Server) View(c *gin.Context) {
	res := s.requireResult(c)
	if res == nil {
		return
	}
	opts := community.DefaultViewOptions()
	if hide, ok := c.GetQueryArray("hide"); ok {
		opts.Hidden = model.NewTitleSet(hide...)
	}
	if c.Query("all") == "true" {
		opts.LargestOnly = false
	}
	if c.Query("non_english") == "true" {
		opts.SkipNonEnglish = false
	}
	c.JSON(http.StatusOK, community.View(res.Enriched, opts))
}

func (s *Server) Missing(c *gin.Context) {
	res := s.requireResult(c)
	if res == nil {
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{
		"missing":   res.TopMissing(limit),
		"uncrawled": titlesOrEmpty(res.Missing.Uncrawled),
		"unknown":   titlesOrEmpty(res.Missing.Unknown),
	})
}

func (s *Server) Components(c *gin.Context) {
	res := s.requireResult(c)
	if res == nil {
		return
	}
	var d community.Detector
	switch algo := c.DefaultQuery("algo", "components"); algo {
	case "components":
		d = community.NewComponentDetector()
	case "lpa":
		d = community.NewLabelPropagationDetector()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown algorithm " + algo})
		return
	}

	nodes := make([]model.Title, 0, len(res.Enriched.Nodes))
	for _, n := range res.Enriched.Nodes {
		nodes = append(nodes, n.ID)
	}
	groups := d.Detect(nodes, res.Enriched.Edges)
	c.JSON(http.StatusOK, gin.H{"count": len(groups), "components": groups})
}

type PageResponse struct {
	Node     model.EnrichedNode `json:"node"`
	Outgoing []model.Title      `json:"outgoing"`
	Incoming []model.Title      `json:"incoming"`
}

// Page looks a title up in the last crawl by exact name, then
// case-insensitively, then by alias. Titles it does not hold fall through
// to the page store when one is configured.
func (s *Server) Page(c *gin.Context) {
	title := c.Param("title")
	res := s.result()
	if res == nil && s.Pages == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No crawl has completed yet"})
		return
	}

	var (
		node model.EnrichedNode
		ok   bool
	)
	if res != nil {
		s.mu.RLock()
		aliases := s.aliases
		s.mu.RUnlock()
		node, ok = findNode(res.Enriched.Nodes, title, aliases)
	}
	if !ok {
		if s.Pages != nil {
			s.storedPage(c, title)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}

	resp := PageResponse{Node: node, Outgoing: []model.Title{}, Incoming: []model.Title{}}
	for _, e := range res.Enriched.Edges {
		if e.Source == node.ID {
			resp.Outgoing = append(resp.Outgoing, e.Target)
		}
		if e.Target == node.ID {
			resp.Incoming = append(resp.Incoming, e.Source)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) storedPage(c *gin.Context, title string) {
	rec, ok, err := s.Pages.Page(c.Request.Context(), title)
	if err != nil {
		s.Log.Error("page lookup failed", "title", title, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Page lookup failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}
	c.JSON(http.StatusOK, PageResponse{Node: rec.Node, Outgoing: rec.Outgoing, Incoming: rec.Incoming})
}

func findNode(nodes []model.EnrichedNode, title string, aliases map[string]model.Title) (model.EnrichedNode, bool) {
	lower := strings.ToLower(title)
	var folded *model.EnrichedNode
	for i := range nodes {
		if nodes[i].ID == title {
			return nodes[i], true
		}
		if folded == nil && strings.ToLower(nodes[i].ID) == lower {
			folded = &nodes[i]
		}
	}
	if folded != nil {
		return *folded, true
	}
	if canonical, ok := aliases[lower]; ok {
		for _, n := range nodes {
			if n.ID == canonical {
				return n, true
			}
		}
	}
	return model.EnrichedNode{}, false
}

func titlesOrEmpty(titles []model.Title) []model.Title {
	if titles == nil {
		return []model.Title{}
	}
	return titles
}
