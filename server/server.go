// Package server exposes store management and tree queries over HTTP.
package server

import (
	"path/filepath"
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vs74/pagetree/kvtree"
	"github.com/vs74/pagetree/store"
)

// Handler serves store operations, keeping opened stores around
// between requests.
type Handler struct {
	root string
	log  *zap.Logger

	mu   sync.Mutex
	open map[string]*store.Store
}

// NewHandler creates a handler over the given store root directory.
func NewHandler(root string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		root: root,
		log:  log,
		open: make(map[string]*store.Store),
	}
}

func (h *Handler) getStore(storeID string) (*store.Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.open[storeID]; ok {
		return s, nil
	}
	s, err := store.LoadStore(filepath.Join(h.root, storeID), store.WithLogger(h.log))
	if err != nil {
		return nil, err
	}
	h.open[storeID] = s
	return s, nil
}

// App builds the fiber application with all routes registered.
func (h *Handler) App() *fiber.App {
	app := fiber.New()

	app.Get("/stores", func(c *fiber.Ctx) error {
		ids, err := store.ListStores(h.root)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"stores": ids})
	})

	app.Post("/create-store", func(c *fiber.Ctx) error {
		storeID := store.NewStoreID()
		s, err := store.NewStore(filepath.Join(h.root, storeID), storeID, store.WithLogger(h.log))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		h.mu.Lock()
		h.open[storeID] = s
		h.mu.Unlock()
		h.log.Info("store created", zap.String("storeID", storeID))
		return c.JSON(fiber.Map{"status": "created", "storeID": storeID})
	})

	app.Get("/trees", func(c *fiber.Ctx) error {
		storeID := c.Query("storeID")
		if storeID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "storeID required"})
		}
		s, err := h.getStore(storeID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"trees": s.ListTrees()})
	})

	app.Post("/create-tree", func(c *fiber.Ctx) error {
		var body struct {
			StoreID  string `json:"storeID"`
			Name     string `json:"name"`
			PageSize int    `json:"pageSize"`
		}
		if err := c.BodyParser(&body); err != nil || body.StoreID == "" || body.Name == "" || body.PageSize < 256 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "storeID, name and pageSize>=256 required"})
		}
		s, err := h.getStore(body.StoreID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		if err := s.CreateTree(body.Name, body.PageSize); err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "tree created"})
	})

	app.Post("/insert", func(c *fiber.Ctx) error {
		var body struct {
			StoreID string `json:"storeID"`
			Tree    string `json:"tree"`
			Key     string `json:"key"`
			Value   string `json:"value"`
		}
		if err := c.BodyParser(&body); err != nil || body.StoreID == "" || body.Tree == "" || body.Key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "storeID, tree and key required"})
		}
		kt, err := h.tree(body.StoreID, body.Tree)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		if err := kt.Insert(body.Key, body.Value); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "inserted"})
	})

	app.Get("/find", func(c *fiber.Ctx) error {
		kt, err := h.tree(c.Query("storeID"), c.Query("tree"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		value, found, err := kt.Find(c.Query("key"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "key not found"})
		}
		return c.JSON(fiber.Map{"key": c.Query("key"), "value": value})
	})

	app.Delete("/delete", func(c *fiber.Ctx) error {
		kt, err := h.tree(c.Query("storeID"), c.Query("tree"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		deleted, err := kt.Delete(c.Query("key"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if !deleted {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "key not found"})
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})

	app.Get("/nearest", func(c *fiber.Ctx) error {
		kt, err := h.tree(c.Query("storeID"), c.Query("tree"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		k := c.QueryInt("k", 1)
		results, err := kt.Nearest(c.Query("query"), k)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"results": results})
	})

	app.Get("/stats", func(c *fiber.Ctx) error {
		kt, err := h.tree(c.Query("storeID"), c.Query("tree"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		stats := kt.Statistics()
		return c.JSON(fiber.Map{
			"reads":  stats.ReadOperations(),
			"writes": stats.WriteOperations(),
		})
	})

	app.Get("/header", func(c *fiber.Ctx) error {
		kt, err := h.tree(c.Query("storeID"), c.Query("tree"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		caps := kt.Capacities()
		return c.JSON(fiber.Map{
			"pageSize":     kt.PageSize(),
			"dirCapacity":  caps.DirCapacity,
			"leafCapacity": caps.LeafCapacity,
			"dirMinimum":   caps.DirMinimum,
			"leafMinimum":  caps.LeafMinimum,
		})
	})

	return app
}

func (h *Handler) tree(storeID, name string) (*kvtree.KVTree, error) {
	s, err := h.getStore(storeID)
	if err != nil {
		return nil, err
	}
	return s.GetTree(name)
}

// Run serves the store root at ./files on the given address.
func Run(addr string, log *zap.Logger) error {
	h := NewHandler(filepath.Join(".", "files"), log)
	log.Info("listening", zap.String("addr", addr))
	return h.App().Listen(addr)
}
