package handler

import (
	"sync"
	"time"

	"github.com/habitloop/internal/service"
	"github.com/habitloop/internal/store"
	"github.com/habitloop/internal/syncstore"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	sync        *syncstore.Store
	reflections *service.ReflectionRenderer
	log         zerolog.Logger
	dayBoundary *time.Location
	seedSamples bool

	mu     sync.Mutex
	stores map[uint]*store.Store
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, syncStore *syncstore.Store, logger zerolog.Logger, dayBoundary *time.Location, seedSamples bool) *API {
	if dayBoundary == nil {
		dayBoundary = time.Local
	}

	return &API{
		db:          gdb,
		sync:        syncStore,
		reflections: service.NewReflectionRenderer(),
		log:         logger,
		dayBoundary: dayBoundary,
		seedSamples: seedSamples,
		stores:      make(map[uint]*store.Store),
	}
}

// storeFor 返回绑定到指定用户的存储，按需懒加载
// 同一用户会话共享一个存储实例，符合单写者假设
func (a *API) storeFor(userID uint) *store.Store {
	a.mu.Lock()
	st, ok := a.stores[userID]
	if !ok {
		st = store.New(a.sync.ForUser(userID), a.log, a.dayBoundary)
		a.stores[userID] = st
	}
	a.mu.Unlock()

	<-st.Ready()
	if !ok && a.seedSamples {
		st.SeedDefaults()
	}
	return st
}

// Close 释放全部用户存储的远端订阅
func (a *API) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, st := range a.stores {
		st.Close()
	}
	a.stores = make(map[uint]*store.Store)
}
