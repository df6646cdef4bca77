package handlers

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"BloodLink/internal/matcher"
	"BloodLink/internal/pipeline"
	"BloodLink/internal/store"
	"BloodLink/pkg/metrics"
)

type Handlers struct {
	db        *gorm.DB
	requests  *store.RequestStore
	hospitals *store.HospitalStore
	stock     *store.StockStore
	alerts    *store.AlertStore
	records   *store.NotificationStore
	matcher   *matcher.Matcher
	pipeline  *pipeline.Pipeline
	met       *metrics.Metrics
	log       *zap.Logger
}

func New(
	db *gorm.DB,
	requests *store.RequestStore,
	hospitals *store.HospitalStore,
	stock *store.StockStore,
	alerts *store.AlertStore,
	records *store.NotificationStore,
	m *matcher.Matcher,
	p *pipeline.Pipeline,
	met *metrics.Metrics,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		db:        db,
		requests:  requests,
		hospitals: hospitals,
		stock:     stock,
		alerts:    alerts,
		records:   records,
		matcher:   m,
		pipeline:  p,
		met:       met,
		log:       log,
	}
}
