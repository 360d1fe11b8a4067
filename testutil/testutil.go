// Package testutil holds the in-memory database and fakes shared by the
// package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"caketime/configs"
	"caketime/entity"
	"caketime/events"
	"caketime/pkg/gateway"
	"caketime/pkg/mailer"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with the full schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, configs.SetupDatabase(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func Config() *configs.Config {
	return &configs.Config{
		AppEnv:               "test",
		Port:                 "0",
		DBDriver:             "sqlite",
		JWTSecret:            "customer-secret-for-tests",
		JWTTTL:               time.Hour,
		AdminJWTSecret:       "admin-secret-for-tests-only",
		AdminJWTTTL:          time.Hour,
		StripePublishableKey: "pk_test_caketime",
		Currency:             "inr",
		AdminEmail:           "owner@thecaketime.in",
		FrontendURL:          "http://localhost:3000",
		RateLimitRequests:    1000,
		RateLimitWindow:      time.Minute,
	}
}

func Logger() *zap.Logger { return zap.NewNop() }

func SeedProduct(t *testing.T, db *gorm.DB, name, price string, inStock bool) *entity.Product {
	t.Helper()
	p := &entity.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: entity.CategoryCakes,
		Flavor:   "chocolate",
		Images:   []string{"/img/" + uuid.NewString()[:8] + ".jpg"},
		InStock:  inStock,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// ---------------- Gateway ----------------

// FakeGateway serves intents from a map unless a func field overrides it.
type FakeGateway struct {
	mu      sync.Mutex
	Intents map[string]*gateway.Intent
	Created []gateway.IntentParams
	Session []gateway.CheckoutParams

	ParseWebhookFunc func(payload []byte, signature string) (*gateway.WebhookEvent, error)
	GetIntentFunc    func(ctx context.Context, id string) (*gateway.Intent, error)
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{Intents: map[string]*gateway.Intent{}}
}

func (g *FakeGateway) PutIntent(in *gateway.Intent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Intents[in.ID] = in
}

func (g *FakeGateway) CreateIntent(_ context.Context, p gateway.IntentParams) (*gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Created = append(g.Created, p)
	id := "pi_" + uuid.NewString()[:12]
	in := &gateway.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       gateway.IntentRequiresPayment,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Metadata:     p.Metadata,
	}
	g.Intents[id] = in
	return in, nil
}

func (g *FakeGateway) GetIntent(ctx context.Context, id string) (*gateway.Intent, error) {
	if g.GetIntentFunc != nil {
		return g.GetIntentFunc(ctx, id)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.Intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent: %s", id)
	}
	cp := *in
	return &cp, nil
}

func (g *FakeGateway) CreateCheckoutSession(_ context.Context, p gateway.CheckoutParams) (*gateway.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Session = append(g.Session, p)
	id := "cs_test_" + uuid.NewString()[:8]
	return &gateway.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id, Metadata: p.Metadata}, nil
}

func (g *FakeGateway) ParseWebhook(payload []byte, signature string) (*gateway.WebhookEvent, error) {
	if g.ParseWebhookFunc != nil {
		return g.ParseWebhookFunc(payload, signature)
	}
	return nil, gateway.ErrNotConfigured
}

// ---------------- Mailer ----------------

type FakeMailer struct {
	mu   sync.Mutex
	Sent []mailer.Message
	Err  error
}

func (m *FakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *FakeMailer) Messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.Sent...)
}

// ---------------- Publisher ----------------

type RecordingPublisher struct {
	mu     sync.Mutex
	Events []events.OrderEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, ev events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, ev)
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Types lists the published event types in order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, ev := range p.Events {
		out = append(out, ev.Type)
	}
	return out
}
