package producer

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Lutefd/log-pipeline/internal/model"
	"github.com/google/uuid"
)

const (
	userPoolSize  = 100
	itemPoolSize  = 50
	minAmount     = 10.0
	maxAmount     = 1000.0
	minResponseMs = 10
	maxResponseMs = 2000
	maxStock      = 10
	environment   = "production"
)

var (
	httpMethods = []string{"GET", "POST", "PUT", "DELETE"}
	endpoints   = []string{"/api/users", "/api/orders", "/api/products", "/api/payments"}
	statusCodes = []int{200, 201, 400, 404, 500}
	hosts       = []string{"server-01", "server-02", "server-03"}
)

type Template int

const (
	TemplateUserLogin Template = iota
	TemplatePaymentProcessed
	TemplateStockAlert
	TemplateHTTPRequest
	TemplateConnectionTimeout
	TemplatePaymentFailed
	TemplateLoginAttempt
	TemplateQueryFailed
	templateCount
)

type template struct {
	service  string
	level    model.LogLevel
	category model.Category
	fill     func(g *Generator, r *model.LogRecord)
}

var templates = [templateCount]template{
	TemplateUserLogin: {
		service: "user-service", level: model.LogLevelInfo, category: model.CategoryAuth,
		fill: func(g *Generator, r *model.LogRecord) {
			r.UserID = g.userID()
			r.Message = fmt.Sprintf("User %s logged in successfully", r.UserID)
		},
	},
	TemplatePaymentProcessed: {
		service: model.PaymentService, level: model.LogLevelInfo, category: model.CategoryPayment,
		fill: func(g *Generator, r *model.LogRecord) {
			r.UserID = g.userID()
			r.Amount = model.Float64(g.amount())
			r.TransactionID = fmt.Sprintf("txn_%08x", g.rand.Uint32())
			r.Message = fmt.Sprintf("Payment processed for user %s: $%.2f", r.UserID, *r.Amount)
		},
	},
	TemplateStockAlert: {
		service: "inventory-service", level: model.LogLevelWarn, category: model.CategoryInventory,
		fill: func(g *Generator, r *model.LogRecord) {
			r.ItemID = fmt.Sprintf("item_%d", g.rand.IntN(itemPoolSize)+1)
			r.CurrentStock = model.Int(g.rand.IntN(maxStock))
			r.Message = fmt.Sprintf("Low stock alert for %s: %d units remaining", r.ItemID, *r.CurrentStock)
		},
	},
	TemplateHTTPRequest: {
		service: "api-gateway", level: model.LogLevelInfo, category: model.CategoryHTTP,
		fill: func(g *Generator, r *model.LogRecord) {
			r.HTTPMethod = pick(g, httpMethods)
			r.Endpoint = pick(g, endpoints)
			r.ResponseTimeMs = model.Int(minResponseMs + g.rand.IntN(maxResponseMs-minResponseMs))
			r.StatusCode = model.Int(pick(g, statusCodes))
			r.Message = fmt.Sprintf("%s %s completed in %dms", r.HTTPMethod, r.Endpoint, *r.ResponseTimeMs)
		},
	},
	TemplateConnectionTimeout: {
		service: "api-gateway", level: model.LogLevelError, category: model.CategorySystem,
		fill: func(g *Generator, r *model.LogRecord) {
			r.Endpoint = pick(g, endpoints)
			r.Message = fmt.Sprintf("Connection timeout after 30s calling %s", r.Endpoint)
		},
	},
	TemplatePaymentFailed: {
		service: model.PaymentService, level: model.LogLevelError, category: model.CategoryPayment,
		fill: func(g *Generator, r *model.LogRecord) {
			r.UserID = g.userID()
			r.Message = fmt.Sprintf("Payment failed for user %s: card declined", r.UserID)
		},
	},
	TemplateLoginAttempt: {
		service: "auth-service", level: model.LogLevelWarn, category: model.CategoryAuth,
		fill: func(g *Generator, r *model.LogRecord) {
			r.UserID = g.userID()
			r.Message = fmt.Sprintf("Suspicious login attempt for user %s", r.UserID)
		},
	},
	TemplateQueryFailed: {
		service: "order-service", level: model.LogLevelError, category: model.CategorySystem,
		fill: func(g *Generator, r *model.LogRecord) {
			r.Message = "Database query failed: deadlock detected"
		},
	},
}

type Generator struct {
	rand  *rand.Rand
	now   func() time.Time
	newID func() uuid.UUID
}

type GeneratorOption func(*Generator)

func WithRand(r *rand.Rand) GeneratorOption {
	return func(g *Generator) {
		g.rand = r
	}
}

func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

func WithIDs(newID func() uuid.UUID) GeneratorOption {
	return func(g *Generator) {
		g.newID = newID
	}
}

func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rand:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:   time.Now,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate fills a uniformly chosen template.
func (g *Generator) Generate() model.LogRecord {
	return g.GenerateTemplate(Template(g.rand.IntN(int(templateCount))))
}

func (g *Generator) GenerateTemplate(t Template) model.LogRecord {
	tpl := templates[t]
	record := model.LogRecord{
		Timestamp:   g.now().UTC().Format(time.RFC3339Nano),
		Service:     tpl.service,
		Level:       tpl.level,
		Category:    tpl.category,
		Host:        pick(g, hosts),
		Environment: environment,
		RequestID:   g.newID().String(),
	}
	tpl.fill(g, &record)
	return record
}

func (g *Generator) userID() string {
	return fmt.Sprintf("user_%d", g.rand.IntN(userPoolSize)+1)
}

// amount is uniform in [10, 1000) truncated to cents.
func (g *Generator) amount() float64 {
	v := minAmount + g.rand.Float64()*(maxAmount-minAmount)
	return math.Floor(v*100) / 100
}

func pick[T any](g *Generator, values []T) T {
	return values[g.rand.IntN(len(values))]
}
