// Package authorization decides which roles may perform which actions on the
// settlement resources.
package authorization

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/railzwaylabs/clubsettle/internal/config"
	"github.com/railzwaylabs/clubsettle/internal/errs"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("authorization",
	fx.Provide(New),
)

const (
	ObjectSettlement    = "settlement"
	ObjectLedger        = "ledger"
	ObjectCarryForward  = "carry_forward"
	ObjectBankStatement = "bank_statement"
	ObjectImport        = "import"
	ObjectRate          = "rate"
	ObjectAudit         = "audit"
)

const (
	ActionRead     = "read"
	ActionWrite    = "write"
	ActionFinalize = "finalize"
	ActionVoid     = "void"
	ActionDelete   = "delete"
)

var ErrForbidden = errs.Forbidden("forbidden")

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// Each role inherits the one below it: owner > admin > finance > viewer.
var defaultGroupings = [][]string{
	{"owner", "admin"},
	{"admin", "finance"},
	{"finance", "viewer"},
}

var defaultPolicies = [][]string{
	{"viewer", "*", ActionRead},

	{"finance", ObjectLedger, ActionWrite},
	{"finance", ObjectLedger, ActionDelete},
	{"finance", ObjectBankStatement, ActionWrite},
	{"finance", ObjectImport, ActionWrite},
	{"finance", ObjectImport, ActionDelete},
	{"finance", ObjectCarryForward, ActionWrite},

	{"admin", ObjectSettlement, ActionFinalize},
	{"admin", ObjectSettlement, ActionVoid},
	{"admin", ObjectRate, ActionWrite},

	{"owner", "*", "*"},
}

type Authorizer interface {
	Authorize(ctx context.Context, role, object, action string) error
}

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	log      *zap.Logger
}

// New loads policies from the casbin_rule table, seeding the defaults when
// configured to.
func New(conn *gorm.DB, cfg config.Config, log *zap.Logger) (Authorizer, error) {
	return NewEnforcer(conn, cfg.Auth.SeedPolicies, log)
}

func NewEnforcer(conn *gorm.DB, seed bool, log *zap.Logger) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(conn)
	if err != nil {
		return nil, fmt.Errorf("casbin adapter: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	enf := &Enforcer{enforcer: e, log: log.Named("authorization")}
	if seed {
		if err := enf.seed(); err != nil {
			return nil, err
		}
	}
	return enf, nil
}

// seed adds the default rules; rules already present are left alone.
func (e *Enforcer) seed() error {
	added := 0
	for _, g := range defaultGroupings {
		ok, err := e.enforcer.AddGroupingPolicy(g[0], g[1])
		if err != nil {
			return fmt.Errorf("seed grouping %v: %w", g, err)
		}
		if ok {
			added++
		}
	}
	for _, p := range defaultPolicies {
		ok, err := e.enforcer.AddPolicy(p[0], p[1], p[2])
		if err != nil {
			return fmt.Errorf("seed policy %v: %w", p, err)
		}
		if ok {
			added++
		}
	}
	if added > 0 {
		e.log.Info("seeded authorization policies", zap.Int("rules", added))
	}
	return nil
}

func (e *Enforcer) Authorize(ctx context.Context, role, object, action string) error {
	if role == "" {
		return ErrForbidden
	}
	ok, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return err
	}
	if !ok {
		e.log.Debug("permission denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}
